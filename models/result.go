package models

// Scraper types accepted by the job runner.
const (
	ScraperOfertas          = "ofertas"
	ScraperOfertasRelampago = "ofertas_relampago"
	ScraperCupons           = "cupons"
)

// TableByScraper maps offer scraper types to their Postgres tables.
var TableByScraper = map[string]string{
	ScraperOfertas:          "ml_ofertas",
	ScraperOfertasRelampago: "ml_ofertas_relampago",
}

const CouponTable = "ml_cupons"

// JobResult accumulates the outcome of one scraping run. It is mutated
// item by item while the job executes and treated as immutable once
// returned. Invariant: Novos + Existentes + Erros equals the number of
// items attempted.
type JobResult struct {
	ScraperType    string   `json:"scraper_type"`
	TotalColetados int      `json:"total_coletados"`
	Novos          int      `json:"novos"`
	Existentes     int      `json:"existentes"`
	Erros          int      `json:"erros"`
	Itens          []any    `json:"itens"`
	DetalhesErros  []string `json:"detalhes_erros"`
}

func NewJobResult(scraperType string) *JobResult {
	return &JobResult{ScraperType: scraperType}
}

// TotalProcessados is the number of items that reached a terminal state.
func (r *JobResult) TotalProcessados() int {
	return r.Novos + r.Existentes + r.Erros
}

// AddErro records one item-level failure without aborting the run.
func (r *JobResult) AddErro(detail string) {
	r.Erros++
	r.DetalhesErros = append(r.DetalhesErros, detail)
}
