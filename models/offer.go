package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"scraperofertas/dedupe"
)

// RawOffer is the loosely-typed payload produced by the scraping engine for
// one product page. Monetary and percentage fields arrive as scraped text;
// all coercion happens in OfferFromRaw. Status "erro" carries an extraction
// failure description in Erro instead of raising.
type RawOffer struct {
	URLOriginal     string `json:"url_original"`
	URLCurta        string `json:"url_curta,omitempty"`
	URLAfiliado     string `json:"url_afiliado,omitempty"`
	ProductID       string `json:"product_id,omitempty"`
	MLBID           string `json:"mlb_id,omitempty"`
	Nome            string `json:"nome,omitempty"`
	FotoURL         string `json:"foto_url,omitempty"`
	PrecoAtual      string `json:"preco_atual,omitempty"`
	PrecoOriginal   string `json:"preco_original,omitempty"`
	Desconto        string `json:"desconto,omitempty"`
	TempoParaAcabar string `json:"tempo_para_acabar,omitempty"`
	Status          string `json:"status,omitempty"`
	Erro            string `json:"erro,omitempty"`
}

// Offer is a normalized marketplace listing, keyed by ChaveDedupe.
type Offer struct {
	MLBID           string           `json:"mlb_id,omitempty"`
	ChaveDedupe     string           `json:"chave_dedupe"`
	URLOriginal     string           `json:"url_original"`
	URLCurta        string           `json:"url_curta,omitempty"`
	URLAfiliado     string           `json:"url_afiliado,omitempty"`
	ProductID       string           `json:"product_id,omitempty"`
	Nome            string           `json:"nome,omitempty"`
	FotoURL         string           `json:"foto_url,omitempty"`
	PrecoAtual      *decimal.Decimal `json:"preco_atual,omitempty"`
	PrecoOriginal   *decimal.Decimal `json:"preco_original,omitempty"`
	Desconto        *int             `json:"desconto,omitempty"`
	Status          string           `json:"status"`
	TempoParaAcabar string           `json:"tempo_para_acabar,omitempty"`
}

// OfferFromRaw normalizes a raw payload into an Offer. Every field is
// optional-with-default and coerced parse-or-null; missing data degrades the
// dedupe key to a lower-priority shape, it never fails construction.
// TempoParaAcabar is only carried for flash offers (includeTempo).
func OfferFromRaw(raw RawOffer, includeTempo bool) Offer {
	normalizedURL := dedupe.NormalizeURL(raw.URLOriginal)
	mlbID := strings.TrimSpace(raw.MLBID)
	if mlbID == "" {
		mlbID = dedupe.ExtractMLBID(normalizedURL)
	}

	offer := Offer{
		MLBID:         mlbID,
		URLOriginal:   normalizedURL,
		URLCurta:      strings.TrimSpace(raw.URLCurta),
		URLAfiliado:   strings.TrimSpace(raw.URLAfiliado),
		ProductID:     strings.TrimSpace(raw.ProductID),
		Nome:          strings.TrimSpace(raw.Nome),
		FotoURL:       strings.TrimSpace(raw.FotoURL),
		PrecoAtual:    decimalOrNil(raw.PrecoAtual),
		PrecoOriginal: decimalOrNil(raw.PrecoOriginal),
		Desconto:      intOrNil(raw.Desconto),
		Status:        statusOrDefault(raw.Status),
	}
	if includeTempo {
		offer.TempoParaAcabar = strings.TrimSpace(raw.TempoParaAcabar)
	}
	offer.ChaveDedupe = dedupe.BuildOfferKey(offer.MLBID, offer.ProductID, offer.URLOriginal)
	return offer
}

// MinimalRequired reports whether the offer can be persisted: the canonical
// URL anchors fallback identity and the dedupe key anchors the upsert.
func (o Offer) MinimalRequired() bool {
	return o.URLOriginal != "" && o.ChaveDedupe != ""
}

func statusOrDefault(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return StatusAtivo
}

func decimalOrNil(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func intOrNil(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Scraped discounts come as "37% OFF"; keep the leading integer.
	n := 0
	started := false
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			started = true
		} else if started {
			break
		} else if c != ' ' && c != '-' && c != '+' {
			break
		}
	}
	if !started {
		return nil
	}
	return &n
}

const (
	StatusAtivo = "ativo"
	StatusErro  = "erro"
)
