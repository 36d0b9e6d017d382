package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"scraperofertas/dedup"
	"scraperofertas/logging"
	"scraperofertas/models"
	"scraperofertas/scraper"
)

// OfferRepo is the repository surface the offers flow needs.
type OfferRepo interface {
	ExistsOffer(ctx context.Context, table, chaveDedupe, mlbID string) (bool, error)
	UpsertOffer(ctx context.Context, table string, o *models.Offer, includeTempo bool) (int64, bool, error)
}

// CouponRepo is the repository surface the coupons flow needs.
type CouponRepo interface {
	ExistsCoupon(ctx context.Context, chaveDedupe string) (bool, error)
	UpsertCoupon(ctx context.Context, c *models.Coupon) (int64, bool, error)
}

// Runner executes one scraping job end to end: collect, normalize,
// deduplicate, persist. Item failures are counted and skipped; the only
// error returns are an unknown scraper type and collection-level breakage.
type Runner struct {
	offers  OfferRepo
	coupons CouponRepo
	cache   dedup.Cache
}

func NewRunner(offers OfferRepo, coupons CouponRepo, cache dedup.Cache) *Runner {
	return &Runner{offers: offers, coupons: coupons, cache: cache}
}

// Execute runs one job of the given scraper type over the engine. The
// returned JobResult always satisfies novos+existentes+erros == items
// attempted, whatever mix of failures happened along the way.
func (r *Runner) Execute(ctx context.Context, scraperType string, maxItems int, engine scraper.Engine, startURL string) (*models.JobResult, error) {
	jobID := uuid.NewString()[:8]
	log.Printf("Starting scraping job | job_id=%s scraper_type=%s max_items=%d", jobID, scraperType, maxItems)

	var result *models.JobResult
	var err error
	switch scraperType {
	case models.ScraperOfertas, models.ScraperOfertasRelampago:
		result, err = r.runOffers(ctx, jobID, scraperType, maxItems, engine, startURL)
	case models.ScraperCupons:
		result, err = r.runCoupons(ctx, jobID, maxItems, engine)
	default:
		return nil, fmt.Errorf("scraper_type invalido: %s", scraperType)
	}
	if err != nil {
		return result, err
	}

	log.Printf("Job finished | job_id=%s scraper_type=%s novos=%d existentes=%d erros=%d",
		jobID, scraperType, result.Novos, result.Existentes, result.Erros)
	return result, nil
}

func (r *Runner) runOffers(ctx context.Context, jobID, scraperType string, maxItems int, engine scraper.Engine, startURL string) (*models.JobResult, error) {
	table := models.TableByScraper[scraperType]
	includeTempo := scraperType == models.ScraperOfertasRelampago

	result := models.NewJobResult(scraperType)
	d := dedup.NewOfferDedup(r.offers, r.cache, scraperType, table)

	links, err := engine.CollectOfferLinks(ctx, scraperType, maxItems, d.IsSeenByURL, startURL)
	if err != nil {
		return result, fmt.Errorf("collect links: %w", err)
	}
	result.TotalColetados = len(links)
	log.Printf("Links collected | job_id=%s scraper_type=%s total_links=%d", jobID, scraperType, len(links))

	for idx, link := range links {
		// Timeout or cancellation abandons the job; remaining links are
		// not burned through as per-item errors.
		if err := ctx.Err(); err != nil {
			return result, err
		}

		raw, err := engine.ExtractProduct(ctx, link, includeTempo)
		if err != nil {
			result.AddErro(err.Error())
			log.Printf("Product failed | job_id=%s index=%d erro=%v", jobID, idx+1, err)
			continue
		}
		if raw.Status == models.StatusErro {
			result.AddErro(fmt.Sprintf("Falha na extracao: %s: %s", link, raw.Erro))
			continue
		}

		offer := models.OfferFromRaw(raw, includeTempo)
		if !offer.MinimalRequired() {
			result.AddErro(fmt.Sprintf("Item sem campos minimos: %s", link))
			continue
		}

		// The collect-phase check is advisory; re-check against the
		// database right before writing.
		exists, err := r.offers.ExistsOffer(ctx, table, offer.ChaveDedupe, offer.MLBID)
		if err != nil {
			result.AddErro(err.Error())
			continue
		}
		if exists {
			result.Existentes++
			d.MarkSeen(ctx, offer.ChaveDedupe)
			continue
		}

		_, inserted, err := r.offers.UpsertOffer(ctx, table, &offer, includeTempo)
		if err != nil {
			result.AddErro(err.Error())
			continue
		}
		if inserted {
			result.Novos++
		} else {
			result.Existentes++
		}
		d.MarkSeen(ctx, offer.ChaveDedupe)
		result.Itens = append(result.Itens, raw)
		logging.Debugf("Product processed | job_id=%s scraper_type=%s index=%d status=%s dedupe=%s",
			jobID, scraperType, idx+1, raw.Status, offer.ChaveDedupe)
	}

	return result, nil
}

func (r *Runner) runCoupons(ctx context.Context, jobID string, maxItems int, engine scraper.Engine) (*models.JobResult, error) {
	result := models.NewJobResult(models.ScraperCupons)
	d := dedup.NewCouponDedup(r.coupons, r.cache)

	rawCoupons, err := engine.ScrapeCoupons(ctx, maxItems)
	if err != nil {
		return result, fmt.Errorf("scrape coupons: %w", err)
	}
	result.TotalColetados = len(rawCoupons)
	log.Printf("Coupons collected | job_id=%s total_cupons=%d", jobID, len(rawCoupons))

	for idx, raw := range rawCoupons {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		parsed := scraper.ParseCouponCard(raw)
		coupon := models.CouponFromParsed(parsed, raw.URLOrigem)
		if !coupon.MinimalRequired() {
			result.AddErro(fmt.Sprintf("Cupom sem campos minimos na posicao %d", idx+1))
			continue
		}

		seen, err := d.IsSeen(ctx, coupon.ChaveDedupe)
		if err != nil {
			result.AddErro(err.Error())
			continue
		}
		if seen {
			result.Existentes++
			continue
		}

		_, inserted, err := r.coupons.UpsertCoupon(ctx, &coupon)
		if err != nil {
			result.AddErro(err.Error())
			continue
		}
		if inserted {
			result.Novos++
		} else {
			result.Existentes++
		}
		d.MarkSeen(ctx, coupon.ChaveDedupe)
		result.Itens = append(result.Itens, parsed)
		logging.Debugf("Coupon processed | job_id=%s index=%d dedupe=%s", jobID, idx+1, coupon.ChaveDedupe)
	}

	return result, nil
}
