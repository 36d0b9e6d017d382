package scraper

import (
	"context"

	"scraperofertas/models"
)

// Mercado Livre entry points. A job may override the offers start URL.
const (
	OffersURL          = "https://www.mercadolivre.com.br/ofertas"
	OffersRelampagoURL = "https://www.mercadolivre.com.br/ofertas"
	CouponsURL         = "https://www.mercadolivre.com.br/cupons"
)

// SeenChecker lets the engine skip product pages that are already stored
// before spending a navigation on them.
type SeenChecker func(ctx context.Context, url string) (bool, error)

// Engine is the scraping boundary the job runner drives. Expected
// per-product failures come back inside the RawOffer (Status "erro" or
// "sem_link"), not as an error; the error return is for navigation-level
// breakage only.
type Engine interface {
	CollectOfferLinks(ctx context.Context, mode string, maxProdutos int, seen SeenChecker, startURL string) ([]string, error)
	ExtractProduct(ctx context.Context, url string, includeTempo bool) (models.RawOffer, error)
	ScrapeCoupons(ctx context.Context, maxCupons int) ([]models.RawCoupon, error)
	Close() error
}
