// Package dedup decides whether a scraped item has been seen before,
// combining the cache with the authoritative database. The database always
// wins: a cache hit never suppresses a DB check on the write path, and a
// DB hit repopulates the cache.
package dedup

import (
	"context"
	"log"

	"scraperofertas/dedupe"
	"scraperofertas/models"
)

// OfferRepo is the slice of the repository this service needs.
type OfferRepo interface {
	ExistsOffer(ctx context.Context, table, chaveDedupe, mlbID string) (bool, error)
}

// CouponRepo is the slice of the repository this service needs.
type CouponRepo interface {
	ExistsCoupon(ctx context.Context, chaveDedupe string) (bool, error)
}

// Cache is the seen-key accelerator. Errors from it are downgrades, never
// failures.
type Cache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string) error
}

// OfferDedup answers "have we stored this offer URL already" for one
// scraper type and its table.
type OfferDedup struct {
	repo        OfferRepo
	cache       Cache
	scraperType string
	table       string
}

func NewOfferDedup(repo OfferRepo, cache Cache, scraperType, table string) *OfferDedup {
	return &OfferDedup{repo: repo, cache: cache, scraperType: scraperType, table: table}
}

// IsSeenByURL derives the dedupe key from the URL and checks the database
// first. A DB hit backfills the cache so the next run skips the row
// lookup. A DB miss falls back to the cache, which may remember items
// written by a concurrent run.
func (d *OfferDedup) IsSeenByURL(ctx context.Context, rawURL string) (bool, error) {
	normalized := dedupe.NormalizeURL(rawURL)
	mlbID := dedupe.ExtractMLBID(rawURL)
	key := dedupe.BuildOfferKey(mlbID, "", normalized)

	inDB, err := d.repo.ExistsOffer(ctx, d.table, key, mlbID)
	if err != nil {
		return false, err
	}
	if inDB {
		d.MarkSeen(ctx, key)
		return true, nil
	}

	inCache, err := d.cache.Exists(ctx, dedupe.CacheKey(d.scraperType, key))
	if err != nil {
		log.Printf("cache exists failed for %s, treating as not seen: %v", key, err)
		return false, nil
	}
	return inCache, nil
}

// MarkSeen records the key in the cache. Failures are logged and dropped;
// the database remains correct without the cache.
func (d *OfferDedup) MarkSeen(ctx context.Context, dedupeKey string) {
	if err := d.cache.Set(ctx, dedupe.CacheKey(d.scraperType, dedupeKey)); err != nil {
		log.Printf("cache set failed for %s: %v", dedupeKey, err)
	}
}

// CouponDedup is the coupon counterpart; coupons carry no stable external
// id, so callers pass the precomputed content key.
type CouponDedup struct {
	repo  CouponRepo
	cache Cache
}

func NewCouponDedup(repo CouponRepo, cache Cache) *CouponDedup {
	return &CouponDedup{repo: repo, cache: cache}
}

func (d *CouponDedup) IsSeen(ctx context.Context, dedupeKey string) (bool, error) {
	inDB, err := d.repo.ExistsCoupon(ctx, dedupeKey)
	if err != nil {
		return false, err
	}
	if inDB {
		d.MarkSeen(ctx, dedupeKey)
		return true, nil
	}

	inCache, err := d.cache.Exists(ctx, dedupe.CacheKey(models.ScraperCupons, dedupeKey))
	if err != nil {
		log.Printf("cache exists failed for %s, treating as not seen: %v", dedupeKey, err)
		return false, nil
	}
	return inCache, nil
}

func (d *CouponDedup) MarkSeen(ctx context.Context, dedupeKey string) {
	if err := d.cache.Set(ctx, dedupe.CacheKey(models.ScraperCupons, dedupeKey)); err != nil {
		log.Printf("cache set failed for %s: %v", dedupeKey, err)
	}
}
