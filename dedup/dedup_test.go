package dedup

import (
	"context"
	"errors"
	"testing"

	"scraperofertas/dedupe"
	"scraperofertas/models"
)

type fakeRepo struct {
	offers  map[string]bool
	coupons map[string]bool
	byMLB   map[string]bool
	err     error
	calls   int
}

func (r *fakeRepo) ExistsOffer(_ context.Context, _, chaveDedupe, mlbID string) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	if r.offers[chaveDedupe] {
		return true, nil
	}
	return mlbID != "" && r.byMLB[mlbID], nil
}

func (r *fakeRepo) ExistsCoupon(_ context.Context, chaveDedupe string) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	return r.coupons[chaveDedupe], nil
}

type fakeCache struct {
	seen      map[string]bool
	existsErr error
	setErr    error
	sets      []string
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	if c.existsErr != nil {
		return false, c.existsErr
	}
	return c.seen[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string) error {
	if c.setErr != nil {
		return c.setErr
	}
	if c.seen == nil {
		c.seen = map[string]bool{}
	}
	c.seen[key] = true
	c.sets = append(c.sets, key)
	return nil
}

const offerURL = "https://www.mercadolivre.com.br/p/MLB123456789"

func offerKeyFor(rawURL string) string {
	return dedupe.BuildOfferKey(dedupe.ExtractMLBID(rawURL), "", dedupe.NormalizeURL(rawURL))
}

func TestOfferDedupDBHitBackfillsCache(t *testing.T) {
	key := offerKeyFor(offerURL)
	repo := &fakeRepo{offers: map[string]bool{key: true}}
	cache := &fakeCache{}
	d := NewOfferDedup(repo, cache, models.ScraperOfertas, "ml_ofertas")

	seen, err := d.IsSeenByURL(context.Background(), offerURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatalf("row exists in db, expected seen")
	}
	if !cache.seen["ofertas:"+key] {
		t.Fatalf("db hit must backfill cache, sets: %v", cache.sets)
	}
}

func TestOfferDedupDBMissFallsBackToCache(t *testing.T) {
	key := offerKeyFor(offerURL)
	repo := &fakeRepo{}
	cache := &fakeCache{seen: map[string]bool{"ofertas:" + key: true}}
	d := NewOfferDedup(repo, cache, models.ScraperOfertas, "ml_ofertas")

	seen, err := d.IsSeenByURL(context.Background(), offerURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatalf("cache hit should report seen when db misses")
	}
}

func TestOfferDedupUnseen(t *testing.T) {
	d := NewOfferDedup(&fakeRepo{}, &fakeCache{}, models.ScraperOfertas, "ml_ofertas")
	seen, err := d.IsSeenByURL(context.Background(), offerURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Fatalf("nothing stored anywhere, expected not seen")
	}
}

func TestOfferDedupCacheErrorDegradesToNotSeen(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeCache{existsErr: errors.New("redis down")}
	d := NewOfferDedup(repo, cache, models.ScraperOfertas, "ml_ofertas")

	seen, err := d.IsSeenByURL(context.Background(), offerURL)
	if err != nil {
		t.Fatalf("cache failure must not fail the check: %v", err)
	}
	if seen {
		t.Fatalf("cache failure must degrade to not seen")
	}
}

func TestOfferDedupRepoErrorPropagates(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	d := NewOfferDedup(repo, &fakeCache{}, models.ScraperOfertas, "ml_ofertas")

	if _, err := d.IsSeenByURL(context.Background(), offerURL); err == nil {
		t.Fatalf("repository failure must propagate")
	}
}

func TestOfferDedupMarkSeenSwallowsCacheError(t *testing.T) {
	cache := &fakeCache{setErr: errors.New("redis down")}
	d := NewOfferDedup(&fakeRepo{}, cache, models.ScraperOfertas, "ml_ofertas")
	// Must not panic or surface the error.
	d.MarkSeen(context.Background(), "mlb:MLB1")
}

func TestCouponDedupOrderAndBackfill(t *testing.T) {
	key := dedupe.BuildCouponKey("https://example.com/cupons", "Cupom 10", "10%")
	repo := &fakeRepo{coupons: map[string]bool{key: true}}
	cache := &fakeCache{}
	d := NewCouponDedup(repo, cache)

	seen, err := d.IsSeen(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatalf("coupon exists in db, expected seen")
	}
	if !cache.seen["cupons:"+key] {
		t.Fatalf("db hit must backfill cache")
	}

	// Fresh service with empty db but warm cache still reports seen.
	d2 := NewCouponDedup(&fakeRepo{}, cache)
	seen, err = d2.IsSeen(context.Background(), key)
	if err != nil || !seen {
		t.Fatalf("warm cache should report seen, got %v %v", seen, err)
	}
}
