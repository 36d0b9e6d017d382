package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int); ok {
		*p = 1
	}
	return nil
}

// fakeQuerier answers the key and mlb_id lookups separately and counts how
// often each path is queried.
type fakeQuerier struct {
	keyHit   bool
	mlbHit   bool
	keyCalls int
	mlbCalls int
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "chave_dedupe"):
		q.keyCalls++
		if q.keyHit {
			return fakeRow{}
		}
	case strings.Contains(sql, "mlb_id"):
		q.mlbCalls++
		if q.mlbHit {
			return fakeRow{}
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func TestExistsOfferKeyHitSkipsMLBLookup(t *testing.T) {
	q := &fakeQuerier{keyHit: true}

	exists, err := existsOffer(context.Background(), q, "ml_ofertas", "mlb:MLB123456789", "MLB123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatalf("key hit must report existing")
	}
	if q.keyCalls != 1 {
		t.Fatalf("expected 1 key lookup, got %d", q.keyCalls)
	}
	if q.mlbCalls != 0 {
		t.Fatalf("key hit must short-circuit the mlb_id lookup, got %d", q.mlbCalls)
	}
}

func TestExistsOfferFallsBackToMLBOnKeyMiss(t *testing.T) {
	q := &fakeQuerier{mlbHit: true}

	exists, err := existsOffer(context.Background(), q, "ml_ofertas", "url:deadbeef00000000", "MLB123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatalf("mlb_id hit must report existing")
	}
	if q.keyCalls != 1 || q.mlbCalls != 1 {
		t.Fatalf("expected key then mlb lookup, got key=%d mlb=%d", q.keyCalls, q.mlbCalls)
	}
}

func TestExistsOfferNoMLBSkipsFallback(t *testing.T) {
	q := &fakeQuerier{}

	exists, err := existsOffer(context.Background(), q, "ml_ofertas", "url:deadbeef00000000", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatalf("double miss must report absent")
	}
	if q.mlbCalls != 0 {
		t.Fatalf("empty mlb_id must skip the fallback lookup, got %d", q.mlbCalls)
	}
}

func TestExistsOfferBothMiss(t *testing.T) {
	q := &fakeQuerier{}

	exists, err := existsOffer(context.Background(), q, "ml_ofertas", "mlb:MLB987654321", "MLB987654321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatalf("double miss must report absent")
	}
	if q.keyCalls != 1 || q.mlbCalls != 1 {
		t.Fatalf("expected both paths queried once, got key=%d mlb=%d", q.keyCalls, q.mlbCalls)
	}
}

func TestExistsOfferRejectsUnknownTable(t *testing.T) {
	s := &PostgresStore{}
	if _, err := s.ExistsOffer(context.Background(), "pg_catalog", "mlb:MLB1", ""); err == nil {
		t.Fatalf("unknown table must be rejected before touching the pool")
	}
}
