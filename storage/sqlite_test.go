package storage

import (
	"path/filepath"
	"testing"

	"scraperofertas/models"
)

func newTestRunStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := NewRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open run store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunStoreLifecycle(t *testing.T) {
	store := newTestRunStore(t)

	id, err := store.CreateRun("a1b2c3d4", models.ScraperOfertas)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	result := models.NewJobResult(models.ScraperOfertas)
	result.TotalColetados = 10
	result.Novos = 6
	result.Existentes = 3
	result.Erros = 1

	if err := store.FinishRun(id, models.RunStatusCompleted, result, ""); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	runs, err := store.RecentRuns(5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed, got %s", run.Status)
	}
	if run.Novos != 6 || run.Existentes != 3 || run.Erros != 1 || run.Coletados != 10 {
		t.Fatalf("counters not persisted: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatalf("finished_at should be set")
	}
}

func TestRunStoreFailedRunWithoutResult(t *testing.T) {
	store := newTestRunStore(t)

	id, err := store.CreateRun("deadbeef", models.ScraperCupons)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.FinishRun(id, models.RunStatusFailed, nil, "job timeout"); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	runs, err := store.RecentRuns(5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != models.RunStatusFailed {
		t.Fatalf("expected one failed run, got %+v", runs)
	}
	if runs[0].ErrorDetail != "job timeout" {
		t.Fatalf("expected error detail, got %q", runs[0].ErrorDetail)
	}
}

func TestRunStoreRecentRunsOrderAndLimit(t *testing.T) {
	store := newTestRunStore(t)

	for i := 0; i < 4; i++ {
		if _, err := store.CreateRun("run", models.ScraperOfertas); err != nil {
			t.Fatalf("create run %d: %v", i, err)
		}
	}
	runs, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit 2, got %d", len(runs))
	}
}
