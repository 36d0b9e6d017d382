package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"scraperofertas/models"
)

// RunStore keeps a local history of job runs in SQLite so the operator can
// inspect past rounds without touching Postgres. It is operational data
// only; losing the file loses nothing but history.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &RunStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *RunStore) Close() error {
	return s.db.Close()
}

func (s *RunStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS job_runs (
		id INTEGER PRIMARY KEY,
		job_id TEXT NOT NULL,
		scraper_type TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		coletados INTEGER DEFAULT 0,
		novos INTEGER DEFAULT 0,
		existentes INTEGER DEFAULT 0,
		erros INTEGER DEFAULT 0,
		error_detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_job_runs_started ON job_runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_job_runs_type ON job_runs(scraper_type, started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *RunStore) CreateRun(jobID, scraperType string) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO job_runs (job_id, scraper_type, started_at, status)
		VALUES (?, ?, ?, ?)`,
		jobID, scraperType, time.Now(), models.RunStatusRunning)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// FinishRun records the final counters. A nil result with errDetail marks
// a run that died before producing one.
func (s *RunStore) FinishRun(id int64, status models.RunStatus, result *models.JobResult, errDetail string) error {
	coletados, novos, existentes, erros := 0, 0, 0, 0
	if result != nil {
		coletados = result.TotalColetados
		novos = result.Novos
		existentes = result.Existentes
		erros = result.Erros
	}
	_, err := s.db.Exec(`
		UPDATE job_runs SET finished_at = ?, status = ?, coletados = ?,
			novos = ?, existentes = ?, erros = ?, error_detail = ?
		WHERE id = ?`,
		time.Now(), status, coletados, novos, existentes, erros, errDetail, id)
	return err
}

func (s *RunStore) RecentRuns(limit int) ([]models.JobRun, error) {
	rows, err := s.db.Query(`
		SELECT id, job_id, scraper_type, started_at, finished_at, status,
			coletados, novos, existentes, erros, COALESCE(error_detail, '')
		FROM job_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.JobRun
	for rows.Next() {
		var run models.JobRun
		if err := rows.Scan(&run.ID, &run.JobID, &run.ScraperType, &run.StartedAt,
			&run.FinishedAt, &run.Status, &run.Coletados, &run.Novos,
			&run.Existentes, &run.Erros, &run.ErrorDetail); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
