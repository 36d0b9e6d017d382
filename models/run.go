package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// JobRun is one execution of one scraper job, recorded locally for
// operational history. The counters mirror JobResult.
type JobRun struct {
	ID          int64      `json:"id" db:"id"`
	JobID       string     `json:"job_id" db:"job_id"`
	ScraperType string     `json:"scraper_type" db:"scraper_type"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at" db:"finished_at"`
	Status      RunStatus  `json:"status" db:"status"`
	Coletados   int        `json:"coletados" db:"coletados"`
	Novos       int        `json:"novos" db:"novos"`
	Existentes  int        `json:"existentes" db:"existentes"`
	Erros       int        `json:"erros" db:"erros"`
	ErrorDetail string     `json:"error_detail,omitempty" db:"error_detail"`
}
