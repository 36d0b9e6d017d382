package jobs

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"scraperofertas/models"
	"scraperofertas/scraper"
)

// EngineFactory builds a fresh engine for one job. Each job gets its own
// browser so a crashed page never leaks into the next job.
type EngineFactory func() (scraper.Engine, error)

// RunRecorder persists run history. Nil disables recording.
type RunRecorder interface {
	CreateRun(jobID, scraperType string) (int64, error)
	FinishRun(id int64, status models.RunStatus, result *models.JobResult, errDetail string) error
}

// JobOutcome is the terminal state of one job inside a full round.
type JobOutcome struct {
	ScraperType string            `json:"scraper_type"`
	Result      *models.JobResult `json:"result,omitempty"`
	Err         error             `json:"-"`
	ErrDetail   string            `json:"erro,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// AllJobsReport aggregates one full sequential round.
type AllJobsReport struct {
	Ofertas          JobOutcome `json:"ofertas"`
	OfertasRelampago JobOutcome `json:"ofertas_relampago"`
	Cupons           JobOutcome `json:"cupons"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       time.Time  `json:"finished_at"`
}

// JobParams resolves the start URL and item limit for one scraper type,
// letting per-job configuration flow in without the runner knowing about
// config files.
type JobParams func(scraperType string) (startURL string, maxItems int)

// FixedParams is the no-override resolver: default start URL, one limit
// for every job.
func FixedParams(maxItems int) JobParams {
	return func(string) (string, int) { return "", maxItems }
}

// RunAll executes the three job types in a fixed sequence with one engine
// and one timeout per job. A failed or timed-out job is recorded and the
// sequence continues; the site's offer pages share browser state, so jobs
// never run concurrently.
func RunAll(ctx context.Context, runner *Runner, factory EngineFactory, params JobParams, timeout time.Duration, recorder RunRecorder) *AllJobsReport {
	report := &AllJobsReport{StartedAt: time.Now()}

	report.Ofertas = runOne(ctx, runner, factory, models.ScraperOfertas, params, timeout, recorder)
	report.OfertasRelampago = runOne(ctx, runner, factory, models.ScraperOfertasRelampago, params, timeout, recorder)
	report.Cupons = runOne(ctx, runner, factory, models.ScraperCupons, params, timeout, recorder)

	report.FinishedAt = time.Now()
	return report
}

func runOne(ctx context.Context, runner *Runner, factory EngineFactory, scraperType string, params JobParams, timeout time.Duration, recorder RunRecorder) JobOutcome {
	outcome := JobOutcome{ScraperType: scraperType}
	start := time.Now()
	defer func() {
		outcome.Duration = time.Since(start)
		if outcome.Err != nil {
			outcome.ErrDetail = outcome.Err.Error()
		}
	}()

	runID := recordStart(recorder, scraperType)

	engine, err := factory()
	if err != nil {
		outcome.Err = err
		log.Printf("Engine start failed | scraper_type=%s erro=%v", scraperType, err)
		recordFinish(recorder, runID, models.RunStatusFailed, nil, err.Error())
		return outcome
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Printf("Engine close failed | scraper_type=%s erro=%v", scraperType, err)
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startURL, maxItems := params(scraperType)
	result, err := runner.Execute(jobCtx, scraperType, maxItems, engine, startURL)
	outcome.Result = result
	outcome.Err = err
	if err != nil {
		log.Printf("Job failed | scraper_type=%s erro=%v", scraperType, err)
		recordFinish(recorder, runID, models.RunStatusFailed, result, err.Error())
		return outcome
	}

	recordFinish(recorder, runID, models.RunStatusCompleted, result, "")
	return outcome
}

func recordStart(recorder RunRecorder, scraperType string) int64 {
	if recorder == nil {
		return 0
	}
	id, err := recorder.CreateRun(uuid.NewString()[:8], scraperType)
	if err != nil {
		log.Printf("Run history create failed | scraper_type=%s erro=%v", scraperType, err)
		return 0
	}
	return id
}

func recordFinish(recorder RunRecorder, runID int64, status models.RunStatus, result *models.JobResult, errDetail string) {
	if recorder == nil || runID == 0 {
		return
	}
	if err := recorder.FinishRun(runID, status, result, errDetail); err != nil {
		log.Printf("Run history finish failed | erro=%v", err)
	}
}
