// Package scheduler fires full scraping rounds on a cron expression or a
// fixed interval. The run itself is injected, so the scheduler knows
// nothing about browsers or databases.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one full scraping round.
type RunFunc func(ctx context.Context)

type Scheduler struct {
	cronExpr string
	interval time.Duration
	run      RunFunc
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}
	running  chan struct{}
}

func New(cronExpr string, interval time.Duration, run RunFunc) *Scheduler {
	return &Scheduler{
		cronExpr: cronExpr,
		interval: interval,
		run:      run,
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
		running:  make(chan struct{}, 1),
	}
}

// Start arms the schedule. Cron wins over interval when both are set; with
// neither, Start fails instead of idling silently.
func (s *Scheduler) Start(ctx context.Context) error {
	switch {
	case s.cronExpr != "":
		log.Printf("Scheduler armed with cron: %s", s.cronExpr)
		_, err := s.cron.AddFunc(s.cronExpr, func() { s.fire(ctx) })
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	case s.interval > 0:
		log.Printf("Scheduler armed with interval: %s", s.interval)
		s.ticker = time.NewTicker(s.interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.fire(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	default:
		return fmt.Errorf("no schedule configured: set a cron expression or an interval")
	}
	return nil
}

// fire runs one round unless the previous one is still going. Rounds
// drive a single browser profile, so overlap would corrupt both.
func (s *Scheduler) fire(ctx context.Context) {
	select {
	case s.running <- struct{}{}:
	default:
		log.Println("Previous round still running, skipping this tick")
		return
	}
	defer func() { <-s.running }()

	s.run(ctx)
}

// TriggerNow runs one round immediately, respecting the overlap guard.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.fire(ctx)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}
