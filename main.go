package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scraperofertas/cache"
	"scraperofertas/config"
	"scraperofertas/jobs"
	"scraperofertas/logging"
	"scraperofertas/scheduler"
	"scraperofertas/scraper"
	"scraperofertas/storage"
)

var (
	scrapeNow = flag.Bool("scrape", false, "Run one full round and exit")
	migrate   = flag.Bool("migrate", false, "Run database migrations and exit")
	stats     = flag.Bool("stats", false, "Print table totals and recent runs, then exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting scraperofertas...")

	ctx := context.Background()

	// Postgres holds the domain data; without it there is nothing to do.
	store, err := storage.NewPostgresStore(ctx, cfg.Database.ConnString())
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to Postgres: %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if *migrate {
		log.Println("Migrations applied")
		return
	}

	// The cache is an accelerator; cache.New degrades to the local file
	// backend on its own when Redis is unreachable.
	dedupeCache := cache.New(ctx, cache.Options{
		Backend:       cfg.Cache.Backend,
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		FilePath:      cfg.Cache.JSONFile,
		TTL:           cfg.Cache.TTL,
		KeyPrefix:     cfg.Cache.KeyPrefix,
	})
	defer dedupeCache.Close()

	runStore, err := storage.NewRunStore(cfg.RunDBPath)
	if err != nil {
		log.Fatalf("Failed to open run history: %v", err)
	}
	defer runStore.Close()
	log.Printf("Run history database: %s", cfg.RunDBPath)

	if *stats {
		printStats(ctx, store, runStore)
		return
	}

	runner := jobs.NewRunner(store, store, dedupeCache)

	engineFactory := func() (scraper.Engine, error) {
		return scraper.NewBrowserEngine(scraper.BrowserOptions{
			Headless:    cfg.Scraper.Headless,
			UserDataDir: cfg.Scraper.UserDataDir,
			WaitMs:      cfg.Scraper.WaitMs,
		})
	}

	runRound := func(ctx context.Context) {
		report := jobs.RunAll(ctx, runner, engineFactory, cfg.JobFor, cfg.Scheduler.JobTimeout, runStore)
		if summary, err := json.Marshal(report); err == nil {
			log.Printf("Round finished: %s", summary)
		}
	}

	if *scrapeNow {
		log.Println("Running one full round...")
		runRound(ctx)
		log.Println("Round complete")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg.Scheduler.Cron, cfg.Scheduler.Interval, runRound)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	sched.Stop()
	log.Println("Goodbye!")
}

func printStats(ctx context.Context, store *storage.PostgresStore, runStore *storage.RunStore) {
	for _, table := range []string{"ml_ofertas", "ml_ofertas_relampago"} {
		s, err := store.OfferTableStats(ctx, table)
		if err != nil {
			log.Printf("Stats failed for %s: %v", table, err)
			continue
		}
		log.Printf("%s: total=%d com_link=%d sem_link=%d", table, s.Total, s.ComLink, s.SemLink)
	}
	if s, err := store.CouponTableStats(ctx); err == nil {
		log.Printf("ml_cupons: total=%d", s.Total)
	} else {
		log.Printf("Stats failed for ml_cupons: %v", err)
	}

	runs, err := runStore.RecentRuns(10)
	if err != nil {
		log.Printf("Run history read failed: %v", err)
		return
	}
	for _, r := range runs {
		log.Printf("run %d | %s %s | novos=%d existentes=%d erros=%d | %s",
			r.ID, r.ScraperType, r.Status, r.Novos, r.Existentes, r.Erros, r.StartedAt.Format(time.RFC3339))
	}
}
