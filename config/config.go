package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Scraper   ScraperConfig
	Scheduler SchedulerConfig
	RunDBPath string
	LogLevel  string
	LogFile   string
	Jobs      map[string]*JobConfig
}

type DatabaseConfig struct {
	Host string
	Port int
	Name string
	User string
	Pass string
}

// ConnString builds the pgx connection URL.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Pass), d.Host, d.Port, d.Name)
}

type CacheConfig struct {
	Backend   string
	TTL       time.Duration
	JSONFile  string
	KeyPrefix string
}

type RedisConfig struct {
	Host     string
	Port     int
	DB       int
	Password string
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type ScraperConfig struct {
	Headless    bool
	WaitMs      int
	UserDataDir string
}

type SchedulerConfig struct {
	Cron        string
	Interval    time.Duration
	MaxProdutos int
	JobTimeout  time.Duration
}

// JobConfig overrides one job from a yaml file under config/jobs/.
type JobConfig struct {
	ScraperType string `yaml:"scraper_type"`
	StartURL    string `yaml:"start_url"`
	MaxItems    int    `yaml:"max_items"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host: getEnv("DB_HOST", "localhost"),
			Port: getEnvInt("DB_PORT", 5432),
			Name: getEnv("DB_NAME", "scraperofertas"),
			User: getEnv("DB_USER", "postgres"),
			Pass: getEnv("DB_PASS", "postgres"),
		},
		Cache: CacheConfig{
			Backend:   getEnv("CACHE_BACKEND", "auto"),
			TTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 86400)) * time.Second,
			JSONFile:  getEnv("CACHE_JSON_FILE", "cache_dedupe.json"),
			KeyPrefix: getEnv("CACHE_KEY_PREFIX", "scraperofertas"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			DB:       getEnvInt("REDIS_DB", 0),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Scraper: ScraperConfig{
			Headless:    getEnv("SCRAPER_HEADLESS", "true") == "true",
			WaitMs:      getEnvInt("SCRAPER_WAIT_MS", 1500),
			UserDataDir: getEnv("BROWSER_DATA_DIR", "./ml_browser_data"),
		},
		Scheduler: SchedulerConfig{
			Cron:        os.Getenv("SCHEDULER_CRON"),
			MaxProdutos: getEnvInt("SCHEDULER_MAX_PRODUTOS", 30),
			JobTimeout:  time.Duration(getEnvInt("SCHEDULER_JOB_TIMEOUT_SECONDS", 1800)) * time.Second,
		},
		RunDBPath: getEnv("RUN_DB_PATH", "runs.db"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", "scraperofertas.log"),
		Jobs:      make(map[string]*JobConfig),
	}

	if interval := os.Getenv("SCHEDULER_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadJobConfigs("config/jobs"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadJobConfigs reads optional per-job overrides. A missing directory is
// not an error; a malformed file is.
func (c *Config) loadJobConfigs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		var job JobConfig
		if err := yaml.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if job.ScraperType == "" {
			continue
		}
		c.Jobs[job.ScraperType] = &job
	}

	return nil
}

// JobFor resolves the effective start URL and item limit for one scraper
// type, falling back to the scheduler default when no override exists.
func (c *Config) JobFor(scraperType string) (startURL string, maxItems int) {
	maxItems = c.Scheduler.MaxProdutos
	if job, ok := c.Jobs[scraperType]; ok {
		startURL = job.StartURL
		if job.MaxItems > 0 {
			maxItems = job.MaxItems
		}
	}
	return startURL, maxItems
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
