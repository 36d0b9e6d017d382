package cache

import (
	"context"
	"log"
	"time"
)

// Options selects and configures a backend. Backend "redis" and "auto"
// both try Redis first; anything else goes straight to the file store.
type Options struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FilePath      string
	TTL           time.Duration
	KeyPrefix     string
}

// New builds the cache for the configured backend. A Redis that cannot be
// reached is a resilience downgrade, not an error: the job must still run,
// so the local file cache takes over and the downgrade is logged.
func New(ctx context.Context, opts Options) Cache {
	switch opts.Backend {
	case "redis", "auto", "":
		rc := NewRedisCache(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.TTL, opts.KeyPrefix)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			rc.Close()
			if opts.Backend == "redis" {
				log.Printf("Redis unavailable (%v), falling back to local file cache %s", err, opts.FilePath)
			} else {
				log.Printf("Redis unavailable, using local file cache %s", opts.FilePath)
			}
			return NewFileCache(opts.FilePath, opts.TTL, opts.KeyPrefix)
		}
		log.Println("Cache backend active: redis")
		return rc
	default:
		log.Printf("Cache backend active: local file (%s)", opts.FilePath)
		return NewFileCache(opts.FilePath, opts.TTL, opts.KeyPrefix)
	}
}
