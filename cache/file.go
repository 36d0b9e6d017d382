package cache

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"
)

type fileEntry struct {
	CreatedAt int64 `json:"created_at"`
	ExpiresAt int64 `json:"expires_at"`
}

type filePayload struct {
	Items map[string]fileEntry `json:"items"`
}

// FileCache is the local fallback backend: a JSON file of entries with
// absolute expiry epochs. Expired entries are purged lazily on every read
// and every mutation rewrites the whole file synchronously. One mutex
// serializes in-process access; the file is not safe for concurrent
// external writers, so this backend assumes a single writer process.
type FileCache struct {
	mu     sync.Mutex
	path   string
	ttl    time.Duration
	prefix string
	data   filePayload
	now    func() time.Time
}

func NewFileCache(path string, ttl time.Duration, prefix string) *FileCache {
	c := &FileCache{
		path:   path,
		ttl:    ttl,
		prefix: prefix,
		data:   filePayload{Items: make(map[string]fileEntry)},
		now:    time.Now,
	}
	c.load()
	return c
}

func (c *FileCache) qualify(key string) string {
	return c.prefix + ":" + key
}

func (c *FileCache) nowEpoch() int64 {
	return c.now().Unix()
}

// load tolerates a missing or corrupt file by starting empty.
func (c *FileCache) load() {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var payload filePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Items == nil {
		return
	}
	c.data = payload
	c.cleanupExpired()
}

func (c *FileCache) persist() error {
	raw, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, raw, 0644)
}

func (c *FileCache) cleanupExpired() {
	nowEpoch := c.nowEpoch()
	for key, entry := range c.data.Items {
		if entry.ExpiresAt <= nowEpoch {
			delete(c.data.Items, key)
		}
	}
}

func (c *FileCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupExpired()
	entry, ok := c.data.Items[c.qualify(key)]
	if !ok {
		return false, nil
	}
	return entry.ExpiresAt > c.nowEpoch(), nil
}

func (c *FileCache) Set(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	nowEpoch := c.nowEpoch()
	c.data.Items[c.qualify(key)] = fileEntry{
		CreatedAt: nowEpoch,
		ExpiresAt: nowEpoch + int64(c.ttl/time.Second),
	}
	return c.persist()
}

func (c *FileCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data.Items, c.qualify(key))
	return c.persist()
}

// Close flushes the current state, dropping anything already expired.
func (c *FileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupExpired()
	return c.persist()
}
