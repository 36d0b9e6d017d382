package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileCache(t *testing.T, ttl time.Duration) (*FileCache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	return NewFileCache(path, ttl, "scraperofertas"), path
}

func TestFileCacheSetExistsDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFileCache(t, time.Hour)

	if ok, err := c.Exists(ctx, "ofertas:mlb:MLB1"); err != nil || ok {
		t.Fatalf("fresh cache should miss, got %v %v", ok, err)
	}
	if err := c.Set(ctx, "ofertas:mlb:MLB1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if ok, _ := c.Exists(ctx, "ofertas:mlb:MLB1"); !ok {
		t.Fatalf("expected hit after set")
	}
	if err := c.Delete(ctx, "ofertas:mlb:MLB1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if ok, _ := c.Exists(ctx, "ofertas:mlb:MLB1"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestFileCache(t, time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }
	if err := c.Set(ctx, "key"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	if ok, _ := c.Exists(ctx, "key"); ok {
		t.Fatalf("entry past expiry must read as absent")
	}
	// Lazy purge removed it from the map.
	if _, still := c.data.Items["scraperofertas:key"]; still {
		t.Fatalf("expired entry should have been purged")
	}
}

func TestFileCachePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	c, path := newTestFileCache(t, time.Hour)
	if err := c.Set(ctx, "key"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	reopened := NewFileCache(path, time.Hour, "scraperofertas")
	if ok, _ := reopened.Exists(ctx, "key"); !ok {
		t.Fatalf("entry should survive reopen")
	}
}

func TestFileCacheCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	c := NewFileCache(path, time.Hour, "scraperofertas")
	if ok, _ := c.Exists(context.Background(), "key"); ok {
		t.Fatalf("corrupt file must start empty")
	}
}

func TestFileCacheOnDiskShape(t *testing.T) {
	ctx := context.Background()
	c, path := newTestFileCache(t, time.Hour)
	if err := c.Set(ctx, "ofertas:url:abc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}
	var payload struct {
		Items map[string]struct {
			CreatedAt int64 `json:"created_at"`
			ExpiresAt int64 `json:"expires_at"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("cache file is not valid json: %v", err)
	}
	entry, ok := payload.Items["scraperofertas:ofertas:url:abc"]
	if !ok {
		t.Fatalf("expected namespaced key on disk, got %v", payload.Items)
	}
	if entry.ExpiresAt-entry.CreatedAt != 3600 {
		t.Fatalf("expected 1h ttl, got %d", entry.ExpiresAt-entry.CreatedAt)
	}
}
