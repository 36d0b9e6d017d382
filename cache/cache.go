// Package cache provides the key-existence store used to skip already-seen
// listings without a database round-trip. Two backends share one contract:
// a Redis store (TTL enforced server-side) and a local JSON file store
// (TTL enforced on read). Entries carry no value; presence is the signal.
package cache

import "context"

// Cache is a TTL-based existence store. Keys are namespaced with a fixed
// prefix before storage so a shared Redis instance can host unrelated data.
type Cache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
