// Package cache provides the course recommendation cache: a byte-oriented
// key-value store with TTL expiry (Redis in production, an in-process map as
// fallback) and a manager that derives deterministic keys from pipeline
// inputs and serializes cache entries.
package cache

import (
	"context"
	"time"
)

// Store kinds reported by diagnostics endpoints.
const (
	KindRedis  = "redis"
	KindMemory = "in-memory"
)

// Store is the key-value contract shared by both cache backends.
// Keys are namespaced strings; values are opaque byte payloads. Patterns use
// glob syntax ("careerpath:*").
type Store interface {
	// Get returns the value for key, or found=false if absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set writes the value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeleteMatching removes all keys matching the glob pattern and returns
	// the number deleted. Zero matches is not an error.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	// Kind identifies the backend for diagnostics.
	Kind() string
	// Entries returns the current number of live entries in the namespace.
	Entries(ctx context.Context, pattern string) (int, error)
}
