package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisProbeTimeout bounds the startup PING used for backend selection.
const redisProbeTimeout = 2 * time.Second

// RedisStore is the networked cache backend. It persists across process
// restarts and relies on Redis for native TTL expiry and pattern deletes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr and verifies the connection with a
// PING. A failed probe returns an error so the caller can fall back to the
// in-process store.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	probeCtx, cancel := context.WithTimeout(ctx, redisProbeTimeout)
	defer cancel()

	if err := client.Ping(probeCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed for %s: %w", addr, err)
	}

	return &RedisStore{client: client}, nil
}

// Get returns the value for key. Absent keys are not errors.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes the value under key with the given TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteMatching scans for keys matching the glob pattern and deletes them.
// SCAN is used instead of KEYS so a large namespace does not block the server.
func (r *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return deleted, nil
}

// Kind identifies this backend.
func (r *RedisStore) Kind() string {
	return KindRedis
}

// Entries counts keys matching the glob pattern.
func (r *RedisStore) Entries(ctx context.Context, pattern string) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return count, nil
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
