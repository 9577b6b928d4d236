package cache

import (
	"context"
	"fmt"
	"time"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = fmt.Errorf("cache miss")

// Cache defines the cache interface
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Counter provides atomic windowed counters. Rate-limit state is shared
// across gateway instances, so increments must be atomic: two concurrent
// requests must never observe the same pre-increment value.
type Counter interface {
	// Incr atomically increments the counter for key, starting a window of
	// the given length on first increment. It returns the post-increment
	// count and the time remaining in the window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// CounterKey builds the rate-limit counter key for an identity and category.
func CounterKey(identity, category string, window time.Duration, now time.Time) string {
	slot := now.Unix() / int64(window.Seconds())
	return fmt.Sprintf("ratelimit:%s:%s:%d", category, identity, slot)
}
