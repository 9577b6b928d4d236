package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache implements Cache and Counter with in-process storage. Used when
// Redis is disabled and by the test suite. Counter state is per-instance, so
// a multi-instance deployment should use Redis.
type MemoryCache struct {
	mu       sync.Mutex
	data     map[string]*cacheItem
	counters map[string]*counterItem
	done     chan struct{}
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

type counterItem struct {
	count      int64
	expiration time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	mc := &MemoryCache{
		data:     make(map[string]*cacheItem),
		counters: make(map[string]*counterItem),
		done:     make(chan struct{}),
	}

	go mc.cleanup()

	return mc
}

// Get retrieves a value from cache
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.data[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value in cache
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = &cacheItem{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a value from cache
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Exists checks if a key exists
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.data[key]
	if !exists || time.Now().After(item.expiration) {
		return false, nil
	}
	return true, nil
}

// Incr atomically increments a windowed counter under the cache mutex.
func (m *MemoryCache) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	c, exists := m.counters[key]
	if !exists || now.After(c.expiration) {
		c = &counterItem{expiration: now.Add(window)}
		m.counters[key] = c
	}
	c.count++
	return c.count, c.expiration.Sub(now), nil
}

// cleanup periodically removes expired items
func (m *MemoryCache) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, item := range m.data {
				if now.After(item.expiration) {
					delete(m.data, key)
				}
			}
			for key, c := range m.counters {
				if now.After(c.expiration) {
					delete(m.counters, key)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// Close closes the memory cache
func (m *MemoryCache) Close() error {
	close(m.done)
	return nil
}
