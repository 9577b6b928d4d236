package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_, err := mc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mc.Delete(ctx, "k"))
	_, err = mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, err := mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestIncrIsAtomic(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	const goroutines = 50
	const perGoroutine = 20

	seen := make(chan int64, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				n, _, err := mc.Incr(ctx, "counter", time.Minute)
				assert.NoError(t, err)
				seen <- n
			}
		}()
	}
	wg.Wait()
	close(seen)

	// Every post-increment value must be unique.
	unique := make(map[int64]bool)
	for n := range seen {
		assert.False(t, unique[n], "value %d observed twice", n)
		unique[n] = true
	}
	assert.Len(t, unique, goroutines*perGoroutine)
}

func TestIncrWindowReset(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	n, ttl, err := mc.Incr(ctx, "w", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Greater(t, ttl, time.Duration(0))

	n, _, err = mc.Incr(ctx, "w", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	time.Sleep(30 * time.Millisecond)
	n, _, err = mc.Incr(ctx, "w", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a fresh window restarts the count")
}

func TestCounterKeySlots(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)

	a := CounterKey("user-1", "read", time.Minute, now)
	b := CounterKey("user-1", "read", time.Minute, now.Add(10*time.Second))
	assert.Equal(t, a, b, "same window slot")

	c := CounterKey("user-1", "read", time.Minute, now.Add(time.Minute))
	assert.NotEqual(t, a, c, "next window slot")

	d := CounterKey("user-2", "read", time.Minute, now)
	assert.NotEqual(t, a, d, "identities do not share counters")
}
