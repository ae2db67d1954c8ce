package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	value, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, value)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	c.SetWithTTL(ctx, "a", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Delete(ctx, "a")

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.Size())
}

func TestCacheMaxItems(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute, MaxItems: 2})
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "c", 3)

	assert.LessOrEqual(t, c.Size(), int64(2))

	// The most recent write always survives eviction.
	value, ok := c.Get(ctx, "c")
	require.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestCacheOnEviction(t *testing.T) {
	ctx := context.Background()
	evicted := make(map[string]any)
	c := New(Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Minute,
		MaxItems:        1,
		OnEviction:      func(key string, value any) { evicted[key] = value },
	})
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)

	assert.Equal(t, 1, evicted["a"])
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Clear(ctx)

	assert.Equal(t, int64(0), c.Size())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}
