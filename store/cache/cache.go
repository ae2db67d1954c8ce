// Package cache provides an in-memory TTL cache used by the store layer.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the configuration for a Cache.
type Config struct {
	// DefaultTTL is applied by Set. Zero means 10 minutes.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept. Zero means 5 minutes.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size. Zero means unbounded.
	MaxItems int
	// OnEviction is called for entries removed by the sweeper or by size pressure.
	OnEviction func(key string, value any)
}

type entry struct {
	value     any
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache is a goroutine-safe TTL cache. Expired entries are dropped lazily on
// read and periodically by a background sweeper.
type Cache struct {
	config Config
	data   sync.Map
	size   atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new Cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	c := &Cache{
		config: config,
		done:   make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	value, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	e := value.(*entry)
	if e.expired(time.Now()) {
		c.remove(key, e)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	e := &entry{value: value, expiresAt: time.Now().Add(ttl)}
	if _, loaded := c.data.Swap(key, e); !loaded {
		c.size.Add(1)
	}
	if c.config.MaxItems > 0 && c.size.Load() > int64(c.config.MaxItems) {
		c.evictOne(key)
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(_ context.Context, key string) {
	if value, loaded := c.data.LoadAndDelete(key); loaded {
		c.size.Add(-1)
		_ = value
	}
}

// Clear removes all entries.
func (c *Cache) Clear(_ context.Context) {
	c.data.Range(func(key, _ any) bool {
		if _, loaded := c.data.LoadAndDelete(key); loaded {
			c.size.Add(-1)
		}
		return true
	})
}

// Size returns the number of stored entries, including not-yet-swept expired ones.
func (c *Cache) Size() int64 {
	return c.size.Load()
}

// Close stops the cleanup goroutine. The cache remains usable afterwards but
// expired entries are only dropped lazily.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	c.data.Range(func(key, value any) bool {
		e := value.(*entry)
		if e.expired(now) {
			c.remove(key.(string), e)
		}
		return true
	})
}

// evictOne makes room by dropping an expired entry, or failing that the entry
// closest to expiry. skip is the key just written and is never the victim.
func (c *Cache) evictOne(skip string) {
	now := time.Now()
	var victimKey string
	var victim *entry

	c.data.Range(func(key, value any) bool {
		k := key.(string)
		if k == skip {
			return true
		}
		e := value.(*entry)
		if e.expired(now) {
			victimKey, victim = k, e
			return false
		}
		if victim == nil || e.expiresAt.Before(victim.expiresAt) {
			victimKey, victim = k, e
		}
		return true
	})

	if victim != nil {
		c.remove(victimKey, victim)
	}
}

func (c *Cache) remove(key string, e *entry) {
	if _, loaded := c.data.LoadAndDelete(key); loaded {
		c.size.Add(-1)
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, e.value)
		}
	}
}
