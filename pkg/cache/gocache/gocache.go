// Package gocache implements cache.Cache on top of github.com/patrickmn/go-cache.
package gocache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/HCTatse/MF-Chaincode/pkg/cache"
	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Config holds configuration for the go-cache backed cache.
type Config struct {
	// DefaultTTL is used when Set is called with a zero ttl.
	DefaultTTL time.Duration

	// CleanupInterval is how often expired items are purged.
	CleanupInterval time.Duration

	// MaxItems caps the number of entries. Zero means unbounded.
	// When full, the entry closest to expiry is evicted.
	MaxItems int

	// EnableMetrics enables collection of cache metrics.
	EnableMetrics bool
}

var _ cache.Cache = (*Cache)(nil)

// Cache implements cache.Cache with TTL expiry and an optional item cap.
type Cache struct {
	cache    *gocache.Cache
	maxItems int
	metrics  *cacheMetrics
}

type cacheMetrics struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	stores        atomic.Uint64
	evictions     atomic.Uint64
	invalidations atomic.Uint64
}

// Removal reasons. go-cache reports every removal through OnEvicted, so
// entries are tagged before an explicit or capacity removal.
const (
	removedByExpiry uint32 = iota
	removedByDelete
	removedByCapacity
)

// entry wraps a stored value with the reason it is being removed
type entry struct {
	value   interface{}
	removal atomic.Uint32
}

// New creates a new cache with the given configuration.
func New(config *Config) *Cache {
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	cleanup := config.CleanupInterval
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}

	c := &Cache{
		cache:    gocache.New(ttl, cleanup),
		maxItems: config.MaxItems,
	}

	if config.EnableMetrics {
		c.metrics = &cacheMetrics{}
		c.cache.OnEvicted(func(_ string, v interface{}) {
			e, ok := v.(*entry)
			if ok && e.removal.Load() == removedByDelete {
				c.metrics.invalidations.Add(1)
				return
			}
			c.metrics.evictions.Add(1)
		})
	}

	return c
}

// Get retrieves a value from cache.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	e, found := c.lookup(key)
	if c.metrics != nil {
		if found {
			c.metrics.hits.Add(1)
		} else {
			c.metrics.misses.Add(1)
		}
	}
	if !found {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) lookup(key string) (*entry, bool) {
	v, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	e, ok := v.(*entry)
	return e, ok
}

// Set stores a value in cache with the specified TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}

	if _, exists := c.lookup(key); !exists {
		if c.maxItems > 0 && c.cache.ItemCount() >= c.maxItems {
			c.evictOne()
		}
		if c.metrics != nil {
			c.metrics.stores.Add(1)
		}
	}

	c.cache.Set(key, &entry{value: value}, ttl)
	return nil
}

// Delete removes a value from cache. It counts as an invalidation, not an eviction.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if e, found := c.lookup(key); found {
		e.removal.Store(removedByDelete)
	}
	c.cache.Delete(key)
	return nil
}

// Clear removes all entries from cache, counting each as an invalidation.
func (c *Cache) Clear(ctx context.Context) error {
	if c.metrics != nil {
		c.metrics.invalidations.Add(uint64(c.cache.ItemCount()))
	}
	c.cache.Flush()
	return nil
}

// Close releases resources (no-op, the janitor stops when the cache is collected).
func (c *Cache) Close() error {
	return nil
}

// Stats returns a snapshot of the counters, all zero when metrics are disabled.
func (c *Cache) Stats() cache.Stats {
	if c.metrics == nil {
		return cache.Stats{}
	}
	return cache.Stats{
		Hits:          c.metrics.hits.Load(),
		Misses:        c.metrics.misses.Load(),
		Stores:        c.metrics.stores.Load(),
		Evictions:     c.metrics.evictions.Load(),
		Invalidations: c.metrics.invalidations.Load(),
	}
}

// Len returns the current number of items in cache, including expired ones not yet purged.
func (c *Cache) Len() int {
	return c.cache.ItemCount()
}

// evictOne drops expired entries, then the entry expiring soonest if still full.
func (c *Cache) evictOne() {
	c.cache.DeleteExpired()
	if c.cache.ItemCount() < c.maxItems {
		return
	}

	var victim string
	var earliest int64
	items := c.cache.Items()
	for key, item := range items {
		if victim == "" || item.Expiration < earliest {
			victim, earliest = key, item.Expiration
		}
	}
	if victim == "" {
		return
	}
	if e, ok := items[victim].Object.(*entry); ok {
		e.removal.Store(removedByCapacity)
	}
	c.cache.Delete(victim)
}
