// Package cache defines the per-domain catalog cache used by the catalog service.
package cache

import (
	"context"
	"time"
)

const catalogKeyPrefix = "catalog:"

// CatalogKey returns the cache key of a domain's encoded catalog
func CatalogKey(domainID string) string {
	return catalogKeyPrefix + domainID
}

// Cache stores encoded catalogs keyed by CatalogKey. Implementations must be
// safe for concurrent use; a zero ttl on Set means the implementation default.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error

	// Len is the number of entries held, expired ones included until purged
	Len() int
	Stats() Stats
}

// Stats is a snapshot of cache counters
type Stats struct {
	Hits          uint64
	Misses        uint64
	Stores        uint64 // new keys written
	Evictions     uint64 // keys dropped by expiry or the item cap
	Invalidations uint64 // keys removed by Delete or Clear
}

// HitRate returns Hits / (Hits + Misses), or 0 without lookups
func (s Stats) HitRate() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups)
}
