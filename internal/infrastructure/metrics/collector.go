package metrics

import (
	"sync"

	"github.com/HCTatse/MF-Chaincode/pkg/cache"
)

// Collector keeps in-process totals per catalog operation and reads cache
// counters on demand. It backs the gauges of PrometheusExporter.
type Collector struct {
	mu         sync.Mutex
	operations map[string]*operationStats // keyed by service method

	cache cache.Cache // optional
}

type operationStats struct {
	requests     uint64
	errors       uint64
	totalSeconds float64
}

// CacheMetrics is a snapshot of the catalog cache.
type CacheMetrics struct {
	Hits          uint64
	Misses        uint64
	HitRate       float64
	KeysCurrent   int64
	Evictions     uint64
	Invalidations uint64
}

// OperationMetrics is a snapshot of the per-method totals.
type OperationMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{operations: make(map[string]*operationStats)}
}

// SetCache attaches the catalog cache whose counters GetCacheMetrics reports.
func (c *Collector) SetCache(cache cache.Cache) {
	c.mu.Lock()
	c.cache = cache
	c.mu.Unlock()
}

// RecordRequest counts one call of method.
func (c *Collector) RecordRequest(method string) {
	c.mu.Lock()
	c.stats(method).requests++
	c.mu.Unlock()
}

// RecordError counts one failed call of method.
func (c *Collector) RecordError(method string) {
	c.mu.Lock()
	c.stats(method).errors++
	c.mu.Unlock()
}

// RecordDuration adds the duration of one call of method.
func (c *Collector) RecordDuration(method string, durationSeconds float64) {
	c.mu.Lock()
	c.stats(method).totalSeconds += durationSeconds
	c.mu.Unlock()
}

// GetCacheMetrics returns the attached cache's counters, all zero without a cache.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	c.mu.Lock()
	attached := c.cache
	c.mu.Unlock()

	if attached == nil {
		return &CacheMetrics{}
	}
	stats := attached.Stats()
	return &CacheMetrics{
		Hits:          stats.Hits,
		Misses:        stats.Misses,
		HitRate:       stats.HitRate(),
		KeysCurrent:   int64(attached.Len()),
		Evictions:     stats.Evictions,
		Invalidations: stats.Invalidations,
	}
}

// GetOperationMetrics returns a copy of the per-method totals.
// Methods that never failed have no ErrorCounts entry.
func (c *Collector) GetOperationMetrics() *OperationMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := &OperationMetrics{
		RequestCounts:        make(map[string]uint64, len(c.operations)),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64, len(c.operations)),
	}
	for method, stats := range c.operations {
		result.RequestCounts[method] = stats.requests
		result.TotalDurationSeconds[method] = stats.totalSeconds
		if stats.errors > 0 {
			result.ErrorCounts[method] = stats.errors
		}
	}
	return result
}

// stats returns the entry of method, creating it. c.mu must be held.
func (c *Collector) stats(method string) *operationStats {
	s, ok := c.operations[method]
	if !ok {
		s = &operationStats{}
		c.operations[method] = s
	}
	return s
}
