package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/HCTatse/MF-Chaincode/pkg/cache/gocache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusExporter_Update(t *testing.T) {
	c := gocache.New(&gocache.Config{DefaultTTL: time.Minute, EnableMetrics: true})
	ctx := context.Background()
	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, 0)
	c.Get(ctx, "a")
	c.Get(ctx, "missing")

	collector := NewCollector()
	collector.SetCache(c)

	reg := prometheus.NewRegistry()
	exporter := NewPrometheusExporter(collector, reg)
	exporter.Update()

	if got := testutil.ToFloat64(exporter.cacheKeys); got != 2 {
		t.Errorf("expected 2 cached keys, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.cacheHitRate); got != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", got)
	}

	c.Delete(ctx, "b")
	exporter.Update()
	if got := testutil.ToFloat64(exporter.cacheInvalidations); got != 1 {
		t.Errorf("expected 1 invalidation, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.cacheEvictions); got != 0 {
		t.Errorf("expected no eviction after a delete, got %v", got)
	}
}

func TestPrometheusExporter_CacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	exporter := NewPrometheusExporter(NewCollector(), reg)

	exporter.RecordCacheHit()
	exporter.RecordCacheHit()
	exporter.RecordCacheMiss()

	expected := `
# HELP schema_catalog_cache_hits_total Total number of catalog cache hits
# TYPE schema_catalog_cache_hits_total counter
schema_catalog_cache_hits_total 2
# HELP schema_catalog_cache_misses_total Total number of catalog cache misses
# TYPE schema_catalog_cache_misses_total counter
schema_catalog_cache_misses_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"schema_catalog_cache_hits_total", "schema_catalog_cache_misses_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestPrometheusExporter_SeparateRegistries(t *testing.T) {
	// Independent registries allow more than one exporter per process
	NewPrometheusExporter(NewCollector(), prometheus.NewRegistry())
	NewPrometheusExporter(NewCollector(), prometheus.NewRegistry())
}

func TestCollector_GetCacheMetricsWithoutCache(t *testing.T) {
	collector := NewCollector()
	m := collector.GetCacheMetrics()
	if m.Hits != 0 || m.KeysCurrent != 0 {
		t.Errorf("expected zero cache metrics, got %+v", m)
	}
}
