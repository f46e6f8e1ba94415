package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names are schema_catalog_<name>.
const (
	namespace = "schema"
	subsystem = "catalog"
)

var operationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// PrometheusExporter publishes catalog operations and cache state.
// Counters are fed as events happen; the gauges are copied from the
// Collector by Update.
type PrometheusExporter struct {
	collector *Collector

	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheHitRate       prometheus.Gauge
	cacheKeys          prometheus.Gauge
	cacheEvictions     prometheus.Gauge
	cacheInvalidations prometheus.Gauge

	opRequests *prometheus.CounterVec
	opErrors   *prometheus.CounterVec
	opDuration *prometheus.HistogramVec
}

// NewPrometheusExporter registers the catalog metrics on reg, or on the
// default registerer when reg is nil.
func NewPrometheusExporter(collector *Collector, reg prometheus.Registerer) *PrometheusExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help})
	}
	perMethod := func(name, help string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}, []string{"method"})
	}

	return &PrometheusExporter{
		collector: collector,

		cacheHits:          counter("cache_hits_total", "Total number of catalog cache hits"),
		cacheMisses:        counter("cache_misses_total", "Total number of catalog cache misses"),
		cacheHitRate:       gauge("cache_hit_rate", "Current cache hit rate (0.0 to 1.0)"),
		cacheKeys:          gauge("cache_keys_current", "Current number of catalogs in the cache"),
		cacheEvictions:     gauge("cache_evictions", "Number of catalogs dropped by expiry or the item cap since start"),
		cacheInvalidations: gauge("cache_invalidations", "Number of catalogs removed from the cache after a change since start"),

		opRequests: perMethod("operations_total", "Total number of catalog operations"),
		opErrors:   perMethod("operation_errors_total", "Total number of failed catalog operations"),
		opDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Duration of catalog operations in seconds",
			Buckets:   operationBuckets,
		}, []string{"method"}),
	}
}

// Update copies the collector's cache state into the gauges
func (e *PrometheusExporter) Update() {
	m := e.collector.GetCacheMetrics()
	e.cacheHitRate.Set(m.HitRate)
	e.cacheKeys.Set(float64(m.KeysCurrent))
	e.cacheEvictions.Set(float64(m.Evictions))
	e.cacheInvalidations.Set(float64(m.Invalidations))
}

func (e *PrometheusExporter) RecordRequest(method string) {
	e.opRequests.WithLabelValues(method).Inc()
}

func (e *PrometheusExporter) RecordDuration(method string, durationSeconds float64) {
	e.opDuration.WithLabelValues(method).Observe(durationSeconds)
}

func (e *PrometheusExporter) RecordError(method string) {
	e.opErrors.WithLabelValues(method).Inc()
}

func (e *PrometheusExporter) RecordCacheHit() {
	e.cacheHits.Inc()
}

func (e *PrometheusExporter) RecordCacheMiss() {
	e.cacheMisses.Inc()
}
