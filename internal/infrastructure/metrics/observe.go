package metrics

import "time"

// Observe runs fn as the catalog operation method and records the call on the
// collector and exporter. Either may be nil.
func Observe(collector *Collector, exporter *PrometheusExporter, method string, fn func() error) error {
	start := time.Now()

	// Record request
	if collector != nil {
		collector.RecordRequest(method)
	}
	if exporter != nil {
		exporter.RecordRequest(method)
	}

	err := fn()

	// Record duration
	duration := time.Since(start).Seconds()
	if collector != nil {
		collector.RecordDuration(method, duration)
	}
	if exporter != nil {
		exporter.RecordDuration(method, duration)
	}

	// Record error if any
	if err != nil {
		if collector != nil {
			collector.RecordError(method)
		}
		if exporter != nil {
			exporter.RecordError(method)
		}
	}

	return err
}
