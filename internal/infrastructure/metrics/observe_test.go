package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve_RecordsRequest(t *testing.T) {
	collector := NewCollector()

	err := Observe(collector, nil, "UpsertAttributeType", func() error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opMetrics := collector.GetOperationMetrics()
	if count, ok := opMetrics.RequestCounts["UpsertAttributeType"]; !ok || count != 1 {
		t.Errorf("expected request count 1 for UpsertAttributeType, got %d", count)
	}
	if _, ok := opMetrics.TotalDurationSeconds["UpsertAttributeType"]; !ok {
		t.Error("expected duration to be recorded for UpsertAttributeType")
	}
	if count, ok := opMetrics.ErrorCounts["UpsertAttributeType"]; ok && count > 0 {
		t.Errorf("expected no error count for UpsertAttributeType, got %d", count)
	}
}

func TestObserve_RecordsError(t *testing.T) {
	collector := NewCollector()

	expectedErr := errors.New("test error")
	err := Observe(collector, nil, "AddAttributeToAsset", func() error { return expectedErr })
	if err != expectedErr {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}

	opMetrics := collector.GetOperationMetrics()
	if count, ok := opMetrics.ErrorCounts["AddAttributeToAsset"]; !ok || count != 1 {
		t.Errorf("expected error count 1 for AddAttributeToAsset, got %d", count)
	}
}

func TestObserve_MultipleRequests(t *testing.T) {
	collector := NewCollector()

	for i := 0; i < 5; i++ {
		if err := Observe(collector, nil, "ListUnits", func() error { return nil }); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
	}

	opMetrics := collector.GetOperationMetrics()
	if count, ok := opMetrics.RequestCounts["ListUnits"]; !ok || count != 5 {
		t.Errorf("expected request count 5, got %d", count)
	}
}

func TestObserve_NilCollectorAndExporter(t *testing.T) {
	called := false
	if err := Observe(nil, nil, "ListUnits", func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to be called")
	}
}

func TestObserve_WithPrometheusExporter(t *testing.T) {
	collector := NewCollector()
	reg := prometheus.NewRegistry()
	exporter := NewPrometheusExporter(collector, reg)

	Observe(collector, exporter, "RegisterAssetSchema", func() error { return nil })
	Observe(collector, exporter, "RegisterAssetSchema", func() error { return errors.New("boom") })

	if got := testutil.ToFloat64(exporter.opRequests.WithLabelValues("RegisterAssetSchema")); got != 2 {
		t.Errorf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.opErrors.WithLabelValues("RegisterAssetSchema")); got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
	if got := testutil.CollectAndCount(exporter.opDuration); got != 1 {
		t.Errorf("expected 1 duration series, got %d", got)
	}
}
