package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorderCountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "merge_experiment", true, 10*time.Millisecond)
	rec.Observe(ctx, "merge_experiment", true, 10*time.Millisecond)
	rec.Observe(ctx, "merge_experiment", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond) // ignored

	success := rec.results.WithLabelValues("merge_experiment", "success")
	if got := testutil.ToFloat64(success); got != 2 {
		t.Fatalf("success counter = %v, want 2", got)
	}
	failure := rec.results.WithLabelValues("merge_experiment", "error")
	if got := testutil.ToFloat64(failure); got != 1 {
		t.Fatalf("error counter = %v, want 1", got)
	}
}

func TestPrometheusMetricsRecorderRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("duplicate registration succeeded")
	}
}
