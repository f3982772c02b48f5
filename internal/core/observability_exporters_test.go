package core

import (
	"context"
	"testing"
	"time"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "merge_experiment", true, 20*time.Millisecond)
	rec.Observe(ctx, "merge_experiment", true, 30*time.Millisecond)
	rec.Observe(ctx, "merge_experiment", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond) // ignored

	snap := rec.Snapshot()
	if got := snap.DurationsMS["merge_experiment"]; got != 55 {
		t.Fatalf("duration total = %v, want 55", got)
	}
	if got := snap.Results["merge_experiment"]["success"]; got != 2 {
		t.Fatalf("success count = %d, want 2", got)
	}
	if got := snap.Results["merge_experiment"]["error"]; got != 1 {
		t.Fatalf("error count = %d, want 1", got)
	}
	if _, ok := snap.Results[""]; ok {
		t.Fatal("empty operation recorded")
	}
}

func TestExpvarMetricsRecorderGeneratesUniqueNames(t *testing.T) {
	a := NewExpvarMetricsRecorder("")
	b := NewExpvarMetricsRecorder("")
	if a.Name() == b.Name() {
		t.Fatalf("recorders share expvar name %q", a.Name())
	}
}

func TestExpvarMetricsRecorderSnapshotIsCopy(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "merge_library", true, time.Millisecond)
	snap := rec.Snapshot()
	snap.DurationsMS["merge_library"] = 9999
	if got := rec.Snapshot().DurationsMS["merge_library"]; got == 9999 {
		t.Fatal("snapshot aliases internal state")
	}
}
