package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-turn-loop/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type statsStub struct {
	stats core.SchedulerStats
}

func (s statsStub) Stats() core.SchedulerStats { return s.stats }

func TestSnapshotRecorder_RecordsStats(t *testing.T) {
	reg := prom.NewRegistry()
	recorder, err := NewSnapshotRecorder("turnloop", reg)
	if err != nil {
		t.Fatalf("NewSnapshotRecorder failed: %v", err)
	}

	stub := statsStub{stats: core.SchedulerStats{
		Name:      "sched-a",
		Turn:      4,
		Executed:  9,
		Failed:    2,
		Cancelled: 1,
	}}
	stub.stats.Pending[core.KindLongTimer] = 3

	recorder.Record(stub, nil)

	if got := testutil.ToFloat64(recorder.pending.WithLabelValues("sched-a", "long_timer")); got != 3 {
		t.Fatalf("pending long timers = %v, want 3", got)
	}
	if got := testutil.ToFloat64(recorder.pending.WithLabelValues("sched-a", "immediate")); got != 0 {
		t.Fatalf("pending immediates = %v, want 0", got)
	}
	if got := testutil.ToFloat64(recorder.turn.WithLabelValues("sched-a")); got != 4 {
		t.Fatalf("turn = %v, want 4", got)
	}
	if got := testutil.ToFloat64(recorder.failed.WithLabelValues("sched-a")); got != 2 {
		t.Fatalf("failed = %v, want 2", got)
	}
}

func TestSnapshotRecorder_TracksScheduler(t *testing.T) {
	reg := prom.NewRegistry()
	recorder, err := NewSnapshotRecorder("", reg)
	if err != nil {
		t.Fatalf("NewSnapshotRecorder failed: %v", err)
	}

	s := core.NewScheduler(&core.SchedulerConfig{Name: "live"})
	noop := func(ctx context.Context) error { return nil }
	s.ScheduleTimer(noop, 0)
	s.ScheduleTimer(noop, time.Second)

	s.RunOneTurn(context.Background())
	recorder.Record(s)

	if got := testutil.ToFloat64(recorder.pending.WithLabelValues("live", "long_timer")); got != 1 {
		t.Fatalf("pending long timers after turn 1 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(recorder.executed.WithLabelValues("live")); got != 1 {
		t.Fatalf("executed = %v, want 1", got)
	}

	s.RunOneTurn(context.Background())
	recorder.Record(s)

	if got := testutil.ToFloat64(recorder.pending.WithLabelValues("live", "long_timer")); got != 0 {
		t.Fatalf("pending long timers after turn 2 = %v, want 0", got)
	}
}

func TestSnapshotRecorder_NilReceiver(t *testing.T) {
	var recorder *SnapshotRecorder
	recorder.Record(statsStub{})
}
