package prometheus

import (
	"github.com/Swind/go-turn-loop/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// StatsProvider provides current scheduler stats snapshots.
type StatsProvider interface {
	Stats() core.SchedulerStats
}

// SnapshotRecorder copies scheduler Stats() snapshots into Prometheus gauges.
//
// A Scheduler is single-threaded, so snapshots are not polled from a
// background goroutine; call Record from the goroutine driving the scheduler,
// typically after each turn.
type SnapshotRecorder struct {
	pending   *prom.GaugeVec
	turn      *prom.GaugeVec
	executed  *prom.GaugeVec
	failed    *prom.GaugeVec
	cancelled *prom.GaugeVec
}

// NewSnapshotRecorder creates a snapshot recorder and registers its collectors.
func NewSnapshotRecorder(namespace string, reg prom.Registerer) (*SnapshotRecorder, error) {
	if namespace == "" {
		namespace = "turnloop"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	pending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_pending",
		Help:      "Pending work items per scheduler and priority class.",
	}, []string{"scheduler", "kind"})
	turn := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_turn",
		Help:      "Current turn number per scheduler.",
	}, []string{"scheduler"})
	executed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_executed",
		Help:      "Executed work item count snapshot.",
	}, []string{"scheduler"})
	failed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_failed",
		Help:      "Failed work item count snapshot.",
	}, []string{"scheduler"})
	cancelled := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_cancelled",
		Help:      "Cancelled work item count snapshot.",
	}, []string{"scheduler"})

	var err error
	if pending, err = registerCollector(reg, pending); err != nil {
		return nil, err
	}
	if turn, err = registerCollector(reg, turn); err != nil {
		return nil, err
	}
	if executed, err = registerCollector(reg, executed); err != nil {
		return nil, err
	}
	if failed, err = registerCollector(reg, failed); err != nil {
		return nil, err
	}
	if cancelled, err = registerCollector(reg, cancelled); err != nil {
		return nil, err
	}

	return &SnapshotRecorder{
		pending:   pending,
		turn:      turn,
		executed:  executed,
		failed:    failed,
		cancelled: cancelled,
	}, nil
}

// Record exports one snapshot of each provider.
func (r *SnapshotRecorder) Record(providers ...StatsProvider) {
	if r == nil {
		return
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		stats := p.Stats()
		name := normalizeLabel(stats.Name, "unknown")
		for k, n := range stats.Pending {
			r.pending.WithLabelValues(name, core.Kind(k).String()).Set(float64(n))
		}
		r.turn.WithLabelValues(name).Set(float64(stats.Turn))
		r.executed.WithLabelValues(name).Set(float64(stats.Executed))
		r.failed.WithLabelValues(name).Set(float64(stats.Failed))
		r.cancelled.WithLabelValues(name).Set(float64(stats.Cancelled))
	}
}
