package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-turn-loop/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	itemDurationSeconds *prom.HistogramVec
	itemFailureTotal    *prom.CounterVec
	itemCancelledTotal  *prom.CounterVec
	queueDepth          *prom.GaugeVec
	turnsTotal          *prom.CounterVec
	turnExecuted        *prom.HistogramVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "turnloop"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "item_duration_seconds",
		Help:      "Action execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"scheduler", "kind"})
	failureVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "item_failure_total",
		Help:      "Total number of failed actions.",
	}, []string{"scheduler", "kind", "cause"})
	cancelledVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "item_cancelled_total",
		Help:      "Total number of cancelled work items.",
	}, []string{"scheduler", "kind"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Pending work items per priority class at the end of the last turn.",
	}, []string{"scheduler", "kind"})
	turnsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "turns_total",
		Help:      "Total number of completed turns.",
	}, []string{"scheduler"})
	turnExecutedVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "turn_executed_items",
		Help:      "Number of actions executed per turn.",
		Buckets:   prom.ExponentialBuckets(1, 2, 8),
	}, []string{"scheduler"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if failureVec, err = registerCollector(reg, failureVec); err != nil {
		return nil, err
	}
	if cancelledVec, err = registerCollector(reg, cancelledVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if turnsVec, err = registerCollector(reg, turnsVec); err != nil {
		return nil, err
	}
	if turnExecutedVec, err = registerCollector(reg, turnExecutedVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		itemDurationSeconds: durationVec,
		itemFailureTotal:    failureVec,
		itemCancelledTotal:  cancelledVec,
		queueDepth:          queueDepthVec,
		turnsTotal:          turnsVec,
		turnExecuted:        turnExecutedVec,
	}, nil
}

// RecordItemDuration records action execution duration.
func (m *MetricsExporter) RecordItemDuration(schedulerName string, kind core.Kind, duration time.Duration) {
	if m == nil {
		return
	}
	m.itemDurationSeconds.WithLabelValues(normalizeLabel(schedulerName, "unknown"), kind.String()).Observe(duration.Seconds())
}

// RecordItemFailure records failed actions, split by error and panic.
func (m *MetricsExporter) RecordItemFailure(schedulerName string, kind core.Kind, panicked bool) {
	if m == nil {
		return
	}
	cause := "error"
	if panicked {
		cause = "panic"
	}
	m.itemFailureTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown"), kind.String(), cause).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(schedulerName string, kind core.Kind, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(schedulerName, "unknown"), kind.String()).Set(float64(depth))
}

// RecordItemCancelled records cancellations.
func (m *MetricsExporter) RecordItemCancelled(schedulerName string, kind core.Kind) {
	if m == nil {
		return
	}
	m.itemCancelledTotal.WithLabelValues(normalizeLabel(schedulerName, "unknown"), kind.String()).Inc()
}

// RecordTurn records a completed turn.
func (m *MetricsExporter) RecordTurn(schedulerName string, executed int) {
	if m == nil {
		return
	}
	name := normalizeLabel(schedulerName, "unknown")
	m.turnsTotal.WithLabelValues(name).Inc()
	m.turnExecuted.WithLabelValues(name).Observe(float64(executed))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
