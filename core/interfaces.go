package core

import (
	"context"
	"time"
)

// =============================================================================
// FailureHandler: Interface for handling failed actions
// =============================================================================

// FailureHandler is called when an action returns an error or panics.
// The scheduler has already recovered and logged the failure; the handler
// decides what else to do with it (collect, alert, ...).
//
// Handlers run on the scheduler's goroutine, between two actions.
type FailureHandler interface {
	// HandleFailure is called once per failed action.
	//
	// Parameters:
	// - ctx: The context the action ran with
	// - schedulerName: The name of the scheduler
	// - failure: The failed item, turn, error and (for panics) stack trace
	HandleFailure(ctx context.Context, schedulerName string, failure *ActionError)
}

// FailureHandlerFunc adapts a function to FailureHandler.
type FailureHandlerFunc func(ctx context.Context, schedulerName string, failure *ActionError)

// HandleFailure calls f.
func (f FailureHandlerFunc) HandleFailure(ctx context.Context, schedulerName string, failure *ActionError) {
	f(ctx, schedulerName, failure)
}

// NopFailureHandler ignores failures beyond the scheduler's own logging.
type NopFailureHandler struct{}

// HandleFailure is a no-op.
func (NopFailureHandler) HandleFailure(ctx context.Context, schedulerName string, failure *ActionError) {
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting scheduler metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast; they are called inline between actions.
type Metrics interface {
	// RecordItemDuration records how long an action took to execute.
	RecordItemDuration(schedulerName string, kind Kind, duration time.Duration)

	// RecordItemFailure records that an action returned an error or panicked.
	RecordItemFailure(schedulerName string, kind Kind, panicked bool)

	// RecordQueueDepth records the depth of one priority class queue.
	// It is called at the end of every turn.
	RecordQueueDepth(schedulerName string, kind Kind, depth int)

	// RecordItemCancelled records a successful cancellation.
	RecordItemCancelled(schedulerName string, kind Kind)

	// RecordTurn records a completed turn and how many actions it executed.
	RecordTurn(schedulerName string, executed int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordItemDuration is a no-op.
func (m *NilMetrics) RecordItemDuration(schedulerName string, kind Kind, duration time.Duration) {
}

// RecordItemFailure is a no-op.
func (m *NilMetrics) RecordItemFailure(schedulerName string, kind Kind, panicked bool) {
}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(schedulerName string, kind Kind, depth int) {
}

// RecordItemCancelled is a no-op.
func (m *NilMetrics) RecordItemCancelled(schedulerName string, kind Kind) {
}

// RecordTurn is a no-op.
func (m *NilMetrics) RecordTurn(schedulerName string, executed int) {
}

// =============================================================================
// SchedulerConfig: Configuration for Scheduler
// =============================================================================

// SchedulerConfig holds configuration options for Scheduler.
// All fields are optional; zero values fall back to defaults.
type SchedulerConfig struct {
	// Name labels logs and metrics. Defaults to "scheduler-<xid>".
	Name string

	// MaxTurns bounds Run. Zero means unbounded.
	MaxTurns int

	// HistoryCapacity is the number of execution records kept for
	// RecentExecutions. Defaults to 100.
	HistoryCapacity int

	// Logger defaults to NoOpLogger.
	Logger Logger

	// FailureHandler defaults to NopFailureHandler.
	FailureHandler FailureHandler

	// Metrics defaults to NilMetrics.
	Metrics Metrics

	// OnTurnComplete, if set, receives the report of every completed turn.
	OnTurnComplete func(report TurnReport)
}

// DefaultSchedulerConfig returns a config with default handlers.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		HistoryCapacity: defaultHistoryCapacity,
		Logger:          NewNoOpLogger(),
		FailureHandler:  NopFailureHandler{},
		Metrics:         &NilMetrics{},
	}
}
