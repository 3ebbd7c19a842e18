package turnloop

import "github.com/Swind/go-turn-loop/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the turnloop package for most use cases.

// Scheduler is the deterministic turn-based run loop
type Scheduler = core.Scheduler

// SchedulerConfig holds optional scheduler settings
type SchedulerConfig = core.SchedulerConfig

// Action is the unit of work
type Action = core.Action

// ItemID identifies a scheduled work item
type ItemID = core.ItemID

// Kind is a priority class
type Kind = core.Kind

// WorkItem describes a scheduled item
type WorkItem = core.WorkItem

// ItemStatus is the lifecycle state of a work item
type ItemStatus = core.ItemStatus

// TurnReport summarizes one turn
type TurnReport = core.TurnReport

// ActionError describes a failed action
type ActionError = core.ActionError

// Queue is a FIFO queue
type Queue[T any] = core.Queue[T]

// Logger and Sink are the logging collaborators
type (
	Logger = core.Logger
	Sink   = core.Sink
)

// Priority classes
const (
	KindImmediate  = core.KindImmediate
	KindShortTimer = core.KindShortTimer
	KindLongTimer  = core.KindLongTimer
	KindEndOfTurn  = core.KindEndOfTurn
)

// Errors
var (
	ErrNotFound           = core.ErrNotFound
	ErrAlreadyCompleted   = core.ErrAlreadyCompleted
	ErrSchedulerExhausted = core.ErrSchedulerExhausted
	ErrReentrantRun       = core.ErrReentrantRun
)

// New creates a Scheduler. A nil config uses the defaults.
func New(config *SchedulerConfig) *Scheduler {
	return core.NewScheduler(config)
}

// NewQueue creates an empty Queue.
func NewQueue[T any]() *Queue[T] {
	return core.NewQueue[T]()
}

// Drain processes the items present in q when called, in FIFO order.
func Drain[T any](q *Queue[T], process func(T)) int {
	return core.Drain(q, process)
}

// NewSink returns a Sink writing through logger at the given level.
var NewSink = core.NewSink

// CurrentScheduler retrieves the running Scheduler from an action's context
var CurrentScheduler = core.CurrentScheduler

// CurrentItem retrieves the running WorkItem from an action's context
var CurrentItem = core.CurrentItem

// IsActionFailure reports whether err is a failed action
var IsActionFailure = core.IsActionFailure
