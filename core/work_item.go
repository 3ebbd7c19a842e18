package core

import (
	"context"
	"strconv"
	"time"
)

// Action is the unit of work run by a Scheduler.
// A non-nil error marks the item as rejected; the turn carries on.
type Action func(ctx context.Context) error

// ItemID identifies a scheduled WorkItem. IDs start at 1 and increase
// monotonically per Scheduler; the zero value never names an item.
type ItemID uint64

func (id ItemID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// =============================================================================
// Kind: the priority class of a WorkItem
// =============================================================================

type Kind int

const (
	// KindImmediate runs in the current turn ahead of any timer work.
	KindImmediate Kind = iota

	// KindShortTimer is a zero-delay timer.
	KindShortTimer

	// KindLongTimer is a timer with a non-zero delay.
	// It only runs in turns where no short timer is due.
	KindLongTimer

	// KindEndOfTurn runs after every other class, observing all state
	// mutated earlier in the same turn.
	KindEndOfTurn

	numKinds = 4
)

var kindNames = [numKinds]string{
	KindImmediate:  "immediate",
	KindShortTimer: "short_timer",
	KindLongTimer:  "long_timer",
	KindEndOfTurn:  "end_of_turn",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the four priority classes.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// TimerKind returns the timer class for delay: zero (or negative) delays are
// short timers, anything else is a long timer.
func TimerKind(delay time.Duration) Kind {
	if delay <= 0 {
		return KindShortTimer
	}
	return KindLongTimer
}

// =============================================================================
// ItemStatus
// =============================================================================

type ItemStatus int

const (
	// StatusUnknown is reported for ids the scheduler never issued.
	StatusUnknown ItemStatus = iota
	StatusPending
	StatusRunning
	StatusResolved
	StatusRejected
	StatusCancelled
)

func (s ItemStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusResolved:
		return "resolved"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// WorkItem describes a scheduled unit of work. It is a value type; the
// scheduler never exposes anything callers could mutate once enqueued.
type WorkItem struct {
	ID    ItemID
	Kind  Kind
	Name  string
	Delay time.Duration
}

// entry is the queued form of a WorkItem.
type entry struct {
	item   WorkItem
	action Action

	// turn is the scheduler's turn number when the item was scheduled: the
	// running turn, or the last completed one between turns.
	turn int
	// flush is set for items scheduled while the end-of-turn phase was running.
	flush bool
}

// =============================================================================
// Context Helper
// =============================================================================
type schedulerKeyType struct{}
type itemKeyType struct{}

var (
	schedulerKey schedulerKeyType
	itemKey      itemKeyType
)

// CurrentScheduler returns the Scheduler running the action that owns ctx,
// or nil outside an action.
func CurrentScheduler(ctx context.Context) *Scheduler {
	if v := ctx.Value(schedulerKey); v != nil {
		return v.(*Scheduler)
	}
	return nil
}

// CurrentItem returns the WorkItem whose action owns ctx.
func CurrentItem(ctx context.Context) (WorkItem, bool) {
	v, ok := ctx.Value(itemKey).(WorkItem)
	return v, ok
}
