package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/xid"
)

// ErrReentrantRun is returned when Run is called from inside an action.
var ErrReentrantRun = errors.New("scheduler: run called from inside an action")

var errNilAction = errors.New("nil action")

// Scheduler is a deterministic, single-threaded run loop with four priority
// classes. Each turn runs, in order:
//
//  1. every immediate item queued before the turn started,
//  2. one short (zero-delay) timer, or failing that one long timer,
//  3. every end-of-turn item queued before the end-of-turn phase started.
//
// Work scheduled by an action during a turn waits for the next turn, except
// end-of-turn items scheduled by immediate or timer actions, which still run
// in the current turn's end-of-turn phase.
//
// A Scheduler is not safe for concurrent use. All calls, including those made
// by actions, happen on the goroutine driving Run or RunOneTurn.
type Scheduler struct {
	name     string
	maxTurns int

	queues [numKinds]*Queue[*entry]

	turn    int
	lastID  ItemID
	running ItemID
	inFlush bool

	pending   map[ItemID]Kind
	cancelled map[ItemID]struct{}
	rejected  map[ItemID]struct{}

	history executionHistory

	executed       int64
	failed         int64
	cancelledCount int64

	logger         Logger
	failureHandler FailureHandler
	metrics        Metrics
	onTurn         func(TurnReport)
}

// TurnReport summarizes one call to RunOneTurn.
type TurnReport struct {
	Turn     int
	Executed int
	Failed   int

	// Trace lists the executed items in execution order.
	Trace []ExecutionRecord
}

// Names returns the names of the executed items, in execution order.
// Unnamed items are reported by id.
func (r TurnReport) Names() []string {
	out := make([]string, 0, len(r.Trace))
	for _, rec := range r.Trace {
		if rec.Item.Name != "" {
			out = append(out, rec.Item.Name)
			continue
		}
		out = append(out, rec.Item.ID.String())
	}
	return out
}

// NewScheduler creates a Scheduler. A nil config uses DefaultSchedulerConfig.
func NewScheduler(config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}

	s := &Scheduler{
		name:           config.Name,
		maxTurns:       config.MaxTurns,
		pending:        make(map[ItemID]Kind),
		cancelled:      make(map[ItemID]struct{}),
		rejected:       make(map[ItemID]struct{}),
		history:        newExecutionHistory(config.HistoryCapacity),
		logger:         config.Logger,
		failureHandler: config.FailureHandler,
		metrics:        config.Metrics,
		onTurn:         config.OnTurnComplete,
	}
	for k := range s.queues {
		s.queues[k] = NewQueue[*entry]()
	}

	// Use defaults if not provided
	if s.name == "" {
		s.name = "scheduler-" + xid.New().String()
	}
	if s.maxTurns < 0 {
		s.maxTurns = 0
	}
	if s.logger == nil {
		s.logger = NewNoOpLogger()
	}
	if s.failureHandler == nil {
		s.failureHandler = NopFailureHandler{}
	}
	if s.metrics == nil {
		s.metrics = &NilMetrics{}
	}

	return s
}

// Name returns the scheduler name used in logs and metrics.
func (s *Scheduler) Name() string { return s.name }

// Turn returns the number of the running turn, or of the last completed one.
func (s *Scheduler) Turn() int { return s.turn }

// =============================================================================
// Scheduling
// =============================================================================

// ScheduleImmediate queues action to run in the next turn's immediate phase.
func (s *Scheduler) ScheduleImmediate(action Action) ItemID {
	return s.schedule(KindImmediate, "", 0, action)
}

// ScheduleTimer queues action as a short timer when delay is zero and as a
// long timer otherwise. Negative delays count as zero. The delay only picks
// the class; no wall-clock time is modelled.
func (s *Scheduler) ScheduleTimer(action Action, delay time.Duration) ItemID {
	return s.schedule(TimerKind(delay), "", max(delay, 0), action)
}

// ScheduleEndOfTurn queues action for the end-of-turn phase.
func (s *Scheduler) ScheduleEndOfTurn(action Action) ItemID {
	return s.schedule(KindEndOfTurn, "", 0, action)
}

// ScheduleNamed queues a labelled item. For the timer kinds the class is
// derived from delay, so KindShortTimer and KindLongTimer are interchangeable.
// An invalid kind is treated as immediate.
func (s *Scheduler) ScheduleNamed(kind Kind, name string, delay time.Duration, action Action) ItemID {
	switch kind {
	case KindShortTimer, KindLongTimer:
		kind = TimerKind(delay)
		delay = max(delay, 0)
	case KindImmediate, KindEndOfTurn:
		delay = 0
	default:
		s.logger.Warn("invalid kind, scheduling as immediate", F("kind", int(kind)), F("name", name))
		kind = KindImmediate
		delay = 0
	}
	return s.schedule(kind, name, delay, action)
}

func (s *Scheduler) schedule(kind Kind, name string, delay time.Duration, action Action) ItemID {
	s.lastID++
	id := s.lastID

	s.queues[kind].Enqueue(&entry{
		item:   WorkItem{ID: id, Kind: kind, Name: name, Delay: delay},
		action: action,
		turn:   s.turn,
		flush:  s.inFlush,
	})
	s.pending[id] = kind

	s.logger.Debug("work item scheduled",
		F("scheduler", s.name), F("id", uint64(id)), F("kind", kind.String()), F("name", name), F("turn", s.turn))
	return id
}

// Cancel removes a pending item so it never runs.
//
// It returns an error matching ErrNotFound for unknown or already cancelled
// ids, and ErrAlreadyCompleted (which also matches ErrNotFound) for items that
// are running or have run; in both cases nothing changes.
func (s *Scheduler) Cancel(id ItemID) error {
	kind, ok := s.pending[id]
	if !ok {
		if _, wasCancelled := s.cancelled[id]; wasCancelled {
			return fmt.Errorf("cancel item %s: %w", id, ErrNotFound)
		}
		if id != 0 && id <= s.lastID {
			return fmt.Errorf("cancel item %s: %w", id, ErrAlreadyCompleted)
		}
		return fmt.Errorf("cancel item %s: %w", id, ErrNotFound)
	}

	s.queues[kind].RemoveFunc(func(e *entry) bool { return e.item.ID == id })
	delete(s.pending, id)
	s.cancelled[id] = struct{}{}
	s.cancelledCount++

	s.metrics.RecordItemCancelled(s.name, kind)
	s.logger.Debug("work item cancelled",
		F("scheduler", s.name), F("id", uint64(id)), F("kind", kind.String()))
	return nil
}

// =============================================================================
// Run loop
// =============================================================================

// RunOneTurn executes a single turn and reports what ran. Action failures are
// recovered, logged and reported; they never stop the turn.
func (s *Scheduler) RunOneTurn(ctx context.Context) TurnReport {
	if s.running != 0 {
		s.logger.Error(ErrReentrantRun.Error(), F("scheduler", s.name), F("id", uint64(s.running)))
		return TurnReport{Turn: s.turn}
	}

	s.turn++
	report := TurnReport{Turn: s.turn}

	// (a) immediate items present when the turn started
	for s.runHead(ctx, KindImmediate, &report) {
	}

	// (b) one short timer, (c) otherwise one long timer
	if !s.runHead(ctx, KindShortTimer, &report) {
		s.runHead(ctx, KindLongTimer, &report)
	}

	// (d) end-of-turn items, including those scheduled earlier in this turn
	s.inFlush = true
	for s.runHead(ctx, KindEndOfTurn, &report) {
	}
	s.inFlush = false

	for k := range s.queues {
		s.metrics.RecordQueueDepth(s.name, Kind(k), s.queues[k].Len())
	}
	s.metrics.RecordTurn(s.name, report.Executed)
	s.logger.Debug("turn completed",
		F("scheduler", s.name), F("turn", report.Turn), F("executed", report.Executed),
		F("failed", report.Failed), F("pending", s.Len()))
	if s.onTurn != nil {
		s.onTurn(report)
	}

	return report
}

// runHead runs the head of the kind's queue if it is due in the current turn.
func (s *Scheduler) runHead(ctx context.Context, kind Kind, report *TurnReport) bool {
	q := s.queues[kind]
	e, ok := q.Peek()
	if !ok || !s.due(e) {
		return false
	}
	q.Dequeue()
	s.execute(ctx, e, report)
	return true
}

// due reports whether e belongs to the running turn. Items scheduled during
// this turn wait for the next one; the end-of-turn phase additionally admits
// items scheduled by this turn's immediate and timer actions.
func (s *Scheduler) due(e *entry) bool {
	if e.turn < s.turn {
		return true
	}
	return e.item.Kind == KindEndOfTurn && !e.flush
}

func (s *Scheduler) execute(ctx context.Context, e *entry, report *TurnReport) {
	id := e.item.ID
	delete(s.pending, id)
	s.running = id

	actx := context.WithValue(context.WithValue(ctx, schedulerKey, s), itemKey, e.item)

	startedAt := time.Now()
	failure := s.invoke(actx, e)
	finishedAt := time.Now()
	s.running = 0

	record := ExecutionRecord{
		Item:       e.item,
		Turn:       s.turn,
		Status:     StatusResolved,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(startedAt),
	}

	if failure != nil {
		record.Status = StatusRejected
		record.Err = failure
		s.rejected[id] = struct{}{}
		s.failed++
		report.Failed++

		fields := []Field{
			F("scheduler", s.name), F("id", uint64(id)), F("kind", e.item.Kind.String()),
			F("name", e.item.Name), F("turn", s.turn), F("error", failure.Err),
		}
		if failure.Panicked() {
			fields = append(fields, F("stack", string(failure.Stack)))
		}
		s.logger.Error("action failed", fields...)
		s.metrics.RecordItemFailure(s.name, e.item.Kind, failure.Panicked())
		s.failureHandler.HandleFailure(actx, s.name, failure)
	}

	s.executed++
	s.history.Add(record)
	s.metrics.RecordItemDuration(s.name, e.item.Kind, record.Duration)
	report.Executed++
	report.Trace = append(report.Trace, record)
}

func (s *Scheduler) invoke(ctx context.Context, e *entry) (failure *ActionError) {
	defer func() {
		if rec := recover(); rec != nil {
			failure = &ActionError{
				Item:  e.item,
				Turn:  s.turn,
				Err:   fmt.Errorf("panic: %v", rec),
				Panic: rec,
				Stack: debug.Stack(),
			}
		}
	}()

	if e.action == nil {
		return &ActionError{Item: e.item, Turn: s.turn, Err: errNilAction}
	}
	if err := e.action(ctx); err != nil {
		return &ActionError{Item: e.item, Turn: s.turn, Err: err}
	}
	return nil
}

// Run calls RunOneTurn until every queue is empty.
//
// Run returns nil once the queues drain, ctx.Err() if ctx is done between two
// turns, and an error wrapping ErrSchedulerExhausted if MaxTurns turns ran in
// this call with work still queued. Action failures never end Run.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.running != 0 {
		return ErrReentrantRun
	}

	turns := 0
	for s.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.maxTurns > 0 && turns >= s.maxTurns {
			s.logger.Warn("scheduler exhausted",
				F("scheduler", s.name), F("turns", turns), F("pending", s.Len()))
			return fmt.Errorf("%w: %d turns run, %d items still pending", ErrSchedulerExhausted, turns, s.Len())
		}
		s.RunOneTurn(ctx)
		turns++
	}
	return nil
}

// =============================================================================
// Introspection
// =============================================================================

// Len returns the number of pending items across all classes.
func (s *Scheduler) Len() int {
	return len(s.pending)
}

// LenKind returns the number of pending items of one class.
func (s *Scheduler) LenKind(kind Kind) int {
	if !kind.Valid() {
		return 0
	}
	return s.queues[kind].Len()
}

// Status reports where an item is in its lifecycle.
func (s *Scheduler) Status(id ItemID) ItemStatus {
	if _, ok := s.pending[id]; ok {
		return StatusPending
	}
	if id != 0 && id == s.running {
		return StatusRunning
	}
	if _, ok := s.cancelled[id]; ok {
		return StatusCancelled
	}
	if _, ok := s.rejected[id]; ok {
		return StatusRejected
	}
	if id != 0 && id <= s.lastID {
		return StatusResolved
	}
	return StatusUnknown
}

// RecentExecutions returns up to limit execution records, newest first.
// A limit of zero or less returns everything kept.
func (s *Scheduler) RecentExecutions(limit int) []ExecutionRecord {
	return s.history.Recent(limit)
}

// Stats returns a snapshot of the scheduler's counters.
func (s *Scheduler) Stats() SchedulerStats {
	stats := SchedulerStats{
		Name:      s.name,
		Turn:      s.turn,
		Executed:  s.executed,
		Failed:    s.failed,
		Cancelled: s.cancelledCount,
	}
	for k := range s.queues {
		stats.Pending[k] = s.queues[k].Len()
	}
	if last, ok := s.history.Last(); ok {
		stats.LastItem = last.Item
		stats.LastAt = last.FinishedAt
	}
	return stats
}
