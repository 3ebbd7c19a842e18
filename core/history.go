package core

import "time"

const defaultHistoryCapacity = 100

// ExecutionRecord captures one executed action.
type ExecutionRecord struct {
	Item       WorkItem
	Turn       int
	Status     ItemStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Err        error
}

// executionHistory is a fixed-size ring of the most recent records.
type executionHistory struct {
	items []ExecutionRecord
	head  int
	count int
}

func newExecutionHistory(capacity int) executionHistory {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return executionHistory{items: make([]ExecutionRecord, capacity)}
}

func (h *executionHistory) Add(record ExecutionRecord) {
	if len(h.items) == 0 {
		return
	}

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first.
func (h *executionHistory) Recent(limit int) []ExecutionRecord {
	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]ExecutionRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *executionHistory) Last() (ExecutionRecord, bool) {
	if h.count == 0 {
		return ExecutionRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

// SchedulerStats is a point-in-time view of a Scheduler.
type SchedulerStats struct {
	Name      string
	Turn      int
	Pending   [numKinds]int
	Executed  int64
	Failed    int64
	Cancelled int64
	LastItem  WorkItem
	LastAt    time.Time
}

// PendingTotal sums the pending counts of all classes.
func (s SchedulerStats) PendingTotal() int {
	total := 0
	for _, n := range s.Pending {
		total += n
	}
	return total
}
