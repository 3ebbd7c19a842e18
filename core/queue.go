package core

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// Queue is an unbounded insertion-order FIFO.
//
// Queue is not safe for concurrent use. It is owned by a single thread of
// control, the same way a Scheduler is.
type Queue[T any] struct {
	items []T
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0, defaultQueueCap),
	}
}

// Enqueue appends item to the tail.
func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

// Dequeue removes and returns the head. The bool is false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.items[0] = zero
	q.items = q.items[1:]
	q.maybeCompact()

	return item, true
}

// Peek returns the head without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// RemoveFunc removes the first item for which match returns true.
func (q *Queue[T]) RemoveFunc(match func(T) bool) (T, bool) {
	var zero T
	for i, item := range q.items {
		if !match(item) {
			continue
		}
		copy(q.items[i:], q.items[i+1:])
		q.items[len(q.items)-1] = zero
		q.items = q.items[:len(q.items)-1]
		q.maybeCompact()
		return item, true
	}
	return zero, false
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// IsEmpty reports whether the queue holds no items.
func (q *Queue[T]) IsEmpty() bool {
	return len(q.items) == 0
}

// Clear removes all items and releases references
func (q *Queue[T]) Clear() {
	q.items = make([]T, 0, defaultQueueCap)
}

func (q *Queue[T]) maybeCompact() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]T, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]T, n, newCap)
	copy(newSlice, q.items)
	q.items = newSlice
}

// Drain dequeues every item currently in q and hands it to process, in FIFO
// order. Items that process enqueues back onto q are left for the next call.
// It returns the number of items processed.
func Drain[T any](q *Queue[T], process func(T)) int {
	n := q.Len()
	for i := 0; i < n; i++ {
		item, ok := q.Dequeue()
		if !ok {
			return i
		}
		process(item)
	}
	return n
}
