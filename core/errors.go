package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Cancel for ids that are not pending:
	// unknown, already cancelled, or already consumed.
	ErrNotFound = errors.New("work item not found")

	// ErrAlreadyCompleted is returned by Cancel for items that are running or
	// have run. Cancelling them is a no-op. It matches ErrNotFound.
	ErrAlreadyCompleted = fmt.Errorf("%w: already completed", ErrNotFound)

	// ErrSchedulerExhausted is returned by Run when the configured maximum
	// turn count is reached with work still queued, which usually means an
	// action keeps rescheduling itself.
	ErrSchedulerExhausted = errors.New("scheduler exhausted")
)

// ActionError describes an action that failed, either by returning an error
// or by panicking. The scheduler logs it and carries on with the turn.
type ActionError struct {
	Item WorkItem
	Turn int

	// Err is the error returned by the action, or a synthesized error for panics.
	Err error

	// Panic holds the recovered value when the action panicked.
	Panic any
	Stack []byte
}

func (e *ActionError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("action %s (%s) panicked in turn %d: %v", e.Item.ID, e.Item.Kind, e.Turn, e.Panic)
	}
	return fmt.Sprintf("action %s (%s) failed in turn %d: %v", e.Item.ID, e.Item.Kind, e.Turn, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Panicked reports whether the action panicked rather than returning an error.
func (e *ActionError) Panicked() bool { return e.Panic != nil }

// IsActionFailure reports whether err is (or wraps) an *ActionError.
func IsActionFailure(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}
