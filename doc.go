// Package turnloop provides a deterministic, single-threaded scheduler that
// runs work in turns, modelled on the phases of a JavaScript-style event loop.
//
// Work is submitted in one of four priority classes and runs in turns. Each
// turn executes:
//
//  1. every immediate item that was queued before the turn began,
//  2. at most one timer: a short (zero-delay) timer if any is due, otherwise
//     one long timer,
//  3. every end-of-turn item queued before the end-of-turn phase began,
//     including those queued by this turn's immediate and timer actions.
//
// Timer delays only pick the class; no wall-clock time is modelled, so a run
// is fully reproducible from the sequence of schedule calls.
//
// # Quick Start
//
//	s := turnloop.New(nil)
//	s.ScheduleImmediate(func(ctx context.Context) error {
//		fmt.Println("A")
//		return nil
//	})
//	s.ScheduleTimer(func(ctx context.Context) error {
//		fmt.Println("C")
//		return nil
//	}, 50*time.Millisecond)
//	s.ScheduleEndOfTurn(func(ctx context.Context) error {
//		fmt.Println("B")
//		return nil
//	})
//	if err := s.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// # Actions
//
// An Action receives a context carrying the running scheduler and work item;
// use CurrentScheduler to schedule follow-up work from inside an action.
// Errors and panics are recovered, logged and reported to the FailureHandler;
// they never stop the turn.
//
// # Cancellation
//
// Cancel removes a pending item. Cancelling an unknown or already cancelled
// item returns an error matching ErrNotFound; cancelling a running or finished
// item returns ErrAlreadyCompleted, which also matches ErrNotFound.
//
// # Thread Safety
//
// A Scheduler is not safe for concurrent use. Drive it from one goroutine;
// actions run on that goroutine, one at a time, to completion.
package turnloop
