// Package mocks provides shared test doubles for the store, auth and
// notifier interfaces.
//
// The store mocks keep their rows in memory. MockTaskStore selects sweep
// candidates with the domain predicates that the Postgres store mirrors in
// SQL. Function fields override individual methods to inject failures.
//
//	tasks := mocks.NewMockTaskStore(task)
//	tasks.MarkReminderSentFn = func(ctx context.Context, id uuid.UUID) (bool, error) {
//	    return false, errors.New("connection reset")
//	}
package mocks
