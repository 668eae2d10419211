// Package scheduler runs the task lifecycle sweeps.
//
// Two sweeps exist. The reminder Dispatcher delivers reminders whose time
// falls inside the lookahead window and marks them sent. The Archiver marks
// stale open tasks archived. Both read eligibility fresh from the task store
// on every run and only ever write the reminder_sent and archived flags, so
// they keep no task state between runs.
//
// The Driver owns one ticker per sweep kind. A tick that arrives while the
// previous sweep of the same kind is still running is skipped; the two kinds
// run independently of each other. Time comes from an injectable Clock so
// tests can drive ticks without waiting.
//
// Delivery is at-least-once: a task whose reminder was delivered but whose
// flag write failed is selected again on the next tick.
package scheduler
