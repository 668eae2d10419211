package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a sweep.
type Kind string

// Sweep kinds
const (
	KindReminder Kind = "reminder"
	KindArchival Kind = "archival"
)

// Outcome is what happened to one task during a sweep.
type Outcome string

// Possible outcomes
const (
	// OutcomeDelivered: the reminder was delivered and marked sent.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeArchived: the task was marked archived.
	OutcomeArchived Outcome = "archived"
	// OutcomeAlreadyMarked: the flag was set by someone else between
	// selection and write.
	OutcomeAlreadyMarked Outcome = "already_marked"
	// OutcomeDeliveryFailed: the notifier failed; the task stays eligible.
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	// OutcomePersistFailed: the flag write failed; the task stays eligible.
	OutcomePersistFailed Outcome = "persist_failed"
	// OutcomeCanceled: the sweep was canceled before the task was started.
	OutcomeCanceled Outcome = "canceled"
)

// ItemOutcome records the result for a single task.
type ItemOutcome struct {
	TaskID  uuid.UUID
	Outcome Outcome
	Err     error
}

// Result is the report of one sweep. Per-task failures are recorded in
// Items and never returned as errors; Err is set only when the selection
// query itself failed.
type Result struct {
	Kind      Kind
	StartedAt time.Time
	Duration  time.Duration
	Items     []ItemOutcome
	Err       error
}

// Attempted counts the tasks the sweep started work on.
func (r *Result) Attempted() int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome != OutcomeCanceled {
			n++
		}
	}
	return n
}

// Succeeded counts delivered or archived tasks.
func (r *Result) Succeeded() int {
	return r.count(OutcomeDelivered, OutcomeArchived)
}

// Failed counts delivery and persistence failures.
func (r *Result) Failed() int {
	return r.count(OutcomeDeliveryFailed, OutcomePersistFailed)
}

// Skipped counts tasks another writer had already marked, plus tasks left
// unstarted by cancellation.
func (r *Result) Skipped() int {
	return r.count(OutcomeAlreadyMarked, OutcomeCanceled)
}

func (r *Result) count(outcomes ...Outcome) int {
	n := 0
	for _, item := range r.Items {
		for _, o := range outcomes {
			if item.Outcome == o {
				n++
				break
			}
		}
	}
	return n
}

// Summary is the JSON form of a Result, used by the status endpoint.
type Summary struct {
	Kind       Kind      `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}

// Summary returns the counts of r.
func (r *Result) Summary() Summary {
	s := Summary{
		Kind:       r.Kind,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Attempted:  r.Attempted(),
		Succeeded:  r.Succeeded(),
		Failed:     r.Failed(),
		Skipped:    r.Skipped(),
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}
