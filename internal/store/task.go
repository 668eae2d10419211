package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// TaskFilter narrows a task listing. Zero values mean "no filter".
type TaskFilter struct {
	// DeadlineFrom and DeadlineTo bound the deadline, inclusive.
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
	// CategoryID keeps only tasks linked to the category.
	CategoryID *uuid.UUID
	// Limit and Offset page through results ordered by creation time.
	Limit  int
	Offset int
}

// TaskStore defines the interface for task persistence.
//
// The scheduler relies on the Find*/Mark* methods only. The Mark methods are
// conditional single-flag writes: they never overwrite any other column, and
// they report whether the flag actually changed so concurrent sweeps and
// user edits resolve without clobbering each other.
type TaskStore interface {
	// Create saves a new task together with its category links.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID, including its category IDs.
	// Returns ErrTaskNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns the user's tasks matching the filter, and the total
	// number of matches ignoring Limit/Offset.
	ListByUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, int, error)

	// SearchByUser returns the user's tasks whose title contains term,
	// case-insensitively.
	SearchByUser(ctx context.Context, userID uuid.UUID, term string) ([]*domain.Task, error)

	// Update writes the user-editable fields (title, description, deadline,
	// reminder time, categories).
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus sets the status. Setting DONE also sets archived in the
	// same statement.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindEligibleForReminder returns the tasks for which
	// domain.Task.ReminderDue(now, lookahead) holds.
	FindEligibleForReminder(ctx context.Context, now time.Time, lookahead time.Duration) ([]*domain.Task, error)

	// FindEligibleForArchival returns the tasks for which
	// domain.Task.ArchivableAt(now, grace) holds.
	FindEligibleForArchival(ctx context.Context, now time.Time, grace time.Duration) ([]*domain.Task, error)

	// MarkReminderSent sets reminder_sent on a task that has not been
	// marked yet. It reports false when the flag was already set.
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkArchived sets archived on a task that is not archived yet.
	// It reports false when the flag was already set.
	MarkArchived(ctx context.Context, id uuid.UUID) (bool, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
