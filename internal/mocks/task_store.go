package mocks

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// MockTaskStore implements store.TaskStore in memory. Selection uses the
// domain eligibility predicates, so it agrees with the SQL store by
// construction. Any Fn field, when set, replaces the default behavior.
//
// The store hands out copies; mutating a returned task never changes stored
// state.
type MockTaskStore struct {
	FindEligibleForReminderFn func(ctx context.Context, now time.Time, lookahead time.Duration) ([]*domain.Task, error)
	FindEligibleForArchivalFn func(ctx context.Context, now time.Time, grace time.Duration) ([]*domain.Task, error)
	MarkReminderSentFn        func(ctx context.Context, id uuid.UUID) (bool, error)
	MarkArchivedFn            func(ctx context.Context, id uuid.UUID) (bool, error)
	GetByIDFn                 func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFn                  func(ctx context.Context, task *domain.Task) error

	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
	order []uuid.UUID

	// MarkReminderSentCalls and MarkArchivedCalls count calls to the
	// respective methods, including calls that did not change the flag.
	MarkReminderSentCalls int
	MarkArchivedCalls     int
}

// NewMockTaskStore creates an empty store, optionally seeded with tasks.
func NewMockTaskStore(tasks ...*domain.Task) *MockTaskStore {
	m := &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		m.put(t)
	}
	return m
}

func (m *MockTaskStore) put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; !exists {
		m.order = append(m.order, task.ID)
	}
	m.tasks[task.ID] = cloneTask(task)
}

// Task returns a copy of the stored task, or nil.
func (m *MockTaskStore) Task(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		return cloneTask(t)
	}
	return nil
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.ErrInvalidEntity
	}
	m.put(task)
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if t := m.Task(id); t != nil {
		return t, nil
	}
	return nil, store.ErrTaskNotFound
}

// ListByUser implements the TaskStore interface, newest first.
func (m *MockTaskStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, int, error) {
	matches := m.selectTasks(func(t *domain.Task) bool {
		if t.UserID != userID {
			return false
		}
		if filter.DeadlineFrom != nil && (t.Deadline == nil || t.Deadline.Before(*filter.DeadlineFrom)) {
			return false
		}
		if filter.DeadlineTo != nil && (t.Deadline == nil || t.Deadline.After(*filter.DeadlineTo)) {
			return false
		}
		if filter.CategoryID != nil && !slices.Contains(t.CategoryIDs, *filter.CategoryID) {
			return false
		}
		return true
	})
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	if filter.Offset > 0 {
		if filter.Offset >= len(matches) {
			matches = nil
		} else {
			matches = matches[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, total, nil
}

// SearchByUser implements the TaskStore interface
func (m *MockTaskStore) SearchByUser(ctx context.Context, userID uuid.UUID, term string) ([]*domain.Task, error) {
	term = strings.ToLower(term)
	return m.selectTasks(func(t *domain.Task) bool {
		return t.UserID == userID && strings.Contains(strings.ToLower(t.Title), term)
	}), nil
}

// Update implements the TaskStore interface. Only the user-editable fields
// are written; the lifecycle flags and status keep their stored values.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	updated := cloneTask(task)
	updated.Status = stored.Status
	updated.ReminderSent = stored.ReminderSent
	updated.Archived = stored.Archived
	updated.CreatedAt = stored.CreatedAt
	m.tasks[task.ID] = updated
	return nil
}

// UpdateStatus implements the TaskStore interface
func (m *MockTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	stored.Status = status
	if status == domain.TaskStatusDone {
		stored.Archived = true
	}
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// FindEligibleForReminder implements the TaskStore interface
func (m *MockTaskStore) FindEligibleForReminder(
	ctx context.Context,
	now time.Time,
	lookahead time.Duration,
) ([]*domain.Task, error) {
	if m.FindEligibleForReminderFn != nil {
		return m.FindEligibleForReminderFn(ctx, now, lookahead)
	}
	return m.selectTasks(func(t *domain.Task) bool {
		return t.ReminderDue(now, lookahead)
	}), nil
}

// FindEligibleForArchival implements the TaskStore interface
func (m *MockTaskStore) FindEligibleForArchival(
	ctx context.Context,
	now time.Time,
	grace time.Duration,
) ([]*domain.Task, error) {
	if m.FindEligibleForArchivalFn != nil {
		return m.FindEligibleForArchivalFn(ctx, now, grace)
	}
	return m.selectTasks(func(t *domain.Task) bool {
		return t.ArchivableAt(now, grace)
	}), nil
}

// MarkReminderSent implements the TaskStore interface
func (m *MockTaskStore) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.MarkReminderSentCalls++
	m.mu.Unlock()

	if m.MarkReminderSentFn != nil {
		return m.MarkReminderSentFn(ctx, id)
	}
	return m.setFlag(id, func(t *domain.Task) *bool { return &t.ReminderSent })
}

// MarkArchived implements the TaskStore interface
func (m *MockTaskStore) MarkArchived(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.MarkArchivedCalls++
	m.mu.Unlock()

	if m.MarkArchivedFn != nil {
		return m.MarkArchivedFn(ctx, id)
	}
	return m.setFlag(id, func(t *domain.Task) *bool { return &t.Archived })
}

// WithTx implements the TaskStore interface. The mock has no transactions.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

func (m *MockTaskStore) setFlag(id uuid.UUID, flag func(t *domain.Task) *bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tasks[id]
	if !ok {
		return false, nil
	}
	f := flag(stored)
	if *f {
		return false, nil
	}
	*f = true
	return true, nil
}

func (m *MockTaskStore) selectTasks(match func(t *domain.Task) bool) []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, id := range m.order {
		if t := m.tasks[id]; match(t) {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.ReminderTime != nil {
		r := *t.ReminderTime
		c.ReminderTime = &r
	}
	if t.CategoryIDs != nil {
		c.CategoryIDs = append([]uuid.UUID(nil), t.CategoryIDs...)
	}
	return &c
}
