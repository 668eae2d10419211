package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockNotifier records reminder deliveries. It is safe for concurrent use.
type MockNotifier struct {
	// DeliverFn, when set, decides the outcome of each delivery. Its error
	// is returned and the call is recorded either way.
	DeliverFn func(ctx context.Context, task *domain.Task) error

	mu        sync.Mutex
	delivered []uuid.UUID
	attempts  map[uuid.UUID]int
}

// DeliverReminder implements the scheduler's Notifier interface
func (m *MockNotifier) DeliverReminder(ctx context.Context, task *domain.Task) error {
	var err error
	if m.DeliverFn != nil {
		err = m.DeliverFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts == nil {
		m.attempts = make(map[uuid.UUID]int)
	}
	m.attempts[task.ID]++
	if err == nil {
		m.delivered = append(m.delivered, task.ID)
	}
	return err
}

// Delivered returns the IDs of successfully delivered reminders in order.
func (m *MockNotifier) Delivered() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.delivered...)
}

// Attempts returns how many deliveries were attempted for the task.
func (m *MockNotifier) Attempts(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[id]
}

// TestifyMockNotifier is a notifier for use with testify/mock expectations.
type TestifyMockNotifier struct {
	mock.Mock
}

// DeliverReminder is a mock implementation of the scheduler's Notifier interface
func (m *TestifyMockNotifier) DeliverReminder(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}
