package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// MockCategoryStore implements store.CategoryStore in memory.
type MockCategoryStore struct {
	ListFn func(ctx context.Context) ([]*domain.Category, error)

	mu         sync.Mutex
	categories map[uuid.UUID]*domain.Category
}

// NewMockCategoryStore creates an empty category store.
func NewMockCategoryStore() *MockCategoryStore {
	return &MockCategoryStore{categories: make(map[uuid.UUID]*domain.Category)}
}

// Create implements the CategoryStore interface
func (m *MockCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return store.ErrInvalidEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return store.ErrCategoryExists
		}
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

// GetByID implements the CategoryStore interface
func (m *MockCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	found := *c
	return &found, nil
}

// List implements the CategoryStore interface
func (m *MockCategoryStore) List(ctx context.Context) ([]*domain.Category, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		found := *c
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update implements the CategoryStore interface
func (m *MockCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return store.ErrInvalidEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[category.ID]; !ok {
		return store.ErrCategoryNotFound
	}
	for id, existing := range m.categories {
		if id != category.ID && existing.Name == category.Name {
			return store.ErrCategoryExists
		}
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

// Delete implements the CategoryStore interface
func (m *MockCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

// WithTx implements the CategoryStore interface. The mock has no transactions.
func (m *MockCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return m
}
