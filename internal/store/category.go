package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// CategoryStore defines the interface for category persistence.
type CategoryStore interface {
	// Create saves a new category.
	// Returns ErrCategoryExists if the name is already taken.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by ID.
	// Returns ErrCategoryNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// List returns all categories ordered by name.
	List(ctx context.Context) ([]*domain.Category, error)

	// Update renames a category.
	// Returns ErrCategoryNotFound or ErrCategoryExists.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category and its task links.
	// Returns ErrCategoryNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CategoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CategoryStore
}
