package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// CategoryService manages the shared category list.
type CategoryService interface {
	// CreateCategory adds a category. Returns store.ErrCategoryExists when
	// the name is taken.
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	// UpdateCategory renames a category. Returns store.ErrCategoryExists
	// when the name is taken.
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// ListCategoryTasks returns a page of userID's tasks linked to the
	// category, newest first. Other users' tasks are never included.
	ListCategoryTasks(ctx context.Context, userID, categoryID uuid.UUID, page, limit int) (*TaskPage, error)
}

// CategoryServiceImpl implements the CategoryService interface
type CategoryServiceImpl struct {
	categoryStore store.CategoryStore
	taskStore     store.TaskStore
	logger        *slog.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryStore store.CategoryStore,
	taskStore store.TaskStore,
	logger *slog.Logger,
) CategoryService {
	return &CategoryServiceImpl{
		categoryStore: categoryStore,
		taskStore:     taskStore,
		logger:        logger.With(slog.String("component", "category_service")),
	}
}

// CreateCategory implements CategoryService.
func (s *CategoryServiceImpl) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	category, err := domain.NewCategory(name)
	if err != nil {
		return nil, invalidInput(err)
	}

	if err := s.categoryStore.Create(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategoryExists) {
			return nil, err
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("name", category.Name))
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// GetCategory implements CategoryService.
func (s *CategoryServiceImpl) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryStore.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrCategoryNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve category",
				slog.String("error", err.Error()),
				slog.String("category_id", id.String()))
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return category, nil
}

// ListCategories implements CategoryService.
func (s *CategoryServiceImpl) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryStore.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list categories",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}

// UpdateCategory implements CategoryService.
func (s *CategoryServiceImpl) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := category.Rename(name); err != nil {
		return nil, fmt.Errorf("update_category: %w", invalidInput(err))
	}

	if err := s.categoryStore.Update(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategoryExists) || errors.Is(err, store.ErrCategoryNotFound) {
			return nil, err
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// DeleteCategory implements CategoryService.
func (s *CategoryServiceImpl) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryStore.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrCategoryNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete category",
				slog.String("error", err.Error()),
				slog.String("category_id", id.String()))
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// ListCategoryTasks implements CategoryService.
func (s *CategoryServiceImpl) ListCategoryTasks(
	ctx context.Context,
	userID, categoryID uuid.UUID,
	page, limit int,
) (*TaskPage, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	page, limit, offset, err := pageWindow(page, limit)
	if err != nil {
		return nil, fmt.Errorf("list_category_tasks: %w", err)
	}

	tasks, total, err := s.taskStore.ListByUser(ctx, userID, store.TaskFilter{
		CategoryID: &categoryID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list category tasks",
			slog.String("error", err.Error()),
			slog.String("category_id", categoryID.String()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list category tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return &TaskPage{Tasks: tasks, Total: total, Page: page, Limit: limit}, nil
}
