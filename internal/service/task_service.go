package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// CreateTaskInput carries the user-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	// Status defaults to TODO when empty.
	Status      domain.TaskStatus
	Deadline    *time.Time
	CategoryIDs []uuid.UUID
}

// UpdateTaskInput carries a partial update. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	CategoryIDs []uuid.UUID
}

// TaskQuery selects a page of a user's tasks.
type TaskQuery struct {
	// Page is 1-based. Zero means the first page.
	Page  int
	// Limit defaults to DefaultPageLimit and is capped at MaxPageLimit.
	Limit int
	From  *time.Time
	To    *time.Time
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks []*domain.Task `json:"tasks"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// TaskService defines the user-facing task operations. Every operation that
// addresses a single task checks that userID owns it and returns ErrNotOwned
// otherwise.
type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, query TaskQuery) (*TaskPage, error)
	SearchTasks(ctx context.Context, userID uuid.UUID, term string) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*domain.Task, error)

	// UpdateStatus changes the status. Moving to DONE archives the task in
	// the same write.
	UpdateStatus(ctx context.Context, userID, taskID uuid.UUID, status domain.TaskStatus) (*domain.Task, error)

	// SetReminder sets the reminder time. The task must have a deadline and
	// the reminder may not fall after it.
	SetReminder(ctx context.Context, userID, taskID uuid.UUID, at time.Time) (*domain.Task, error)

	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	taskStore store.TaskStore
	db        *sql.DB
	logger    *slog.Logger
	timeFunc  func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskStore store.TaskStore, db *sql.DB, logger *slog.Logger) TaskService {
	return newTaskService(taskStore, db, logger, time.Now)
}

func newTaskService(
	taskStore store.TaskStore,
	db *sql.DB,
	logger *slog.Logger,
	timeFunc func() time.Time,
) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskStore: taskStore,
		db:        db,
		logger:    logger.With(slog.String("component", "task_service")),
		timeFunc:  timeFunc,
	}
}

// CreateTask implements TaskService.
func (s *TaskServiceImpl) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, input.Title, input.Description, input.Deadline)
	if err != nil {
		return nil, invalidInput(err)
	}
	if input.Status != "" {
		if err := task.UpdateStatus(input.Status); err != nil {
			return nil, invalidInput(err)
		}
	}
	task.CategoryIDs = input.CategoryIDs

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			return nil, invalidInput(err)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

// GetTask implements TaskService.
func (s *TaskServiceImpl) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.getOwned(ctx, s.taskStore, userID, taskID)
}

// ListTasks implements TaskService.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, userID uuid.UUID, query TaskQuery) (*TaskPage, error) {
	page, limit, offset, err := pageWindow(query.Page, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("list_tasks: %w", err)
	}

	tasks, total, err := s.taskStore.ListByUser(ctx, userID, store.TaskFilter{
		DeadlineFrom: query.From,
		DeadlineTo:   query.To,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return &TaskPage{Tasks: tasks, Total: total, Page: page, Limit: limit}, nil
}

// SearchTasks implements TaskService.
func (s *TaskServiceImpl) SearchTasks(ctx context.Context, userID uuid.UUID, term string) ([]*domain.Task, error) {
	tasks, err := s.taskStore.SearchByUser(ctx, userID, term)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to search tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// UpdateTask implements TaskService.
func (s *TaskServiceImpl) UpdateTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	input UpdateTaskInput,
) (*domain.Task, error) {
	return s.modify(ctx, userID, taskID, "update_task", func(task *domain.Task) error {
		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Deadline != nil {
			if err := task.SetDeadline(input.Deadline, s.timeFunc().UTC()); err != nil {
				return err
			}
		}
		if input.CategoryIDs != nil {
			task.CategoryIDs = input.CategoryIDs
		}
		return task.Validate()
	})
}

// SetReminder implements TaskService.
func (s *TaskServiceImpl) SetReminder(
	ctx context.Context,
	userID, taskID uuid.UUID,
	at time.Time,
) (*domain.Task, error) {
	return s.modify(ctx, userID, taskID, "set_reminder", func(task *domain.Task) error {
		return task.SetReminder(at)
	})
}

// UpdateStatus implements TaskService.
func (s *TaskServiceImpl) UpdateStatus(
	ctx context.Context,
	userID, taskID uuid.UUID,
	status domain.TaskStatus,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.getOwned(ctx, s.taskStore, userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.UpdateStatus(status); err != nil {
		return nil, invalidInput(err)
	}

	if err := s.taskStore.UpdateStatus(ctx, taskID, status); err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			log.Error("failed to update task status",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	log.Debug("task status updated",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(status)),
		slog.Bool("archived", task.Archived))
	return task, nil
}

// DeleteTask implements TaskService.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if _, err := s.getOwned(ctx, s.taskStore, userID, taskID); err != nil {
		return err
	}

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// modify loads an owned task inside a transaction, applies change and writes
// the editable fields back. Errors from change are reported as invalid input.
func (s *TaskServiceImpl) modify(
	ctx context.Context,
	userID, taskID uuid.UUID,
	op string,
	change func(task *domain.Task) error,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		task, err := s.getOwned(ctx, txStore, userID, taskID)
		if err != nil {
			return err
		}
		if err := change(task); err != nil {
			return invalidInput(err)
		}
		task.UpdatedAt = s.timeFunc().UTC()

		if err := txStore.Update(ctx, task); err != nil {
			if errors.Is(err, store.ErrInvalidEntity) {
				return invalidInput(err)
			}
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to modify task",
				slog.String("op", op),
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *TaskServiceImpl) getOwned(
	ctx context.Context,
	taskStore store.TaskStore,
	userID, taskID uuid.UUID,
) (*domain.Task, error) {
	task, err := taskStore.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, err
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}

	if task.UserID != userID {
		logger.FromContextOrDefault(ctx, s.logger).Warn("task access by non-owner",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrNotOwned
	}

	return task, nil
}

func isExpected(err error) bool {
	return errors.Is(err, ErrNotOwned) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, store.ErrNotFound)
}
