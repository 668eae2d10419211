package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

const taskColumns = `id, user_id, title, description, status, deadline, reminder_time,
		reminder_sent, archived, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that is managed by the caller.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create.
// Returns store.ErrInvalidEntity if the user or a category does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, status, deadline, reminder_time,
			reminder_sent, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		nullTime(task.Deadline),
		nullTime(task.ReminderTime),
		task.ReminderSent,
		task.Archived,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return MapError(err)
	}

	if err := s.linkCategories(ctx, task.ID, task.CategoryIDs); err != nil {
		return err
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadCategoryIDs(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser
func (s *PostgresTaskStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.DeadlineFrom != nil {
		args = append(args, *filter.DeadlineFrom)
		where = append(where, fmt.Sprintf("deadline >= $%d", len(args)))
	}
	if filter.DeadlineTo != nil {
		args = append(args, *filter.DeadlineTo)
		where = append(where, fmt.Sprintf("deadline <= $%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM task_categories tc WHERE tc.task_id = tasks.id AND tc.category_id = $%d)",
			len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + cond + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadCategoryIDs(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// SearchByUser implements store.TaskStore.SearchByUser
func (s *PostgresTaskStore) SearchByUser(ctx context.Context, userID uuid.UUID, term string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND title ILIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY created_at DESC, id`

	tasks, err := s.queryTasks(ctx, query, userID, escapeLike(term))
	if err != nil {
		return nil, err
	}
	if err := s.loadCategoryIDs(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update.
// Only user-editable columns are written; status and the lifecycle flags are
// left alone so a concurrent sweep is never undone by an edit.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, deadline = $4, reminder_time = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		nullTime(task.Deadline),
		nullTime(task.ReminderTime),
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_categories WHERE task_id = $1`, task.ID); err != nil {
		return MapError(err)
	}
	return s.linkCategories(ctx, task.ID, task.CategoryIDs)
}

// UpdateStatus implements store.TaskStore.UpdateStatus
func (s *PostgresTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsValidTaskStatus(status) {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus)
	}

	query := `
		UPDATE tasks
		SET status = $2, archived = (archived OR $2 = 'DONE'), updated_at = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// FindEligibleForReminder implements store.TaskStore.FindEligibleForReminder.
// The WHERE clause mirrors domain.Task.ReminderDue.
func (s *PostgresTaskStore) FindEligibleForReminder(
	ctx context.Context,
	now time.Time,
	lookahead time.Duration,
) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE reminder_sent = FALSE
			AND archived = FALSE
			AND reminder_time >= $1
			AND reminder_time < $2
			AND deadline IS NOT NULL
			AND reminder_time <= deadline
		ORDER BY reminder_time, id`

	tasks, err := s.queryTasks(ctx, query, now.UTC(), now.Add(lookahead).UTC())
	if err != nil {
		return nil, store.NewStoreError("task", "find_eligible_for_reminder", "query failed", err)
	}
	return tasks, nil
}

// FindEligibleForArchival implements store.TaskStore.FindEligibleForArchival.
// The WHERE clause mirrors domain.Task.ArchivableAt.
func (s *PostgresTaskStore) FindEligibleForArchival(
	ctx context.Context,
	now time.Time,
	grace time.Duration,
) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE archived = FALSE
			AND status IN ('TODO', 'IN_PROGRESS')
			AND deadline IS NOT NULL
			AND (
				(reminder_time IS NOT NULL AND reminder_time <= deadline AND deadline < $2)
				OR (reminder_time IS NULL AND deadline < $1)
			)
		ORDER BY deadline, id`

	tasks, err := s.queryTasks(ctx, query, now.UTC(), now.Add(-grace).UTC())
	if err != nil {
		return nil, store.NewStoreError("task", "find_eligible_for_archival", "query failed", err)
	}
	return tasks, nil
}

// MarkReminderSent implements store.TaskStore.MarkReminderSent.
// It reports false when the task is missing or was already marked.
func (s *PostgresTaskStore) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setFlag(ctx, "mark_reminder_sent",
		`UPDATE tasks SET reminder_sent = TRUE WHERE id = $1 AND reminder_sent = FALSE`, id)
}

// MarkArchived implements store.TaskStore.MarkArchived.
// It reports false when the task is missing or was already archived.
func (s *PostgresTaskStore) MarkArchived(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.setFlag(ctx, "mark_archived",
		`UPDATE tasks SET archived = TRUE WHERE id = $1 AND archived = FALSE`, id)
}

func (s *PostgresTaskStore) setFlag(ctx context.Context, op, query string, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to set task flag",
			slog.String("operation", op),
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return false, store.NewStoreError("task", op, "update failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, store.NewStoreError("task", op, "failed to get rows affected", err)
	}
	return n > 0, nil
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

func (s *PostgresTaskStore) linkCategories(ctx context.Context, taskID uuid.UUID, categoryIDs []uuid.UUID) error {
	for _, categoryID := range categoryIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO task_categories (task_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID, categoryID)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: category %s does not exist", store.ErrInvalidEntity, categoryID)
			}
			return MapError(err)
		}
	}
	return nil
}

func (s *PostgresTaskStore) loadCategoryIDs(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]string, len(tasks))
	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID.String()
		byID[t.ID] = t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, category_id FROM task_categories
		WHERE task_id = ANY($1::uuid[])
		ORDER BY category_id`, ids)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var taskID, categoryID uuid.UUID
		if err := rows.Scan(&taskID, &categoryID); err != nil {
			return MapError(err)
		}
		if t, ok := byID[taskID]; ok {
			t.CategoryIDs = append(t.CategoryIDs, categoryID)
		}
	}
	return MapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		status   string
		deadline sql.NullTime
		reminder sql.NullTime
	)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&deadline,
		&reminder,
		&task.ReminderSent,
		&task.Archived,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Deadline = timePtr(deadline)
	task.ReminderTime = timePtr(reminder)
	return &task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
