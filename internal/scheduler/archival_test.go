package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

func newTestArchiver(store ArchivalStore) *Archiver {
	return NewArchiver(store, ArchiverConfig{
		Grace:       DefaultArchivalGrace,
		SweepConfig: SweepConfig{Concurrency: 2, TaskTimeout: time.Second},
	}, logger.NewDiscardLogger())
}

func ago(d time.Duration) *time.Time { return ptr(sweepNow.Add(-d)) }

func TestArchiverRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task *domain.Task
		want bool
	}{
		{
			name: "reminder task one day past deadline keeps its grace period",
			task: newTask(domain.TaskStatusTodo, ago(day), ago(day+time.Hour)),
			want: false,
		},
		{
			name: "reminder task four days past deadline is archived",
			task: newTask(domain.TaskStatusTodo, ago(4*day), ago(4*day+time.Hour)),
			want: true,
		},
		{
			name: "task without reminder one second past deadline is archived",
			task: newTask(domain.TaskStatusInProgress, ago(time.Second), nil),
			want: true,
		},
		{
			name: "task without deadline is never archived",
			task: newTask(domain.TaskStatusTodo, nil, nil),
			want: false,
		},
		{
			name: "future deadline",
			task: newTask(domain.TaskStatusTodo, ptr(sweepNow.Add(time.Hour)), nil),
			want: false,
		},
		{
			name: "malformed reminder after deadline",
			task: newTask(domain.TaskStatusTodo, ago(5*day), ago(time.Hour)),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := mocks.NewMockTaskStore(tt.task)

			result := newTestArchiver(tasks).Run(context.Background(), sweepNow)

			require.NoError(t, result.Err)
			assert.Equal(t, tt.want, tasks.Task(tt.task.ID).Archived)
			if tt.want {
				assert.Equal(t, 1, result.Succeeded())
			} else {
				assert.Empty(t, result.Items)
			}
		})
	}
}

func TestArchiverOnlyWritesTheFlag(t *testing.T) {
	t.Parallel()

	task := newTask(domain.TaskStatusInProgress, ago(time.Hour), nil)
	task.Title = "keep me"
	tasks := mocks.NewMockTaskStore(task)

	newTestArchiver(tasks).Run(context.Background(), sweepNow)

	stored := tasks.Task(task.ID)
	assert.True(t, stored.Archived)
	assert.Equal(t, domain.TaskStatusInProgress, stored.Status)
	assert.Equal(t, "keep me", stored.Title)
	assert.False(t, stored.ReminderSent)
}

func TestArchivedTasksAreNeverSelectedAgain(t *testing.T) {
	t.Parallel()

	task := newTask(domain.TaskStatusTodo, ago(5*day), ago(5*day+time.Hour))
	tasks := mocks.NewMockTaskStore(task)
	archiver := newTestArchiver(tasks)

	first := archiver.Run(context.Background(), sweepNow)
	require.Equal(t, 1, first.Succeeded())

	for _, offset := range []time.Duration{10 * time.Minute, day, 30 * day} {
		again := archiver.Run(context.Background(), sweepNow.Add(offset))
		assert.Empty(t, again.Items)
	}
	assert.Equal(t, 1, tasks.MarkArchivedCalls)
}

func TestArchiverPersistFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	broken := newTask(domain.TaskStatusTodo, ago(time.Hour), nil)
	fine := newTask(domain.TaskStatusTodo, ago(2*time.Hour), nil)
	tasks := mocks.NewMockTaskStore(broken, fine)

	tasks.MarkArchivedFn = func(ctx context.Context, id uuid.UUID) (bool, error) {
		if id == broken.ID {
			return false, errors.New("deadlock detected")
		}
		return true, nil
	}

	result := newTestArchiver(tasks).Run(context.Background(), sweepNow)

	assert.Equal(t, 2, result.Attempted())
	assert.Equal(t, 1, result.Succeeded())
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, 2, tasks.MarkArchivedCalls)

	outcomes := map[uuid.UUID]Outcome{}
	for _, item := range result.Items {
		outcomes[item.TaskID] = item.Outcome
	}
	assert.Equal(t, OutcomePersistFailed, outcomes[broken.ID])
	assert.Equal(t, OutcomeArchived, outcomes[fine.ID])
}

func TestArchiverSelectionError(t *testing.T) {
	t.Parallel()

	tasks := mocks.NewMockTaskStore()
	tasks.FindEligibleForArchivalFn = func(ctx context.Context, now time.Time, grace time.Duration) ([]*domain.Task, error) {
		return nil, errors.New("timeout")
	}

	result := newTestArchiver(tasks).Run(context.Background(), sweepNow)
	assert.Error(t, result.Err)
	assert.Empty(t, result.Items)
	assert.Contains(t, result.Summary().Error, "timeout")
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	dueSoon := newTask(domain.TaskStatusTodo, ptr(sweepNow.Add(day)), ptr(sweepNow.Add(3*time.Minute)))
	staleWithReminder := newTask(domain.TaskStatusTodo, ago(5*day), ago(5*day+time.Hour))
	overdueNoReminder := newTask(domain.TaskStatusTodo, ago(day), nil)

	tasks := mocks.NewMockTaskStore(dueSoon, staleWithReminder, overdueNoReminder)
	notifier := &mocks.MockNotifier{}

	reminders := newTestDispatcher(tasks, notifier).Run(context.Background(), sweepNow)
	archival := newTestArchiver(tasks).Run(context.Background(), sweepNow)

	assert.Equal(t, 1, reminders.Succeeded())
	assert.Equal(t, 2, archival.Succeeded())

	assert.Equal(t, []uuid.UUID{dueSoon.ID}, notifier.Delivered())
	assert.Zero(t, notifier.Attempts(staleWithReminder.ID))
	assert.Zero(t, notifier.Attempts(overdueNoReminder.ID))

	first := tasks.Task(dueSoon.ID)
	assert.True(t, first.ReminderSent)
	assert.False(t, first.Archived)

	assert.True(t, tasks.Task(staleWithReminder.ID).Archived)
	assert.True(t, tasks.Task(overdueNoReminder.ID).Archived)
	assert.False(t, tasks.Task(staleWithReminder.ID).ReminderSent)
}
