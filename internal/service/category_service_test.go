package service

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCategoryService(tasks *mocks.MockTaskStore) CategoryService {
	return NewCategoryService(mocks.NewMockCategoryStore(), tasks, logger.NewDiscardLogger())
}

func TestCategoryService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestCategoryService(mocks.NewMockTaskStore())

	work, err := svc.CreateCategory(ctx, " work ")
	require.NoError(t, err)
	assert.Equal(t, "work", work.Name)

	_, err = svc.CreateCategory(ctx, "home")
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, "work")
	assert.ErrorIs(t, err, store.ErrCategoryExists)

	_, err = svc.CreateCategory(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "home", list[0].Name)

	got, err := svc.GetCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "work", got.Name)

	require.NoError(t, svc.DeleteCategory(ctx, work.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, work.ID), store.ErrCategoryNotFound)

	_, err = svc.GetCategory(ctx, work.ID)
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)
}

func TestUpdateCategory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestCategoryService(mocks.NewMockTaskStore())

	work, err := svc.CreateCategory(ctx, "work")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "home")
	require.NoError(t, err)

	renamed, err := svc.UpdateCategory(ctx, work.ID, " office ")
	require.NoError(t, err)
	assert.Equal(t, "office", renamed.Name)

	got, err := svc.GetCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "office", got.Name)

	_, err = svc.UpdateCategory(ctx, work.ID, "office")
	assert.NoError(t, err, "keeping the same name is not a conflict")

	_, err = svc.UpdateCategory(ctx, work.ID, "home")
	assert.ErrorIs(t, err, store.ErrCategoryExists)

	_, err = svc.UpdateCategory(ctx, work.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrEmptyCategoryName)

	_, err = svc.UpdateCategory(ctx, uuid.New(), "garden")
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)
}

func TestListCategoryTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()

	tasks := mocks.NewMockTaskStore()
	svc := newTestCategoryService(tasks)

	work, err := svc.CreateCategory(ctx, "work")
	require.NoError(t, err)
	home, err := svc.CreateCategory(ctx, "home")
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		task := seedTask(owner, fmt.Sprintf("work %02d", i), nil, nil)
		task.CreatedAt = fixedNow.Add(time.Duration(i) * time.Minute)
		task.CategoryIDs = []uuid.UUID{work.ID}
		require.NoError(t, tasks.Create(ctx, task))
	}
	homeTask := seedTask(owner, "home chores", nil, nil)
	homeTask.CategoryIDs = []uuid.UUID{home.ID}
	require.NoError(t, tasks.Create(ctx, homeTask))

	foreign := seedTask(uuid.New(), "someone else's work", nil, nil)
	foreign.CategoryIDs = []uuid.UUID{work.ID}
	require.NoError(t, tasks.Create(ctx, foreign))

	first, err := svc.ListCategoryTasks(ctx, owner, work.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, first.Total)
	assert.Equal(t, DefaultPageLimit, first.Limit)
	require.Len(t, first.Tasks, 10)
	assert.Equal(t, "work 11", first.Tasks[0].Title)

	second, err := svc.ListCategoryTasks(ctx, owner, work.ID, 2, 10)
	require.NoError(t, err)
	assert.Len(t, second.Tasks, 2)

	homeOnly, err := svc.ListCategoryTasks(ctx, owner, home.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, homeOnly.Tasks, 1)
	assert.Equal(t, homeTask.ID, homeOnly.Tasks[0].ID)

	none, err := svc.ListCategoryTasks(ctx, uuid.New(), home.ID, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, none.Tasks)
	assert.Empty(t, none.Tasks)

	_, err = svc.ListCategoryTasks(ctx, owner, uuid.New(), 1, 10)
	assert.ErrorIs(t, err, store.ErrCategoryNotFound)

	_, err = svc.ListCategoryTasks(ctx, owner, work.ID, math.MaxInt, 10)
	assert.ErrorIs(t, err, ErrPageTooLarge)
}
