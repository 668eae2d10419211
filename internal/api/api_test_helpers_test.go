package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expiredToken = "expired"

// testEnv wires real services over in-memory stores. Tokens are the user ID
// itself, so tests can act as any user.
type testEnv struct {
	router     http.Handler
	tasks      *mocks.MockTaskStore
	users      *mocks.MockUserStore
	categories *mocks.MockCategoryStore
	sql        sqlmock.Sqlmock
}

func newTestEnv(t *testing.T, stats SchedulerStats) *testEnv {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		_ = db.Close()
	})

	log := logger.NewDiscardLogger()
	env := &testEnv{
		tasks:      mocks.NewMockTaskStore(),
		users:      mocks.NewMockUserStore(),
		categories: mocks.NewMockCategoryStore(),
		sql:        sqlMock,
	}

	jwtService := &mocks.MockJWTService{
		GenerateTokenFn: func(ctx context.Context, userID uuid.UUID) (string, error) {
			return userID.String(), nil
		},
		ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
			if token == expiredToken {
				return nil, auth.ErrExpiredToken
			}
			id, err := uuid.Parse(token)
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id}, nil
		},
	}

	authHandler := NewAuthHandler(
		service.NewUserService(env.users, &mocks.MockPasswordVerifier{}, log), jwtService, log)
	taskHandler := NewTaskHandler(service.NewTaskService(env.tasks, db, log), log)
	categoryHandler := NewCategoryHandler(service.NewCategoryService(env.categories, env.tasks, log), log)
	schedulerHandler := NewSchedulerHandler(stats)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/users/me", authHandler.Me)
			r.Patch("/users/me", authHandler.UpdateMe)
			r.Delete("/users/me", authHandler.DeleteMe)

			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/search", taskHandler.SearchTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Patch("/tasks/{id}/status", taskHandler.UpdateStatus)
			r.Put("/tasks/{id}/reminder", taskHandler.SetReminder)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)

			r.Post("/categories", categoryHandler.CreateCategory)
			r.Get("/categories", categoryHandler.ListCategories)
			r.Get("/categories/{id}", categoryHandler.GetCategory)
			r.Patch("/categories/{id}", categoryHandler.UpdateCategory)
			r.Get("/categories/{id}/tasks", categoryHandler.ListCategoryTasks)
			r.Delete("/categories/{id}", categoryHandler.DeleteCategory)

			r.Get("/scheduler/status", schedulerHandler.Status)
		})
	})
	env.router = r

	return env
}

// do sends a request. body may be nil, a string of raw JSON or any value to
// be marshaled.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// seed stores a task for ownerID directly in the store.
func (e *testEnv) seed(t *testing.T, ownerID uuid.UUID, title string, deadline *time.Time) *domain.Task {
	t.Helper()
	created := time.Now().UTC().Add(-time.Hour)
	task := &domain.Task{
		ID:        uuid.New(),
		UserID:    ownerID,
		Title:     title,
		Status:    domain.TaskStatusTodo,
		Deadline:  deadline,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, e.tasks.Create(context.Background(), task))
	return task
}

func in(d time.Duration) *time.Time {
	t := time.Now().UTC().Add(d).Truncate(time.Second)
	return &t
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}
