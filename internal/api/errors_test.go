package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", fmt.Errorf("validate: %w", auth.ErrExpiredToken), http.StatusUnauthorized},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"not owned", fmt.Errorf("update_task: %w", service.ErrNotOwned), http.StatusForbidden},
		{"task not found", fmt.Errorf("get: %w", store.ErrTaskNotFound), http.StatusNotFound},
		{"category not found", store.ErrCategoryNotFound, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"category exists", store.ErrCategoryExists, http.StatusConflict},
		{"invalid input", fmt.Errorf("set_reminder: %w: %w", service.ErrInvalidInput, domain.ErrReminderAfterDeadline), http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest},
		{"transaction failure", store.ErrTransactionFailed, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"domain rule", fmt.Errorf("set_reminder: %w: %w", service.ErrInvalidInput, domain.ErrReminderWithoutDeadline), domain.ErrReminderWithoutDeadline.Error()},
		{"bare invalid input", service.ErrInvalidInput, "Invalid input"},
		{"store detail is hidden", fmt.Errorf("%w: %w", service.ErrInvalidInput, fmt.Errorf("%w: foreign key violation (task_categories_category_id_fkey)", store.ErrInvalidEntity)), "Invalid entity data"},
		{"internal detail is hidden", fmt.Errorf("query failed: password=hunter2 host=db"), "An unexpected error occurred"},
		{"not owned", service.ErrNotOwned, "You do not own this task"},
		{"parameter", newRequestError("page", "must be a non-negative integer", domain.ErrValidation), "page must be a non-negative integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestHandleAPIErrorUsesFallbackForServerErrors(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	HandleAPIError(rec, req, errors.New("connection refused"), "Failed to list tasks")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to list tasks"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	HandleAPIError(rec, req, store.ErrTaskNotFound, "Failed to list tasks")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, rec.Body.String())
}
