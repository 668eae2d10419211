package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
)

// TaskHandler handles the task endpoints. Every route requires an
// authenticated user and only ever touches that user's tasks.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, service.CreateTaskInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// ListTasks handles GET /api/tasks?page=&limit=&from=&to=. The from/to
// bounds filter on the deadline.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	query, err := parseTaskQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.taskService.ListTasks(r.Context(), userID, query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// SearchTasks handles GET /api/tasks/search?q=.
func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		HandleAPIError(w, r, newRequestError("q", "is required", domain.ErrValidation), "")
		return
	}

	tasks, err := h.taskService.SearchTasks(r.Context(), userID, term)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to search tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// UpdateTask handles PUT /api/tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}

	task, err := h.taskService.UpdateTask(r.Context(), userID, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// UpdateStatus handles PATCH /api/tasks/{id}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.taskService.UpdateStatus(r.Context(), userID, taskID, req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task status")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task status changed",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(task.Status)))
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// SetReminder handles PUT /api/tasks/{id}/reminder.
func (h *TaskHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req SetReminderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.taskService.SetReminder(r.Context(), userID, taskID, *req.ReminderTime)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to set reminder")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseTaskQuery(r *http.Request) (service.TaskQuery, error) {
	var query service.TaskQuery
	var err error

	if query.Page, err = queryInt(r, "page"); err != nil {
		return query, err
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		return query, err
	}
	if query.From, err = queryTime(r, "from"); err != nil {
		return query, err
	}
	if query.To, err = queryTime(r, "to"); err != nil {
		return query, err
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return query, newRequestError("to", "must not be before from", domain.ErrValidation)
	}
	return query, nil
}
