package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string            `json:"title"                  validate:"required,max=100"`
	Description string            `json:"description,omitempty"  validate:"max=200"`
	Status      domain.TaskStatus `json:"status,omitempty"       validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
	CategoryIDs []uuid.UUID       `json:"category_ids,omitempty" validate:"omitempty,dive,required"`
}

// UpdateTaskRequest defines a partial update of a task. Omitted fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title       *string     `json:"title,omitempty"        validate:"omitempty,min=1,max=100"`
	Description *string     `json:"description,omitempty"  validate:"omitempty,max=200"`
	Deadline    *time.Time  `json:"deadline,omitempty"`
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty" validate:"omitempty,dive,required"`
}

// UpdateStatusRequest defines the payload for changing a task's status.
type UpdateStatusRequest struct {
	Status domain.TaskStatus `json:"status" validate:"required,oneof=TODO IN_PROGRESS DONE"`
}

// SetReminderRequest defines the payload for setting a task's reminder.
type SetReminderRequest struct {
	ReminderTime *time.Time `json:"reminder_time" validate:"required"`
}

// CreateCategoryRequest defines the payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// UpdateCategoryRequest defines the payload for renaming a category.
type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// UpdateUserRequest defines the payload for changing the caller's account.
// Omitted fields are left unchanged.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"    validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
}

// TaskListResponse is the response body of the task search endpoint.
type TaskListResponse struct {
	Tasks []*domain.Task `json:"tasks"`
}
