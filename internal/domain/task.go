package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents the progress state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// Task validation errors
var (
	ErrEmptyTaskID             = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID         = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle          = errors.New("title cannot be empty")
	ErrTaskTitleTooLong        = errors.New("title cannot be longer than 100 characters")
	ErrTaskDescriptionTooLong  = errors.New("description cannot be longer than 200 characters")
	ErrInvalidTaskStatus       = errors.New("invalid task status")
	ErrDeadlineInPast          = errors.New("deadline cannot be in the past")
	ErrReminderWithoutDeadline = errors.New("cannot set a reminder for a task without a deadline")
	ErrReminderAfterDeadline   = errors.New("reminder time cannot be after the deadline")
)

const (
	maxTaskTitleLength       = 100
	maxTaskDescriptionLength = 200
)

// Task is a unit of work owned by a user.
//
// ReminderSent and Archived are one-way flags: once true they are never
// reset. A task whose status is DONE is always archived.
type Task struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Status       TaskStatus  `json:"status"`
	Deadline     *time.Time  `json:"deadline,omitempty"`
	ReminderTime *time.Time  `json:"reminder_time,omitempty"`
	ReminderSent bool        `json:"reminder_sent"`
	Archived     bool        `json:"archived"`
	CategoryIDs  []uuid.UUID `json:"category_ids,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewTask creates a new task in TODO state for the given user.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, title, description string, deadline *time.Time) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      TaskStatusTodo,
		Deadline:    utcPtr(deadline),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if utf8.RuneCountInString(t.Title) > maxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	if utf8.RuneCountInString(t.Description) > maxTaskDescriptionLength {
		return ErrTaskDescriptionTooLong
	}

	if !IsValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	if t.ReminderTime != nil {
		if t.Deadline == nil {
			return ErrReminderWithoutDeadline
		}
		if t.ReminderTime.After(*t.Deadline) {
			return ErrReminderAfterDeadline
		}
	}

	return nil
}

// IsValidTaskStatus reports whether s is one of the known statuses.
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the task is still being worked on.
func (t *Task) IsOpen() bool {
	return t.Status == TaskStatusTodo || t.Status == TaskStatusInProgress
}

// UpdateStatus changes the task status. Moving a task to DONE archives it
// in the same update.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !IsValidTaskStatus(status) {
		return ErrInvalidTaskStatus
	}

	t.Status = status
	if status == TaskStatusDone {
		t.Archived = true
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// SetReminder sets the reminder time. The task must have a deadline and the
// reminder must not fall after it. ReminderSent is left untouched, so a
// reminder that was already delivered is not delivered again.
func (t *Task) SetReminder(at time.Time) error {
	if t.Deadline == nil {
		return ErrReminderWithoutDeadline
	}
	at = at.UTC()
	if at.After(*t.Deadline) {
		return ErrReminderAfterDeadline
	}

	t.ReminderTime = &at
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDeadline replaces the deadline. A deadline before now is rejected, as
// is one that would leave an existing reminder after the deadline.
func (t *Task) SetDeadline(deadline *time.Time, now time.Time) error {
	if deadline == nil {
		if t.ReminderTime != nil {
			return ErrReminderWithoutDeadline
		}
		t.Deadline = nil
		return nil
	}

	if deadline.Before(now) {
		return ErrDeadlineInPast
	}
	if t.ReminderTime != nil && t.ReminderTime.After(*deadline) {
		return ErrReminderAfterDeadline
	}

	t.Deadline = utcPtr(deadline)
	return nil
}

// HasConsistentSchedule reports whether the reminder and deadline obey the
// ordering rule. A reminder without a deadline, or after it, is malformed.
func (t *Task) HasConsistentSchedule() bool {
	if t.ReminderTime == nil {
		return true
	}
	return t.Deadline != nil && !t.ReminderTime.After(*t.Deadline)
}

// ReminderDue reports whether the reminder dispatcher should deliver this
// task's reminder at now: the reminder time falls in [now, now+lookahead),
// it has not been sent, and the task is not archived. Malformed tasks never
// match.
func (t *Task) ReminderDue(now time.Time, lookahead time.Duration) bool {
	if t.ReminderSent || t.Archived || t.ReminderTime == nil {
		return false
	}
	if !t.HasConsistentSchedule() {
		return false
	}

	windowEnd := now.Add(lookahead)
	return !t.ReminderTime.Before(now) && t.ReminderTime.Before(windowEnd)
}

// ArchivalRule identifies which rule made a task eligible for archival.
type ArchivalRule string

// Archival rules
const (
	// ArchivalRuleNone means the task is not eligible.
	ArchivalRuleNone ArchivalRule = ""
	// ArchivalRuleAfterGrace covers open tasks with a reminder whose
	// deadline passed more than the grace period ago.
	ArchivalRuleAfterGrace ArchivalRule = "after_grace"
	// ArchivalRuleAtDeadline covers open tasks without a reminder whose
	// deadline has passed.
	ArchivalRuleAtDeadline ArchivalRule = "at_deadline"
)

// ArchivalRuleAt returns the rule under which the archival sweeper would
// archive this task at now, or ArchivalRuleNone. Tasks without a deadline,
// closed tasks, archived tasks and malformed tasks are never eligible.
func (t *Task) ArchivalRuleAt(now time.Time, grace time.Duration) ArchivalRule {
	if t.Archived || !t.IsOpen() || t.Deadline == nil {
		return ArchivalRuleNone
	}
	if !t.HasConsistentSchedule() {
		return ArchivalRuleNone
	}

	if t.ReminderTime != nil {
		if t.Deadline.Before(now.Add(-grace)) {
			return ArchivalRuleAfterGrace
		}
		return ArchivalRuleNone
	}

	if t.Deadline.Before(now) {
		return ArchivalRuleAtDeadline
	}
	return ArchivalRuleNone
}

// ArchivableAt reports whether the task matches either archival rule at now.
func (t *Task) ArchivableAt(now time.Time, grace time.Duration) bool {
	return t.ArchivalRuleAt(now, grace) != ArchivalRuleNone
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
