package notify

import (
	"context"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// LogNotifier writes reminders to the log instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

// DeliverReminder logs the reminder. It never fails.
func (n *LogNotifier) DeliverReminder(ctx context.Context, task *domain.Task) error {
	logger.FromContextOrDefault(ctx, n.logger).Info("task reminder",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()),
		slog.String("subject", ReminderSubject),
		slog.String("body", ReminderText(task)))
	return nil
}
