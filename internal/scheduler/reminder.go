package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// DefaultLookahead is how far ahead of now a reminder counts as due.
const DefaultLookahead = 5 * time.Minute

// Notifier delivers a reminder for a task. Implementations must tolerate
// repeated calls for the same task.
type Notifier interface {
	DeliverReminder(ctx context.Context, task *domain.Task) error
}

// ReminderStore is the part of store.TaskStore the Dispatcher uses.
type ReminderStore interface {
	FindEligibleForReminder(ctx context.Context, now time.Time, lookahead time.Duration) ([]*domain.Task, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Lookahead time.Duration
	SweepConfig
}

// Dispatcher delivers due reminders and marks them sent.
type Dispatcher struct {
	store    ReminderStore
	notifier Notifier
	cfg      DispatcherConfig
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. Zero config values take the defaults.
func NewDispatcher(store ReminderStore, notifier Notifier, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	cfg.SweepConfig = cfg.SweepConfig.withDefaults()

	return &Dispatcher{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "reminder_dispatcher")),
	}
}

// Kind implements Sweeper.
func (d *Dispatcher) Kind() Kind { return KindReminder }

// Run performs one reminder sweep at now. Every task whose reminder time is
// in [now, now+lookahead) and that is neither sent nor archived gets one
// delivery attempt. Run never returns an error; failures are in the result.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) *Result {
	log := logger.FromContextOrDefault(ctx, d.logger)
	start := time.Now()
	result := &Result{Kind: KindReminder, StartedAt: now}

	tasks, err := d.store.FindEligibleForReminder(ctx, now, d.cfg.Lookahead)
	if err != nil {
		result.Err = fmt.Errorf("failed to select reminders: %w", err)
		result.Duration = time.Since(start)
		logSweep(log, result)
		return result
	}

	due := tasks[:0:0]
	for _, task := range tasks {
		if task.ReminderDue(now, d.cfg.Lookahead) {
			due = append(due, task)
			continue
		}
		log.Debug("store returned task that is not due, ignoring",
			slog.String("task_id", task.ID.String()))
	}

	result.Items = fanOut(ctx, log, d.cfg.SweepConfig, due, OutcomeDeliveryFailed,
		func(ctx context.Context, task *domain.Task) ItemOutcome {
			return d.deliver(ctx, log, task)
		})
	result.Duration = time.Since(start)
	logSweep(log, result)
	return result
}

func (d *Dispatcher) deliver(ctx context.Context, log *slog.Logger, task *domain.Task) ItemOutcome {
	taskLog := log.With(slog.String("task_id", task.ID.String()))

	if err := d.notifier.DeliverReminder(ctx, task); err != nil {
		taskLog.Warn("reminder delivery failed, will retry next tick",
			slog.String("error", err.Error()))
		return ItemOutcome{TaskID: task.ID, Outcome: OutcomeDeliveryFailed, Err: err}
	}

	changed, err := d.store.MarkReminderSent(ctx, task.ID)
	if err != nil {
		taskLog.Error("reminder delivered but marking it sent failed",
			slog.String("error", err.Error()))
		return ItemOutcome{TaskID: task.ID, Outcome: OutcomePersistFailed, Err: err}
	}
	if !changed {
		taskLog.Debug("reminder already marked sent")
		return ItemOutcome{TaskID: task.ID, Outcome: OutcomeAlreadyMarked}
	}

	taskLog.Debug("reminder delivered")
	return ItemOutcome{TaskID: task.ID, Outcome: OutcomeDelivered}
}
