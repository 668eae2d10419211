package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Defaults shared by both sweeps.
const (
	DefaultConcurrency = 4
	DefaultTaskTimeout = 30 * time.Second
)

// SweepConfig bounds the work of a single sweep.
type SweepConfig struct {
	// Concurrency is the maximum number of tasks processed at once.
	Concurrency int
	// TaskTimeout bounds the work on a single task, including its flag write.
	TaskTimeout time.Duration
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = DefaultTaskTimeout
	}
	return c
}

// taskFunc does the work for one task. The context it receives is detached
// from sweep cancellation and bounded by the task timeout.
type taskFunc func(ctx context.Context, task *domain.Task) ItemOutcome

// fanOut runs fn for every task with at most cfg.Concurrency in flight. A
// panic in fn is recovered and recorded with the onPanic outcome.
//
// Once ctx is canceled no new task is started; those tasks are reported as
// OutcomeCanceled. A task that has started runs to completion on a context
// that ignores the cancellation, so a delivered reminder still gets its flag
// written during shutdown.
func fanOut(
	ctx context.Context,
	log *slog.Logger,
	cfg SweepConfig,
	tasks []*domain.Task,
	onPanic Outcome,
	fn taskFunc,
) []ItemOutcome {
	items := make([]ItemOutcome, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(cfg.Concurrency)

	for i, task := range tasks {
		if ctx.Err() != nil {
			items[i] = ItemOutcome{TaskID: task.ID, Outcome: OutcomeCanceled}
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				items[i] = ItemOutcome{TaskID: task.ID, Outcome: OutcomeCanceled}
				return nil
			}
			items[i] = runTask(ctx, log, cfg.TaskTimeout, task, onPanic, fn)
			return nil
		})
	}

	_ = g.Wait()
	return items
}

func runTask(
	ctx context.Context,
	log *slog.Logger,
	timeout time.Duration,
	task *domain.Task,
	onPanic Outcome,
	fn taskFunc,
) (item ItemOutcome) {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing task",
				slog.String("task_id", task.ID.String()),
				slog.Any("panic", r))
			item = ItemOutcome{
				TaskID:  task.ID,
				Outcome: onPanic,
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()

	return fn(taskCtx, task)
}

func logSweep(log *slog.Logger, result *Result) {
	attrs := []any{
		slog.Int("attempted", result.Attempted()),
		slog.Int("succeeded", result.Succeeded()),
		slog.Int("failed", result.Failed()),
		slog.Int("skipped", result.Skipped()),
		slog.Duration("duration", result.Duration),
	}
	if result.Err != nil {
		log.Error("sweep finished with selection error",
			append(attrs, slog.String("error", result.Err.Error()))...)
		return
	}
	if result.Attempted() == 0 && result.Skipped() == 0 {
		log.Debug("sweep finished, nothing eligible", attrs...)
		return
	}
	log.Info("sweep finished", attrs...)
}
