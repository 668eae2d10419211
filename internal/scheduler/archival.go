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

// DefaultArchivalGrace is how long past its deadline a task that carries a
// reminder stays active.
const DefaultArchivalGrace = 72 * time.Hour

// ArchivalStore is the part of store.TaskStore the Archiver uses.
type ArchivalStore interface {
	FindEligibleForArchival(ctx context.Context, now time.Time, grace time.Duration) ([]*domain.Task, error)
	MarkArchived(ctx context.Context, id uuid.UUID) (bool, error)
}

// ArchiverConfig configures an Archiver.
type ArchiverConfig struct {
	// Grace applies to open tasks that have a reminder. Open tasks without
	// one are archived as soon as the deadline passes. A zero Grace is used
	// as is, so set DefaultArchivalGrace explicitly if wanted.
	Grace time.Duration
	SweepConfig
}

// Archiver marks stale open tasks archived.
type Archiver struct {
	store  ArchivalStore
	cfg    ArchiverConfig
	logger *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(store ArchivalStore, cfg ArchiverConfig, logger *slog.Logger) *Archiver {
	if cfg.Grace < 0 {
		cfg.Grace = 0
	}
	cfg.SweepConfig = cfg.SweepConfig.withDefaults()

	return &Archiver{
		store:  store,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "archival_sweeper")),
	}
}

// Kind implements Sweeper.
func (a *Archiver) Kind() Kind { return KindArchival }

// Run performs one archival sweep at now. Run never returns an error;
// failures are in the result.
func (a *Archiver) Run(ctx context.Context, now time.Time) *Result {
	log := logger.FromContextOrDefault(ctx, a.logger)
	start := time.Now()
	result := &Result{Kind: KindArchival, StartedAt: now}

	tasks, err := a.store.FindEligibleForArchival(ctx, now, a.cfg.Grace)
	if err != nil {
		result.Err = fmt.Errorf("failed to select tasks for archival: %w", err)
		result.Duration = time.Since(start)
		logSweep(log, result)
		return result
	}

	eligible := tasks[:0:0]
	for _, task := range tasks {
		if task.ArchivableAt(now, a.cfg.Grace) {
			eligible = append(eligible, task)
			continue
		}
		log.Debug("store returned task that is not archivable, ignoring",
			slog.String("task_id", task.ID.String()))
	}

	result.Items = fanOut(ctx, log, a.cfg.SweepConfig, eligible, OutcomePersistFailed,
		func(ctx context.Context, task *domain.Task) ItemOutcome {
			return a.archive(ctx, log, task, task.ArchivalRuleAt(now, a.cfg.Grace))
		})
	result.Duration = time.Since(start)
	logSweep(log, result)
	return result
}

func (a *Archiver) archive(
	ctx context.Context,
	log *slog.Logger,
	task *domain.Task,
	rule domain.ArchivalRule,
) ItemOutcome {
	taskLog := log.With(
		slog.String("task_id", task.ID.String()),
		slog.String("rule", string(rule)))

	changed, err := a.store.MarkArchived(ctx, task.ID)
	if err != nil {
		taskLog.Error("failed to archive task, will retry next tick",
			slog.String("error", err.Error()))
		return ItemOutcome{TaskID: task.ID, Outcome: OutcomePersistFailed, Err: err}
	}
	if !changed {
		taskLog.Debug("task already archived")
		return ItemOutcome{TaskID: task.ID, Outcome: OutcomeAlreadyMarked}
	}

	taskLog.Debug("task archived")
	return ItemOutcome{TaskID: task.ID, Outcome: OutcomeArchived}
}
