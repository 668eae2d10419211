package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/notify"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/scheduler"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// application holds the shared dependencies of the server so that they can
// be wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore     store.UserStore
	taskStore     store.TaskStore
	categoryStore store.CategoryStore

	jwtService      auth.JWTService
	userService     service.UserService
	taskService     service.TaskService
	categoryService service.CategoryService

	// scheduler is nil when the scheduler is disabled.
	scheduler *scheduler.Driver
}

// newApplication wires stores, services, the reminder notifier and the
// scheduler.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.categoryStore = postgres.NewPostgresCategoryStore(db, logger)

	app.userService = service.NewUserService(app.userStore, auth.NewBcryptVerifier(), logger)
	app.taskService = service.NewTaskService(app.taskStore, db, logger)
	app.categoryService = service.NewCategoryService(app.categoryStore, app.taskStore, logger)

	if cfg.Scheduler.Enabled {
		notifier, err := buildNotifier(ctx, cfg.Notifier, app.userStore, logger)
		if err != nil {
			return nil, err
		}
		app.scheduler = buildScheduler(cfg.Scheduler, app.taskStore, notifier, nil, logger)
	} else {
		logger.Info("scheduler disabled by configuration")
	}

	logger.Info("application initialized")
	return app, nil
}

// buildNotifier returns the reminder transport selected by cfg.Driver.
func buildNotifier(
	ctx context.Context,
	cfg config.NotifierConfig,
	users notify.UserLookup,
	logger *slog.Logger,
) (scheduler.Notifier, error) {
	switch cfg.Driver {
	case "gmail":
		n, err := notify.NewGmailNotifier(ctx, notify.GmailConfig{
			Sender:       cfg.Sender,
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
		}, users, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gmail notifier: %w", err)
		}
		logger.Info("reminders will be sent through Gmail", slog.String("sender", cfg.Sender))
		return n, nil
	case "log":
		logger.Info("reminders will be written to the log only")
		return notify.NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Driver)
	}
}

// buildScheduler creates the driver with one trigger per sweep kind. A nil
// clock means the real clock.
func buildScheduler(
	cfg config.SchedulerConfig,
	tasks store.TaskStore,
	notifier scheduler.Notifier,
	clock scheduler.Clock,
	logger *slog.Logger,
) *scheduler.Driver {
	sweep := scheduler.SweepConfig{
		Concurrency: cfg.Concurrency,
		TaskTimeout: cfg.TaskTimeout,
	}

	dispatcher := scheduler.NewDispatcher(tasks, notifier, scheduler.DispatcherConfig{
		Lookahead:   cfg.Lookahead,
		SweepConfig: sweep,
	}, logger)
	archiver := scheduler.NewArchiver(tasks, scheduler.ArchiverConfig{
		Grace:       cfg.ArchivalGrace,
		SweepConfig: sweep,
	}, logger)

	return scheduler.NewDriver(clock, logger,
		scheduler.Trigger{Sweeper: dispatcher, Interval: cfg.ReminderInterval},
		scheduler.Trigger{Sweeper: archiver, Interval: cfg.ArchivalInterval},
	)
}

// Run starts the scheduler and serves HTTP until ctx is canceled, then
// shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if app.scheduler != nil {
		if err := app.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the scheduler, letting in-flight reminders finish, and
// closes the database.
func (app *application) cleanup(ctx context.Context) {
	if app.scheduler != nil {
		if err := app.scheduler.Stop(ctx); err != nil {
			app.logger.Error("scheduler did not stop cleanly", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
