package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/notify"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "info", ShutdownTimeout: time.Second},
		Auth: config.AuthConfig{
			JWTSecret:            strings.Repeat("s", 32),
			BCryptCost:           4,
			TokenLifetimeMinutes: 60,
		},
		Scheduler: config.SchedulerConfig{
			ReminderInterval: time.Minute,
			ArchivalInterval: 10 * time.Minute,
			Lookahead:        5 * time.Minute,
			ArchivalGrace:    72 * time.Hour,
			Concurrency:      4,
			TaskTimeout:      30 * time.Second,
		},
		Notifier: config.NotifierConfig{Driver: "log"},
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) (*application, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	app, err := newApplication(context.Background(), cfg, logger.NewDiscardLogger(), db)
	require.NoError(t, err)
	return app, mock
}

func TestNewApplication(t *testing.T) {
	t.Parallel()

	t.Run("scheduler disabled", func(t *testing.T) {
		app, _ := newTestApplication(t, testConfig())
		assert.Nil(t, app.scheduler)
		assert.NotNil(t, app.taskService)
	})

	t.Run("scheduler enabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scheduler.Enabled = true
		app, _ := newTestApplication(t, cfg)
		require.NotNil(t, app.scheduler)
		assert.Len(t, app.scheduler.Stats(), 2)
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.JWTSecret = "short"
		_, err := newApplication(context.Background(), cfg, logger.NewDiscardLogger(), nil)
		assert.ErrorContains(t, err, "failed to initialize JWT service")
	})

	t.Run("unknown notifier", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scheduler.Enabled = true
		cfg.Notifier.Driver = "pigeon"
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		_, err = newApplication(context.Background(), cfg, logger.NewDiscardLogger(), db)
		assert.ErrorContains(t, err, `unknown notifier driver "pigeon"`)
	})
}

func TestBuildNotifier(t *testing.T) {
	t.Parallel()

	users := mocks.NewMockUserStore()
	log := logger.NewDiscardLogger()

	n, err := buildNotifier(context.Background(), config.NotifierConfig{Driver: "log"}, users, log)
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)

	n, err = buildNotifier(context.Background(), config.NotifierConfig{
		Driver:            "gmail",
		Sender:            "reminders@example.com",
		GmailClientID:     "id",
		GmailClientSecret: "secret",
		GmailRefreshToken: "refresh",
	}, users, log)
	require.NoError(t, err)
	assert.IsType(t, &notify.GmailNotifier{}, n)

	_, err = buildNotifier(context.Background(), config.NotifierConfig{Driver: "sms"}, users, log)
	assert.Error(t, err)
}

func TestBuildScheduler(t *testing.T) {
	t.Parallel()

	cfg := testConfig().Scheduler
	driver := buildScheduler(cfg, mocks.NewMockTaskStore(), &mocks.MockNotifier{}, nil, logger.NewDiscardLogger())

	stats := driver.Stats()
	require.Len(t, stats, 2)

	intervals := map[scheduler.Kind]string{}
	for _, s := range stats {
		intervals[s.Kind] = s.Interval
		assert.Equal(t, scheduler.StateIdle, s.State)
		assert.Nil(t, s.LastResult)
	}
	assert.Equal(t, "1m0s", intervals[scheduler.KindReminder])
	assert.Equal(t, "10m0s", intervals[scheduler.KindArchival])

	require.NoError(t, driver.Start(context.Background()))
	require.NoError(t, driver.Stop(context.Background()))
}

func serveRequest(app *application, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, req)
	return rec
}

func TestRouterHealth(t *testing.T) {
	t.Parallel()

	t.Run("database reachable", func(t *testing.T) {
		app, mock := newTestApplication(t, testConfig())
		mock.ExpectPing()

		rec := serveRequest(app, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database unreachable", func(t *testing.T) {
		app, mock := newTestApplication(t, testConfig())
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		rec := serveRequest(app, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestRouterRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newTestApplication(t, testConfig())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"tasks require auth", http.MethodGet, "/api/tasks", "", http.StatusUnauthorized},
		{"scheduler status requires auth", http.MethodGet, "/api/scheduler/status", "", http.StatusUnauthorized},
		{"categories require auth", http.MethodPost, "/api/categories", `{"name":"home"}`, http.StatusUnauthorized},
		{"register validates before storage", http.MethodPost, "/api/auth/register",
			`{"email":"not-an-email","password":"password123"}`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/cards", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveRequest(app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(shared.TraceIDHeader))
		})
	}
}

func TestMigrateCommandRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"migrate", "sideways"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}
