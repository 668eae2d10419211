package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/todo-api/internal/api"
	"github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

const healthCheckTimeout = 2 * time.Second

// setupRouter creates the chi router with the middleware stack and every
// API route.
func (app *application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware(app.logger))

	authMiddleware := middleware.NewAuthMiddleware(app.jwtService)
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	categoryHandler := api.NewCategoryHandler(app.categoryService, app.logger)

	// A nil *Driver inside the interface would look enabled.
	var stats api.SchedulerStats
	if app.scheduler != nil {
		stats = app.scheduler
	}
	schedulerHandler := api.NewSchedulerHandler(stats)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/users/me", authHandler.Me)
			r.Patch("/users/me", authHandler.UpdateMe)
			r.Delete("/users/me", authHandler.DeleteMe)

			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Get("/tasks/search", taskHandler.SearchTasks)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Patch("/tasks/{id}/status", taskHandler.UpdateStatus)
			r.Put("/tasks/{id}/reminder", taskHandler.SetReminder)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)

			r.Post("/categories", categoryHandler.CreateCategory)
			r.Get("/categories", categoryHandler.ListCategories)
			r.Get("/categories/{id}", categoryHandler.GetCategory)
			r.Patch("/categories/{id}", categoryHandler.UpdateCategory)
			r.Get("/categories/{id}/tasks", categoryHandler.ListCategoryTasks)
			r.Delete("/categories/{id}", categoryHandler.DeleteCategory)

			r.Get("/scheduler/status", schedulerHandler.Status)
		})
	})

	r.Get("/health", app.handleHealth)

	return r
}

func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		logger.FromContextOrDefault(r.Context(), app.logger).Error("health check failed",
			slog.String("error", err.Error()))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
