package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/taskhub-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskhub-api/internal/api/middleware"
	"github.com/phrazzld/taskhub-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all
// routes and middleware. Everything under /api requires a resolved
// session; /ws performs its own session handshake and /health is open.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	channelHandler := api.NewChannelHandler(app.channelService, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationService, app.logger)
	sessionMiddleware := apiMiddleware.NewSessionMiddleware(app.sessionStore)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/ws", app.wsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)
			r.Get("/{id}", taskHandler.GetTask)
			r.Patch("/{id}", taskHandler.UpdateTask)
			r.Put("/{id}/status", taskHandler.UpdateTaskStatus)
			r.Delete("/{id}", taskHandler.DeleteTask)
			r.Get("/{id}/history", taskHandler.GetTaskHistory)
		})

		r.Route("/channels", func(r chi.Router) {
			r.Post("/", channelHandler.CreateChannel)
			r.Post("/{id}/messages", channelHandler.PostMessage)
			r.Post("/{id}/members", channelHandler.AddMember)
			r.Delete("/{id}/members/{userID}", channelHandler.RemoveMember)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.ListNotifications)
			r.Post("/{id}/read", notificationHandler.MarkNotificationRead)
		})
	})

	return r
}
