package server

import (
	"net/http"

	"opsboard/internal/models"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and auth.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	// Tasks collection.
	mux.HandleFunc("POST /v1/tasks", s.requireAuth(s.handleCreateTask))
	mux.HandleFunc("GET /v1/tasks", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("POST /v1/tasks/batch", s.requireAuth(s.handleBatchCreate))
	mux.HandleFunc("GET /v1/tasks/stats", s.requireAuth(s.handleTaskStats))

	// Single task.
	mux.HandleFunc("GET /v1/tasks/{id}", s.requireAuth(s.handleGetTask))
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.requireAuth(s.handleUpdateTask))
	mux.HandleFunc("POST /v1/tasks/{id}/status", s.requireAuth(s.handleChangeStatus))
	mux.HandleFunc("POST /v1/tasks/{id}/comments", s.requireAuth(s.handleComment))
	mux.HandleFunc("GET /v1/tasks/{id}/timeline", s.requireAuth(s.handleTimeline))

	// Extension workflow. Decisions are restricted to directors/admins.
	mux.HandleFunc("POST /v1/tasks/{id}/extensions", s.requireAuth(s.handleRequestExtension))
	mux.HandleFunc("GET /v1/extensions/{id}", s.requireAuth(s.handleGetExtension))
	mux.HandleFunc("POST /v1/extensions/{id}/decision",
		s.requireRole(s.handleDecideExtension, models.RoleDirector, models.RoleAdmin))

	// Notifications.
	mux.HandleFunc("GET /v1/notifications", s.requireAuth(s.handleListNotifications))
	mux.HandleFunc("POST /v1/notifications/{id}/read", s.requireAuth(s.handleMarkNotificationRead))
	mux.HandleFunc("POST /v1/notifications/read-all", s.requireAuth(s.handleMarkAllNotificationsRead))
	mux.HandleFunc("POST /v1/notifications/dismiss", s.requireAuth(s.handleDismissNotifications))
	mux.HandleFunc("POST /v1/notifications/sweep",
		s.requireRole(s.handleSweep, models.RoleDirector, models.RoleAdmin))

	return s.withRequestLogging(mux)
}
