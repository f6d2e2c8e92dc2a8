package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirychukyurii/webitel-job-sync/internal/optimistic"
	"github.com/kirychukyurii/webitel-job-sync/internal/poller"
	"github.com/kirychukyurii/webitel-job-sync/internal/service"
)

// Handler holds the HTTP handlers and dependencies
type Handler struct {
	service     service.SyncService
	logger      *slog.Logger
	basePath    string
	metricsPath string
}

// NewHandler creates a new HTTP handler; an empty metricsPath disables /metrics
func NewHandler(service service.SyncService, basePath, metricsPath string, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		logger:      logger,
		basePath:    basePath,
		metricsPath: metricsPath,
	}
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.loggingMiddleware)
	r.Use(middleware.Recoverer)

	routesHandler := h.createRoutes()

	// If base path is configured, mount routes on that path
	if h.basePath != "" && h.basePath != "/" {
		r.Mount(h.basePath, routesHandler)
	} else {
		r.Mount("/", routesHandler)
	}

	return r
}

// createRoutes creates the API routes
func (h *Handler) createRoutes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		// Job routes
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/jobs/{id}/cancel", h.CancelJob)

		// Notification routes
		r.Get("/notifications", h.ListNotifications)
		r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		r.Delete("/notifications/{id}", h.DeleteNotification)

		// Notice routes
		r.Get("/notices", h.ListNotices)
		r.Delete("/notices", h.DismissAllNotices)
		r.Delete("/notices/{id}", h.DismissNotice)

		// Sync routes
		r.Get("/status", h.GetStatus)
		r.Post("/refresh", h.Refresh)
	})

	if h.metricsPath != "" {
		r.Handle(h.metricsPath, promhttp.Handler())
	}

	return r
}

// loggingMiddleware logs HTTP requests
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
		)
	})
}

// errorResponse represents an error response
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response",
			slog.String("error", err.Error()),
		)
	}
}

// respondError writes an error response
func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, errorResponse{Error: message})
}

// statusFor maps a service error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, optimistic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, optimistic.ErrBusy), errors.Is(err, optimistic.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, optimistic.ErrUnsupportedTransition):
		return http.StatusBadRequest
	case errors.Is(err, optimistic.ErrRollbackApplied):
		return http.StatusBadGateway
	case errors.Is(err, poller.ErrStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// messageFor returns the user-facing text of a service error
func messageFor(err error) string {
	if errors.Is(err, optimistic.ErrRollbackApplied) {
		return optimistic.Reason(err)
	}
	return err.Error()
}
