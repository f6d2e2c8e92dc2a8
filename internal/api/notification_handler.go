package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListNotifications handles GET /api/notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.ListNotifications(r.Context()))
}

// MarkNotificationRead handles POST /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "notification id is required")
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), id); err != nil {
		h.logger.Warn("failed to mark notification as read",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, statusFor(err), messageFor(err))
		return
	}

	h.respondJSON(w, http.StatusOK, h.service.ListNotifications(r.Context()))
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAllNotificationsRead(r.Context()); err != nil {
		h.logger.Warn("failed to mark all notifications as read",
			slog.String("error", err.Error()),
		)
		h.respondError(w, statusFor(err), messageFor(err))
		return
	}

	h.respondJSON(w, http.StatusOK, h.service.ListNotifications(r.Context()))
}

// DeleteNotification handles DELETE /api/notifications/{id}
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "notification id is required")
		return
	}

	if err := h.service.DeleteNotification(r.Context(), id); err != nil {
		h.logger.Warn("failed to delete notification",
			slog.String("notification_id", id),
			slog.String("error", err.Error()),
		)
		h.respondError(w, statusFor(err), messageFor(err))
		return
	}

	h.respondJSON(w, http.StatusOK, h.service.ListNotifications(r.Context()))
}
