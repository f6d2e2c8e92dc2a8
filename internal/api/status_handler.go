package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetStatus handles GET /api/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Status())
}

// Refresh handles POST /api/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Refresh(r.Context())
	if err != nil {
		// client went away; nobody to answer
		if r.Context().Err() != nil {
			return
		}
		h.logger.Error("failed to refresh",
			slog.String("error", err.Error()),
		)
		h.respondError(w, statusFor(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}

// ListNotices handles GET /api/notices
func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.ListNotices())
}

// DismissNotice handles DELETE /api/notices/{id}
func (h *Handler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.service.DismissNotice(id) {
		h.respondError(w, http.StatusNotFound, "notice not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DismissAllNotices handles DELETE /api/notices
func (h *Handler) DismissAllNotices(w http.ResponseWriter, r *http.Request) {
	h.service.DismissAllNotices()
	w.WriteHeader(http.StatusNoContent)
}
