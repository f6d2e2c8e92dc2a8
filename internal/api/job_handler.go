package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirychukyurii/webitel-job-sync/internal/model"
	"github.com/kirychukyurii/webitel-job-sync/internal/service"
)

// ListJobs handles GET /api/jobs?status=&q=
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := service.JobFilter{
		Status: model.JobStatus(r.URL.Query().Get("status")),
		Query:  r.URL.Query().Get("q"),
	}

	h.respondJSON(w, http.StatusOK, h.service.ListJobs(r.Context(), filter))
}

// GetJob handles GET /api/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "job id is required")
		return
	}

	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		h.respondError(w, statusFor(err), err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// CancelJob handles POST /api/jobs/{id}/cancel
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "job id is required")
		return
	}

	result, err := h.service.CancelJob(r.Context(), id)
	if err != nil {
		h.logger.Warn("failed to cancel job",
			slog.String("job_id", id),
			slog.String("error", err.Error()),
		)

		// If we have a result with rollback info, return it with the error
		if result != nil && len(result.Errors) > 0 {
			h.respondJSON(w, statusFor(err), result)
			return
		}

		h.respondError(w, statusFor(err), messageFor(err))
		return
	}

	h.respondJSON(w, http.StatusAccepted, result)
}
