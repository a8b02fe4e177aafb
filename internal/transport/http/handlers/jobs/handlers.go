package jobshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"remuneraciones/internal/domain/auth"
	"remuneraciones/internal/platform/jobs"
	"remuneraciones/internal/transport/http/api"
	"remuneraciones/internal/transport/http/middleware"
)

type Getter interface {
	Get(ctx context.Context, tenantID, runID string) (jobs.Run, error)
}

type Handler struct {
	Jobs  Getter
	Perms middleware.PermissionChecker
}

func NewHandler(runs Getter, perms middleware.PermissionChecker) *Handler {
	return &Handler{Jobs: runs, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermJobsRead, h.Perms)).Get("/jobs/{jobID}", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	run, err := h.Jobs.Get(r.Context(), user.TenantID, chi.URLParam(r, "jobID"))
	if errors.Is(err, jobs.ErrRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "job not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_get_failed", "failed to load job", requestID)
		return
	}
	api.Success(w, run, requestID)
}
