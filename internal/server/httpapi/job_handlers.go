package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/go-chi/chi/v5"
)

type createJobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type jobStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListActive(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *handlers) adminListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *handlers) adminCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *handlers) adminDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) adminSetJobStatus(w http.ResponseWriter, r *http.Request) {
	var req jobStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	if req.IsActive == nil {
		writeError(r.Context(), w, h.logger, fmt.Errorf("%w: is_active is required", common.ErrInvalidInput))
		return
	}

	job, err := h.jobs.SetActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
