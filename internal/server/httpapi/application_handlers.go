package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/appli/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type applyRequest struct {
	ResumeURL   string  `json:"resume_url"`
	CoverLetter *string `json:"cover_letter"`
}

type applyResponse struct {
	Message       string                   `json:"message"`
	ApplicationID string                   `json:"application_id"`
	Status        models.ApplicationStatus `json:"status"`
}

type statusRequest struct {
	Status models.ApplicationStatus `json:"status"`
}

type uploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type resumeURLResponse struct {
	URL string `json:"url"`
}

func (h *handlers) apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	app, err := h.applications.Apply(r.Context(), principal(r).ID, chi.URLParam(r, "id"), req.ResumeURL, req.CoverLetter)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, applyResponse{
		Message:       "Application submitted successfully",
		ApplicationID: app.ID,
		Status:        app.Status,
	})
}

func (h *handlers) resumeUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.resumes.PresignUpload(r.Context(), principal(r).ID)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{Key: key, URL: url})
}

func (h *handlers) listMyApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.ListMine(r.Context(), principal(r).ID)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *handlers) getMyApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.GetMine(r.Context(), principal(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *handlers) myApplicationHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.applications.HistoryMine(r.Context(), principal(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *handlers) adminListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.ListAll(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *handlers) adminGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *handlers) adminApplicationHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.applications.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (h *handlers) adminChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	app, err := h.applications.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.Status, principal(r).ID)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *handlers) adminResumeURL(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	url, err := h.resumes.PresignDownload(r.Context(), app.ResumeURL)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resumeURLResponse{URL: url})
}
