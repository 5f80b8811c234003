package handler

import (
	"net/http"

	"recognition-pipeline/pkg/utils"
)

// ListJobs retrieves upload jobs
// @Summary List upload jobs
// @Description Get upload jobs newest first, optionally for one tenant
// @Tags jobs
// @Produce json
// @Param tenant query string false "Tenant ID"
// @Success 200 {array} model.UploadJob
// @Failure 500 {object} ErrorResponse
// @Router /jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.ListJobs(r.Context(), r.URL.Query().Get("tenant"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetJob retrieves a specific upload job
// @Summary Get upload job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} model.UploadJob
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := utils.PathSegment(r.URL.Path, 3)
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetJobErrors retrieves errors for an upload job
// @Summary Get upload job errors
// @Description Retrieve skipped rows, validation warnings and failures recorded for a job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id}/errors [get]
func (h *Handler) GetJobErrors(w http.ResponseWriter, r *http.Request) {
	jobID := utils.PathSegment(r.URL.Path, 3)
	if _, err := h.store.GetJob(r.Context(), jobID); err != nil {
		h.fail(w, r, err)
		return
	}

	errs, err := h.store.GetJobErrors(r.Context(), jobID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"errors": errs,
		"count":  len(errs),
	})
}
