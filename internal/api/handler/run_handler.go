package handler

import (
	"encoding/json"
	"net/http"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/pkg/utils"
)

// RunRequest uploads the documents of one pipeline run. Every document is
// optional.
type RunRequest struct {
	Name            string                     `json:"name"`
	Taxonomy        json.RawMessage            `json:"taxonomy,omitempty" swaggertype:"object"`
	Classifications *model.ClassificationBatch `json:"classifications,omitempty"`
	Summary         *model.RunSummary          `json:"summary,omitempty"`
}

// SaveRun stores a pipeline run
// @Summary Save run
// @Description Store a run's taxonomy, classification batch and summary under its name, replacing an earlier run with the same name
// @Tags runs
// @Accept json
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Param run body RunRequest true "Run documents"
// @Success 201 {object} model.RunInfo
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tenants/{tenant}/runs [post]
func (h *Handler) SaveRun(w http.ResponseWriter, r *http.Request) {
	tenant := utils.PathSegment(r.URL.Path, 3)

	var req RunRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	run := model.PipelineRun{
		Name:     req.Name,
		Taxonomy: pipeline.LoadTaxonomy(req.Taxonomy),
		Batch:    req.Classifications,
		Summary:  req.Summary,
	}
	if err := h.svc.SaveRun(r.Context(), tenant, &run); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.RunInfo{ID: run.ID, Name: run.Name})
}

// ListRuns lists a tenant's runs
// @Summary List runs
// @Tags runs
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Success 200 {array} model.RunInfo
// @Failure 500 {object} ErrorResponse
// @Router /tenants/{tenant}/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context(), utils.PathSegment(r.URL.Path, 3))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// CompareRuns compares stored runs
// @Summary Compare runs
// @Description Score the named runs and build category overlap, taxonomy diff and radar tables
// @Tags runs
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Param runs query string true "Comma separated run names"
// @Success 200 {object} model.ComparisonData
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenant}/compare [get]
func (h *Handler) CompareRuns(w http.ResponseWriter, r *http.Request) {
	tenant := utils.PathSegment(r.URL.Path, 3)
	names := utils.SplitList(r.URL.Query().Get("runs"))
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "runs query parameter is required")
		return
	}

	data, err := h.svc.CompareRuns(r.Context(), tenant, names)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
