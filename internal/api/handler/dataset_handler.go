package handler

import (
	"io"
	"net/http"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
	"recognition-pipeline/pkg/utils"
)

// UploadDataset merges an uploaded CSV into a tenant dataset
// @Summary Upload records
// @Description Merge CSV records into the tenant's awards, employees or departments dataset
// @Tags datasets
// @Accept text/csv
// @Produce json
// @Param tenant path string true "Tenant ID"
// @Param type path string true "Record type" Enums(awards, employees, departments)
// @Param transformations query string false "Comma separated transformations, overriding the configured defaults"
// @Param body body string true "CSV text with a header row"
// @Success 200 {object} pipeline.UploadResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tenants/{tenant}/datasets/{type} [post]
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	tenant := utils.PathSegment(r.URL.Path, 3)
	recordType := utils.PathSegment(r.URL.Path, 5)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var opts model.UploadOptions
	if r.URL.Query().Has("transformations") {
		opts.Transformations = utils.SplitList(r.URL.Query().Get("transformations"))
		if opts.Transformations == nil {
			opts.Transformations = []string{}
		}
	}

	result, err := h.svc.UploadDataset(r.Context(), tenant, recordType, string(body), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetDataset returns a tenant dataset as CSV
// @Summary Download records
// @Description Return the tenant's merged dataset as CSV
// @Tags datasets
// @Produce text/csv
// @Param tenant path string true "Tenant ID"
// @Param type path string true "Record type" Enums(awards, employees, departments)
// @Success 200 {string} string "CSV text"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tenants/{tenant}/datasets/{type} [get]
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	tenant := utils.PathSegment(r.URL.Path, 3)
	recordType := utils.PathSegment(r.URL.Path, 5)

	d, err := h.svc.LoadDataset(r.Context(), tenant, recordType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(d.Header) == 0 {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, pipeline.Serialize(d))
}
