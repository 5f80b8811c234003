package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/internal/pipeline"
)

// maxBodyBytes bounds uploads and JSON request bodies.
const maxBodyBytes = 32 << 20

// JobStore is the read side of job and run persistence.
type JobStore interface {
	GetJob(ctx context.Context, jobID string) (model.UploadJob, error)
	ListJobs(ctx context.Context, tenant string) ([]model.UploadJob, error)
	GetJobErrors(ctx context.Context, jobID string) ([]model.ErrorDetail, error)
	ListRuns(ctx context.Context, tenant string) ([]model.RunInfo, error)
}

// Handler serves the recognition pipeline HTTP API.
type Handler struct {
	svc    *pipeline.Service
	store  JobStore
	logger *zap.Logger
}

// New creates a Handler.
func New(svc *pipeline.Service, store JobStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, store: store, logger: logger}
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// fail maps domain errors to status codes and logs server-side failures.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cfgErr *pipeline.ConfigurationError
		fmtErr *pipeline.FormatError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &fmtErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}
