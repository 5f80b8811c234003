package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"recognition-pipeline/internal/model"
)

// Upload stages, in execution order.
const (
	StageParse     = "parse"
	StageTransform = "transform"
	StageValidate  = "validate"
	StageMerge     = "merge"
	StagePersist   = "persist"
)

// UploadTracker collects stage timings and error details for one upload.
type UploadTracker struct {
	JobID string

	mu      sync.Mutex
	start   time.Time
	metrics model.UploadMetrics
	errors  []model.ErrorDetail
	logger  *zap.Logger
}

// NewUploadTracker creates a tracker for jobID.
func NewUploadTracker(jobID string, logger *zap.Logger) *UploadTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadTracker{
		JobID:   jobID,
		start:   time.Now(),
		metrics: model.UploadMetrics{Stages: make(map[string]model.StageMetrics)},
		logger:  logger.With(zap.String("job_id", jobID)),
	}
}

// StartStage marks the start of an upload stage
func (t *UploadTracker) StartStage(stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.Stages[stage] = model.StageMetrics{StageName: stage, StartTime: time.Now()}
}

// EndStage marks the end of an upload stage
func (t *UploadTracker) EndStage(stage string, recordsProcessed int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sm := t.metrics.Stages[stage]
	sm.StageName = stage
	sm.EndTime = time.Now()
	if !sm.StartTime.IsZero() {
		sm.Duration = sm.EndTime.Sub(sm.StartTime)
	}
	sm.RecordsProcessed = int64(recordsProcessed)
	t.metrics.Stages[stage] = sm

	t.logger.Debug("stage completed",
		zap.String("stage", stage),
		zap.Int("records", recordsProcessed),
		zap.Duration("duration", sm.Duration))
}

// RecordError records an error with detailed context. An empty severity is
// derived from the error type.
func (t *UploadTracker) RecordError(detail model.ErrorDetail) {
	if detail.Timestamp.IsZero() {
		detail.Timestamp = time.Now()
	}
	if detail.Severity == "" {
		detail.Severity = determineSeverity(detail.ErrorType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, detail)
	if sm, ok := t.metrics.Stages[detail.Stage]; ok {
		sm.ErrorCount++
		t.metrics.Stages[detail.Stage] = sm
	}

	if detail.Severity == "critical" || detail.Severity == "high" {
		t.logger.Warn("upload error",
			zap.String("stage", detail.Stage),
			zap.String("error_type", detail.ErrorType),
			zap.String("message", detail.Message))
	}
}

// RecordParse stores parse counts.
func (t *UploadTracker) RecordParse(parsed, skipped int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.RowsParsed = parsed
	t.metrics.RowsSkipped = skipped
}

// RecordMerge copies the merge breakdown into the upload metrics.
func (t *UploadTracker) RecordMerge(stats MergeStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.ExistingRecords = stats.Existing
	t.metrics.IncomingRecords = stats.Incoming
	t.metrics.MergedRecords = stats.Merged
	t.metrics.Appended = stats.Appended
	t.metrics.Updated = stats.Updated
	t.metrics.Duplicates = stats.Duplicates
	t.metrics.IgnoredKeyless = stats.IgnoredKeyless
}

// Complete stamps the total processing time and returns a snapshot of the
// metrics.
func (t *UploadTracker) Complete() model.UploadMetrics {
	t.mu.Lock()
	t.metrics.ProcessingTime = time.Since(t.start)
	t.mu.Unlock()
	return t.Metrics()
}

// Metrics returns a copy of the current metrics.
func (t *UploadTracker) Metrics() model.UploadMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.metrics
	m.Stages = make(map[string]model.StageMetrics, len(t.metrics.Stages))
	for k, v := range t.metrics.Stages {
		m.Stages[k] = v
	}
	return m
}

// Errors returns the recorded error details in order.
func (t *UploadTracker) Errors() []model.ErrorDetail {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.ErrorDetail(nil), t.errors...)
}

// determineSeverity maps an error type to a severity level
func determineSeverity(errorType string) string {
	switch errorType {
	case "database_connection", "upload_failed":
		return "critical"
	case "malformed_row", "unknown_transformation":
		return "high"
	case "retryable_error":
		return "medium"
	default:
		return "low"
	}
}
