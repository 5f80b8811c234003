package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recognition-pipeline/internal/model"
)

func TestUploadTracker(t *testing.T) {
	tr := NewUploadTracker("job-1", nil)

	tr.StartStage(StageParse)
	tr.RecordError(model.ErrorDetail{Stage: StageParse, ErrorType: "malformed_row", Message: "bare quote", Line: 4})
	tr.EndStage(StageParse, 10)
	tr.RecordParse(10, 1)
	tr.RecordMerge(MergeStats{Existing: 5, Incoming: 10, Merged: 12, Appended: 7, Updated: 3})

	m := tr.Complete()
	assert.Equal(t, 10, m.RowsParsed)
	assert.Equal(t, 1, m.RowsSkipped)
	assert.Equal(t, 12, m.MergedRecords)
	assert.Equal(t, 7, m.Appended)
	assert.Equal(t, 3, m.Updated)
	assert.True(t, m.ProcessingTime > 0)

	stage := m.Stages[StageParse]
	assert.Equal(t, int64(10), stage.RecordsProcessed)
	assert.Equal(t, int64(1), stage.ErrorCount)
	assert.False(t, stage.EndTime.Before(stage.StartTime))

	errs := tr.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "high", errs[0].Severity)
	assert.False(t, errs[0].Timestamp.IsZero())
}

func TestUploadTrackerMetricsAreCopies(t *testing.T) {
	tr := NewUploadTracker("job-2", nil)
	tr.StartStage(StageMerge)

	m := tr.Metrics()
	delete(m.Stages, StageMerge)
	assert.Contains(t, tr.Metrics().Stages, StageMerge)
}

func TestDetermineSeverity(t *testing.T) {
	tests := map[string]string{
		"database_connection":    "critical",
		"upload_failed":          "critical",
		"malformed_row":          "high",
		"unknown_transformation": "high",
		"retryable_error":        "medium",
		"missing_key":            "low",
	}
	for errorType, want := range tests {
		assert.Equal(t, want, determineSeverity(errorType), errorType)
	}
}
