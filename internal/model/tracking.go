package model

import "time"

// Job statuses.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// StageMetrics represents metrics for a specific upload stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
}

// UploadMetrics summarizes one dataset upload.
type UploadMetrics struct {
	RowsParsed      int                     `json:"rows_parsed"`
	RowsSkipped     int                     `json:"rows_skipped"`
	ExistingRecords int                     `json:"existing_records"`
	IncomingRecords int                     `json:"incoming_records"`
	MergedRecords   int                     `json:"merged_records"`
	Appended        int                     `json:"appended"`
	Updated         int                     `json:"updated"`
	Duplicates      int                     `json:"duplicates"`
	IgnoredKeyless  int                     `json:"ignored_keyless"`
	ProcessingTime  time.Duration           `json:"processing_time"`
	Stages          map[string]StageMetrics `json:"stages"`
}

// ErrorDetail represents a detailed error with context
type ErrorDetail struct {
	Stage     string    `json:"stage"`
	ErrorType string    `json:"error_type"`
	Message   string    `json:"message"`
	Line      int       `json:"line,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
}

// UploadJob is the persisted record of one dataset upload.
type UploadJob struct {
	ID         string        `json:"id"`
	Tenant     string        `json:"tenant"`
	RecordType RecordType    `json:"record_type"`
	Status     string        `json:"status"`
	Metrics    UploadMetrics `json:"metrics"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
