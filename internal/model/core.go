package model

import "time"

// PipelineScore holds metrics derived from a single run.
type PipelineScore struct {
	Run               string  `json:"run"`
	SuccessRate       float64 `json:"success_rate"`
	MalformedPct      float64 `json:"malformed_pct"`
	BiasScore         float64 `json:"bias_score"`
	FormatConsistency float64 `json:"format_consistency"`
	CategoryCount     int     `json:"category_count"`
	SubcategoryCount  int     `json:"subcategory_count"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	CandidatesFound   int     `json:"candidates_found"`
}

// OverlapRow counts, per run, the classifications that landed on one
// category display name.
type OverlapRow struct {
	Category string         `json:"category"`
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
}

// DiffRow records which runs' taxonomies contain a category name.
type DiffRow struct {
	Category string   `json:"category"`
	Present  []string `json:"present"`
	Missing  []string `json:"missing"`
}

// RadarRow is one "higher is better" radar axis.
type RadarRow struct {
	Metric   string             `json:"metric"`
	Max      float64            `json:"max"`
	Inverted bool               `json:"inverted"`
	Values   map[string]float64 `json:"values"`
}

// ComparisonData aggregates the comparison of two or more runs.
type ComparisonData struct {
	Runs    []string        `json:"runs"`
	Scores  []PipelineScore `json:"scores"`
	Overlap []OverlapRow    `json:"category_overlap"`
	Diff    []DiffRow       `json:"taxonomy_diff"`
	Radar   []RadarRow      `json:"radar"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// RunInfo lists a stored run without its documents.
type RunInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
