package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Subcategory is a leaf of a taxonomy category.
type Subcategory struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Category is a top-level taxonomy node.
type Category struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Subcategories []Subcategory `json:"subcategories" yaml:"subcategories"`
}

// HasSubcategory reports whether id names one of the category's subcategories.
func (c Category) HasSubcategory(id string) bool {
	for _, s := range c.Subcategories {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Taxonomy is the canonical classification target space.
type Taxonomy struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// CategoryByID looks a category up by id.
func (t *Taxonomy) CategoryByID(id string) (Category, bool) {
	if t == nil {
		return Category{}, false
	}
	for _, c := range t.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// SubcategoryCount returns the number of subcategories across all categories.
func (t *Taxonomy) SubcategoryCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, c := range t.Categories {
		n += len(c.Subcategories)
	}
	return n
}

// Classification is the result of scoring one message against a taxonomy.
type Classification struct {
	MessageID   string  `json:"message_id,omitempty"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Confidence  float64 `json:"confidence"`
	Score       int     `json:"score"`
	Matched     bool    `json:"matched"`
}

// BatchMetadata is the metadata block of a classification batch document.
type BatchMetadata struct {
	TotalMessages   int    `json:"total_messages"`
	TotalClassified int    `json:"total_classified"`
	BatchSize       int    `json:"batch_size"`
	Model           string `json:"model"`
}

// ClassificationEntry is one classification produced by a pipeline run.
type ClassificationEntry struct {
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Themes      []string        `json:"themes,omitempty"`
	NewCategory json.RawMessage `json:"new_category,omitempty"`
}

// ClassificationBatch is the per-run classification document.
type ClassificationBatch struct {
	Metadata            BatchMetadata         `json:"metadata"`
	Classifications     []ClassificationEntry `json:"classifications"`
	CandidateCategories map[string]int        `json:"candidate_categories,omitempty"`
}

// Phases is a list of phase identifiers; documents carry them as numbers or
// strings.
type Phases []string

// UnmarshalJSON accepts a list mixing numbers and strings.
func (p *Phases) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Phases, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			out = append(out, val)
		case float64:
			out = append(out, strconv.FormatFloat(val, 'f', -1, 64))
		case nil:
		default:
			return fmt.Errorf("unsupported phase value %v", v)
		}
	}
	*p = out
	return nil
}

// PipelineInfo is the pipeline block of a run summary document.
type PipelineInfo struct {
	TotalTimeSeconds    float64  `json:"total_time_seconds"`
	PhasesRun           Phases   `json:"phases_run"`
	LLMProviderPriority []string `json:"llm_provider_priority,omitempty"`
	Phase1Models        []string `json:"phase_1_models,omitempty"`
	Phase2Model         string   `json:"phase_2_model,omitempty"`
	Phase3Models        []string `json:"phase_3_models,omitempty"`
}

// ResultsInfo is the results block of a run summary document.
type ResultsInfo struct {
	FinalCategories    int `json:"final_categories"`
	TotalSubcategories int `json:"total_subcategories"`
	CandidatesFound    int `json:"candidates_found"`
	ChangesApplied     int `json:"changes_applied"`
}

// RunSummary is the per-run summary document.
type RunSummary struct {
	Pipeline PipelineInfo `json:"pipeline"`
	Results  ResultsInfo  `json:"results"`
}

// PipelineRun bundles the artifacts of one classification run. Any of the
// pointers may be nil.
type PipelineRun struct {
	ID       string               `json:"id,omitempty"`
	Name     string               `json:"name"`
	Taxonomy *Taxonomy            `json:"taxonomy,omitempty"`
	Batch    *ClassificationBatch `json:"classifications,omitempty"`
	Summary  *RunSummary          `json:"summary,omitempty"`
}
