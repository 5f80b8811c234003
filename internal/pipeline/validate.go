package pipeline

import (
	"fmt"
	"strings"
	"time"

	"recognition-pipeline/internal/model"
)

// maxKeylessWarnings caps per-row warnings; the remainder is summarized.
const maxKeylessWarnings = 20

// ValidateUpload inspects an incoming dataset against the existing one and
// returns non-fatal warnings: rows without any identity key and columns the
// existing header will drop. It never rejects an upload.
func ValidateUpload(t model.RecordType, existing, incoming model.Dataset) ([]model.ErrorDetail, error) {
	keys, err := IdentityKeys(t)
	if err != nil {
		return nil, err
	}

	var warnings []model.ErrorDetail
	warn := func(errorType, msg string, row int) {
		warnings = append(warnings, model.ErrorDetail{
			Stage:     StageValidate,
			ErrorType: errorType,
			Message:   msg,
			Line:      row,
			Timestamp: time.Now(),
			Severity:  "low",
		})
	}

	if len(incoming.Header) > 0 && !hasAnyColumn(incoming, keys) {
		warn("missing_key_column", fmt.Sprintf("%s upload has none of the identity columns %s", t, strings.Join(keys, ", ")), 0)
	}

	effect := "kept without deduplication"
	if t != model.Awards {
		effect = "ignored by merge"
	}
	keyless := 0
	for i, rec := range incoming.Records {
		if rec.FirstValue(keys...) != "" {
			continue
		}
		keyless++
		if keyless <= maxKeylessWarnings {
			// header occupies line 1
			warn("missing_key", fmt.Sprintf("row %d has no %s identity key; %s", i+2, t, effect), i+2)
		}
	}
	if keyless > maxKeylessWarnings {
		warn("missing_key", fmt.Sprintf("%d more rows have no identity key", keyless-maxKeylessWarnings), 0)
	}

	if !existing.Empty() && !incoming.Empty() {
		var dropped []string
		for _, h := range incoming.Header {
			if !existing.HasColumn(h) {
				dropped = append(dropped, h)
			}
		}
		if len(dropped) > 0 {
			warn("dropped_columns", fmt.Sprintf("columns not in the existing %s header will be dropped: %s", t, strings.Join(dropped, ", ")), 0)
		}
	}
	return warnings, nil
}

func hasAnyColumn(d model.Dataset, cols []string) bool {
	for _, c := range cols {
		if d.HasColumn(c) {
			return true
		}
	}
	return false
}
