package pipeline

import "recognition-pipeline/internal/model"

// MergeStats describes what a merge did with the incoming records.
type MergeStats struct {
	Existing       int `json:"existing"`
	Incoming       int `json:"incoming"`
	Merged         int `json:"merged"`
	Appended       int `json:"appended"`
	Updated        int `json:"updated"`
	Duplicates     int `json:"duplicates"`
	IgnoredKeyless int `json:"ignored_keyless"`
}

type mergeFunc func(existing, incoming model.Dataset, stats *MergeStats) []model.Record

type strategy struct {
	keys  []string
	merge mergeFunc
}

// Identity key columns per record type, in precedence order.
var (
	awardKeys      = []string{"award_id", "id"}
	employeeKeys   = []string{"employee_id", "id"}
	departmentKeys = []string{"dept_id", "id", "department_id"}
)

var strategies = map[model.RecordType]strategy{
	model.Awards:      {keys: awardKeys, merge: appendDedup(awardKeys)},
	model.Employees:   {keys: employeeKeys, merge: upsert(employeeKeys)},
	model.Departments: {keys: departmentKeys, merge: upsert(departmentKeys)},
}

// IdentityKeys returns the identity key columns for t in precedence order.
func IdentityKeys(t model.RecordType) ([]string, error) {
	s, ok := strategies[t]
	if !ok {
		return nil, &ConfigurationError{Field: "record_type", Value: string(t), Reason: "no merge strategy"}
	}
	return s.keys, nil
}

// Merge reconciles incoming into existing using the strategy for t.
func Merge(t model.RecordType, existing, incoming model.Dataset) (model.Dataset, error) {
	merged, _, err := MergeDetailed(t, existing, incoming)
	return merged, err
}

// MergeDetailed is Merge plus a breakdown of what happened to each incoming
// record. It performs no I/O and does not modify its inputs.
func MergeDetailed(t model.RecordType, existing, incoming model.Dataset) (model.Dataset, MergeStats, error) {
	s, ok := strategies[t]
	if !ok {
		return model.Dataset{}, MergeStats{}, &ConfigurationError{Field: "record_type", Value: string(t), Reason: "no merge strategy"}
	}

	stats := MergeStats{Existing: existing.Len(), Incoming: incoming.Len()}
	if existing.Empty() {
		stats.Appended = incoming.Len()
		stats.Merged = incoming.Len()
		return incoming, stats, nil
	}
	if incoming.Empty() {
		stats.Merged = existing.Len()
		return existing, stats, nil
	}

	records := s.merge(existing, incoming, &stats)
	stats.Merged = len(records)
	return model.Dataset{
		Header:  append([]string(nil), existing.Header...),
		Records: records,
	}, stats, nil
}

// appendDedup keeps every existing record and appends incoming records whose
// key is not already present. Keyless incoming records are always kept.
func appendDedup(keys []string) mergeFunc {
	return func(existing, incoming model.Dataset, stats *MergeStats) []model.Record {
		seen := make(map[string]struct{}, existing.Len())
		out := make([]model.Record, 0, existing.Len()+incoming.Len())
		for _, rec := range existing.Records {
			if k := rec.FirstValue(keys...); k != "" {
				seen[k] = struct{}{}
			}
			out = append(out, rec.Project(existing.Header))
		}
		for _, rec := range incoming.Records {
			k := rec.FirstValue(keys...)
			if k != "" {
				if _, dup := seen[k]; dup {
					stats.Duplicates++
					continue
				}
			}
			out = append(out, rec.Project(existing.Header))
			stats.Appended++
		}
		return out
	}
}

// upsert replaces existing records in place by key and appends new keys at
// the end. Keyless incoming records are ignored; keyless existing records
// stay where they are.
func upsert(keys []string) mergeFunc {
	return func(existing, incoming model.Dataset, stats *MergeStats) []model.Record {
		out := make([]model.Record, 0, existing.Len()+incoming.Len())
		index := make(map[string]int, existing.Len())
		for _, rec := range existing.Records {
			k := rec.FirstValue(keys...)
			if k == "" {
				out = append(out, rec.Project(existing.Header))
				continue
			}
			if i, ok := index[k]; ok {
				out[i] = rec.Project(existing.Header)
				continue
			}
			index[k] = len(out)
			out = append(out, rec.Project(existing.Header))
		}

		for _, rec := range incoming.Records {
			k := rec.FirstValue(keys...)
			if k == "" {
				stats.IgnoredKeyless++
				continue
			}
			if i, ok := index[k]; ok {
				out[i] = rec.Project(existing.Header)
				stats.Updated++
				continue
			}
			index[k] = len(out)
			out = append(out, rec.Project(existing.Header))
			stats.Appended++
		}
		return out
	}
}
