package pipeline

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"recognition-pipeline/internal/model"
)

type transformFunc func(model.Dataset) model.Dataset

var transformations = map[string]transformFunc{
	"trimStrings":      trimStrings,
	"normalizeUnicode": normalizeUnicode,
	"dropEmptyRows":    dropEmptyRows,
	"lowercaseHeaders": lowercaseHeaders,
}

// TransformationNames lists the supported transformation names.
func TransformationNames() []string {
	return []string{"trimStrings", "normalizeUnicode", "dropEmptyRows", "lowercaseHeaders"}
}

// CheckTransformations reports the first unsupported transformation name.
func CheckTransformations(names []string) error {
	for _, name := range names {
		if _, ok := transformations[name]; !ok {
			return &ConfigurationError{Field: "transformations", Value: name, Reason: "unknown transformation"}
		}
	}
	return nil
}

// ApplyTransformations runs the named transformations over a copy of d in
// order. The input dataset is left untouched.
func ApplyTransformations(d model.Dataset, names []string) (model.Dataset, error) {
	if err := CheckTransformations(names); err != nil {
		return model.Dataset{}, err
	}
	result := d.Clone()
	for _, name := range names {
		result = transformations[name](result)
	}
	return result, nil
}

// trimStrings trims surrounding whitespace from every value
func trimStrings(d model.Dataset) model.Dataset {
	for _, rec := range d.Records {
		for k, v := range rec {
			rec[k] = strings.TrimSpace(v)
		}
	}
	return d
}

// normalizeUnicode rewrites header names and values in NFKC form so that
// visually identical keys compare equal.
func normalizeUnicode(d model.Dataset) model.Dataset {
	return renameColumns(d, norm.NFKC.String, norm.NFKC.String)
}

// dropEmptyRows removes records whose values are all blank
func dropEmptyRows(d model.Dataset) model.Dataset {
	kept := d.Records[:0]
	for _, rec := range d.Records {
		for _, v := range rec {
			if strings.TrimSpace(v) != "" {
				kept = append(kept, rec)
				break
			}
		}
	}
	d.Records = kept
	return d
}

// lowercaseHeaders lower-cases column names so identity key lookups match
// spreadsheets exported with "Employee_ID" style headers.
func lowercaseHeaders(d model.Dataset) model.Dataset {
	return renameColumns(d, strings.ToLower, nil)
}

// renameColumns maps every header name through rename and every value
// through value (when non-nil). Columns that collide after renaming keep the
// first occurrence.
func renameColumns(d model.Dataset, rename func(string) string, value func(string) string) model.Dataset {
	header := make([]string, 0, len(d.Header))
	from := make(map[string]string, len(d.Header))
	for _, h := range d.Header {
		name := rename(h)
		if _, dup := from[name]; dup {
			continue
		}
		from[name] = h
		header = append(header, name)
	}

	records := make([]model.Record, len(d.Records))
	for i, rec := range d.Records {
		out := make(model.Record, len(header))
		for _, name := range header {
			v := rec[from[name]]
			if value != nil {
				v = value(v)
			}
			out[name] = v
		}
		records[i] = out
	}
	return model.Dataset{Header: header, Records: records}
}
