package model

import "fmt"

// Record is a single tabular row keyed by column name.
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Project returns a copy of the record restricted to header, with missing
// columns set to the empty string.
func (r Record) Project(header []string) Record {
	out := make(Record, len(header))
	for _, col := range header {
		out[col] = r[col]
	}
	return out
}

// FirstValue returns the first non-empty value among keys.
func (r Record) FirstValue(keys ...string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

// Dataset is an ordered set of records sharing one header.
type Dataset struct {
	Header  []string `json:"header"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Records) }

// Empty reports whether the dataset has no records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// Clone deep-copies the dataset.
func (d Dataset) Clone() Dataset {
	out := Dataset{}
	if d.Header != nil {
		out.Header = append([]string(nil), d.Header...)
	}
	if d.Records != nil {
		out.Records = make([]Record, len(d.Records))
		for i, r := range d.Records {
			out.Records[i] = r.Clone()
		}
	}
	return out
}

// HasColumn reports whether col is part of the header.
func (d Dataset) HasColumn(col string) bool {
	for _, h := range d.Header {
		if h == col {
			return true
		}
	}
	return false
}

// RecordType identifies which merge strategy applies to a dataset.
type RecordType string

const (
	Awards      RecordType = "awards"
	Employees   RecordType = "employees"
	Departments RecordType = "departments"
)

// RecordTypes lists every supported record type in a stable order.
var RecordTypes = []RecordType{Awards, Employees, Departments}

// ParseRecordType validates s against the supported record types.
func ParseRecordType(s string) (RecordType, error) {
	for _, t := range RecordTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported record type %q", s)
}

// Message is a free-text record to classify.
type Message struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

// Text joins title and body the way the classifier reads them.
func (m Message) Text() string {
	switch {
	case m.Title != "" && m.Body != "":
		return m.Title + " " + m.Body
	case m.Title != "":
		return m.Title
	default:
		return m.Body
	}
}
