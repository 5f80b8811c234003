package pipeline

import (
	"fmt"
	"strings"
)

// FormatError reports structurally corrupt input: a malformed tabular row or
// a taxonomy document in neither supported shape.
type FormatError struct {
	Source string // "csv", "taxonomy", ...
	Line   int    // 1-based, 0 when not applicable
	Field  string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	b.WriteString(" format error")
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// ConfigurationError reports an unsupported caller-supplied setting, such as
// an unknown record type or transformation name.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
