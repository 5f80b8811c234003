package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recognition-pipeline/internal/model"
)

// Serialize renders a dataset as delimited text: the header line followed by
// one line per record in header order. Values containing the delimiter, a
// quote or a newline are quoted.
func Serialize(d model.Dataset) string {
	if len(d.Header) == 0 {
		return ""
	}
	var b strings.Builder
	writeRows(&b, d)
	return b.String()
}

func writeRows(b *strings.Builder, d model.Dataset) {
	writer := csv.NewWriter(b)
	write := func(row []string) {
		// A lone empty field would serialize to a blank line, which readers skip.
		if len(row) == 1 && row[0] == "" {
			writer.Flush()
			b.WriteString("\"\"\n")
			return
		}
		_ = writer.Write(row) // strings.Builder writes never fail
	}

	write(d.Header)
	row := make([]string, len(d.Header))
	for _, rec := range d.Records {
		for i, h := range d.Header {
			row[i] = rec[h]
		}
		write(row)
	}
	writer.Flush()
}

// WriteCSVFile writes a dataset to path, creating parent directories.
func WriteCSVFile(path string, d model.Dataset) model.ExportResult {
	result := model.ExportResult{Type: "csv", Path: path, Timestamp: time.Now()}
	if err := writeFile(path, []byte(Serialize(d))); err != nil {
		result.Error = err.Error()
		return result
	}
	result.RecordCount = d.Len()
	result.Success = true
	return result
}

// WriteJSONFile writes v as indented JSON to path, creating parent
// directories. count is reported back as the exported record count.
func WriteJSONFile(path string, v any, count int) model.ExportResult {
	result := model.ExportResult{Type: "json", Path: path, Timestamp: time.Now()}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		result.Error = fmt.Sprintf("failed to encode JSON: %v", err)
		return result
	}
	if err := writeFile(path, append(data, '\n')); err != nil {
		result.Error = err.Error()
		return result
	}
	result.RecordCount = count
	result.Success = true
	return result
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
