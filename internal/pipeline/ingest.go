package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"recognition-pipeline/internal/model"
)

const utf8BOM = "\ufeff"

// ParseResult is a parsed dataset plus the rows that had to be skipped.
type ParseResult struct {
	Dataset model.Dataset
	Skipped []*FormatError
}

// Parse reads delimited text into a Dataset. The first line is the header.
// Malformed rows are skipped; use ParseDetailed to see them.
func Parse(text string) (model.Dataset, error) {
	res, err := ParseDetailed(text)
	if err != nil {
		return model.Dataset{}, err
	}
	return res.Dataset, nil
}

// ParseDetailed reads delimited text into a Dataset and reports every row it
// skipped. Only an unreadable header is returned as an error.
func ParseDetailed(text string) (ParseResult, error) {
	text = strings.TrimPrefix(text, utf8BOM)
	if strings.TrimSpace(text) == "" {
		return ParseResult{}, nil
	}

	csvReader := newCSVReader(text)

	headers, err := csvReader.Read()
	if err != nil {
		return ParseResult{}, &FormatError{Source: "csv", Line: 1, Err: fmt.Errorf("read header: %w", err)}
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	res := ParseResult{Dataset: model.Dataset{Header: headers, Records: []model.Record{}}}
	// input is the text the current reader was started on; lineBase is the
	// number of physical lines before it.
	input, lineBase := text, 0
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fe := &FormatError{Source: "csv", Err: err}
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				res.Skipped = append(res.Skipped, fe)
				continue
			}
			fe.Line = lineBase + pe.StartLine
			fe.Err = pe.Err
			res.Skipped = append(res.Skipped, fe)

			// A quote that never closes swallows the following lines, up to
			// the next quote or the end of input. Drop only the line it
			// opened on and resume after it.
			if errors.Is(pe.Err, csv.ErrQuote) {
				input = afterLine(input, pe.StartLine)
				lineBase += pe.StartLine
				csvReader = newCSVReader(input)
			}
			continue
		}
		if len(row) > len(headers) {
			startLine, _ := csvReader.FieldPos(0)
			res.Skipped = append(res.Skipped, &FormatError{
				Source: "csv",
				Line:   lineBase + startLine,
				Err:    fmt.Errorf("row has %d fields, header has %d", len(row), len(headers)),
			})
			continue
		}

		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		res.Dataset.Records = append(res.Dataset.Records, rec)
	}
	return res, nil
}

func newCSVReader(text string) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	return r
}

// afterLine returns text following its n-th newline, or "" when text has
// fewer lines.
func afterLine(text string, n int) string {
	for ; n > 0; n-- {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return ""
		}
		text = text[i+1:]
	}
	return text
}
