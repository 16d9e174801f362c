package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Record is one data row keyed by normalised header name. Line is the 1-based line in the source file.
type Record struct {
	Line   int
	Fields map[string]string
}

// ErrTooManyRows is returned when the input exceeds the configured row cap.
var ErrTooManyRows = errors.New("too many rows")

// ReadCSV reads a header-led CSV stream. Headers are matched case-insensitively with
// spaces, dashes and underscores removed, so "Student ID" and "student_id" both map to "studentid".
// maxRows <= 0 disables the cap.
func ReadCSV(r io.Reader, maxRows int) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = NormaliseHeader(h)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(row) {
			continue
		}
		if maxRows > 0 && len(records) >= maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
		fields := make(map[string]string, len(keys))
		for i, key := range keys {
			if i < len(row) && key != "" {
				fields[key] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, Record{Line: line, Fields: fields})
	}
	return records, nil
}

// NormaliseHeader lowercases a header and strips separators.
func NormaliseHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(h)))
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
