package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/linkfinder/pkg/linkfinder/dataset"
)

// ErrMissingColumn is returned when a CSV header lacks keyword or url.
var ErrMissingColumn = errors.New("missing column")

// Load reads records from path, picking the format from its extension
// (.jsonl or .ndjson for JSON lines, anything else as CSV).
func Load(path string) ([]dataset.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	default:
		return ReadCSV(f)
	}
}

// ReadCSV reads a CSV stream whose header names a keyword and a url column.
// Other columns are ignored. Rows with an empty keyword or url are skipped.
func ReadCSV(r io.Reader) ([]dataset.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	kwCol, urlCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))) {
		case "keyword":
			kwCol = i
		case "url":
			urlCol = i
		}
	}
	if kwCol < 0 || urlCol < 0 {
		return nil, fmt.Errorf("%w: header %v needs keyword and url", ErrMissingColumn, header)
	}

	var records []dataset.Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if kwCol >= len(row) || urlCol >= len(row) || row[kwCol] == "" || row[urlCol] == "" {
			slog.Warn("skipping incomplete dataset row", "line", line)
			continue
		}
		records = append(records, dataset.Record{Keyword: row[kwCol], URL: row[urlCol]})
	}
	return records, nil
}

// ReadJSONL reads one {"keyword": ..., "url": ...} object per line.
// Malformed or incomplete lines are skipped with a warning.
func ReadJSONL(r io.Reader) ([]dataset.Record, error) {
	var records []dataset.Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec dataset.Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			slog.Warn("skipping malformed dataset line", "line", line, "error", err)
			continue
		}
		if rec.Keyword == "" || rec.URL == "" {
			slog.Warn("skipping incomplete dataset line", "line", line)
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return records, nil
}
