package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"tasklist/internal/storage"
)

// TodoistImporter handles importing from Todoist CSV exports.
//
// Todoist writes one CSV per project; a PROJECT column, when present,
// overrides the fallback category per row.
type TodoistImporter struct {
	opts Options
}

// Name returns the importer name.
func (t *TodoistImporter) Name() string {
	return "todoist"
}

// Parse reads the Todoist CSV format.
func (t *TodoistImporter) Parse(reader io.Reader) (*storage.Document, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.ReuseRecord = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff") // UTF-8 BOM (common in some exports)
		}
		colIndex[strings.ToUpper(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"TYPE", "CONTENT"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	field := func(record []string, col string) string {
		if idx, ok := colIndex[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	now := t.opts.now()
	doc := &storage.Document{Categories: []storage.Category{}}
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if !strings.EqualFold(field(record, "TYPE"), "task") {
			continue
		}

		text := field(record, "CONTENT")
		if text == "" {
			continue
		}

		category := field(record, "PROJECT")
		if category == "" {
			category = t.opts.category()
		}

		created := now
		if at := parseTodoistDate(field(record, "DATE_ADDED")); at != nil {
			created = *at
		}
		addTask(doc, category, storage.Task{Text: text, CreatedAt: created})
	}

	return doc, nil
}

// parseTodoistDate parses the date formats seen in Todoist exports.
func parseTodoistDate(dateStr string) *time.Time {
	if dateStr == "" {
		return nil
	}

	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
		"Jan 2 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"January 2, 2006",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, dateStr, time.Local); err == nil {
			t = t.Truncate(time.Minute)
			return &t
		}
	}
	return nil
}
