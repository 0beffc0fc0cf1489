package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"tasklist/internal/storage"
)

// TaskwarriorImporter handles importing from `task export` output.
type TaskwarriorImporter struct {
	opts Options
}

// taskwarriorTask represents a task in Taskwarrior's JSON format.
type taskwarriorTask struct {
	Description string `json:"description"`
	Status      string `json:"status"`
	Project     string `json:"project"`
	Entry       string `json:"entry"`
	End         string `json:"end"`
}

// Name returns the importer name.
func (t *TaskwarriorImporter) Name() string {
	return "taskwarrior"
}

// Parse reads Taskwarrior JSON. Both a JSON array and newline-delimited
// JSON (NDJSON) are accepted.
func (t *TaskwarriorImporter) Parse(reader io.Reader) (*storage.Document, error) {
	br := bufio.NewReader(reader)
	prefix, first, err := readFirstNonSpaceByte(br)
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	doc := &storage.Document{Categories: []storage.Category{}}
	add := func(tw taskwarriorTask) {
		t.add(doc, tw)
	}

	r := io.MultiReader(bytes.NewReader(prefix), br)
	if first == '[' {
		err = decodeJSONArray(r, add)
	} else {
		err = decodeNDJSON(r, add)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (t *TaskwarriorImporter) add(doc *storage.Document, tw taskwarriorTask) {
	if tw.Status == "deleted" {
		return
	}
	text := strings.TrimSpace(tw.Description)
	if text == "" {
		return
	}

	task := storage.Task{Text: text, CreatedAt: t.opts.now()}
	if at := parseTaskwarriorDate(tw.Entry); at != nil {
		task.CreatedAt = *at
	}
	if tw.Status == "completed" {
		task.Completed = true
		end := task.CreatedAt
		if at := parseTaskwarriorDate(tw.End); at != nil {
			end = *at
		}
		task.CompletedAt = &end
	}

	category := strings.TrimSpace(tw.Project)
	if category == "" {
		category = t.opts.category()
	}
	addTask(doc, category, task)
}

const maxNDJSONLineBytes = 4 << 20 // 4MiB

func readFirstNonSpaceByte(r *bufio.Reader) ([]byte, byte, error) {
	var prefix []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(prefix) == 0 {
				return nil, 0, io.EOF
			}
			return prefix, 0, err
		}
		prefix = append(prefix, b)
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return prefix, b, nil
	}
}

func decodeJSONArray(r io.Reader, add func(taskwarriorTask)) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to parse JSON array: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("failed to parse JSON array: expected '['")
	}

	for idx := 1; dec.More(); idx++ {
		var tw taskwarriorTask
		if err := dec.Decode(&tw); err != nil {
			return fmt.Errorf("failed to decode task %d: %w", idx, err)
		}
		add(tw)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to parse JSON array: %w", err)
	}
	return nil
}

func decodeNDJSON(r io.Reader, add func(taskwarriorTask)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxNDJSONLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var tw taskwarriorTask
		if err := json.Unmarshal(line, &tw); err != nil {
			return fmt.Errorf("invalid JSON on line %d: %w", lineNo, err)
		}
		add(tw)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read NDJSON near line %d: %w", lineNo+1, err)
	}
	return nil
}

// parseTaskwarriorDate parses Taskwarrior's date format (ISO 8601 basic,
// 20140928T211124Z) and returns it in local time at minute precision.
func parseTaskwarriorDate(dateStr string) *time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil
	}

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			local := t.Local().Truncate(time.Minute)
			return &local
		}
	}
	return nil
}
