package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// taskRecord is the on-disk shape of a task.
type taskRecord struct {
	Text          string  `json:"text"`
	Completed     bool    `json:"completed"`
	CreatedDate   string  `json:"created_date"`
	CompletedDate *string `json:"completed_date"`
}

// legacyDateLayouts are accepted on read in addition to DateLayout.
var legacyDateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatDate renders t in the persisted layout.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// ParseDate parses a persisted timestamp in local time.
func ParseDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range legacyDateLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// MarshalJSON renders the document as a single object keyed by category
// name, preserving category order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range d.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		records := make([]taskRecord, 0, len(c.Tasks))
		for _, t := range c.Tasks {
			rec := taskRecord{
				Text:        t.Text,
				Completed:   t.Completed,
				CreatedDate: FormatDate(t.CreatedAt),
			}
			if t.Completed && t.CompletedAt != nil {
				s := FormatDate(*t.CompletedAt)
				rec.CompletedDate = &s
			}
			records = append(records, rec)
		}
		value, err := marshalNoEscape(records)
		if err != nil {
			return nil, fmt.Errorf("serialize category %q: %w", c.Name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a document, backfilling legacy fields against the
// current time.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := DecodeDocument(bytes.NewReader(data), time.Now())
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// EncodeDocument writes doc indented by two spaces without a trailing newline.
func EncodeDocument(w io.Writer, doc *Document) error {
	data, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("indent document: %w", err)
	}
	_, err = w.Write(out.Bytes())
	return err
}

// DecodeDocument reads a document. Tasks missing created_date fall back to
// the legacy "date" field, then to now. Tasks missing completed_date get
// their creation date when completed. Task text is trimmed and records
// left without text are dropped.
func DecodeDocument(r io.Reader, now time.Time) (*Document, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse document: expected an object of categories")
	}

	doc := &Document{Categories: []Category{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		name, _ := tok.(string)

		var records []map[string]json.RawMessage
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("parse category %q: %w", name, err)
		}
		if name == "" {
			continue
		}

		tasks := make([]Task, 0, len(records))
		for i, rec := range records {
			task, err := decodeTask(rec, now)
			if err != nil {
				return nil, fmt.Errorf("parse category %q task %d: %w", name, i, err)
			}
			if task.Text == "" {
				continue
			}
			tasks = append(tasks, task)
		}

		if idx := doc.Index(name); idx >= 0 {
			doc.Categories[idx].Tasks = tasks
			continue
		}
		doc.Categories = append(doc.Categories, Category{Name: name, Tasks: tasks})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func decodeTask(rec map[string]json.RawMessage, now time.Time) (Task, error) {
	task := Task{ID: newTaskID()}

	if raw, ok := rec["text"]; ok {
		if err := json.Unmarshal(raw, &task.Text); err != nil {
			return Task{}, fmt.Errorf("text: %w", err)
		}
		task.Text = strings.TrimSpace(task.Text)
	}
	if raw, ok := rec["completed"]; ok {
		if err := json.Unmarshal(raw, &task.Completed); err != nil {
			return Task{}, fmt.Errorf("completed: %w", err)
		}
	}

	created, ok := dateField(rec, "created_date")
	if !ok {
		created, ok = dateField(rec, "date")
	}
	if !ok {
		created = now.Truncate(time.Minute)
	}
	task.CreatedAt = created

	if !task.Completed {
		return task, nil
	}
	if _, present := rec["completed_date"]; !present {
		at := task.CreatedAt
		task.CompletedAt = &at
		return task, nil
	}
	if at, ok := dateField(rec, "completed_date"); ok {
		task.CompletedAt = &at
	}
	return task, nil
}

// dateField returns the parsed timestamp under key, or false when the key is
// missing, null, or unparseable.
func dateField(rec map[string]json.RawMessage, key string) (time.Time, bool) {
	raw, ok := rec[key]
	if !ok {
		return time.Time{}, false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := ParseDate(*s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
