// Package importer reads task documents from other tools and files and
// applies them to the task store.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tasklist/internal/storage"
)

// DefaultCategory receives imported tasks that name no project.
const DefaultCategory = "Inbox"

// Importer parses one external format into a document.
type Importer interface {
	// Parse reads the whole input. Categories keep first-seen order.
	Parse(reader io.Reader) (*storage.Document, error)

	// Name returns the importer name (e.g., "todoist", "taskwarrior").
	Name() string
}

// Options configure parsing.
type Options struct {
	// Category receives tasks without a project. Empty means DefaultCategory.
	Category string

	// Now stamps tasks whose source carries no creation date.
	Now func() time.Time
}

func (o Options) category() string {
	if c := strings.TrimSpace(o.Category); c != "" {
		return c
	}
	return DefaultCategory
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now().Truncate(time.Minute)
	}
	return time.Now().Truncate(time.Minute)
}

// New returns the importer for format.
func New(format string, opts Options) (Importer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "":
		return &JSONImporter{opts: opts}, nil
	case "todoist":
		return &TodoistImporter{opts: opts}, nil
	case "taskwarrior":
		return &TaskwarriorImporter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(SupportedFormats(), ", "))
	}
}

// SupportedFormats returns the list of supported import formats.
func SupportedFormats() []string {
	return []string{"json", "todoist", "taskwarrior"}
}

// ParseFile opens path and parses it with imp.
func ParseFile(imp Importer, path string) (*storage.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := imp.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s import: %w", imp.Name(), err)
	}
	return doc, nil
}

// Mode selects how an imported document combines with the store.
type Mode int

const (
	// ModeMerge overwrites the task list of same-named categories and
	// appends unknown categories. This is how native documents import.
	ModeMerge Mode = iota
	// ModeAppend adds imported tasks after the existing tasks of
	// same-named categories.
	ModeAppend
	// ModeReplace discards the current contents.
	ModeReplace
)

func (m Mode) String() string {
	switch m {
	case ModeMerge:
		return "merge"
	case ModeAppend:
		return "append"
	case ModeReplace:
		return "replace"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DefaultMode returns the mode a format imports with unless told otherwise.
func DefaultMode(format string) Mode {
	if strings.EqualFold(format, "json") || format == "" {
		return ModeMerge
	}
	return ModeAppend
}

// Target is the part of the task store an import touches.
type Target interface {
	Snapshot() *storage.Document
	Merge(ctx context.Context, doc *storage.Document) error
	Replace(ctx context.Context, doc *storage.Document) error
}

// Result contains statistics about an import operation.
type Result struct {
	Categories    int      // Categories in the imported document
	NewCategories []string // Categories that did not exist before
	Tasks         int      // Tasks in the imported document
	Completed     int      // Of which completed
	Mode          Mode
}

// Preview summarizes what applying doc to the current contents would do.
func Preview(current, doc *storage.Document, mode Mode) Result {
	res := Result{Categories: len(doc.Categories), Mode: mode}
	for _, c := range doc.Categories {
		if mode == ModeReplace || current.Index(c.Name) < 0 {
			res.NewCategories = append(res.NewCategories, c.Name)
		}
		for _, t := range c.Tasks {
			res.Tasks++
			if t.Completed {
				res.Completed++
			}
		}
	}
	return res
}

// Apply writes doc into target with mode. Persistence errors wrap
// storage.ErrPersist; the in-memory result is kept either way.
func Apply(ctx context.Context, target Target, doc *storage.Document, mode Mode) (Result, error) {
	if doc == nil || len(doc.Categories) == 0 {
		return Result{Mode: mode}, storage.ErrEmptyDocument
	}
	current := target.Snapshot()
	res := Preview(current, doc, mode)

	switch mode {
	case ModeReplace:
		return res, target.Replace(ctx, doc)
	case ModeAppend:
		combined := doc.Clone()
		for i, c := range combined.Categories {
			if idx := current.Index(c.Name); idx >= 0 {
				existing := current.Categories[idx].Tasks
				combined.Categories[i].Tasks = append(existing, c.Tasks...)
			}
		}
		return res, target.Merge(ctx, combined)
	default:
		return res, target.Merge(ctx, doc)
	}
}

// addTask appends task to the named category of doc, creating it at the end
// when missing.
func addTask(doc *storage.Document, category string, task storage.Task) {
	idx := doc.Index(category)
	if idx < 0 {
		doc.Categories = append(doc.Categories, storage.Category{Name: category, Tasks: []storage.Task{}})
		idx = len(doc.Categories) - 1
	}
	doc.Categories[idx].Tasks = append(doc.Categories[idx].Tasks, task)
}
