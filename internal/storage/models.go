package storage

import "time"

// DateLayout is the persisted timestamp format ("YYYY-MM-DD HH:MM", local time).
const DateLayout = "2006-01-02 15:04"

// Theme is the persisted appearance preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Setting keys shared by all backends.
const (
	SettingTheme           = "theme"
	SettingCurrentCategory = "current_category"
)

// DefaultCategories are seeded on first run and whenever loading fails.
var DefaultCategories = []string{"Work", "Personal", "Study", "Other"}

// Task represents a single todo item
type Task struct {
	// ID is a process-local handle for the presentation layer. It is never
	// persisted and changes across reloads.
	ID          string
	Text        string
	Completed   bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Category is a named, ordered bucket of tasks. Its position is its index in
// the owning Document.
type Category struct {
	Name  string
	Tasks []Task
}

// Document is the complete ordered category→task mapping. It is the unit
// passed to backends, backups, import and export.
type Document struct {
	Categories []Category
}

// TaskCount returns the number of tasks across all categories.
func (d *Document) TaskCount() int {
	n := 0
	for _, c := range d.Categories {
		n += len(c.Tasks)
	}
	return n
}

// Index returns the position of the named category, or -1.
func (d *Document) Index(name string) int {
	for i := range d.Categories {
		if d.Categories[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{Categories: make([]Category, len(d.Categories))}
	for i, c := range d.Categories {
		out.Categories[i] = c.clone()
	}
	return out
}

func (c Category) clone() Category {
	tasks := make([]Task, len(c.Tasks))
	for i, t := range c.Tasks {
		tasks[i] = t.clone()
	}
	return Category{Name: c.Name, Tasks: tasks}
}

func (t Task) clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

func defaultDocument() *Document {
	doc := &Document{Categories: make([]Category, 0, len(DefaultCategories))}
	for _, name := range DefaultCategories {
		doc.Categories = append(doc.Categories, Category{Name: name, Tasks: []Task{}})
	}
	return doc
}
