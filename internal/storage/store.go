package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend persists a whole Document plus a small key/value settings table.
// Save must replace prior state wholesale and must not retain doc.
type Backend interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Setting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	Close() error
}

// ErrEmptyDocument is returned when a replacement document has no categories.
var ErrEmptyDocument = errors.New("document has no categories")

// Store is the single source of truth for categories and tasks. Every
// mutation is validated, applied in memory, then persisted synchronously.
// A Store is not safe for concurrent use.
type Store struct {
	backend Backend
	doc     *Document
	current string
	theme   Theme
	logger  *slog.Logger
	now     func() time.Time // injectable clock for deterministic tests
}

// NewStore creates an empty store over backend. Call Load to populate it.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		backend: backend,
		doc:     &Document{Categories: []Category{}},
		theme:   ThemeLight,
		logger:  logger,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock used for task timestamps.
// Passing nil resets it to time.Now.
func (s *Store) SetNowFunc(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// Now returns the current time according to the store clock, truncated to
// the persisted precision.
func (s *Store) Now() time.Time {
	return s.now().Truncate(time.Minute)
}

func newTaskID() string {
	return uuid.NewString()
}

// ============================================================================
// Load / Save
// ============================================================================

// Load replaces the in-memory state with the backend's. An empty medium is
// seeded with the default categories. On failure the defaults are seeded as
// well and the error is returned for reporting.
func (s *Store) Load(ctx context.Context) error {
	doc, loadErr := s.backend.Load(ctx)
	if loadErr != nil {
		s.logger.Error("load failed, using defaults", "error", loadErr)
		doc = nil
	}
	if doc == nil || len(doc.Categories) == 0 {
		doc = defaultDocument()
	}
	s.doc = doc.Clone()
	s.assignIDs()

	s.current = ""
	if name, ok, err := s.backend.Setting(ctx, SettingCurrentCategory); err == nil && ok && s.doc.Index(name) >= 0 {
		s.current = name
	}
	if s.current == "" {
		s.current = s.doc.Categories[0].Name
	}

	s.theme = ThemeLight
	if v, ok, err := s.backend.Setting(ctx, SettingTheme); err == nil && ok && Theme(v) == ThemeDark {
		s.theme = ThemeDark
	}

	if loadErr != nil {
		return fmt.Errorf("load: %w", loadErr)
	}
	return nil
}

// Save writes the complete mapping to the backend.
func (s *Store) Save(ctx context.Context) error {
	return s.persist(ctx, "save", "")
}

func (s *Store) persist(ctx context.Context, op, item string) error {
	if err := s.backend.Save(ctx, s.doc); err != nil {
		s.logger.Error("save failed", "op", op, "item", truncateForLog(item, 50), "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
	}
	s.logger.Debug("saved", "op", op, "item", truncateForLog(item, 50))
	return nil
}

// rememberCurrent stores the selected category. Failures are logged only:
// the selection is a convenience, not data.
func (s *Store) rememberCurrent(ctx context.Context) {
	if err := s.backend.SetSetting(ctx, SettingCurrentCategory, s.current); err != nil {
		s.logger.Warn("failed to store current category", "category", s.current, "error", err)
	}
}

func (s *Store) assignIDs() {
	for ci := range s.doc.Categories {
		c := &s.doc.Categories[ci]
		if c.Tasks == nil {
			c.Tasks = []Task{}
		}
		for ti := range c.Tasks {
			if c.Tasks[ti].ID == "" {
				c.Tasks[ti].ID = newTaskID()
			}
		}
	}
}

// truncateForLog truncates a string for use in log lines.
func truncateForLog(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

// ============================================================================
// Queries
// ============================================================================

// Categories returns a copy of all categories in display order.
func (s *Store) Categories() []Category {
	return s.doc.Clone().Categories
}

// CategoryNames returns category names in display order.
func (s *Store) CategoryNames() []string {
	names := make([]string, len(s.doc.Categories))
	for i, c := range s.doc.Categories {
		names[i] = c.Name
	}
	return names
}

// Tasks returns a copy of the named category's tasks.
func (s *Store) Tasks(category string) ([]Task, error) {
	c, err := s.category(category)
	if err != nil {
		return nil, err
	}
	return c.clone().Tasks, nil
}

// Task returns a copy of one task.
func (s *Store) Task(category string, index int) (Task, error) {
	c, err := s.category(category)
	if err != nil {
		return Task{}, err
	}
	if index < 0 || index >= len(c.Tasks) {
		return Task{}, ErrIndexOutOfRange
	}
	return c.Tasks[index].clone(), nil
}

// Counts returns completed and total task counts for a category.
func (s *Store) Counts(category string) (done, total int) {
	c, err := s.category(category)
	if err != nil {
		return 0, 0
	}
	for _, t := range c.Tasks {
		if t.Completed {
			done++
		}
	}
	return done, len(c.Tasks)
}

// Snapshot returns a deep copy of the whole mapping.
func (s *Store) Snapshot() *Document {
	return s.doc.Clone()
}

// Current returns the selected category name.
func (s *Store) Current() string {
	return s.current
}

// Theme returns the persisted appearance preference.
func (s *Store) Theme() Theme {
	return s.theme
}

func (s *Store) category(name string) (*Category, error) {
	idx := s.doc.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	return &s.doc.Categories[idx], nil
}

// ============================================================================
// Settings
// ============================================================================

// SetCurrent selects a category.
func (s *Store) SetCurrent(ctx context.Context, name string) error {
	if _, err := s.category(name); err != nil {
		return err
	}
	s.current = name
	s.rememberCurrent(ctx)
	return nil
}

// SetTheme stores the appearance preference.
func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}
	s.theme = theme
	if err := s.backend.SetSetting(ctx, SettingTheme, string(theme)); err != nil {
		s.logger.Error("failed to store theme", "theme", theme, "error", err)
		return fmt.Errorf("%w: theme: %w", ErrPersist, err)
	}
	return nil
}

// ============================================================================
// Categories
// ============================================================================

// AddCategory appends a new empty category.
func (s *Store) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if s.doc.Index(name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}

	s.doc.Categories = append(s.doc.Categories, Category{Name: name, Tasks: []Task{}})
	if s.current == "" {
		s.current = name
	}
	return s.persist(ctx, "add category", name)
}

// RenameCategory changes a category's name, keeping its position and tasks.
func (s *Store) RenameCategory(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	if newName == oldName {
		return ErrSameName
	}
	c, err := s.category(oldName)
	if err != nil {
		return err
	}
	if s.doc.Index(newName) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, newName)
	}

	c.Name = newName
	if s.current == oldName {
		s.current = newName
		s.rememberCurrent(ctx)
	}
	return s.persist(ctx, "rename category", oldName+" -> "+newName)
}

// DeleteCategory removes a category and all of its tasks.
func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	idx := s.doc.Index(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	if len(s.doc.Categories) <= 1 {
		return ErrLastCategory
	}

	s.doc.Categories = slices.Delete(s.doc.Categories, idx, idx+1)
	if s.current == name {
		s.current = s.doc.Categories[0].Name
		s.rememberCurrent(ctx)
	}
	return s.persist(ctx, "delete category", name)
}

// ReorderCategories moves a category to newIndex, clamped to the valid range.
func (s *Store) ReorderCategories(ctx context.Context, name string, newIndex int) error {
	idx := s.doc.Index(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	newIndex = max(0, min(newIndex, len(s.doc.Categories)-1))
	if newIndex == idx {
		return nil
	}

	c := s.doc.Categories[idx]
	s.doc.Categories = slices.Delete(s.doc.Categories, idx, idx+1)
	s.doc.Categories = slices.Insert(s.doc.Categories, newIndex, c)
	return s.persist(ctx, "reorder category", name)
}

// ============================================================================
// Tasks
// ============================================================================

// AddTask appends a new incomplete task to a category.
func (s *Store) AddTask(ctx context.Context, category, text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	c, err := s.category(category)
	if err != nil {
		return Task{}, err
	}

	task := Task{
		ID:        newTaskID(),
		Text:      text,
		Completed: false,
		CreatedAt: s.Now(),
	}
	c.Tasks = append(c.Tasks, task)
	return task.clone(), s.persist(ctx, "add task", text)
}

// ToggleTask flips a task's completion, setting or clearing its completion date.
func (s *Store) ToggleTask(ctx context.Context, category string, index int) error {
	t, err := s.task(category, index)
	if err != nil {
		return err
	}

	t.Completed = !t.Completed
	op := "reopen task"
	if t.Completed {
		now := s.Now()
		t.CompletedAt = &now
		op = "complete task"
	} else {
		t.CompletedAt = nil
	}
	return s.persist(ctx, op, t.Text)
}

// EditTaskText replaces a task's text in place.
func (s *Store) EditTaskText(ctx context.Context, category string, index int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	t, err := s.task(category, index)
	if err != nil {
		return err
	}
	if t.Text == text {
		return ErrTextUnchanged
	}

	t.Text = text
	return s.persist(ctx, "edit task", text)
}

// MoveTask removes a task from one category and appends it to another.
func (s *Store) MoveTask(ctx context.Context, category string, index int, target string) error {
	src, err := s.category(category)
	if err != nil {
		return err
	}
	dst, err := s.category(target)
	if err != nil {
		return err
	}
	if category == target {
		return ErrSameCategory
	}
	if index < 0 || index >= len(src.Tasks) {
		return ErrIndexOutOfRange
	}

	task := src.Tasks[index]
	src.Tasks = slices.Delete(src.Tasks, index, index+1)
	dst.Tasks = append(dst.Tasks, task)
	return s.persist(ctx, "move task", task.Text)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, category string, index int) error {
	c, err := s.category(category)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Tasks) {
		return ErrIndexOutOfRange
	}

	text := c.Tasks[index].Text
	c.Tasks = slices.Delete(c.Tasks, index, index+1)
	return s.persist(ctx, "delete task", text)
}

// ClearCompleted removes every completed task in every category and saves once.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	removed := 0
	for ci := range s.doc.Categories {
		c := &s.doc.Categories[ci]
		kept := c.Tasks[:0]
		for _, t := range c.Tasks {
			if t.Completed {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		c.Tasks = kept
	}
	return removed, s.persist(ctx, "clear completed", fmt.Sprintf("%d tasks", removed))
}

func (s *Store) task(category string, index int) (*Task, error) {
	c, err := s.category(category)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.Tasks) {
		return nil, ErrIndexOutOfRange
	}
	return &c.Tasks[index], nil
}

// ============================================================================
// Bulk
// ============================================================================

// Replace swaps the whole mapping for doc (restore from backup).
func (s *Store) Replace(ctx context.Context, doc *Document) error {
	if doc == nil || len(doc.Categories) == 0 {
		return ErrEmptyDocument
	}
	s.doc = doc.Clone()
	s.assignIDs()
	if s.doc.Index(s.current) < 0 {
		s.current = s.doc.Categories[0].Name
		s.rememberCurrent(ctx)
	}
	return s.persist(ctx, "replace", fmt.Sprintf("%d categories", len(doc.Categories)))
}

// Merge imports doc: each incoming category replaces the task list of the
// same-named category in place; unknown categories are appended.
func (s *Store) Merge(ctx context.Context, doc *Document) error {
	if doc == nil {
		return ErrEmptyDocument
	}
	for _, c := range doc.Clone().Categories {
		if idx := s.doc.Index(c.Name); idx >= 0 {
			s.doc.Categories[idx].Tasks = c.Tasks
			continue
		}
		s.doc.Categories = append(s.doc.Categories, c)
	}
	s.assignIDs()
	if s.current == "" && len(s.doc.Categories) > 0 {
		s.current = s.doc.Categories[0].Name
	}
	return s.persist(ctx, "import", fmt.Sprintf("%d categories", len(doc.Categories)))
}
