package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

// memBackend keeps the last saved document in memory. failSave makes every
// Save return an error.
type memBackend struct {
	doc      *Document
	settings map[string]string
	saves    int
	failSave bool
	failLoad bool
}

func newMemBackend() *memBackend {
	return &memBackend{settings: map[string]string{}}
}

func (m *memBackend) Load(context.Context) (*Document, error) {
	if m.failLoad {
		return nil, errors.New("disk on fire")
	}
	if m.doc == nil {
		return &Document{}, nil
	}
	return m.doc.Clone(), nil
}

func (m *memBackend) Save(_ context.Context, doc *Document) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.saves++
	m.doc = doc.Clone()
	return nil
}

func (m *memBackend) Setting(_ context.Context, key string) (string, bool, error) {
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *memBackend) SetSetting(_ context.Context, key, value string) error {
	m.settings[key] = value
	return nil
}

func (m *memBackend) Close() error { return nil }

// newTestStore returns a loaded store over a fresh in-memory backend with a
// fixed clock.
func newTestStore(t *testing.T) (*Store, *memBackend) {
	t.Helper()
	backend := newMemBackend()
	store := NewStore(backend, nil)
	store.SetNowFunc(func() time.Time { return testNow })
	require.NoError(t, store.Load(context.Background()))
	return store, backend
}

func taskTexts(t *testing.T, s *Store, category string) []string {
	t.Helper()
	tasks, err := s.Tasks(category)
	require.NoError(t, err)
	texts := make([]string, len(tasks))
	for i, task := range tasks {
		texts[i] = task.Text
	}
	return texts
}

func totalTasks(s *Store) int {
	return s.Snapshot().TaskCount()
}

// =============================================================================
// Load / Save
// =============================================================================

func TestLoad_SeedsDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Equal(t, DefaultCategories, store.CategoryNames())
	assert.Equal(t, "Work", store.Current())
	assert.Equal(t, ThemeLight, store.Theme())
}

func TestLoad_FailureSeedsDefaultsAndReportsError(t *testing.T) {
	backend := newMemBackend()
	backend.failLoad = true
	store := NewStore(backend, nil)

	err := store.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, DefaultCategories, store.CategoryNames())
}

func TestLoad_RestoresCurrentAndTheme(t *testing.T) {
	backend := newMemBackend()
	backend.doc = &Document{Categories: []Category{{Name: "A"}, {Name: "B"}}}
	backend.settings[SettingCurrentCategory] = "B"
	backend.settings[SettingTheme] = "dark"

	store := NewStore(backend, nil)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, "B", store.Current())
	assert.Equal(t, ThemeDark, store.Theme())
}

func TestLoad_MissingCurrentFallsBackToFirst(t *testing.T) {
	backend := newMemBackend()
	backend.doc = &Document{Categories: []Category{{Name: "A"}, {Name: "B"}}}
	backend.settings[SettingCurrentCategory] = "Gone"

	store := NewStore(backend, nil)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, "A", store.Current())
}

func TestScenario_EmptyStoreAddCategoryAndTask(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	store := NewStore(backend, nil)
	store.SetNowFunc(func() time.Time { return testNow })

	require.NoError(t, store.AddCategory(ctx, "Errands"))
	_, err := store.AddTask(ctx, "Errands", "Buy milk")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx))

	reloaded := NewStore(backend, nil)
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, []string{"Errands"}, reloaded.CategoryNames())
	tasks, err := reloaded.Tasks("Errands")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Text)
	assert.False(t, tasks[0].Completed)
	assert.Nil(t, tasks[0].CompletedAt)
	assert.NotEmpty(t, FormatDate(tasks[0].CreatedAt))
}

func TestSaveLoad_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.AddCategory(ctx, "Errands"))
	require.NoError(t, store.ReorderCategories(ctx, "Errands", 0))
	for _, text := range []string{"one", "two", "three"} {
		_, err := store.AddTask(ctx, "Errands", text)
		require.NoError(t, err)
	}
	require.NoError(t, store.ToggleTask(ctx, "Errands", 1))

	reloaded := NewStore(backend, nil)
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, store.CategoryNames(), reloaded.CategoryNames())
	assert.Equal(t, []string{"one", "two", "three"}, taskTexts(t, reloaded, "Errands"))
	task, err := reloaded.Task("Errands", 1)
	require.NoError(t, err)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(testNow))
}

// =============================================================================
// Categories
// =============================================================================

func TestAddCategory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "new category", input: "Errands"},
		{name: "trims whitespace", input: "  Errands  "},
		{name: "empty", input: "   ", wantErr: ErrEmptyName},
		{name: "duplicate", input: "Work", wantErr: ErrDuplicateCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend := newTestStore(t)
			before := store.CategoryNames()

			err := store.AddCategory(ctx, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidation(err))
				assert.Equal(t, before, store.CategoryNames())
				assert.Zero(t, backend.saves)
				return
			}
			require.NoError(t, err)
			names := store.CategoryNames()
			assert.Equal(t, "Errands", names[len(names)-1])
			assert.Equal(t, 1, backend.saves)
		})
	}
}

func TestRenameCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddTask(ctx, "Work", "first")
	require.NoError(t, err)
	_, err = store.AddTask(ctx, "Work", "second")
	require.NoError(t, err)
	require.Equal(t, "Work", store.Current())

	require.NoError(t, store.RenameCategory(ctx, "Work", "Job"))

	assert.Equal(t, "Job", store.Current())
	assert.Equal(t, []string{"Job", "Personal", "Study", "Other"}, store.CategoryNames())
	assert.Equal(t, []string{"first", "second"}, taskTexts(t, store, "Job"))
}

func TestRenameCategory_PersistsCurrent(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.RenameCategory(ctx, "Work", "Job"))
	assert.Equal(t, "Job", backend.settings[SettingCurrentCategory])
}

func TestRenameCategory_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		old     string
		new     string
		wantErr error
	}{
		{name: "empty", old: "Work", new: "  ", wantErr: ErrEmptyName},
		{name: "same", old: "Work", new: "Work", wantErr: ErrSameName},
		{name: "collision", old: "Work", new: "Study", wantErr: ErrDuplicateCategory},
		{name: "missing", old: "Nope", new: "Other2", wantErr: ErrCategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t)
			err := store.RenameCategory(ctx, tt.old, tt.new)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, DefaultCategories, store.CategoryNames())
		})
	}
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddTask(ctx, "Work", "cascade me")
	require.NoError(t, err)

	require.NoError(t, store.DeleteCategory(ctx, "Work"))

	assert.Equal(t, []string{"Personal", "Study", "Other"}, store.CategoryNames())
	assert.Equal(t, "Personal", store.Current())
	assert.Zero(t, totalTasks(store))
}

func TestDeleteCategory_LastIsRejected(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for _, name := range []string{"Work", "Personal", "Study"} {
		require.NoError(t, store.DeleteCategory(ctx, name))
	}
	err := store.DeleteCategory(ctx, "Other")
	require.ErrorIs(t, err, ErrLastCategory)
	assert.Equal(t, []string{"Other"}, store.CategoryNames())
}

func TestReorderCategories(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		cat   string
		index int
		want  []string
		saves int
	}{
		{name: "to front", cat: "Other", index: 0, want: []string{"Other", "Work", "Personal", "Study"}, saves: 1},
		{name: "to middle", cat: "Work", index: 2, want: []string{"Personal", "Study", "Work", "Other"}, saves: 1},
		{name: "clamped high", cat: "Work", index: 99, want: []string{"Personal", "Study", "Other", "Work"}, saves: 1},
		{name: "clamped low", cat: "Study", index: -5, want: []string{"Study", "Work", "Personal", "Other"}, saves: 1},
		{name: "unchanged", cat: "Personal", index: 1, want: DefaultCategories, saves: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend := newTestStore(t)
			require.NoError(t, store.ReorderCategories(ctx, tt.cat, tt.index))
			assert.Equal(t, tt.want, store.CategoryNames())
			assert.Equal(t, tt.saves, backend.saves)
		})
	}
}

func TestReorderCategories_NotFound(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.ReorderCategories(context.Background(), "Nope", 0)
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

// =============================================================================
// Tasks
// =============================================================================

func TestAddTask(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	task, err := store.AddTask(ctx, "Work", "  Write report  ")
	require.NoError(t, err)

	assert.Equal(t, "Write report", task.Text)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.NotEmpty(t, task.ID)
	assert.True(t, task.CreatedAt.Equal(testNow))
}

func TestAddTask_Validation(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	_, err := store.AddTask(ctx, "Work", " \t ")
	require.ErrorIs(t, err, ErrEmptyText)

	_, err = store.AddTask(ctx, "Nope", "text")
	require.ErrorIs(t, err, ErrCategoryNotFound)

	assert.Zero(t, totalTasks(store))
	assert.Zero(t, backend.saves)
}

func TestToggleTask_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddTask(ctx, "Work", "Write report")
	require.NoError(t, err)

	require.NoError(t, store.ToggleTask(ctx, "Work", 0))
	task, err := store.Task("Work", 0)
	require.NoError(t, err)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletedAt)
	assert.NotEmpty(t, FormatDate(*task.CompletedAt))

	require.NoError(t, store.ToggleTask(ctx, "Work", 0))
	task, err = store.Task("Work", 0)
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
}

func TestToggleTask_OutOfRange(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.ToggleTask(context.Background(), "Work", 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEditTaskText(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddTask(ctx, "Work", "draft")
	require.NoError(t, err)
	require.NoError(t, store.ToggleTask(ctx, "Work", 0))
	before, err := store.Task("Work", 0)
	require.NoError(t, err)

	store.SetNowFunc(func() time.Time { return testNow.Add(time.Hour) })
	require.NoError(t, store.EditTaskText(ctx, "Work", 0, "final"))

	after, err := store.Task("Work", 0)
	require.NoError(t, err)
	assert.Equal(t, "final", after.Text)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
	assert.True(t, after.CompletedAt.Equal(*before.CompletedAt))

	require.ErrorIs(t, store.EditTaskText(ctx, "Work", 0, " final "), ErrTextUnchanged)
	require.ErrorIs(t, store.EditTaskText(ctx, "Work", 0, ""), ErrEmptyText)
	require.ErrorIs(t, store.EditTaskText(ctx, "Work", 5, "x"), ErrIndexOutOfRange)
}

func TestMoveTask(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	for _, text := range []string{"a", "b", "c"} {
		_, err := store.AddTask(ctx, "Work", text)
		require.NoError(t, err)
	}
	_, err := store.AddTask(ctx, "Personal", "p")
	require.NoError(t, err)
	total := totalTasks(store)

	require.NoError(t, store.MoveTask(ctx, "Work", 1, "Personal"))

	assert.Equal(t, []string{"a", "c"}, taskTexts(t, store, "Work"))
	assert.Equal(t, []string{"p", "b"}, taskTexts(t, store, "Personal"))
	assert.Equal(t, total, totalTasks(store))
}

func TestMoveTask_Validation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddTask(ctx, "Work", "a")
	require.NoError(t, err)

	require.ErrorIs(t, store.MoveTask(ctx, "Work", 0, "Nope"), ErrCategoryNotFound)
	require.ErrorIs(t, store.MoveTask(ctx, "Nope", 0, "Work"), ErrCategoryNotFound)
	require.ErrorIs(t, store.MoveTask(ctx, "Work", 0, "Work"), ErrSameCategory)
	require.ErrorIs(t, store.MoveTask(ctx, "Work", 3, "Personal"), ErrIndexOutOfRange)
	assert.Equal(t, []string{"a"}, taskTexts(t, store, "Work"))
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	for _, text := range []string{"a", "b"} {
		_, err := store.AddTask(ctx, "Work", text)
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteTask(ctx, "Work", 0))
	assert.Equal(t, []string{"b"}, taskTexts(t, store, "Work"))
	require.ErrorIs(t, store.DeleteTask(ctx, "Work", 1), ErrIndexOutOfRange)
}

func TestClearCompleted(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	for _, cat := range []string{"Work", "Personal"} {
		_, err := store.AddTask(ctx, cat, cat+" done")
		require.NoError(t, err)
		_, err = store.AddTask(ctx, cat, cat+" open")
		require.NoError(t, err)
		require.NoError(t, store.ToggleTask(ctx, cat, 0))
	}
	savesBefore := backend.saves

	removed, err := store.ClearCompleted(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.Equal(t, savesBefore+1, backend.saves)
	for _, cat := range []string{"Work", "Personal"} {
		tasks, err := store.Tasks(cat)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.False(t, tasks[0].Completed)
	}
}

// =============================================================================
// Persistence failures
// =============================================================================

func TestPersistFailure_KeepsMutationInMemory(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	backend.failSave = true

	_, err := store.AddTask(ctx, "Work", "unsaved")
	require.ErrorIs(t, err, ErrPersist)
	assert.False(t, IsValidation(err))
	assert.Equal(t, []string{"unsaved"}, taskTexts(t, store, "Work"))

	removed, err := store.ClearCompleted(ctx)
	require.ErrorIs(t, err, ErrPersist)
	assert.Zero(t, removed)

	backend.failSave = false
	require.NoError(t, store.Save(ctx))
	assert.Equal(t, 1, backend.doc.TaskCount())
}

// =============================================================================
// Settings / bulk
// =============================================================================

func TestSetCurrent(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.SetCurrent(ctx, "Study"))
	assert.Equal(t, "Study", store.Current())
	assert.Equal(t, "Study", backend.settings[SettingCurrentCategory])

	require.ErrorIs(t, store.SetCurrent(ctx, "Nope"), ErrCategoryNotFound)
	assert.Equal(t, "Study", store.Current())
}

func TestSetTheme(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.SetTheme(ctx, ThemeDark))
	assert.Equal(t, ThemeDark, store.Theme())
	assert.Equal(t, "dark", backend.settings[SettingTheme])

	require.ErrorIs(t, store.SetTheme(ctx, Theme("sepia")), ErrInvalidTheme)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	doc := &Document{Categories: []Category{
		{Name: "Restored", Tasks: []Task{{Text: "x", CreatedAt: testNow}}},
	}}
	require.NoError(t, store.Replace(ctx, doc))

	assert.Equal(t, []string{"Restored"}, store.CategoryNames())
	assert.Equal(t, "Restored", store.Current())
	task, err := store.Task("Restored", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)

	require.ErrorIs(t, store.Replace(ctx, &Document{}), ErrEmptyDocument)
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddTask(ctx, "Work", "old")
	require.NoError(t, err)

	doc := &Document{Categories: []Category{
		{Name: "Work", Tasks: []Task{{Text: "new", CreatedAt: testNow}}},
		{Name: "Garden", Tasks: []Task{{Text: "weed", CreatedAt: testNow}}},
	}}
	require.NoError(t, store.Merge(ctx, doc))

	assert.Equal(t, []string{"Work", "Personal", "Study", "Other", "Garden"}, store.CategoryNames())
	assert.Equal(t, []string{"new"}, taskTexts(t, store, "Work"))
	assert.Equal(t, []string{"weed"}, taskTexts(t, store, "Garden"))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddTask(ctx, "Work", "a")
	require.NoError(t, err)
	require.NoError(t, store.ToggleTask(ctx, "Work", 0))

	snap := store.Snapshot()
	snap.Categories[0].Tasks[0].Text = "mutated"
	*snap.Categories[0].Tasks[0].CompletedAt = testNow.Add(24 * time.Hour)

	task, err := store.Task("Work", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", task.Text)
	assert.True(t, task.CompletedAt.Equal(testNow))
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	for _, text := range []string{"a", "b", "c"} {
		_, err := store.AddTask(ctx, "Work", text)
		require.NoError(t, err)
	}
	require.NoError(t, store.ToggleTask(ctx, "Work", 2))

	done, total := store.Counts("Work")
	assert.Equal(t, 1, done)
	assert.Equal(t, 3, total)

	done, total = store.Counts("Nope")
	assert.Zero(t, done)
	assert.Zero(t, total)
}
