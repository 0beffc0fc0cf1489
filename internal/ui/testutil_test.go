package ui

import (
	"context"
	"testing"
	"time"

	"tasklist/internal/backup"
	"tasklist/internal/config"
	"tasklist/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)

// setupTest prepares the test environment for deterministic rendering.
func setupTest(t *testing.T) {
	t.Helper()
	// Use ASCII profile to disable all color codes in output
	lipgloss.SetColorProfile(termenv.Ascii)
}

// createTestStore creates a loaded store over an in-memory database.
func createTestStore(t *testing.T) (*storage.Store, *storage.SQLite) {
	t.Helper()
	db, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := storage.NewStore(db, nil)
	store.SetNowFunc(func() time.Time { return testNow })
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("failed to load test store: %v", err)
	}
	return store, db
}

// addTasks adds tasks to a category, failing the test on error.
func addTasks(t *testing.T, store *storage.Store, category string, texts ...string) {
	t.Helper()
	for _, text := range texts {
		if _, err := store.AddTask(context.Background(), category, text); err != nil {
			t.Fatalf("AddTask(%q) error = %v", text, err)
		}
	}
}

// createTestApp creates an App sized for the wide layout with a fixed clock.
func createTestApp(t *testing.T, store *storage.Store, confirm bool) *App {
	t.Helper()
	dataDir := t.TempDir()
	app := NewApp(context.Background(), Options{
		Store:   store,
		Backups: backup.NewManager(dataDir),
		Theme:   NewThemeNotifier(store.Theme(), ""),
		Config: &AppConfig{
			Keys:                  &config.KeysConfig{},
			ConfirmDeletions:      confirm,
			NarrowLayoutThreshold: 80,
			ExportDir:             dataDir,
		},
	})
	app.now = func() time.Time { return testNow }
	app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return app
}

// keyMsg builds the message Bubble Tea sends for a key name.
func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends keys in order and returns the command of the last one.
func press(app *App, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = app.Update(keyMsg(k))
	}
	return cmd
}

// typeText sends each rune of s as a key press.
func typeText(app *App, s string) {
	for _, r := range s {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// deliver runs cmd and hands its result back to the app. Only use it for
// commands that complete immediately (store results, backups, exports).
func deliver(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	switch msg := cmd().(type) {
	case storeChangedMsg, backupDoneMsg, exportDoneMsg:
		app.Update(msg)
	default:
		t.Fatalf("unexpected message %T", msg)
	}
}
