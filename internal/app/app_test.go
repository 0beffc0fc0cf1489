package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"tasklist/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, configYAML string) (*Context, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	configPath := filepath.Join(dir, "config.yaml")
	if configYAML != "" {
		require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o644))
	}

	c, err := New(context.Background(), Options{
		ConfigPath: configPath,
		DataDir:    dataDir,
		LogOutput:  io.Discard,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dataDir
}

func TestNew_DefaultsToSQLite(t *testing.T) {
	c, dataDir := newTestContext(t, "")

	require.NotNil(t, c.DB)
	assert.FileExists(t, filepath.Join(dataDir, storage.DatabaseFile))
	assert.Equal(t, storage.DefaultCategories, c.Store.CategoryNames())
	assert.Equal(t, filepath.Join(dataDir, "backups"), c.Backups.Dir())
	assert.Equal(t, storage.ThemeLight, c.Theme.Mode())
	assert.NoError(t, c.LoadErr)
	assert.True(t, c.Migration.Skipped)
}

func TestNew_PersistsAcrossContexts(t *testing.T) {
	dir := t.TempDir()
	opts := Options{ConfigPath: filepath.Join(dir, "none.yaml"), DataDir: dir, LogOutput: io.Discard}
	ctx := context.Background()

	first, err := New(ctx, opts)
	require.NoError(t, err)
	_, err = first.Store.AddTask(ctx, "Study", "read chapter 3")
	require.NoError(t, err)
	require.NoError(t, first.Store.SetCurrent(ctx, "Study"))
	require.NoError(t, first.Close())

	second, err := New(ctx, opts)
	require.NoError(t, err)
	defer second.Close()

	tasks, err := second.Store.Tasks("Study")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "read chapter 3", tasks[0].Text)
	assert.Equal(t, "Study", second.Store.Current())
}

func TestNew_JSONBackendAndThemeFromConfig(t *testing.T) {
	c, dataDir := newTestContext(t, "storage:\n  backend: json\ntheme:\n  mode: dark\n  accent: \"#FF5733\"\n")

	assert.Nil(t, c.DB)
	assert.IsType(t, &storage.JSONFile{}, c.Backend)
	assert.Equal(t, storage.ThemeDark, c.Store.Theme())
	assert.Equal(t, storage.ThemeDark, c.Theme.Mode())
	assert.EqualValues(t, "#FF5733", c.Theme.Styles().ColorPrimary)

	_, err := c.Store.AddTask(context.Background(), "Work", "ship it")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, storage.TasksFile))
}

func TestNew_MigratesLegacyFile(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"Errands": [{"text": "post letter", "completed": false, "created_date": "2025-03-14 09:30", "completed_date": null}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.TasksFile), []byte(legacy), 0o644))

	c, err := New(context.Background(), Options{
		ConfigPath: filepath.Join(dir, "none.yaml"),
		DataDir:    dir,
		LogOutput:  io.Discard,
	})
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Migration.Skipped)
	assert.Equal(t, 1, c.Migration.Tasks)
	assert.Equal(t, []string{"Errands"}, c.Store.CategoryNames())
	assert.NoFileExists(t, filepath.Join(dir, storage.TasksFile))
	assert.FileExists(t, filepath.Join(dir, storage.TasksFile+storage.MigratedSuffix))
}

func TestNew_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: csv\n"), 0o644))

	_, err := New(context.Background(), Options{ConfigPath: path, DataDir: dir, LogOutput: io.Discard})
	assert.ErrorContains(t, err, "storage.backend")
}

func TestNew_WritesLogFile(t *testing.T) {
	dir := t.TempDir()
	c, err := New(context.Background(), Options{
		ConfigPath: filepath.Join(dir, "none.yaml"),
		DataDir:    dir,
	})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	data, err := os.ReadFile(filepath.Join(dir, "tasklist.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=started")
	assert.Contains(t, string(data), "msg=stopped")
}

func TestClose_Idempotent(t *testing.T) {
	c, _ := newTestContext(t, "")
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestUIOptions(t *testing.T) {
	c, _ := newTestContext(t, "ux:\n  confirm_deletions: false\n  narrow_layout_threshold: 100\nkeys:\n  quit: ctrl+q\n")

	opts := c.UIOptions()
	assert.Same(t, c.Store, opts.Store)
	assert.Same(t, c.Theme, opts.Theme)
	assert.False(t, opts.Config.ConfirmDeletions)
	assert.Equal(t, 100, opts.Config.NarrowLayoutThreshold)
	assert.Equal(t, "ctrl+q", opts.Config.Keys.Quit)
	assert.NotEmpty(t, opts.Config.ExportDir)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
