package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLegacyFiles(t *testing.T, dir string, doc *Document, settings string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, EncodeDocument(&buf, doc))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TasksFile), buf.Bytes(), 0600))
	if settings != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte(settings), 0600))
	}
}

func TestMigrateLegacy_ImportsAndRenames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacyFiles(t, dir, sampleDocument(), `{"theme": "dark"}`)
	db := createTestSQLite(t)

	res, err := MigrateLegacy(ctx, db, dir)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Categories)
	assert.Equal(t, 2, res.Tasks)
	assert.Equal(t, "dark", res.Theme)

	_, err = os.Stat(filepath.Join(dir, TasksFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, TasksFile+MigratedSuffix))
	assert.NoError(t, err)

	store := NewStore(db, nil)
	require.NoError(t, store.Load(ctx))
	assert.Equal(t, []string{"Work", "Personal"}, store.CategoryNames())
	assert.Equal(t, ThemeDark, store.Theme())
}

func TestMigrateLegacy_NoLegacyFile(t *testing.T) {
	db := createTestSQLite(t)

	res, err := MigrateLegacy(context.Background(), db, t.TempDir())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestMigrateLegacy_EmptyDocumentIsLeftInPlace(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, TasksFile)
	require.NoError(t, os.WriteFile(legacy, []byte(`{}`), 0600))
	db := createTestSQLite(t)

	res, err := MigrateLegacy(context.Background(), db, dir)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.FileExists(t, legacy)
	assert.NoFileExists(t, legacy+MigratedSuffix)
}

func TestMigrateLegacy_DatabaseAlreadyPopulated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacyFiles(t, dir, sampleDocument(), "")
	db := createTestSQLite(t)
	require.NoError(t, db.Save(ctx, &Document{Categories: []Category{{Name: "Existing"}}}))

	res, err := MigrateLegacy(ctx, db, dir)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	_, err = os.Stat(filepath.Join(dir, TasksFile))
	assert.NoError(t, err, "legacy file must stay when nothing was imported")

	doc, err := db.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Categories, 1)
	assert.Equal(t, "Existing", doc.Categories[0].Name)
}

func TestMigrateLegacy_KeepsExistingTheme(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacyFiles(t, dir, sampleDocument(), `{"theme": "dark"}`)
	db := createTestSQLite(t)
	require.NoError(t, db.SetSetting(ctx, SettingTheme, "light"))

	res, err := MigrateLegacy(ctx, db, dir)
	require.NoError(t, err)
	assert.Empty(t, res.Theme)

	v, _, err := db.Setting(ctx, SettingTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestImportFile_Force(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacyFiles(t, dir, sampleDocument(), "")
	db := createTestSQLite(t)
	require.NoError(t, db.Save(ctx, &Document{Categories: []Category{{Name: "Existing"}}}))

	res, err := ImportFile(ctx, db, filepath.Join(dir, TasksFile), true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Categories)

	doc, err := db.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Work", doc.Categories[0].Name)
}

func TestImportFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Work": [`), 0600))

	_, err := ImportFile(context.Background(), createTestSQLite(t), path, false)
	assert.Error(t, err)
}
