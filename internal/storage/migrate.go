package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MigratedSuffix is appended to a flat-file document once it has been
// imported into the database.
const MigratedSuffix = ".migrated"

// MigrationResult describes what MigrateLegacy did.
type MigrationResult struct {
	Source     string
	Categories int
	Tasks      int
	Theme      string
	Skipped    bool // database already held data, no legacy file, or an empty document
}

// MigrateLegacy imports dataDir/tasks.json into db when db holds no
// categories, then renames the file to tasks.json.migrated. A document
// without categories is left in place. A legacy settings.json theme is
// copied when the database has none.
func MigrateLegacy(ctx context.Context, db *SQLite, dataDir string) (MigrationResult, error) {
	path := filepath.Join(dataDir, TasksFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return MigrationResult{Source: path, Skipped: true}, nil
		}
		return MigrationResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	empty, err := db.isEmpty(ctx)
	if err != nil {
		return MigrationResult{}, err
	}
	if !empty {
		return MigrationResult{Source: path, Skipped: true}, nil
	}

	res, err := ImportFile(ctx, db, path, false)
	if err != nil || res.Skipped {
		return res, err
	}

	if theme, ok := legacyTheme(filepath.Join(dataDir, SettingsFile)); ok {
		if _, present, err := db.Setting(ctx, SettingTheme); err == nil && !present {
			if err := db.SetSetting(ctx, SettingTheme, theme); err != nil {
				return res, err
			}
			res.Theme = theme
		}
	}

	if err := os.Rename(path, path+MigratedSuffix); err != nil {
		return res, fmt.Errorf("rename %s: %w", path, err)
	}
	return res, nil
}

// ImportFile decodes a flat-file document at path and writes it into db.
// Unless force is set, a database that already holds categories is left
// untouched and the result is marked skipped.
func ImportFile(ctx context.Context, db *SQLite, path string, force bool) (MigrationResult, error) {
	res := MigrationResult{Source: path}
	if !force {
		empty, err := db.isEmpty(ctx)
		if err != nil {
			return res, err
		}
		if !empty {
			res.Skipped = true
			return res, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := DecodeDocument(bytes.NewReader(data), time.Now())
	if err != nil {
		return res, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(doc.Categories) == 0 {
		res.Skipped = true
		return res, nil
	}

	if err := db.Save(ctx, doc); err != nil {
		return res, fmt.Errorf("import %s: %w", path, err)
	}
	res.Categories = len(doc.Categories)
	res.Tasks = doc.TaskCount()
	return res, nil
}

func legacyTheme(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var settings struct {
		Theme string `json:"theme"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return "", false
	}
	switch Theme(settings.Theme) {
	case ThemeLight, ThemeDark:
		return settings.Theme, true
	}
	return "", false
}
