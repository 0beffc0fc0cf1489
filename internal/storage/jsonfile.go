package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tasklist/internal/fsutil"
)

// File names used by the flat-file backend.
const (
	TasksFile    = "tasks.json"
	SettingsFile = "settings.json"
)

const (
	dataDirPerm  os.FileMode = 0700
	dataFilePerm os.FileMode = 0600
)

// JSONFile stores the whole document in tasks.json and settings in
// settings.json inside a data directory.
type JSONFile struct {
	dataDir string
	now     func() time.Time
}

// NewJSONFile creates the data directory if needed.
func NewJSONFile(dataDir string) (*JSONFile, error) {
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &JSONFile{dataDir: dataDir, now: time.Now}, nil
}

// Path returns the document path.
func (f *JSONFile) Path() string {
	return f.path(TasksFile)
}

func (f *JSONFile) path(filename string) string {
	return filepath.Join(f.dataDir, filename)
}

// Load reads tasks.json. A missing file yields an empty document. A corrupt
// file is recovered from its .bak copy when possible; otherwise it is moved
// aside and an empty document is returned together with the cause.
func (f *JSONFile) Load(_ context.Context) (*Document, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", TasksFile, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return f.recoverCorrupt(fmt.Errorf("%s is empty", TasksFile))
	}

	doc, err := DecodeDocument(bytes.NewReader(data), f.now())
	if err == nil {
		return doc, nil
	}
	return f.recoverCorrupt(err)
}

func (f *JSONFile) recoverCorrupt(cause error) (*Document, error) {
	path := f.Path()

	bakData, bakErr := os.ReadFile(path + ".bak")
	if bakErr == nil && len(bytes.TrimSpace(bakData)) > 0 {
		if doc, err := DecodeDocument(bytes.NewReader(bakData), f.now()); err == nil {
			_, _ = fsutil.MoveAside(path, "corrupt", f.now())
			_ = f.Save(context.Background(), doc)
			return doc, fmt.Errorf("%w (recovered from %s.bak)", cause, TasksFile)
		}
	}

	// No usable backup: keep the broken file for inspection and start empty.
	moved, err := fsutil.MoveAside(path, "corrupt", f.now())
	if err != nil {
		return &Document{}, fmt.Errorf("%w (reset to defaults; %w)", cause, err)
	}
	return &Document{}, fmt.Errorf("%w (reset to defaults; original moved to %s)", cause, moved)
}

// Save rewrites tasks.json atomically, keeping the previous contents in .bak.
func (f *JSONFile) Save(_ context.Context, doc *Document) error {
	var buf bytes.Buffer
	if err := EncodeDocument(&buf, doc); err != nil {
		return fmt.Errorf("serialize %s: %w", TasksFile, err)
	}
	return f.writeAtomic(TasksFile, buf.Bytes())
}

func (f *JSONFile) writeAtomic(filename string, data []byte) error {
	path := f.path(filename)

	// Keep a best-effort backup before overwriting.
	fsutil.BestEffortBackup(path, dataFilePerm)

	if err := fsutil.WriteFileAtomic(path, data, dataFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func (f *JSONFile) readSettings() (map[string]string, error) {
	settings := map[string]string{}
	data, err := os.ReadFile(f.path(SettingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("read %s: %w", SettingsFile, err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", SettingsFile, err)
	}
	return settings, nil
}

// Setting reads one key from settings.json.
func (f *JSONFile) Setting(_ context.Context, key string) (string, bool, error) {
	settings, err := f.readSettings()
	if err != nil {
		return "", false, err
	}
	v, ok := settings[key]
	return v, ok, nil
}

// SetSetting writes one key to settings.json, keeping the others.
func (f *JSONFile) SetSetting(_ context.Context, key, value string) error {
	settings, err := f.readSettings()
	if err != nil {
		// An unreadable settings file is replaced rather than blocking writes.
		settings = map[string]string{}
	}
	settings[key] = value
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", SettingsFile, err)
	}
	return f.writeAtomic(SettingsFile, data)
}

// Close is a no-op; every write is already durable.
func (f *JSONFile) Close() error {
	return nil
}
