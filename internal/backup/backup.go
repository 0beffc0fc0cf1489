// Package backup writes and restores point-in-time snapshots of the task
// document. Each backup is a single file in the document format, named after
// the moment it was taken (backups/backup_20250314_093000.json).
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"tasklist/internal/fsutil"
	"tasklist/internal/storage"
)

const (
	BackupsDir = "backups"

	namePrefix = "backup_"
	nameSuffix = ".json"
	nameLayout = "20060102_150405"
)

// ErrNotFound is returned for a well-formed name with no backup behind it.
var ErrNotFound = errors.New("backup not found")

// ErrNoBackups is returned by RestoreLatest when nothing has been backed up.
var ErrNoBackups = errors.New("no backups available")

// Manager handles backup and restore operations.
type Manager struct {
	backupDir string
	now       func() time.Time
}

// Info contains summary information about a backup.
type Info struct {
	Name       string    // File name (backup_20250314_093000.json)
	Path       string    // Full path to the backup file
	CreatedAt  time.Time // Parsed from the name
	Size       int64
	Categories int
	Tasks      int
	Completed  int
	Corrupt    bool // The file could not be decoded; counts are zero
}

// Restorer is the part of the task store a restore needs.
type Restorer interface {
	Snapshot() *storage.Document
	Replace(ctx context.Context, doc *storage.Document) error
}

// NewManager creates a backup manager rooted at dataDir/backups.
func NewManager(dataDir string) *Manager {
	return &Manager{
		backupDir: filepath.Join(dataDir, BackupsDir),
		now:       time.Now,
	}
}

// Dir returns the directory backups are written to.
func (m *Manager) Dir() string {
	return m.backupDir
}

// Create writes doc as a new backup and returns its name. Two backups in
// the same second are told apart by a millisecond suffix.
func (m *Manager) Create(doc *storage.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nothing to back up")
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	var buf bytes.Buffer
	if err := storage.EncodeDocument(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	now := m.now()
	name := formatName(now, false)
	if fsutil.Exists(filepath.Join(m.backupDir, name)) {
		name = formatName(now, true)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(m.backupDir, name), buf.Bytes(), 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return name, nil
}

// List returns all available backups, sorted by creation time (newest first).
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := parseName(entry.Name()); err != nil {
			continue
		}
		info, err := m.info(entry.Name())
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns information about a specific backup.
func (m *Manager) Get(name string) (*Info, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return m.info(name)
}

// Load reads and decodes a backup.
func (m *Manager) Load(name string) (*storage.Document, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(m.backupDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	doc, err := storage.DecodeDocument(bytes.NewReader(data), m.now())
	if err != nil {
		return nil, fmt.Errorf("backup %s is invalid: %w", name, err)
	}
	return doc, nil
}

// Restore replaces the store contents with a backup. The current contents
// are backed up first; the safety backup's name is returned.
func (m *Manager) Restore(ctx context.Context, store Restorer, name string) (string, error) {
	doc, err := m.Load(name)
	if err != nil {
		return "", err
	}
	if len(doc.Categories) == 0 {
		return "", fmt.Errorf("backup %s: %w", name, storage.ErrEmptyDocument)
	}

	safetyName, err := m.Create(store.Snapshot())
	if err != nil {
		return "", fmt.Errorf("failed to create safety backup: %w", err)
	}

	if err := store.Replace(ctx, doc); err != nil {
		return safetyName, fmt.Errorf("failed to restore %s (safety backup: %s): %w", name, safetyName, err)
	}
	return safetyName, nil
}

// RestoreLatest restores from the most recent backup and returns its name
// along with the safety backup's.
func (m *Manager) RestoreLatest(ctx context.Context, store Restorer) (restored, safety string, err error) {
	backups, err := m.List()
	if err != nil {
		return "", "", err
	}
	for _, b := range backups {
		if b.Corrupt {
			continue
		}
		safety, err = m.Restore(ctx, store, b.Name)
		return b.Name, safety, err
	}
	return "", "", ErrNoBackups
}

// Delete removes a specific backup.
func (m *Manager) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(m.backupDir, name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	return nil
}

// Prune removes old backups, keeping only the N most recent.
func (m *Manager) Prune(keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keepCount must be non-negative")
	}

	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keepCount {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keepCount:] {
		if err := m.Delete(b.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (m *Manager) info(name string) (*Info, error) {
	createdAt, err := parseName(name)
	if err != nil {
		return nil, fmt.Errorf("invalid backup name: %q", name)
	}

	path := filepath.Join(m.backupDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}

	info := &Info{
		Name:      name,
		Path:      path,
		CreatedAt: createdAt,
		Size:      int64(len(data)),
	}
	doc, err := storage.DecodeDocument(bytes.NewReader(data), createdAt)
	if err != nil {
		info.Corrupt = true
		return info, nil
	}
	info.Categories = len(doc.Categories)
	for _, c := range doc.Categories {
		info.Tasks += len(c.Tasks)
		for _, t := range c.Tasks {
			if t.Completed {
				info.Completed++
			}
		}
	}
	return info, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

func formatName(t time.Time, withMillis bool) string {
	if withMillis {
		return fmt.Sprintf("%s%s_%03d%s", namePrefix, t.Format(nameLayout), t.Nanosecond()/1e6, nameSuffix)
	}
	return namePrefix + t.Format(nameLayout) + nameSuffix
}

// parseName extracts the timestamp from backup_YYYYMMDD_HHMMSS[_mmm].json.
func parseName(name string) (time.Time, error) {
	if !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameSuffix) {
		return time.Time{}, fmt.Errorf("invalid backup format")
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, namePrefix), nameSuffix)

	var ms int
	if len(stamp) == len(nameLayout)+4 {
		if stamp[len(nameLayout)] != '_' {
			return time.Time{}, fmt.Errorf("invalid backup format")
		}
		var err error
		ms, err = strconv.Atoi(stamp[len(nameLayout)+1:])
		if err != nil || ms < 0 || ms > 999 {
			return time.Time{}, fmt.Errorf("invalid milliseconds")
		}
		stamp = stamp[:len(nameLayout)]
	}

	t, err := time.ParseInLocation(nameLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}
