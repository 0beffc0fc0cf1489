// Package fsutil holds the small file primitives shared by the flat-file
// backend, backups, exports and the legacy migration.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// WriteFileAtomic replaces path with data via a synced temp file in the same
// directory followed by a rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	fail := func(step string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%s %s: %w", step, tmpPath, err)
	}

	if err := tmp.Chmod(perm); err != nil {
		return fail("chmod", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("fsync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := replace(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}
	syncDir(dir)
	return nil
}

// replace renames src over dst. Windows refuses to rename onto an existing
// file, so the destination is removed first there.
func replace(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	if _, statErr := os.Stat(dst); statErr != nil {
		return err
	}
	if rmErr := os.Remove(dst); rmErr != nil {
		return err
	}
	return os.Rename(src, dst)
}

// BestEffortBackup copies the current contents of path to path+".bak".
// A missing source or a failed copy is ignored.
func BestEffortBackup(path string, perm os.FileMode) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = WriteFileAtomic(path+".bak", data, perm)
}

// MoveAside renames path to path+"."+tag+"."+timestamp and returns the new
// name. Used to keep unreadable files around for inspection.
func MoveAside(path, tag string, now time.Time) (string, error) {
	dst := fmt.Sprintf("%s.%s.%s", path, tag, now.Format("20060102-150405"))
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("move %s aside: %w", path, err)
	}
	return dst, nil
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
