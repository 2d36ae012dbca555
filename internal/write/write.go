// Package write provides atomic file creation for archives and tag files.
package write

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// TempPattern is the name pattern of in-progress files and directories.
const TempPattern = ".bagport-*"

// FileAtomic writes data to a temp file then renames to target,
// ensuring atomic replacement of the target file.
func FileAtomic(target string, data []byte, perm os.FileMode) error {
	return StreamAtomic(target, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// StreamAtomic creates a temp file beside target, passes it to fn and
// renames it to target only when fn and the close succeed. On any failure
// the temp file is removed and target is left untouched.
func StreamAtomic(target string, perm os.FileMode, fn func(w io.Writer) error) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, TempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := fn(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename to %s: %w", target, err)
	}
	return nil
}

// ReplaceDir moves staging into place at target. An existing target is
// moved aside first and removed once the swap succeeded; if the swap fails
// the previous target is restored. When the restore fails as well, the
// backup is kept and the error names it.
//
// A backup that cannot be removed after a successful swap is reported as
// *StaleBackupError; target already holds the new tree in that case.
func ReplaceDir(staging, target string) error {
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return os.Rename(staging, target)
	} else if err != nil {
		return err
	}

	backup, err := os.MkdirTemp(filepath.Dir(target), TempPattern)
	if err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	aside := filepath.Join(backup, filepath.Base(target))
	if err := os.Rename(target, aside); err != nil {
		os.Remove(backup)
		return fmt.Errorf("move %s aside: %w", target, err)
	}
	if err := os.Rename(staging, target); err != nil {
		if rerr := os.Rename(aside, target); rerr != nil {
			return fmt.Errorf("rename to %s: %w; previous tree kept at %s: %w", target, err, aside, rerr)
		}
		os.Remove(backup)
		return fmt.Errorf("rename to %s: %w", target, err)
	}
	if err := RemoveAll(backup); err != nil {
		return &StaleBackupError{Path: backup, Err: err}
	}
	return nil
}

// StaleBackupError reports a replaced tree that could not be removed.
type StaleBackupError struct {
	Path string
	Err  error
}

func (e *StaleBackupError) Error() string {
	return fmt.Sprintf("remove previous tree %s: %v", e.Path, e.Err)
}

func (e *StaleBackupError) Unwrap() error {
	return e.Err
}

// RemoveAll removes path like os.RemoveAll, first granting the owner write
// and search permission on every directory below it so that read-only
// directories extracted from an archive can be emptied.
func RemoveAll(path string) error {
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		// Directories are opened up before WalkDir reads them.
		if err == nil && d.IsDir() {
			makeWritable(p)
		}
		return nil
	})
	return os.RemoveAll(path)
}

func makeWritable(dir string) {
	info, err := os.Lstat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	if mode := info.Mode().Perm(); mode&0o700 != 0o700 {
		os.Chmod(dir, mode|0o700)
	}
}
