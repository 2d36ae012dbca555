// Package testutil provides filesystem helpers shared by package tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree creates files below dir. Keys are slash-separated relative paths.
func WriteTree(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

// ReadTree returns the regular files below dir keyed by slash-separated
// relative path.
func ReadTree(t testing.TB, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

// ReadDirs returns the directories below dir as slash-separated relative
// paths in lexical order. The root itself is not included.
func ReadDirs(t testing.TB, dir string) []string {
	t.Helper()
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		dirs = append(dirs, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return dirs
}

// MakeUnreadable removes all permissions from path, a file or directory,
// and restores them when the test ends. The test is skipped when path can
// still be opened, as happens for privileged users and on platforms without
// permission bits.
func MakeUnreadable(t testing.TB, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(path, 0))
	t.Cleanup(func() {
		os.Chmod(path, info.Mode().Perm())
	})
	if f, err := os.Open(path); err == nil {
		f.Close()
		t.Skip("file permissions are not enforced for this user")
	}
}
