// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize converts an archive entry name to a clean relative form.
//
// It performs the following transformations:
//   - Strips trailing slashes: "data/sub/" → "data/sub"
//   - Collapses consecutive slashes: "data//a.txt" → "data/a.txt"
//   - Drops "." elements: "./data/a.txt" → "data/a.txt"
//   - Converts empty names to root: "" → "."
//
// Leading slashes and ".." elements are preserved so that IsLocal can
// reject them.
func Normalize(name string) string {
	abs := strings.HasPrefix(name, "/")
	parts := strings.Split(name, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		if abs {
			return "/"
		}
		return "."
	}
	joined := strings.Join(result, "/")
	if abs {
		return "/" + joined
	}
	return joined
}

// IsLocal reports whether a normalized archive name stays inside the
// directory it is resolved against. Absolute names, ".." elements and
// names that are empty after normalization are not local.
func IsLocal(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(name))
}

// StripRoot removes a leading root component from name.
// It returns the remainder and whether the component was present.
// A name equal to root yields ".".
func StripRoot(name, root string) (string, bool) {
	if root == "" {
		return name, false
	}
	if name == root {
		return ".", true
	}
	if rest, ok := strings.CutPrefix(name, root+"/"); ok {
		return rest, true
	}
	return name, false
}

// Join resolves a slash-separated archive name below dir.
// The boolean result is false when name would escape dir.
func Join(dir, name string) (string, bool) {
	if name == "." {
		return dir, true
	}
	if !IsLocal(name) {
		return "", false
	}
	return filepath.Join(dir, filepath.FromSlash(name)), true
}
