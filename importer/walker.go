package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// VersionsMarker names the version index of a resource. Files ending in
// VersionsMarker followed by the description suffix are never emitted.
const VersionsMarker = "fcr%3Aversions"

// WalkFunc receives each description file. index is the 0-based discovery
// position; path is root joined with the file's relative path.
type WalkFunc func(index int, path string) error

// Walk visits the regular files under root in lexical order and calls fn for
// each one whose name ends in suffix, excluding version indexes. Directories,
// symlinks and other files are skipped.
//
// Failures reading the tree wrap ErrIO. An error returned by fn stops the
// walk and is returned unchanged.
func Walk(ctx context.Context, root, suffix string, fn WalkFunc) error {
	r, err := os.OpenRoot(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer r.Close()

	var fnErr error
	index := 0
	err = fs.WalkDir(r.FS(), ".", func(name string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			fnErr = err
			return err
		}
		if !d.Type().IsRegular() || !isDescription(name, suffix) {
			return nil
		}
		if err := fn(index, filepath.Join(root, filepath.FromSlash(name))); err != nil {
			fnErr = err
			return err
		}
		index++
		return nil
	})
	if err != nil {
		if fnErr != nil && errors.Is(err, fnErr) {
			return fnErr
		}
		return fmt.Errorf("%w: walk %s: %w", ErrIO, root, err)
	}
	return nil
}

func isDescription(name, suffix string) bool {
	return strings.HasSuffix(name, suffix) && !strings.HasSuffix(name, VersionsMarker+suffix)
}
