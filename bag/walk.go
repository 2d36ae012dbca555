package bag

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

const payloadDir = "data"

// listPayload returns the regular files under dir/data as slash-separated
// bag-relative paths in lexical order. Symlinks are skipped.
func listPayload(ctx context.Context, dir string, logger *slog.Logger) ([]string, error) {
	return listFiles(ctx, dir, logger, func(rel string, d fs.DirEntry) (bool, error) {
		if rel == "." {
			return true, nil
		}
		return rel == payloadDir || strings.HasPrefix(rel, payloadDir+"/"), nil
	})
}

// listTagFiles returns every file outside data/ that a tag manifest covers:
// all tag files except the tag manifests themselves.
func listTagFiles(ctx context.Context, dir string, logger *slog.Logger) ([]string, error) {
	return listFiles(ctx, dir, logger, func(rel string, d fs.DirEntry) (bool, error) {
		if rel == "." {
			return true, nil
		}
		if rel == payloadDir && d.IsDir() {
			return false, fs.SkipDir
		}
		base := d.Name()
		if strings.HasPrefix(base, ".bagport-") {
			return false, nil
		}
		if !strings.Contains(rel, "/") && strings.HasPrefix(base, tagManifestPrefix) {
			return false, nil
		}
		return true, nil
	})
}

// listFiles walks dir and collects regular files accepted by keep. keep may
// return fs.SkipDir to prune a directory.
func listFiles(ctx context.Context, dir string, logger *slog.Logger, keep func(rel string, d fs.DirEntry) (bool, error)) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		ok, err := keep(rel, d)
		if err != nil {
			return err
		}
		if !ok {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			logger.Debug("skipping symlink", slog.String("path", rel))
			return nil
		}
		if d.Type().IsRegular() {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
