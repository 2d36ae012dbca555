package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// Inspect lists the entries of an archive in encounter order without
// extracting them. For a directory it lists what Serialize would write.
func Inspect(ctx context.Context, archivePath string) ([]Entry, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if info.IsDir() {
		return inspectDir(ctx, archivePath)
	}

	c, _, ok := matchSuffix(archivePath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, archivePath)
	}
	er, err := c.open(archivePath)
	if err != nil {
		return nil, classify(err)
	}
	defer er.Close()

	var entries []Entry
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, _, err := er.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, classify(err)
		}
		entries = append(entries, e)
	}
}

func inspectDir(ctx context.Context, dir string) ([]Entry, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer root.Close()

	sources, err := collectEntries(ctx, root)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(dir)
	entries := make([]Entry, 0, len(sources)+1)
	entries = append(entries, Entry{Path: base, IsDir: true})
	for _, se := range sources {
		info, err := root.Lstat(filepath.FromSlash(se.path))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		e := Entry{
			Path:    path.Join(base, se.path),
			IsDir:   se.isDir,
			Mode:    info.Mode().Perm(),
			ModTime: info.ModTime(),
		}
		if !se.isDir {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}
