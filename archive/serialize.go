package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/meigma/bagport/internal/file"
	"github.com/meigma/bagport/internal/platform"
	"github.com/meigma/bagport/internal/write"
)

// Serialize packs the bag directory dir into a single archive of the given
// kind and returns the archive path, which is dir plus the kind's suffix.
//
// Entries are written in lexical order of their relative paths under a
// top-level directory named after dir, so identical trees produce identical
// archives. Symbolic links and special files are skipped. The archive is
// written to a temporary file and renamed into place only on success; on
// failure no archive is left behind.
//
// KindDirectory is a passthrough that returns dir unchanged.
func Serialize(ctx context.Context, dir string, kind Kind, opts ...SerializeOption) (string, error) {
	cfg := serializeConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrIO, dir)
	}
	if kind == KindDirectory {
		return dir, nil
	}
	c, ok := lookupCodec(kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, kind)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer root.Close()

	entries, err := collectEntries(ctx, root)
	if err != nil {
		return "", err
	}

	target := dir + c.suffixes[0]
	base := filepath.Base(dir)
	cfg.logger.Info("serializing bag",
		slog.String("dir", dir),
		slog.String("archive", target),
		slog.Int("entries", len(entries)))

	err = write.StreamAtomic(target, 0o644, func(w io.Writer) error {
		ew, err := c.create(w)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		if err := writeEntries(ctx, root, base, entries, ew, &cfg); err != nil {
			ew.Close()
			return err
		}
		if err := ew.Close(); err != nil {
			return fmt.Errorf("%w: finalize %s: %w", ErrIO, target, err)
		}
		return nil
	})
	if err != nil {
		if !isKnown(err) {
			err = fmt.Errorf("%w: %w", ErrIO, err)
		}
		return "", err
	}
	return target, nil
}

// sourceEntry is a directory or regular file found below the bag root.
type sourceEntry struct {
	path  string
	isDir bool
}

// collectEntries walks root and returns its entries sorted by relative path.
func collectEntries(ctx context.Context, root *os.Root) ([]sourceEntry, error) {
	var entries []sourceEntry //nolint:prealloc // size unknown until iteration
	err := fs.WalkDir(root.FS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		switch {
		case d.IsDir():
			entries = append(entries, sourceEntry{path: p, isDir: true})
		case d.Type().IsRegular():
			entries = append(entries, sourceEntry{path: p})
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	slices.SortFunc(entries, func(a, b sourceEntry) int {
		return strings.Compare(a.path, b.path)
	})
	return entries, nil
}

func writeEntries(ctx context.Context, root *os.Root, base string, entries []sourceEntry, ew entryWriter, cfg *serializeConfig) error {
	rootInfo, err := root.Stat(".")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := ew.WriteEntry(Entry{
		Path:    base,
		IsDir:   true,
		Mode:    rootInfo.Mode().Perm(),
		ModTime: cfg.entryTime(rootInfo),
	}, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	for _, se := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeEntry(root, base, se, ew, cfg); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(root *os.Root, base string, se sourceEntry, ew entryWriter, cfg *serializeConfig) error {
	name := path.Join(base, se.path)
	fsPath := filepath.FromSlash(se.path)

	if se.isDir {
		info, err := root.Stat(fsPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		if err := ew.WriteEntry(Entry{Path: name, IsDir: true, Mode: info.Mode().Perm(), ModTime: cfg.entryTime(info)}, nil); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		return nil
	}

	f, err := platform.OpenFileNoFollow(root, fsPath)
	if err != nil {
		if errors.Is(err, platform.ErrSymlink) {
			cfg.logger.Debug("skipping symbolic link", slog.String("path", se.path))
			return nil
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: not a regular file: %s", ErrIO, se.path)
	}

	cr := &file.CountingReader{R: io.LimitReader(f, info.Size())}
	e := Entry{
		Path:    name,
		Size:    info.Size(),
		Mode:    info.Mode().Perm(),
		ModTime: cfg.entryTime(info),
	}
	if err := ew.WriteEntry(e, cr); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, se.path, err)
	}
	if cr.N != info.Size() {
		return fmt.Errorf("%w: file size changed during serialization: %s: expected %d, got %d",
			ErrIO, se.path, info.Size(), cr.N)
	}
	return nil
}

func (cfg *serializeConfig) entryTime(info fs.FileInfo) time.Time {
	if !cfg.modTime.IsZero() {
		return cfg.modTime
	}
	return info.ModTime()
}

// isKnown reports whether err already carries a classification.
func isKnown(err error) bool {
	return errors.Is(err, ErrIO) ||
		errors.Is(err, ErrFormatViolation) ||
		errors.Is(err, ErrUnsupportedEncoding) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
