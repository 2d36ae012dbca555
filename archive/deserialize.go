package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/bagport/internal/pathutil"
	"github.com/meigma/bagport/internal/sink"
	"github.com/meigma/bagport/internal/write"
)

// Deserialize unpacks archivePath and returns the directory it produced:
// the archive path with its format suffix removed.
//
// If archivePath is already a directory it is returned unchanged. Otherwise
// entries are extracted in encounter order into a staging directory beside
// the target, which replaces the target only once every entry has been
// written. A single bad entry (path traversal, link, size mismatch, corrupt
// container) aborts the whole operation and leaves the target untouched.
//
// When the first entry names a top-level directory matching the target's
// base name, that component is stripped from every entry, so archives
// produced by Serialize round-trip to the original tree.
//
// Deserialize is idempotent: running it twice on the same archive produces
// identical trees. It must not run concurrently against the same target.
func Deserialize(ctx context.Context, archivePath string, opts ...DeserializeOption) (string, error) {
	cfg := deserializeConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	if info.IsDir() {
		return archivePath, nil
	}

	c, _, ok := matchSuffix(archivePath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, archivePath)
	}
	target, err := TargetDir(archivePath)
	if err != nil {
		return "", err
	}

	staging, err := os.MkdirTemp(filepath.Dir(target), write.TempPattern)
	if err != nil {
		return "", fmt.Errorf("%w: create staging directory: %w", ErrIO, err)
	}
	committed := false
	defer func() {
		if !committed {
			write.RemoveAll(staging)
		}
	}()
	if err := os.Chmod(staging, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}

	cfg.logger.Info("extracting serialized bag",
		slog.String("archive", archivePath),
		slog.String("format", c.kind.String()),
		slog.String("target", target))

	count, err := extract(ctx, c, archivePath, staging, filepath.Base(target), &cfg)
	if err != nil {
		return "", err
	}
	committed = true
	if err := write.ReplaceDir(staging, target); err != nil {
		var stale *write.StaleBackupError
		if !errors.As(err, &stale) {
			committed = false
			return "", fmt.Errorf("%w: %w", ErrIO, err)
		}
		cfg.logger.Warn("previous extraction left behind",
			slog.String("path", stale.Path),
			slog.String("error", stale.Err.Error()))
	}

	cfg.logger.Debug("extracted serialized bag",
		slog.String("target", target),
		slog.Int("entries", count))
	return target, nil
}

func extract(ctx context.Context, c *codec, archivePath, staging, base string, cfg *deserializeConfig) (int, error) {
	er, err := c.open(archivePath)
	if err != nil {
		return 0, classify(err)
	}
	defer er.Close()

	s := sink.NewFileSink(staging,
		sink.WithPreserveMode(!cfg.ignoreMode),
		sink.WithLogger(cfg.logger))
	buf := make([]byte, 32*1024)

	count := 0
	strip := false
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		e, content, err := er.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, classify(err)
		}

		if count == 0 {
			_, strip = pathutil.StripRoot(e.Path, base)
		}
		count++

		name := e.Path
		if strip {
			name, _ = pathutil.StripRoot(name, base)
		}
		if name != "." && !pathutil.IsLocal(name) {
			return count, fmt.Errorf("%w: entry %q escapes %s", ErrFormatViolation, e.Path, base)
		}

		if e.IsDir {
			err = s.Mkdir(name, e.Mode)
		} else {
			err = s.WriteFile(ctx, name, e.Mode, e.Size, content, buf)
		}
		if err != nil {
			return count, classify(err)
		}
	}

	s.Finish()
	return count, nil
}

// classify maps a low-level failure onto the archive error taxonomy.
// Filesystem errors are i/o failures; anything raised while decoding the
// container is a format violation.
func classify(err error) error {
	if isKnown(err) {
		return err
	}
	switch {
	case errors.Is(err, sink.ErrEscapesRoot), errors.Is(err, sink.ErrSizeMismatch):
		return fmt.Errorf("%w: %w", ErrFormatViolation, err)
	case isPathError(err):
		return fmt.Errorf("%w: %w", ErrIO, err)
	default:
		return fmt.Errorf("%w: %w", ErrFormatViolation, err)
	}
}

func isPathError(err error) bool {
	var pe *fs.PathError
	var le *os.LinkError
	return errors.As(err, &pe) || errors.As(err, &le)
}
