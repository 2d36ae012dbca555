// Package sink writes extracted archive entries to the filesystem.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/meigma/bagport/internal/file"
	"github.com/meigma/bagport/internal/pathutil"
	"github.com/meigma/bagport/internal/platform"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

// Sentinel errors for entry writes.
var (
	// ErrEscapesRoot is returned when an entry path resolves outside the root.
	ErrEscapesRoot = errors.New("entry path escapes extraction root")

	// ErrSizeMismatch is returned when entry content differs from its declared size.
	ErrSizeMismatch = errors.New("entry size mismatch")
)

// FileSink writes entries below a root directory.
//
// Parent directories are created as needed. Directory modes are recorded
// and applied by Finish, deepest first, so that read-only directories do
// not block writes to their children.
type FileSink struct {
	root         string
	preserveMode bool
	logger       *slog.Logger
	dirs         map[string]fs.FileMode
}

// Option configures a FileSink.
type Option func(*FileSink)

// WithPreserveMode applies permission bits recorded in the archive.
// Failures to apply them are logged and otherwise ignored.
func WithPreserveMode(preserve bool) Option {
	return func(s *FileSink) {
		s.preserveMode = preserve
	}
}

// WithLogger sets the logger used for best-effort diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileSink creates a FileSink that writes below root.
func NewFileSink(root string, opts ...Option) *FileSink {
	s := &FileSink{
		root:   root,
		logger: slog.New(slog.DiscardHandler),
		dirs:   make(map[string]fs.FileMode),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mkdir creates the directory entry name.
func (s *FileSink) Mkdir(name string, mode fs.FileMode) error {
	dest, ok := pathutil.Join(s.root, name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEscapesRoot, name)
	}
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", name, err)
	}
	s.dirs[dest] = mode
	return nil
}

// WriteFile writes the file entry name, copying exactly size bytes from r.
// Content shorter or longer than size fails with ErrSizeMismatch.
func (s *FileSink) WriteFile(ctx context.Context, name string, mode fs.FileMode, size int64, r io.Reader, buf []byte) error {
	dest, ok := pathutil.Join(s.root, name)
	if !ok || dest == s.root {
		return fmt.Errorf("%w: %s", ErrEscapesRoot, name)
	}
	if size < 0 {
		return fmt.Errorf("%w: %s declares negative size", ErrSizeMismatch, name)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	// Read one byte past the declared size so oversized content is detected.
	n, err := file.CopyWithContext(ctx, f, io.LimitReader(r, size+1), buf)
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if n != size {
		return fmt.Errorf("%w: %s: declared %d bytes, got %d", ErrSizeMismatch, name, size, n)
	}

	s.chmod(dest, mode, defaultFileMode)
	return nil
}

// Finish applies recorded directory modes.
func (s *FileSink) Finish() {
	paths := make([]string, 0, len(s.dirs))
	for p := range s.dirs {
		paths = append(paths, p)
	}
	// Reverse lexical order visits children before their parents.
	slices.Sort(paths)
	slices.Reverse(paths)
	for _, p := range paths {
		s.chmod(p, s.dirs[p], defaultDirMode)
	}
}

func (s *FileSink) chmod(path string, mode, fallback fs.FileMode) {
	perm := fallback
	if s.preserveMode && mode.Perm() != 0 {
		perm = mode.Perm()
	}
	if !platform.SupportsMode() {
		return
	}
	if err := os.Chmod(path, perm); err != nil {
		s.logger.Debug("could not apply file mode",
			slog.String("path", path),
			slog.Any("error", err))
	}
}
