package sink

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWriteFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := NewFileSink(root)

	content := "payload bytes"
	err := s.WriteFile(context.Background(), "data/sub/a.txt", 0o644, int64(len(content)), strings.NewReader(content), make([]byte, 4))
	require.NoError(t, err)
	s.Finish()

	data, err := os.ReadFile(filepath.Join(root, "data", "sub", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestFileSinkSizeMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		declared int64
	}{
		{"short content", "abc", 10},
		{"long content", "abcdefgh", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewFileSink(t.TempDir())
			err := s.WriteFile(context.Background(), "a.txt", 0, tt.declared, strings.NewReader(tt.content), make([]byte, 32))
			require.ErrorIs(t, err, ErrSizeMismatch)
		})
	}
}

func TestFileSinkRejectsEscape(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	root := filepath.Join(parent, "bag")
	s := NewFileSink(root)

	err := s.WriteFile(context.Background(), "../escape.txt", 0, 1, strings.NewReader("x"), make([]byte, 8))
	require.ErrorIs(t, err, ErrEscapesRoot)
	assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))

	err = s.Mkdir("../outside", 0o755)
	require.ErrorIs(t, err, ErrEscapesRoot)
	assert.NoDirExists(t, filepath.Join(parent, "outside"))
}

func TestFileSinkPreserveMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not preserved on windows")
	}
	t.Parallel()

	root := t.TempDir()
	s := NewFileSink(root, WithPreserveMode(true))

	require.NoError(t, s.Mkdir("bin", 0o700))
	require.NoError(t, s.WriteFile(context.Background(), "bin/run.sh", 0o750, 2, strings.NewReader("#!"), make([]byte, 8)))
	s.Finish()

	info, err := os.Stat(filepath.Join(root, "bin", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(root, "bin"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}
