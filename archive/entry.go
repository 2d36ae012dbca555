package archive

import (
	"io/fs"
	"time"
)

// Entry describes one file or directory of a serialized bag.
type Entry struct {
	// Path is the slash-separated path inside the archive.
	Path string

	// IsDir distinguishes directories from regular files.
	IsDir bool

	// Size is the content length of a regular file.
	Size int64

	// Mode holds the permission bits recorded in the archive.
	Mode fs.FileMode

	// ModTime is the recorded modification time.
	ModTime time.Time
}
