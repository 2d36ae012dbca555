package archive

import (
	"errors"

	"github.com/meigma/bagport/internal/bagerr"
)

// Sentinel errors for archive operations. Every error returned by Serialize,
// Deserialize and Inspect wraps one of these or a context error.
var (
	// ErrIO is returned when reading or writing the filesystem fails.
	ErrIO = bagerr.ErrIO

	// ErrFormatViolation is returned for malformed or truncated containers,
	// entries whose content does not match their declared size, unsupported
	// entry types and entries that would escape the target directory.
	ErrFormatViolation = errors.New("archive: format violation")

	// ErrUnsupportedEncoding is returned when a path carries no recognized
	// serialization suffix.
	ErrUnsupportedEncoding = errors.New("archive: unsupported encoding")
)
