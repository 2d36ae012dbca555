package bagport

import (
	"github.com/meigma/bagport/archive"
	"github.com/meigma/bagport/bag"
	"github.com/meigma/bagport/importer"
	"github.com/meigma/bagport/internal/bagerr"
	"github.com/meigma/bagport/profile"
)

// ErrIO is returned when reading or writing the filesystem fails.
var ErrIO = bagerr.ErrIO

// Errors re-exported from archive.
var (
	// ErrFormatViolation is returned for malformed archives and entries that
	// would escape the extraction target.
	ErrFormatViolation = archive.ErrFormatViolation

	// ErrUnsupportedEncoding is returned for paths without a known
	// serialization suffix.
	ErrUnsupportedEncoding = archive.ErrUnsupportedEncoding
)

// Errors re-exported from importer.
var (
	// ErrMalformedMetadata is returned for descriptions that do not parse or
	// carry an invalid last-modified time.
	ErrMalformedMetadata = importer.ErrMalformedMetadata

	// ErrExhausted is returned by a Sequencer after its last identifier.
	ErrExhausted = importer.ErrExhausted

	// ErrDuplicateResource is returned when two descriptions name the same
	// resource.
	ErrDuplicateResource = importer.ErrDuplicateResource
)

// Errors re-exported from bag and profile.
var (
	// ErrNotBag is returned for directories that are not bags.
	ErrNotBag = bag.ErrNotBag

	// ErrChecksumMismatch is returned when a bag fails verification.
	ErrChecksumMismatch = bag.ErrChecksumMismatch

	// ErrIncomplete is returned when manifests and payload disagree.
	ErrIncomplete = bag.ErrIncomplete

	// ErrProfileValidation is returned when a bag does not satisfy its profile.
	ErrProfileValidation = profile.ErrValidation
)
