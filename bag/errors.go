package bag

import "errors"

var (
	// ErrNotBag is returned when a directory lacks bagit.txt or data/.
	ErrNotBag = errors.New("not a bag")

	// ErrChecksumMismatch is returned when a file's checksum or the
	// Payload-Oxum disagrees with the bag's manifests.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrIncomplete is returned when a manifest lists a file that does not
	// exist, or a payload file is missing from a manifest.
	ErrIncomplete = errors.New("bag is incomplete")

	// ErrMalformedTagFile is returned for tag files that cannot be parsed.
	ErrMalformedTagFile = errors.New("malformed tag file")

	// ErrUnsupportedAlgorithm is returned for checksum algorithms that are
	// not available.
	ErrUnsupportedAlgorithm = errors.New("unsupported checksum algorithm")
)
