package importer

import (
	"errors"

	"github.com/meigma/bagport/internal/bagerr"
)

var (
	// ErrIO is returned when the export tree cannot be read.
	ErrIO = bagerr.ErrIO

	// ErrMalformedMetadata is returned when a description does not parse or
	// carries a last-modified value that is not a valid date-time.
	ErrMalformedMetadata = errors.New("malformed resource metadata")

	// ErrExhausted is returned by Next once every identifier was handed out.
	ErrExhausted = errors.New("sequence exhausted")

	// ErrDuplicateResource is returned when two descriptions resolve to the
	// same identifier.
	ErrDuplicateResource = errors.New("duplicate resource identifier")

	// ErrUnknownResource is returned by FileFactory for identifiers that were
	// not discovered by its Sequencer.
	ErrUnknownResource = errors.New("unknown resource identifier")
)
