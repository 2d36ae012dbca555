package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/meigma/bagport/internal/rdfgraph"
)

// Extractor reads the identifier and last-modified time of descriptions.
// It is safe for concurrent use.
type Extractor struct {
	cfg       Config
	translate TranslateFunc
	logger    *slog.Logger
}

// NewExtractor creates an Extractor for the export described by cfg.
func NewExtractor(cfg Config, opts ...Option) *Extractor {
	cfg = cfg.withDefaults()
	o := newOptions(cfg, opts)
	return &Extractor{cfg: cfg, translate: o.translate, logger: o.logger}
}

// Extract parses the description at path.
//
// The identifier is the first subject typed ldp:NonRDFSource, or else the
// translation of path. Its fedora:lastModified value is converted to epoch
// milliseconds; a missing value yields 0. A description that does not parse,
// or a value that is not a valid date-time, fails with ErrMalformedMetadata.
func (e *Extractor) Extract(path string) (TimestampedID, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the walk
	if err != nil {
		return TimestampedID{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	g, err := rdfgraph.Parse(f, e.cfg.Language, rdfgraph.WithRebase(e.cfg.SourceURI, e.cfg.DestinationURI))
	if err != nil {
		if errors.Is(err, rdfgraph.ErrSyntax) || errors.Is(err, rdfgraph.ErrUnsupportedLanguage) {
			return TimestampedID{}, fmt.Errorf("%w: %s: %w", ErrMalformedMetadata, path, err)
		}
		return TimestampedID{}, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	var id ResourceID
	if binaries := g.SubjectsOfType(rdfgraph.NonRDFSource); len(binaries) > 0 {
		id = ResourceID(binaries[0])
	} else {
		id, err = e.translate(path, e.cfg.BaseDir)
		if err != nil {
			return TimestampedID{}, err
		}
	}

	value, _, ok := g.Literal(string(id), rdfgraph.LastModified)
	if !ok {
		e.logger.Debug("description has no last modified time",
			slog.String("path", path),
			slog.String("id", string(id)))
		return TimestampedID{ID: id}, nil
	}
	ts, err := ParseDateTime(value)
	if err != nil {
		return TimestampedID{}, fmt.Errorf("%w: %s: last modified of %s: %w", ErrMalformedMetadata, path, id, err)
	}
	return TimestampedID{Millis: ts.UnixMilli(), ID: id}, nil
}

// ParseDateTime parses an xsd:dateTime lexical value. Values without a zone
// are read as UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date-time %q", value)
	}
	return t, nil
}
