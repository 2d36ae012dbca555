package importer

import (
	"log/slog"

	"github.com/meigma/bagport/internal/rdfgraph"
)

// Default description settings, matching the exporter's defaults.
const (
	DefaultSuffix   = ".ttl"
	DefaultLanguage = rdfgraph.Turtle
)

// ResourceID is the absolute URI of one resource.
type ResourceID string

// TimestampedID is an identifier with its last-modified time in epoch
// milliseconds. Millis is 0 when the description carries no timestamp.
type TimestampedID struct {
	Millis int64
	ID     ResourceID
}

// Config describes an export tree.
type Config struct {
	// BaseDir is the root of the exported descriptions.
	BaseDir string

	// Suffix is the description file extension. Defaults to DefaultSuffix.
	Suffix string

	// Language is the media type of the descriptions. Defaults to
	// DefaultLanguage.
	Language string

	// SourceURI is the base URI resources had in the exporting repository.
	SourceURI string

	// DestinationURI replaces SourceURI in every identifier. Leave both
	// empty to keep identifiers unchanged.
	DestinationURI string
}

func (c Config) withDefaults() Config {
	if c.Suffix == "" {
		c.Suffix = DefaultSuffix
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	return c
}

// Option configures NewSequencer and NewExtractor.
type Option func(*options)

type options struct {
	translate TranslateFunc
	logger    *slog.Logger
}

func newOptions(cfg Config, opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.translate == nil {
		o.translate = URIForFile(cfg)
	}
	return o
}

// WithTranslator replaces the default path to identifier mapping.
func WithTranslator(fn TranslateFunc) Option {
	return func(o *options) {
		o.translate = fn
	}
}

// WithLogger sets the logger. By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
