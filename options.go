package bagport

import (
	"log/slog"
	"maps"

	"github.com/meigma/bagport/archive"
	"github.com/meigma/bagport/bag"
	"github.com/meigma/bagport/profile"
)

// Option configures Pack and Unpack.
type Option func(*config)

type config struct {
	format       archive.Kind
	profile      *profile.Profile
	algorithms   []string
	info         bag.Fields
	workers      int
	preserveMode bool
	verify       bool
	logger       *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		format:       archive.KindTar,
		algorithms:   []string{"sha256"},
		preserveMode: true,
		verify:       true,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithFormat selects the serialization written by Pack.
// The default is an uncompressed tar archive.
func WithFormat(kind archive.Kind) Option {
	return func(c *config) {
		c.format = kind
	}
}

// WithProfile validates the bag against p. Pack also records the profile
// identifier in bag-info.txt.
func WithProfile(p *profile.Profile) Option {
	return func(c *config) {
		c.profile = p
	}
}

// WithAlgorithms selects the manifest algorithms written by Pack.
func WithAlgorithms(names ...string) Option {
	return func(c *config) {
		if len(names) > 0 {
			c.algorithms = names
		}
	}
}

// WithBagInfo adds fields to bag-info.txt on Pack.
func WithBagInfo(info bag.Fields) Option {
	return func(c *config) {
		if c.info == nil {
			c.info = make(bag.Fields, len(info))
		}
		maps.Copy(c.info, info)
	}
}

// WithWorkers bounds concurrent checksum computation.
// Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithPreserveMode controls whether Unpack applies archived permission bits.
// Enabled by default.
func WithPreserveMode(preserve bool) Option {
	return func(c *config) {
		c.preserveMode = preserve
	}
}

// WithVerify controls whether Unpack recomputes the bag's checksums.
// Enabled by default.
func WithVerify(verify bool) Option {
	return func(c *config) {
		c.verify = verify
	}
}

// WithLogger sets the logger passed to every stage.
// By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
