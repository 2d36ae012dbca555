package bag

import (
	"log/slog"
	"maps"
	"time"
)

// Option configures Finalize, Open and Verify.
type Option func(*config)

type config struct {
	algorithms []string
	info       Fields
	profileID  string
	workers    int
	logger     *slog.Logger
	now        func() time.Time
}

func newConfig(opts []Option) config {
	cfg := config{
		algorithms: []string{"sha256"},
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithAlgorithms selects the checksum algorithms written by Finalize.
// The default is sha256.
func WithAlgorithms(names ...string) Option {
	return func(cfg *config) {
		if len(names) > 0 {
			cfg.algorithms = names
		}
	}
}

// WithInfo adds fields to bag-info.txt. They override values already present
// in the bag but never the system generated fields.
func WithInfo(info Fields) Option {
	return func(cfg *config) {
		if cfg.info == nil {
			cfg.info = make(Fields, len(info))
		}
		maps.Copy(cfg.info, info)
	}
}

// WithProfileIdentifier records the profile the bag conforms to as
// BagIt-Profile-Identifier.
func WithProfileIdentifier(id string) Option {
	return func(cfg *config) {
		cfg.profileID = id
	}
}

// WithWorkers bounds the number of files hashed concurrently.
// Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		cfg.workers = n
	}
}

// WithLogger sets the logger for bag operations.
// By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithClock sets the time source used for Bagging-Date.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}
