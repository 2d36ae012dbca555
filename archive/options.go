package archive

import (
	"log/slog"
	"time"
)

// SerializeOption configures Serialize.
type SerializeOption func(*serializeConfig)

type serializeConfig struct {
	modTime time.Time
	logger  *slog.Logger
}

// SerializeWithModTime records t as the modification time of every entry
// instead of the times found on disk. Use it to produce byte-identical
// archives from trees whose timestamps differ.
func SerializeWithModTime(t time.Time) SerializeOption {
	return func(cfg *serializeConfig) {
		cfg.modTime = t
	}
}

// SerializeWithLogger sets the logger for progress messages.
func SerializeWithLogger(logger *slog.Logger) SerializeOption {
	return func(cfg *serializeConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// DeserializeOption configures Deserialize.
type DeserializeOption func(*deserializeConfig)

type deserializeConfig struct {
	ignoreMode bool
	logger     *slog.Logger
}

// DeserializeWithPreserveMode controls whether permission bits recorded in
// the archive are applied. Modes are preserved by default; failures to
// apply them are never fatal.
func DeserializeWithPreserveMode(preserve bool) DeserializeOption {
	return func(cfg *deserializeConfig) {
		cfg.ignoreMode = !preserve
	}
}

// DeserializeWithLogger sets the logger for progress messages.
func DeserializeWithLogger(logger *slog.Logger) DeserializeOption {
	return func(cfg *deserializeConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
