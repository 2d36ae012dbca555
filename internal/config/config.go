// Package config loads bagport settings from a config file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/meigma/bagport/archive"
	"github.com/meigma/bagport/bag"
	"github.com/meigma/bagport/importer"
	"github.com/meigma/bagport/internal/rdfgraph"
)

// EnvPrefix prefixes every environment override, e.g. BAGPORT_FORMAT.
const EnvPrefix = "BAGPORT"

// ErrInvalidConfig is returned for unreadable or inconsistent settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings shared by all commands.
type Config struct {
	// RDFExt is the extension of exported resource descriptions.
	RDFExt string `mapstructure:"rdf_ext"`
	// RDFLang is the media type of exported resource descriptions.
	RDFLang string `mapstructure:"rdf_lang"`

	Source      string `mapstructure:"source"`
	Destination string `mapstructure:"destination"`

	// Format is the serialization written by pack.
	Format string `mapstructure:"format"`
	// Workers bounds concurrent checksum computation; 0 uses all CPUs.
	Workers    int      `mapstructure:"workers"`
	Algorithms []string `mapstructure:"algorithms"`

	// Profile is the path of the bag profile to validate against.
	Profile      string `mapstructure:"profile"`
	PreserveMode bool   `mapstructure:"preserve_mode"`

	// BagInfo lists extra bag-info.txt fields as "Label: value" lines.
	// Labels are kept verbatim, unlike viper's case-insensitive keys.
	BagInfo []string `mapstructure:"bag_info"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		RDFExt:       importer.DefaultSuffix,
		RDFLang:      importer.DefaultLanguage,
		Format:       archive.KindTar.String(),
		Algorithms:   []string{"sha256"},
		PreserveMode: true,
	}
}

// Load reads settings from path, if not empty, then applies BAGPORT_*
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.NewWithOptions(
		viper.KeyDelimiter("."),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("rdf_ext", defaults.RDFExt)
	v.SetDefault("rdf_lang", defaults.RDFLang)
	v.SetDefault("source", "")
	v.SetDefault("destination", "")
	v.SetDefault("format", defaults.Format)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("algorithms", defaults.Algorithms)
	v.SetDefault("profile", "")
	v.SetDefault("preserve_mode", defaults.PreserveMode)
	v.SetDefault("bag_info", []string{})

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, path, err)
		}
	}

	hooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	)
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hooks)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that the decoders cannot.
func (c *Config) Validate() error {
	if _, err := archive.ParseKind(c.Format); err != nil {
		return fmt.Errorf("%w: format: %w", ErrInvalidConfig, err)
	}
	switch c.RDFLang {
	case rdfgraph.Turtle, rdfgraph.NTriples, rdfgraph.RDFXML:
	default:
		return fmt.Errorf("%w: unsupported rdf_lang %q", ErrInvalidConfig, c.RDFLang)
	}
	if !strings.HasPrefix(c.RDFExt, ".") {
		return fmt.Errorf("%w: rdf_ext %q must start with a dot", ErrInvalidConfig, c.RDFExt)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if len(c.Algorithms) == 0 {
		return fmt.Errorf("%w: at least one checksum algorithm is required", ErrInvalidConfig)
	}
	if _, err := c.Info(); err != nil {
		return err
	}
	if (c.Source == "") != (c.Destination == "") {
		return fmt.Errorf("%w: source and destination must be set together", ErrInvalidConfig)
	}
	return nil
}

// Info parses BagInfo.
func (c *Config) Info() (bag.Fields, error) {
	fields, err := bag.ParseFields(strings.NewReader(strings.Join(c.BagInfo, "\n")))
	if err != nil {
		return nil, fmt.Errorf("%w: bag_info: %w", ErrInvalidConfig, err)
	}
	return fields, nil
}

// Importer returns the importer settings for an export rooted at baseDir.
func (c *Config) Importer(baseDir string) importer.Config {
	return importer.Config{
		BaseDir:        baseDir,
		Suffix:         c.RDFExt,
		Language:       c.RDFLang,
		SourceURI:      c.Source,
		DestinationURI: c.Destination,
	}
}
