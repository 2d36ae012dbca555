package bagport

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/meigma/bagport/archive"
	"github.com/meigma/bagport/bag"
	"github.com/meigma/bagport/importer"
	"github.com/meigma/bagport/profile"
)

// Pack finalizes the bag in dir, validates it against the configured profile
// and serializes it. It returns the archive path, or dir itself when the
// format is archive.KindDirectory.
//
// The bag directory is finalized in place; the archive is written beside it
// and only appears once complete.
func Pack(ctx context.Context, dir string, opts ...Option) (string, error) {
	cfg := newConfig(opts)

	if cfg.profile != nil {
		if err := checkSerialization(cfg.profile, cfg.format); err != nil {
			return "", err
		}
	}

	bagOpts := []bag.Option{
		bag.WithAlgorithms(cfg.algorithms...),
		bag.WithInfo(cfg.info),
		bag.WithWorkers(cfg.workers),
		bag.WithLogger(cfg.logger),
	}
	if cfg.profile != nil && cfg.profile.Identifier != "" {
		bagOpts = append(bagOpts, bag.WithProfileIdentifier(cfg.profile.Identifier))
	}
	b, err := bag.Finalize(ctx, dir, bagOpts...)
	if err != nil {
		return "", fmt.Errorf("finalize bag: %w", err)
	}

	if cfg.profile != nil {
		if err := b.ValidateProfile(cfg.profile, profile.WithLogger(cfg.logger)); err != nil {
			return "", err
		}
	}

	out, err := archive.Serialize(ctx, dir, cfg.format, archive.SerializeWithLogger(cfg.logger))
	if err != nil {
		return "", err
	}
	cfg.logger.Info("packed bag",
		slog.String("dir", dir),
		slog.String("archive", out),
		slog.String("format", cfg.format.String()))
	return out, nil
}

// checkSerialization applies the profile's Serialization and
// Accept-Serialization rules to the requested format.
func checkSerialization(p *profile.Profile, kind archive.Kind) error {
	var violations []string
	switch {
	case p.Serialization == profile.SerializationForbidden && kind != archive.KindDirectory:
		violations = append(violations, fmt.Sprintf(`"%s" serialization is forbidden.`, kind))
	case p.Serialization == profile.SerializationRequired && kind == archive.KindDirectory:
		violations = append(violations, "Serialization is required.")
	}
	if kind != archive.KindDirectory && len(p.AcceptSerialization) > 0 {
		accepted := false
		for _, mt := range kind.MediaTypes() {
			if slices.Contains(p.AcceptSerialization, mt) {
				accepted = true
				break
			}
		}
		if !accepted {
			violations = append(violations, fmt.Sprintf(`"%s" is not an accepted serialization.`, kind.MediaTypes()[0]))
		}
	}
	if len(violations) > 0 {
		return &profile.ValidationError{Section: "serialization", Violations: violations}
	}
	return nil
}

// Unpacked is a bag extracted and checked by Unpack.
type Unpacked struct {
	Bag *bag.Bag
}

// Dir returns the bag's root directory.
func (u *Unpacked) Dir() string {
	return u.Bag.Dir
}

// PayloadDir returns the directory holding the exported descriptions.
func (u *Unpacked) PayloadDir() string {
	return filepath.Join(u.Bag.Dir, "data")
}

// Sequence orders the bag's resources for replay. cfg.BaseDir is replaced
// by the payload directory.
func (u *Unpacked) Sequence(ctx context.Context, cfg importer.Config, opts ...importer.Option) (*importer.Sequencer, error) {
	cfg.BaseDir = u.PayloadDir()
	return importer.NewSequencer(ctx, cfg, opts...)
}

// Unpack extracts archivePath (a directory is used as is), opens the bag,
// verifies its checksums and validates it against the configured profile.
func Unpack(ctx context.Context, archivePath string, opts ...Option) (*Unpacked, error) {
	cfg := newConfig(opts)

	if cfg.profile != nil {
		kind := archive.KindDirectory
		if k, err := archive.KindFromPath(archivePath); err == nil {
			kind = k
		}
		if err := checkSerialization(cfg.profile, kind); err != nil {
			return nil, err
		}
	}

	dir, err := archive.Deserialize(ctx, archivePath,
		archive.DeserializeWithPreserveMode(cfg.preserveMode),
		archive.DeserializeWithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	b, err := bag.Open(dir)
	if err != nil {
		return nil, err
	}

	if cfg.verify {
		if err := b.Verify(ctx, bag.WithWorkers(cfg.workers), bag.WithLogger(cfg.logger)); err != nil {
			return nil, fmt.Errorf("verify bag: %w", err)
		}
	}
	if cfg.profile != nil {
		if err := b.ValidateProfile(cfg.profile, profile.WithLogger(cfg.logger)); err != nil {
			return nil, err
		}
	}

	cfg.logger.Info("unpacked bag",
		slog.String("archive", archivePath),
		slog.String("dir", dir))
	return &Unpacked{Bag: b}, nil
}

