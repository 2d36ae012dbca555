package bag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/docker/go-units"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/bagport/internal/write"
)

// Version is the BagIt version written to bagit.txt.
const Version = "1.0"

const (
	declarationFile = "bagit.txt"
	infoFile        = "bag-info.txt"
)

// System generated bag-info.txt fields.
const (
	FieldBaggingDate       = "Bagging-Date"
	FieldBagSize           = "Bag-Size"
	FieldPayloadOxum       = "Payload-Oxum"
	FieldProfileIdentifier = "BagIt-Profile-Identifier"
)

// Finalize completes the bag rooted at dir, whose payload must already be in
// dir/data. It writes bagit.txt, bag-info.txt (keeping existing fields and
// refreshing the system generated ones), one payload manifest and one tag
// manifest per algorithm. Manifests of other algorithms are removed.
//
// Every file is written atomically. Finalize may be run again on the same
// directory after the payload changed.
func Finalize(ctx context.Context, dir string, opts ...Option) (*Bag, error) {
	cfg := newConfig(opts)

	info, err := os.Stat(filepath.Join(dir, payloadDir))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s has no %s directory", ErrNotBag, dir, payloadDir)
	}
	algs, err := lookupAlgorithms(cfg.algorithms)
	if err != nil {
		return nil, err
	}

	cfg.logger.Info("finalizing bag",
		slog.String("dir", dir),
		slog.Any("algorithms", cfg.algorithms))

	payload, err := listPayload(ctx, dir, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("list payload: %w", err)
	}
	results, err := hashAll(ctx, dir, payload, algs, cfg.workers)
	if err != nil {
		return nil, err
	}
	var octets int64
	for _, r := range results {
		octets += r.size
	}

	if err := write.FileAtomic(filepath.Join(dir, declarationFile), declaration(), 0o644); err != nil {
		return nil, err
	}
	if err := writeInfo(dir, &cfg, octets, len(results)); err != nil {
		return nil, err
	}
	if err := removeStaleManifests(dir, algs); err != nil {
		return nil, err
	}
	for alg, m := range manifestsFor(results, algs) {
		if err := m.write(filepath.Join(dir, manifestName(alg))); err != nil {
			return nil, err
		}
	}

	tags, err := listTagFiles(ctx, dir, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("list tag files: %w", err)
	}
	tagResults, err := hashAll(ctx, dir, tags, algs, cfg.workers)
	if err != nil {
		return nil, err
	}
	for alg, m := range manifestsFor(tagResults, algs) {
		if err := m.write(filepath.Join(dir, tagManifestName(alg))); err != nil {
			return nil, err
		}
	}

	cfg.logger.Debug("finalized bag",
		slog.String("dir", dir),
		slog.Int("files", len(results)),
		slog.Int64("bytes", octets))
	return Open(dir)
}

func declaration() []byte {
	return []byte("BagIt-Version: " + Version + "\nTag-File-Character-Encoding: UTF-8\n")
}

func writeInfo(dir string, cfg *config, octets int64, count int) error {
	path := filepath.Join(dir, infoFile)
	fields, err := ReadFields(path)
	if errors.Is(err, fs.ErrNotExist) {
		fields = make(Fields)
	} else if err != nil {
		return err
	}

	for name, value := range cfg.info {
		fields[name] = value
	}
	fields[FieldBaggingDate] = cfg.now().Format("2006-01-02")
	fields[FieldBagSize] = units.HumanSize(float64(octets))
	fields[FieldPayloadOxum] = strconv.FormatInt(octets, 10) + "." + strconv.Itoa(count)
	if cfg.profileID != "" {
		fields[FieldProfileIdentifier] = cfg.profileID
	}

	var buf bytes.Buffer
	if _, err := fields.WriteTo(&buf); err != nil {
		return err
	}
	return write.FileAtomic(path, buf.Bytes(), 0o644)
}

func removeStaleManifests(dir string, keep []digest.Algorithm) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, 2*len(keep))
	for _, alg := range keep {
		wanted[manifestName(alg)] = true
		wanted[tagManifestName(alg)] = true
	}
	for _, e := range entries {
		name := e.Name()
		_, isManifest := manifestAlgorithm(name, manifestPrefix)
		_, isTagManifest := manifestAlgorithm(name, tagManifestPrefix)
		if (isManifest || isTagManifest) && !wanted[name] {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("remove stale manifest: %w", err)
			}
		}
	}
	return nil
}
