package bag

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/bagport/profile"
)

// Bag is an opened bag directory.
type Bag struct {
	// Dir is the bag's root directory.
	Dir string

	// Declaration holds the fields of bagit.txt.
	Declaration Fields

	// Algorithms lists the payload manifest algorithms found, sorted.
	Algorithms []string

	// TagAlgorithms lists the tag manifest algorithms found, sorted.
	TagAlgorithms []string
}

// Open reads the declaration and manifest layout of the bag at dir.
// It does not verify checksums.
func Open(dir string) (*Bag, error) {
	decl, err := ReadFields(filepath.Join(dir, declarationFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNotBag, dir, declarationFile)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := decl["BagIt-Version"]; !ok {
		return nil, fmt.Errorf("%w: %s lacks BagIt-Version", ErrNotBag, declarationFile)
	}
	if info, err := os.Stat(filepath.Join(dir, payloadDir)); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s has no %s directory", ErrNotBag, dir, payloadDir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	b := &Bag{Dir: dir, Declaration: decl}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if alg, ok := manifestAlgorithm(e.Name(), manifestPrefix); ok {
			b.Algorithms = append(b.Algorithms, alg)
		}
		if alg, ok := manifestAlgorithm(e.Name(), tagManifestPrefix); ok {
			b.TagAlgorithms = append(b.TagAlgorithms, alg)
		}
	}
	slices.Sort(b.Algorithms)
	slices.Sort(b.TagAlgorithms)
	return b, nil
}

// Info returns the fields of bag-info.txt. A bag without one has no fields.
func (b *Bag) Info() (Fields, error) {
	return b.Section("Bag-Info")
}

// Section returns the fields of the tag file holding section, as named by
// TagFileName. A missing tag file yields empty fields. Section names that
// resolve outside the bag are rejected with ErrMalformedTagFile.
func (b *Bag) Section(section string) (Fields, error) {
	name := TagFileName(section)
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return nil, fmt.Errorf("%w: section %q does not name a tag file inside the bag", ErrMalformedTagFile, section)
	}
	fields, err := ReadFields(filepath.Join(b.Dir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return Fields{}, nil
	}
	return fields, err
}

// Verify recomputes every checksum listed in the payload and tag manifests
// and checks that each payload file appears in every payload manifest.
// When bag-info.txt carries a Payload-Oxum it must match the payload.
func (b *Bag) Verify(ctx context.Context, opts ...Option) error {
	cfg := newConfig(opts)
	if len(b.Algorithms) == 0 {
		return fmt.Errorf("%w: no payload manifest", ErrIncomplete)
	}

	payload, err := listPayload(ctx, b.Dir, cfg.logger)
	if err != nil {
		return fmt.Errorf("list payload: %w", err)
	}

	for _, name := range b.Algorithms {
		m, err := b.checkManifest(ctx, &cfg, manifestName(digest.Algorithm(name)), name)
		if err != nil {
			return err
		}
		for _, p := range payload {
			if _, ok := m[p]; !ok {
				return fmt.Errorf("%w: %s is not listed in %s", ErrIncomplete, p, manifestName(digest.Algorithm(name)))
			}
		}
	}
	for _, name := range b.TagAlgorithms {
		if _, err := b.checkManifest(ctx, &cfg, tagManifestName(digest.Algorithm(name)), name); err != nil {
			return err
		}
	}

	if err := b.checkOxum(ctx, payload); err != nil {
		return err
	}
	cfg.logger.Debug("verified bag",
		slog.String("dir", b.Dir),
		slog.Int("files", len(payload)))
	return nil
}

func (b *Bag) checkManifest(ctx context.Context, cfg *config, file, algName string) (Manifest, error) {
	alg, err := lookupAlgorithm(algName)
	if err != nil {
		return nil, err
	}
	m, err := readManifest(filepath.Join(b.Dir, file))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(m))
	for name := range m {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return nil, fmt.Errorf("%w: %s lists %q outside the bag", ErrMalformedTagFile, file, name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	results, err := hashAll(ctx, b.Dir, names, []digest.Algorithm{alg}, cfg.workers)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if got := r.sums[alg]; got != m[r.name] {
			return nil, fmt.Errorf("%w: %s: %s has %s, manifest lists %s",
				ErrChecksumMismatch, file, r.name, got, m[r.name])
		}
	}
	return m, nil
}

func (b *Bag) checkOxum(ctx context.Context, payload []string) error {
	info, err := b.Info()
	if err != nil {
		return err
	}
	oxum, ok := info[FieldPayloadOxum]
	if !ok {
		return nil
	}
	octetStr, countStr, ok := strings.Cut(oxum, ".")
	wantOctets, err1 := strconv.ParseInt(octetStr, 10, 64)
	wantCount, err2 := strconv.Atoi(countStr)
	if !ok || err1 != nil || err2 != nil {
		return fmt.Errorf("%w: Payload-Oxum %q", ErrMalformedTagFile, oxum)
	}

	var octets int64
	for _, p := range payload {
		if err := ctx.Err(); err != nil {
			return err
		}
		fi, err := os.Stat(filepath.Join(b.Dir, filepath.FromSlash(p)))
		if err != nil {
			return err
		}
		octets += fi.Size()
	}
	if octets != wantOctets || len(payload) != wantCount {
		return fmt.Errorf("%w: Payload-Oxum is %s, payload is %d.%d",
			ErrChecksumMismatch, oxum, octets, len(payload))
	}
	return nil
}

// ValidateProfile checks the bag against p: every metadata section the
// profile declares, the required payload manifest algorithms and the
// required tag files. All failures are joined.
func (b *Bag) ValidateProfile(p *profile.Profile, opts ...profile.ValidateOption) error {
	fields := make(map[string]map[string]string, len(p.Sections))
	for _, name := range p.SectionNames() {
		f, err := b.Section(name)
		if err != nil {
			return err
		}
		fields[name] = f
	}

	var errs []error
	if err := p.Validate(fields, opts...); err != nil {
		errs = append(errs, err)
	}

	var violations []string
	for _, alg := range p.ManifestsRequired {
		if !slices.Contains(b.Algorithms, strings.ToLower(alg)) {
			violations = append(violations, fmt.Sprintf(`"%s" is a required manifest.`, manifestPrefix+strings.ToLower(alg)+".txt"))
		}
	}
	for _, alg := range p.TagManifestsRequired {
		if !slices.Contains(b.TagAlgorithms, strings.ToLower(alg)) {
			violations = append(violations, fmt.Sprintf(`"%s" is a required tag manifest.`, tagManifestPrefix+strings.ToLower(alg)+".txt"))
		}
	}
	for _, name := range p.TagFilesRequired {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			violations = append(violations, fmt.Sprintf(`"%s" is not a valid tag file name.`, name))
			continue
		}
		if _, err := os.Stat(filepath.Join(b.Dir, filepath.FromSlash(name))); err != nil {
			violations = append(violations, fmt.Sprintf(`"%s" is a required tag file.`, name))
		}
	}
	if len(p.AcceptBagItVersion) > 0 && !slices.Contains(p.AcceptBagItVersion, b.Declaration["BagIt-Version"]) {
		violations = append(violations, fmt.Sprintf(`"%s" is not an accepted BagIt version. Valid values: %s`,
			b.Declaration["BagIt-Version"], strings.Join(p.AcceptBagItVersion, ",")))
	}
	if len(violations) > 0 {
		errs = append(errs, &profile.ValidationError{Section: "bag structure", Violations: violations})
	}
	return errors.Join(errs...)
}
