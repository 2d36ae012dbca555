package bag

import (
	"bufio"
	"bytes"
	"context"
	_ "crypto/sha256" // register sha256 for go-digest
	_ "crypto/sha512" // register sha384 and sha512 for go-digest
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/bagport/internal/file"
	"github.com/meigma/bagport/internal/write"
)

const (
	manifestPrefix    = "manifest-"
	tagManifestPrefix = "tagmanifest-"
)

func manifestName(alg digest.Algorithm) string    { return manifestPrefix + string(alg) + ".txt" }
func tagManifestName(alg digest.Algorithm) string { return tagManifestPrefix + string(alg) + ".txt" }

// lookupAlgorithm maps a BagIt algorithm name onto a go-digest algorithm.
func lookupAlgorithm(name string) (digest.Algorithm, error) {
	alg := digest.Algorithm(strings.ToLower(name))
	if !alg.Available() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, name)
	}
	return alg, nil
}

func lookupAlgorithms(names []string) ([]digest.Algorithm, error) {
	algs := make([]digest.Algorithm, 0, len(names))
	for _, name := range names {
		alg, err := lookupAlgorithm(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(algs, alg) {
			algs = append(algs, alg)
		}
	}
	return algs, nil
}

// manifestAlgorithm extracts the algorithm from a manifest file name.
func manifestAlgorithm(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".txt") {
		return "", false
	}
	alg := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".txt")
	return alg, alg != ""
}

// Manifest maps slash-separated bag-relative paths to hex checksums.
type Manifest map[string]string

// BagIt escapes line breaks and percent signs in manifest paths.
var (
	pathEncoder = strings.NewReplacer("%", "%25", "\n", "%0A", "\r", "%0D")
	pathDecoder = strings.NewReplacer("%25", "%", "%0A", "\n", "%0a", "\n", "%0D", "\r", "%0d", "\r")
)

func (m Manifest) encode() []byte {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	var buf bytes.Buffer
	for _, p := range paths {
		fmt.Fprintf(&buf, "%s  %s\n", m[p], pathEncoder.Replace(p))
	}
	return buf.Bytes()
}

func (m Manifest) write(path string) error {
	return write.FileAtomic(path, m.encode(), 0o644)
}

// ParseManifest reads "<checksum> <path>" lines.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := make(Manifest)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		i := strings.IndexAny(text, " \t")
		if i <= 0 {
			return nil, fmt.Errorf("%w: manifest line %d", ErrMalformedTagFile, line)
		}
		sum, name := text[:i], strings.TrimLeft(text[i:], " \t")
		if name == "" {
			return nil, fmt.Errorf("%w: manifest line %d", ErrMalformedTagFile, line)
		}
		m[filepath.ToSlash(pathDecoder.Replace(name))] = strings.ToLower(sum)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTagFile, err)
	}
	return m, nil
}

func readManifest(path string) (Manifest, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside the bag
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// fileSum is the result of hashing one file.
type fileSum struct {
	name string
	size int64
	sums map[digest.Algorithm]string
}

// hashFile computes every algorithm over the file in a single pass.
func hashFile(ctx context.Context, path string, algs []digest.Algorithm, buf []byte) (int64, map[digest.Algorithm]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside the bag
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	digesters := make([]digest.Digester, len(algs))
	writers := make([]io.Writer, len(algs))
	for i, alg := range algs {
		digesters[i] = alg.Digester()
		writers[i] = digesters[i].Hash()
	}

	n, err := file.CopyWithContext(ctx, io.MultiWriter(writers...), f, buf)
	if err != nil {
		return n, nil, fmt.Errorf("hash %s: %w", path, err)
	}

	sums := make(map[digest.Algorithm]string, len(algs))
	for i, alg := range algs {
		sums[alg] = digesters[i].Digest().Encoded()
	}
	return n, sums, nil
}

// hashAll hashes names (slash-separated, relative to dir) on a bounded
// worker pool. Results keep the order of names.
func hashAll(ctx context.Context, dir string, names []string, algs []digest.Algorithm, workers int) ([]fileSum, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]fileSum, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			buf := make([]byte, 32*1024)
			size, sums, err := hashFile(ctx, filepath.Join(dir, filepath.FromSlash(name)), algs, buf)
			if err != nil {
				return err
			}
			results[i] = fileSum{name: name, size: size, sums: sums}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// manifestsFor splits hashing results into one manifest per algorithm.
func manifestsFor(results []fileSum, algs []digest.Algorithm) map[digest.Algorithm]Manifest {
	out := make(map[digest.Algorithm]Manifest, len(algs))
	for _, alg := range algs {
		m := make(Manifest, len(results))
		for _, r := range results {
			m[r.name] = r.sums[alg]
		}
		out[alg] = m
	}
	return out
}
