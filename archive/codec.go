package archive

import (
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
)

// entryReader yields archive entries in encounter order.
type entryReader interface {
	// Next returns the next entry and a reader for its content.
	// It returns io.EOF after the last entry.
	Next() (Entry, io.Reader, error)
	Close() error
}

// entryWriter appends entries to a container.
type entryWriter interface {
	WriteEntry(e Entry, content io.Reader) error
	// Close finalizes the container without closing the underlying writer.
	Close() error
}

// codec is one row of the serialization table.
type codec struct {
	kind     Kind
	suffixes []string
	open     func(path string) (entryReader, error)
	create   func(w io.Writer) (entryWriter, error)
}

// codecs is matched in order; the first suffix of a row is canonical.
var codecs = [...]codec{
	{
		kind:     KindTarGz,
		suffixes: []string{".tar.gz", ".tgz"},
		open:     openTar(gzipReader),
		create:   createTar(gzipWriter),
	},
	{
		kind:     KindTarBz2,
		suffixes: []string{".tar.bz2"},
		open:     openTar(bzip2Reader),
		create:   createTar(bzip2Writer),
	},
	{
		kind:     KindTar,
		suffixes: []string{".tar"},
		open:     openTar(nil),
		create:   createTar(nil),
	},
	{
		kind:     KindZip,
		suffixes: []string{".zip"},
		open:     openZip,
		create:   createZip,
	},
}

// decompressor wraps a raw stream in a decompressing reader.
type decompressor func(r io.Reader) (io.ReadCloser, error)

// compressor wraps a raw stream in a compressing writer.
type compressor func(w io.Writer) (io.WriteCloser, error)

func gzipReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func gzipWriter(w io.Writer) (io.WriteCloser, error) {
	// The zero header carries no name or modification time, which keeps
	// output reproducible.
	return gzip.NewWriterLevel(w, gzip.DefaultCompression)
}

func bzip2Reader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

func bzip2Writer(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
}

func openFile(path string) (*os.File, error) {
	return os.Open(path) //nolint:gosec // user-provided path is intentional
}
