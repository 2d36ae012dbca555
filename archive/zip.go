package archive

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/bagport/internal/pathutil"
)

// zipReader enumerates entries in central directory order.
type zipReader struct {
	zr   *zip.ReadCloser
	next int
	open io.ReadCloser
}

func openZip(path string) (entryReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormatViolation, err)
	}
	return &zipReader{zr: zr}, nil
}

func (r *zipReader) Next() (Entry, io.Reader, error) {
	r.closeOpen()
	if r.next >= len(r.zr.File) {
		return Entry{}, nil, io.EOF
	}
	f := r.zr.File[r.next]
	r.next++

	mode := f.Mode()
	e := Entry{
		Path:    pathutil.Normalize(f.Name),
		Mode:    mode.Perm(),
		ModTime: f.Modified,
	}
	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		e.IsDir = true
		return e, nil, nil
	case mode.IsRegular():
		if f.UncompressedSize64 > uint64(maxInt64) {
			return Entry{}, nil, fmt.Errorf("%w: %s declares an oversized entry", ErrFormatViolation, f.Name)
		}
		e.Size = int64(f.UncompressedSize64) //nolint:gosec // bounds checked above
		rc, err := f.Open()
		if err != nil {
			return Entry{}, nil, fmt.Errorf("%w: open %s: %w", ErrFormatViolation, f.Name, err)
		}
		r.open = rc
		return e, rc, nil
	default:
		return Entry{}, nil, fmt.Errorf("%w: unsupported entry type %s for %s", ErrFormatViolation, mode.Type(), f.Name)
	}
}

func (r *zipReader) closeOpen() {
	if r.open != nil {
		r.open.Close()
		r.open = nil
	}
}

func (r *zipReader) Close() error {
	r.closeOpen()
	return r.zr.Close()
}

type zipWriter struct {
	zw *zip.Writer
}

func createZip(w io.Writer) (entryWriter, error) {
	return &zipWriter{zw: zip.NewWriter(w)}, nil
}

func (w *zipWriter) WriteEntry(e Entry, content io.Reader) error {
	hdr := &zip.FileHeader{
		Name:     e.Path,
		Method:   zip.Deflate,
		Modified: e.ModTime,
	}
	if e.IsDir {
		hdr.Name += "/"
		hdr.Method = zip.Store
		hdr.SetMode(fs.ModeDir | e.Mode.Perm())
		_, err := w.zw.CreateHeader(hdr)
		return err
	}

	hdr.SetMode(e.Mode.Perm())
	dst, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, content)
	return err
}

func (w *zipWriter) Close() error {
	return w.zw.Close()
}

const maxInt64 = int64(^uint64(0) >> 1)
