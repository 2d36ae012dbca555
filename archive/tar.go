package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/meigma/bagport/internal/pathutil"
)

type tarReader struct {
	f   *os.File
	dec io.ReadCloser
	tr  *tar.Reader
}

func openTar(decompress decompressor) func(path string) (entryReader, error) {
	return func(path string) (entryReader, error) {
		f, err := openFile(path)
		if err != nil {
			return nil, err
		}
		r := &tarReader{f: f}
		var src io.Reader = f
		if decompress != nil {
			dec, err := decompress(f)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("%w: %w", ErrFormatViolation, err)
			}
			r.dec = dec
			src = dec
		}
		r.tr = tar.NewReader(src)
		return r, nil
	}
}

func (r *tarReader) Next() (Entry, io.Reader, error) {
	for {
		hdr, err := r.tr.Next()
		if err != nil {
			return Entry{}, nil, err
		}

		e := Entry{
			Path:    pathutil.Normalize(hdr.Name),
			Mode:    fs.FileMode(hdr.Mode).Perm(), //nolint:gosec // permission bits only
			ModTime: hdr.ModTime,
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			e.IsDir = true
			return e, nil, nil
		case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck // legacy writers still emit TypeRegA
			if strings.HasSuffix(hdr.Name, "/") {
				return Entry{}, nil, fmt.Errorf("%w: regular file %q has a directory name", ErrFormatViolation, hdr.Name)
			}
			e.Size = hdr.Size
			return e, r.tr, nil
		case tar.TypeXGlobalHeader:
			continue
		default:
			return Entry{}, nil, fmt.Errorf("%w: unsupported entry type %q for %s", ErrFormatViolation, hdr.Typeflag, hdr.Name)
		}
	}
}

func (r *tarReader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	return r.f.Close()
}

type tarWriter struct {
	tw   *tar.Writer
	comp io.WriteCloser
}

func createTar(compress compressor) func(w io.Writer) (entryWriter, error) {
	return func(w io.Writer) (entryWriter, error) {
		tw := &tarWriter{}
		if compress != nil {
			comp, err := compress(w)
			if err != nil {
				return nil, err
			}
			tw.comp = comp
			w = comp
		}
		tw.tw = tar.NewWriter(w)
		return tw, nil
	}
}

func (w *tarWriter) WriteEntry(e Entry, content io.Reader) error {
	hdr := &tar.Header{
		Name:    e.Path,
		Mode:    int64(e.Mode.Perm()),
		ModTime: e.ModTime,
	}
	if e.IsDir {
		hdr.Name += "/"
		hdr.Typeflag = tar.TypeDir
		return w.tw.WriteHeader(hdr)
	}

	hdr.Typeflag = tar.TypeReg
	hdr.Size = e.Size
	if err := w.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(w.tw, content)
	return err
}

func (w *tarWriter) Close() error {
	if err := w.tw.Close(); err != nil {
		return err
	}
	if w.comp != nil {
		return w.comp.Close()
	}
	return nil
}
