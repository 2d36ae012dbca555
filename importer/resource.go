package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ImportResource is one resource ready to be created in the destination.
type ImportResource struct {
	ID ResourceID

	// Description is the RDF file describing the resource.
	Description string

	// Binary is the content file of a binary resource, empty otherwise.
	Binary string
}

// ResourceFactory turns identifiers into importable resources.
type ResourceFactory interface {
	CreateFromURI(id ResourceID) (ImportResource, error)
}

// BinarySuffix is the extension of exported binary content.
const BinarySuffix = ".binary"

// FileFactory resolves identifiers to the files a Sequencer discovered them in.
type FileFactory struct {
	seq    *Sequencer
	suffix string
}

// NewFileFactory creates a FileFactory for seq. suffix is the description
// extension used when building seq; empty means DefaultSuffix.
func NewFileFactory(seq *Sequencer, suffix string) *FileFactory {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &FileFactory{seq: seq, suffix: suffix}
}

// CreateFromURI implements ResourceFactory. A binary's description lives at
// <binary>/fcr%3Ametadata<suffix>; its content, when exported, at
// <binary>.binary.
func (f *FileFactory) CreateFromURI(id ResourceID) (ImportResource, error) {
	path, ok := f.seq.Path(id)
	if !ok {
		return ImportResource{}, fmt.Errorf("%w: %s", ErrUnknownResource, id)
	}
	res := ImportResource{ID: id, Description: path}
	if filepath.Base(path) == MetadataMarker+f.suffix {
		binary := filepath.Dir(path) + BinarySuffix
		if info, err := os.Stat(binary); err == nil && info.Mode().IsRegular() {
			res.Binary = binary
		}
	}
	return res, nil
}

// Iterator yields resources in sequence order.
type Iterator struct {
	seq     *Sequencer
	factory ResourceFactory
}

// NewIterator pairs seq with factory.
func NewIterator(seq *Sequencer, factory ResourceFactory) *Iterator {
	return &Iterator{seq: seq, factory: factory}
}

// Len reports how many resources remain.
func (it *Iterator) Len() int {
	return it.seq.Len()
}

// Next returns the next resource. It returns ErrExhausted after the last one.
func (it *Iterator) Next(ctx context.Context) (ImportResource, error) {
	if err := ctx.Err(); err != nil {
		return ImportResource{}, err
	}
	id, err := it.seq.Next()
	if err != nil {
		return ImportResource{}, err
	}
	return it.factory.CreateFromURI(id)
}
