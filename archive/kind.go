package archive

import (
	"fmt"
	"strings"
)

// Kind identifies a bag serialization.
type Kind uint8

const (
	KindDirectory Kind = iota
	KindTar
	KindTarGz
	KindTarBz2
	KindZip
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindTar:
		return "tar"
	case KindTarGz:
		return "tar.gz"
	case KindTarBz2:
		return "tar.bz2"
	case KindZip:
		return "zip"
	default:
		return "unknown"
	}
}

// Suffix returns the canonical file name suffix written by Serialize.
// KindDirectory has no suffix.
func (k Kind) Suffix() string {
	if c, ok := lookupCodec(k); ok {
		return c.suffixes[0]
	}
	return ""
}

// MediaTypes returns the media types a BagIt profile may use to accept
// this serialization, canonical type first. KindDirectory has none.
func (k Kind) MediaTypes() []string {
	switch k {
	case KindTar:
		return []string{"application/x-tar", "application/tar"}
	case KindTarGz:
		return []string{"application/gzip", "application/x-gzip", "application/tar+gzip", "application/x-compressed-tar"}
	case KindTarBz2:
		return []string{"application/x-bzip2", "application/x-bzip-compressed-tar"}
	case KindZip:
		return []string{"application/zip"}
	default:
		return nil
	}
}

// ParseKind converts a format name such as "tar.gz" or "zip" to a Kind.
// A leading dot is accepted, and "tgz" is an alias for "tar.gz".
func ParseKind(name string) (Kind, error) {
	name = strings.TrimPrefix(name, ".")
	switch name {
	case "directory", "dir", "":
		return KindDirectory, nil
	case "tgz":
		return KindTarGz, nil
	}
	for i := range codecs {
		if codecs[i].kind.String() == name {
			return codecs[i].kind, nil
		}
	}
	return KindDirectory, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
}

// KindFromPath selects the serialization of an archive by its file name
// suffix. Matching is case-sensitive; content is never sniffed.
func KindFromPath(path string) (Kind, error) {
	if c, _, ok := matchSuffix(path); ok {
		return c.kind, nil
	}
	return KindDirectory, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, path)
}

// TargetDir returns the directory an archive unserializes into: the archive
// path with its format suffix removed.
func TargetDir(archivePath string) (string, error) {
	_, suffix, ok := matchSuffix(archivePath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, archivePath)
	}
	target := strings.TrimSuffix(archivePath, suffix)
	if target == "" || strings.HasSuffix(target, "/") {
		return "", fmt.Errorf("%w: %s has no base name", ErrUnsupportedEncoding, archivePath)
	}
	return target, nil
}

func matchSuffix(path string) (*codec, string, bool) {
	for i := range codecs {
		for _, s := range codecs[i].suffixes {
			if strings.HasSuffix(path, s) {
				return &codecs[i], s, true
			}
		}
	}
	return nil, "", false
}

func lookupCodec(k Kind) (*codec, bool) {
	for i := range codecs {
		if codecs[i].kind == k {
			return &codecs[i], true
		}
	}
	return nil, false
}
