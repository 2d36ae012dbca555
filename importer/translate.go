package importer

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// MetadataMarker names the description of a binary resource. The exporter
// writes the binary's description to <binary>/fcr%3Ametadata<suffix>.
const MetadataMarker = "fcr%3Ametadata"

// TranslateFunc maps a description file below baseDir to the identifier of
// the resource it describes.
type TranslateFunc func(path, baseDir string) (ResourceID, error)

// URIForFile returns the default translator for cfg.
//
// The exporter lays descriptions out as <authority>/<path><suffix>, with
// reserved characters percent-encoded, so "localhost%3A8080/rest/a.ttl"
// names http://localhost:8080/rest/a. A binary's description names the
// binary itself. The result is rebased from cfg.SourceURI onto
// cfg.DestinationURI like every identifier read from a description.
func URIForFile(cfg Config) TranslateFunc {
	cfg = cfg.withDefaults()
	return func(path, baseDir string) (ResourceID, error) {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil || !filepath.IsLocal(rel) {
			return "", fmt.Errorf("%w: %s is not below %s", ErrIO, path, baseDir)
		}
		rel = strings.TrimSuffix(filepath.ToSlash(rel), cfg.Suffix)
		rel = strings.TrimSuffix(rel, "/"+MetadataMarker)

		decoded, err := url.PathUnescape(rel)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrMalformedMetadata, path, err)
		}
		return ResourceID(rebaseURI("http://"+decoded, cfg.SourceURI, cfg.DestinationURI)), nil
	}
}

func rebaseURI(uri, from, to string) string {
	if from == "" || !strings.HasPrefix(uri, from) {
		return uri
	}
	return to + strings.TrimPrefix(uri, from)
}
