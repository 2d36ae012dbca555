// Package importer orders exported repository resources for replay.
//
// An export is a directory tree of resource descriptions, one RDF file per
// resource. Parents must be created before their children and references
// must point at resources that already exist, so resources are replayed in
// the order they were last modified in the source repository.
//
// The pieces compose bottom-up:
//
//   - [Walk] enumerates description files, skipping version indexes.
//   - [Extractor] reads one description and returns the resource identifier
//     and its last-modified time in epoch milliseconds (0 when unknown).
//   - [Sequencer] walks and extracts everything eagerly, then hands out
//     identifiers oldest first. Resources without a timestamp come first;
//     ties keep discovery order.
//   - [Iterator] pairs a Sequencer with a [ResourceFactory].
//
// Basic usage:
//
//	seq, err := importer.NewSequencer(ctx, importer.Config{
//		BaseDir:        "/exports/bag/data",
//		SourceURI:      "http://localhost:8080/rest",
//		DestinationURI: "https://repo.example.org/rest",
//	})
//	if err != nil {
//		return err
//	}
//	for id := range seq.All() {
//		// create id in the destination repository
//	}
package importer
