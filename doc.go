// Package bagport moves repository exports in and out of BagIt bags.
//
// An export is a bag whose payload holds one RDF description per resource.
// [Pack] finalizes such a bag, checks it against a profile and serializes
// it into a single archive. [Unpack] reverses this: it extracts an archive,
// verifies the bag's checksums, validates it and returns an [Unpacked] bag
// whose resources can be replayed oldest first with [Unpacked.Sequence].
//
// # Quick Start
//
// Package an export for transfer:
//
//	p, err := profile.LoadFile("profiles/default.yaml")
//	if err != nil {
//	    return err
//	}
//	archivePath, err := bagport.Pack(ctx, "/exports/bag",
//	    bagport.WithFormat(archive.KindTarGz),
//	    bagport.WithProfile(p),
//	)
//
// Receive it on the other side:
//
//	u, err := bagport.Unpack(ctx, "/incoming/bag.tar.gz", bagport.WithProfile(p))
//	if err != nil {
//	    return err
//	}
//	seq, err := u.Sequence(ctx, importer.Config{
//	    SourceURI:      "http://localhost:8080/rest",
//	    DestinationURI: "https://repo.example.org/rest",
//	})
//
// The lower-level packages can be used on their own: [archive] for
// serialization, [bag] for manifests, [profile] for metadata validation and
// [importer] for sequencing.
package bagport
