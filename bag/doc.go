// Package bag writes and verifies BagIt bags on the local filesystem.
//
// A bag is a directory holding a payload under data/ plus a set of tag
// files describing it:
//
//	bagit.txt               declaration (version, tag file encoding)
//	bag-info.txt            metadata, including system generated fields
//	manifest-<alg>.txt      payload checksums, one file per algorithm
//	tagmanifest-<alg>.txt   checksums of every other tag file
//
// [Finalize] turns a directory with a populated data/ tree into a complete
// bag. [Open] reads an existing bag; [Bag.Verify] recomputes its checksums
// and [Bag.ValidateProfile] checks its metadata against a profile.
//
// Checksums are computed with github.com/opencontainers/go-digest, so the
// supported algorithms are sha256, sha384 and sha512. Hashing fans out over
// a bounded worker pool; see [WithWorkers].
package bag
