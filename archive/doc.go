// Package archive serializes bag directories into portable archives and
// unpacks them again.
//
// Supported serializations form a closed set selected purely by file name
// suffix:
//
//	.tar              KindTar
//	.tar.gz, .tgz     KindTarGz
//	.tar.bz2          KindTarBz2
//	.zip              KindZip
//
// A plain directory (KindDirectory) is passed through unchanged.
//
// Pack a bag and unpack it elsewhere:
//
//	archivePath, err := archive.Serialize(ctx, "/exports/bag-1", archive.KindTarGz)
//	if err != nil {
//	    return err
//	}
//	dir, err := archive.Deserialize(ctx, archivePath)
//
// Both directions are all-or-nothing: Serialize writes through a temporary
// file and Deserialize through a staging directory, so a failure never leaves
// a partial archive or a partially extracted bag behind.
package archive
