// Package bagerr holds sentinel errors shared across packages.
package bagerr

import "errors"

// ErrIO is returned when reading or writing the filesystem fails.
var ErrIO = errors.New("bagport: i/o failure")
