// Package objfile reads and writes the loose-object on-disk format: a
// zlib-compressed stream whose first bytes, once inflated, are the
// object header "<type> <size>\0" followed by the object's raw content.
package objfile

import "errors"

var (
	// ErrOverflow is returned by Writer.Write when more bytes are
	// written than the size declared to WriteHeader.
	ErrOverflow = errors.New("declared size exceeded")
	// ErrNegativeSize is returned by Writer.WriteHeader for a negative
	// declared size.
	ErrNegativeSize = errors.New("negative size not allowed")
)
