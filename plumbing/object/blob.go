package object

import (
	"context"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// Blob is an opaque byte payload; its canonical form is simply its raw
// content, so Blob carries no fields beyond the id and size once loaded.
type Blob struct {
	Hash plumbing.Hash
	Size int64
}

// StoreBlob writes content (of unknown size) as a blob and returns its
// id.
func (s *Store) StoreBlob(ctx context.Context, content io.Reader) (plumbing.Hash, error) {
	return s.Objects.Store(ctx, plumbing.BlobObject, content)
}

// StoreBlobWithSize writes content of a known size as a blob.
func (s *Store) StoreBlobWithSize(ctx context.Context, size int64, content io.Reader) (plumbing.Hash, error) {
	return s.Objects.StoreWithSize(ctx, plumbing.BlobObject, size, content)
}

// LoadBlob returns a blob's metadata and a stream over its content. The
// caller must Close the stream.
func (s *Store) LoadBlob(ctx context.Context, id plumbing.Hash) (*Blob, io.ReadCloser, error) {
	rc, size, err := s.load(ctx, id, plumbing.BlobObject)
	if err != nil {
		return nil, nil, err
	}
	return &Blob{Hash: id, Size: size}, rc, nil
}
