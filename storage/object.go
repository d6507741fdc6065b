package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/objfile"
)

// ObjectStore layers Git's header framing and content-addressing on top
// of a RawStore: a stored object's key is always its own id, so callers
// never choose keys themselves.
type ObjectStore struct {
	raw       RawStore
	threshold int64
	maxSize   int64
}

// NewObjectStore returns an ObjectStore over raw. threshold/maxSize are
// forwarded to the VolatileBuffer used to size content before hashing;
// pass 0 for both to use DefaultMemoryThreshold and no cap.
func NewObjectStore(raw RawStore, threshold, maxSize int64) *ObjectStore {
	return &ObjectStore{raw: raw, threshold: threshold, maxSize: maxSize}
}

// StoreWithSize stores content of a known size and returns its id.
// Storing identical bytes twice is idempotent: the second call is a
// cheap Has check, not a second write.
func (s *ObjectStore) StoreWithSize(ctx context.Context, t plumbing.ObjectType, size int64, r io.Reader) (plumbing.Hash, error) {
	if !t.Valid() {
		return plumbing.Hash{}, plumbing.ErrInvalidType
	}

	vb := NewVolatileBuffer(s.threshold, s.maxSize)
	defer vb.Close()

	w := objfile.NewWriter(vb)
	if err := w.WriteHeader(t, size); err != nil {
		return plumbing.Hash{}, err
	}

	n, err := io.Copy(w, r)
	if err != nil {
		return plumbing.Hash{}, err
	}
	if n != size {
		return plumbing.Hash{}, fmt.Errorf("%w: declared %d, wrote %d", plumbing.ErrSizeMismatch, size, n)
	}
	if err := w.Close(); err != nil {
		return plumbing.Hash{}, err
	}

	id := w.Hash()

	if ok, err := s.raw.Has(ctx, id.String()); err != nil {
		return plumbing.Hash{}, err
	} else if ok {
		return id, nil
	}

	rc, err := vb.Reader()
	if err != nil {
		return plumbing.Hash{}, err
	}
	defer rc.Close()

	if err := s.raw.Store(ctx, id.String(), rc); err != nil {
		return plumbing.Hash{}, err
	}

	return id, nil
}

// Store stores content of unknown size by first materializing it through
// a VolatileBuffer to learn its length, then delegating to
// StoreWithSize.
func (s *ObjectStore) Store(ctx context.Context, t plumbing.ObjectType, r io.Reader) (plumbing.Hash, error) {
	vb := NewVolatileBuffer(s.threshold, s.maxSize)
	defer vb.Close()

	n, err := io.Copy(vb, r)
	if err != nil {
		return plumbing.Hash{}, err
	}

	cr, err := vb.Reader()
	if err != nil {
		return plumbing.Hash{}, err
	}
	defer cr.Close()

	return s.StoreWithSize(ctx, t, n, cr)
}

// GetHeader returns an object's type and declared size without reading
// its content.
func (s *ObjectStore) GetHeader(ctx context.Context, id plumbing.Hash) (plumbing.ObjectType, int64, error) {
	rc, err := s.raw.Load(ctx, id.String(), 0, -1)
	if err != nil {
		return plumbing.InvalidObject, 0, err
	}
	defer rc.Close()

	r, err := objfile.NewReader(rc)
	if err != nil {
		return plumbing.InvalidObject, 0, err
	}
	defer r.Close()

	return r.Header()
}

// Load opens a stream over an object's content, after validating its
// header. The caller must Close the returned reader.
func (s *ObjectStore) Load(ctx context.Context, id plumbing.Hash) (plumbing.ObjectType, int64, io.ReadCloser, error) {
	rc, err := s.raw.Load(ctx, id.String(), 0, -1)
	if err != nil {
		return plumbing.InvalidObject, 0, nil, err
	}

	r, err := objfile.NewReader(rc)
	if err != nil {
		rc.Close()
		return plumbing.InvalidObject, 0, nil, err
	}

	t, size, err := r.Header()
	if err != nil {
		rc.Close()
		return plumbing.InvalidObject, 0, nil, err
	}

	return t, size, &objectContentReader{objfile: r, raw: rc}, nil
}

// Has reports whether an object with the given id is present.
func (s *ObjectStore) Has(ctx context.Context, id plumbing.Hash) (bool, error) {
	return s.raw.Has(ctx, id.String())
}

// objectContentReader closes both the objfile framing reader and the
// underlying raw stream it wraps.
type objectContentReader struct {
	objfile *objfile.Reader
	raw     io.ReadCloser
}

func (r *objectContentReader) Read(p []byte) (int, error) { return r.objfile.Read(p) }

func (r *objectContentReader) Close() error {
	err := r.objfile.Close()
	if rawErr := r.raw.Close(); err == nil {
		err = rawErr
	}
	return err
}
