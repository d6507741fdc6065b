// Package object implements the four typed views over content-addressed
// storage: blob, tree, commit and tag. All four share one object store
// (spec.md §9: "model the four as a tagged variant rather than four
// parallel stores"); this package owns only their canonical encode/decode
// rules, and a thin Store wrapper that drives storage.ObjectStore.
package object

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/storage"
)

// Store loads and saves the four typed object views through an
// underlying content-addressed storage.ObjectStore.
type Store struct {
	Objects *storage.ObjectStore
}

// NewStore returns a Store backed by objects.
func NewStore(objects *storage.ObjectStore) *Store {
	return &Store{Objects: objects}
}

// Kind returns the declared type of id without reading its content.
func (s *Store) Kind(ctx context.Context, id plumbing.Hash) (plumbing.ObjectType, error) {
	t, _, err := s.Objects.GetHeader(ctx, id)
	return t, err
}

func (s *Store) load(ctx context.Context, id plumbing.Hash, want plumbing.ObjectType) (io.ReadCloser, int64, error) {
	t, size, rc, err := s.Objects.Load(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if t != want {
		rc.Close()
		return nil, 0, fmt.Errorf("%w: %s is a %s, not a %s", plumbing.ErrInvalidType, id, t, want)
	}
	return rc, size, nil
}

func (s *Store) store(ctx context.Context, t plumbing.ObjectType, content []byte) (plumbing.Hash, error) {
	return s.Objects.StoreWithSize(ctx, t, int64(len(content)), bytes.NewReader(content))
}
