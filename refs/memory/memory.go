// Package memory is an in-memory refs.Store and refs.ReflogStore, useful
// for tests and for worktree-less in-memory repositories.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

// Store is a refs.Store and refs.ReflogStore backed by a plain map. It
// has no loose/packed distinction: PackRefs is a no-op.
type Store struct {
	mu   sync.RWMutex
	refs map[refs.Name]*refs.Reference
	logs map[refs.Name][]*refs.ReflogEntry
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		refs: make(map[refs.Name]*refs.Reference),
		logs: make(map[refs.Name][]*refs.ReflogEntry),
	}
}

func (s *Store) Reference(_ context.Context, name refs.Name) (*refs.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, ok := s.refs[name]
	if !ok {
		return nil, fmt.Errorf("%w: reference %s", plumbing.ErrNotFound, name)
	}
	return ref, nil
}

func (s *Store) SetReference(_ context.Context, ref *refs.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs[ref.Name()] = ref
	return nil
}

func (s *Store) CompareAndSwapReference(_ context.Context, ref *refs.Reference, old plumbing.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.refs[ref.Name()]
	switch {
	case old.IsZero() && exists:
		return fmt.Errorf("%w: reference %s already exists", plumbing.ErrConflict, ref.Name())
	case !old.IsZero() && (!exists || cur.Hash() != old):
		return fmt.Errorf("%w: reference %s changed", plumbing.ErrConflict, ref.Name())
	}

	s.refs[ref.Name()] = ref
	return nil
}

func (s *Store) RemoveReference(_ context.Context, name refs.Name) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.refs, name)
	return nil
}

func (s *Store) IterReferences(_ context.Context) (refs.Iter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*refs.Reference, 0, len(s.refs))
	for _, ref := range s.refs {
		list = append(list, ref)
	}
	return refs.NewSliceIter(list), nil
}

// PackRefs is a no-op: this backend has no loose/packed distinction.
func (s *Store) PackRefs(_ context.Context) error { return nil }

func (s *Store) AppendReflog(_ context.Context, name refs.Name, entry *refs.ReflogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[name] = append(s.logs[name], entry)
	return nil
}

func (s *Store) ReadReflog(_ context.Context, name refs.Name) ([]*refs.ReflogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[name]
	out := make([]*refs.ReflogEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}

var (
	_ refs.Store       = (*Store)(nil)
	_ refs.ReflogStore = (*Store)(nil)
)
