// Package memory is an in-memory storage.RawStore, grounded on the
// teacher's storage/memory object storer: a map guarded by a mutex,
// useful for tests and for a repository that never touches disk.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/storage"
)

// Store is a storage.RawStore backed by an in-memory map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Store(_ context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = b
	return nil
}

func (s *Store) Load(_ context.Context, key string, start, end int64) (io.ReadCloser, error) {
	s.mu.RLock()
	b, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
	}

	if end < 0 || end > int64(len(b)) {
		end = int64(len(b))
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}

	return io.NopCloser(bytes.NewReader(b[start:end])), nil
}

func (s *Store) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) Size(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
	}
	return int64(len(b)), nil
}

func (s *Store) Keys(_ context.Context) (storage.KeyIter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &keyIter{keys: keys}, nil
}

type keyIter struct {
	keys []string
	pos  int
}

func (it *keyIter) Next() (string, error) {
	if it.pos >= len(it.keys) {
		return "", io.EOF
	}
	k := it.keys[it.pos]
	it.pos++
	return k, nil
}

func (it *keyIter) Close() error { return nil }

var _ storage.RawStore = (*Store)(nil)
