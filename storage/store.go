// Package storage defines the raw, content-agnostic byte store that every
// object database backend (in-memory, filesystem-with-loose-objects,
// filesystem-with-packs) implements, plus the content-addressed layer built
// on top of it.
package storage

import (
	"context"
	"io"
)

// KeyIter enumerates the keys of a RawStore. Next returns io.EOF once
// exhausted, the same convention idxfile.EntryIter uses.
type KeyIter interface {
	Next() (string, error)
	Close() error
}

// RawStore is a streaming, content-agnostic byte store keyed by an opaque
// string. Implementations never interpret the key beyond using it to
// locate bytes: the content-addressed layer (ObjectStore) is the thing
// that chooses keys equal to object ids.
type RawStore interface {
	// Store writes all of r under key, replacing any existing value.
	Store(ctx context.Context, key string, r io.Reader) error
	// Load opens a stream over the bytes stored under key. end < 0 means
	// read to the end of the value; 0 <= end means stop before that byte
	// offset. Callers must Close the returned stream.
	Load(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
	// Has reports whether key is present.
	Has(ctx context.Context, key string) (bool, error)
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Size returns the byte length of the value stored under key.
	Size(ctx context.Context, key string) (int64, error)
	// Keys enumerates every key currently stored.
	Keys(ctx context.Context) (KeyIter, error)
}

// sliceKeyIter adapts a pre-built []string to KeyIter; every in-memory and
// composed store builds its key list eagerly since directory/map listings
// are already in hand.
type sliceKeyIter struct {
	keys []string
	pos  int
}

func newSliceKeyIter(keys []string) *sliceKeyIter {
	return &sliceKeyIter{keys: keys}
}

func (it *sliceKeyIter) Next() (string, error) {
	if it.pos >= len(it.keys) {
		return "", io.EOF
	}
	k := it.keys[it.pos]
	it.pos++
	return k, nil
}

func (it *sliceKeyIter) Close() error { return nil }
