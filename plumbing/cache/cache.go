// Package cache provides the in-memory object and delta-base caches the
// pack codec consults before touching disk: an LRU of decoded objects,
// keyed by their id, and an LRU of delta bases, keyed by pack offset.
package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// Object is a size-bounded LRU cache of decoded object content, keyed by
// Hash. MaxSize bounds the sum of cached content lengths, not the entry
// count: a single large blob can still evict everything else, and content
// larger than maxSize is not cached at all.
type Object struct {
	mu      sync.Mutex
	lru     *lru.Cache
	maxSize int64
	size    int64
}

// NewObjectLRU returns an Object cache that evicts least-recently-used
// entries once the sum of cached content sizes exceeds maxSize bytes.
func NewObjectLRU(maxSize int64) *Object {
	c := &Object{maxSize: maxSize}
	c.lru = &lru.Cache{
		OnEvicted: func(_ lru.Key, value interface{}) {
			c.size -= int64(len(value.([]byte)))
		},
	}
	return c
}

// Put stores content under id, evicting older entries as needed to stay
// within maxSize.
func (c *Object) Put(id plumbing.Hash, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if int64(len(content)) > c.maxSize {
		return
	}

	c.lru.Add(id, content)
	c.size += int64(len(content))

	for c.size > c.maxSize {
		c.lru.RemoveOldest()
	}
}

// Get returns the cached content for id, if present.
func (c *Object) Get(id plumbing.Hash) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Clear empties the cache.
func (c *Object) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
	c.size = 0
}

// DeltaBase caches resolved delta-chain bases during pack decode, keyed
// by the base object's offset within the pack, so a base referenced by
// several OFS_DELTA entries is only reconstructed once per decode.
type DeltaBase struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewDeltaBaseLRU returns a DeltaBase cache holding at most maxEntries
// resolved bases.
func NewDeltaBaseLRU(maxEntries int) *DeltaBase {
	return &DeltaBase{lru: lru.New(maxEntries)}
}

func (c *DeltaBase) Put(offset int64, content []byte, kind plumbing.ObjectType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(offset, deltaBaseEntry{content: content, kind: kind})
}

func (c *DeltaBase) Get(offset int64) ([]byte, plumbing.ObjectType, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(offset)
	if !ok {
		return nil, plumbing.InvalidObject, false
	}
	e := v.(deltaBaseEntry)
	return e.content, e.kind, true
}

type deltaBaseEntry struct {
	content []byte
	kind    plumbing.ObjectType
}
