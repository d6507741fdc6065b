// Package history walks commit ancestry: preorder and date-order
// traversal, ancestor tests, merge-base discovery, and the reachable
// object closure of a commit.
package history

import (
	"context"
	"io"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// Iter enumerates commits. Next returns io.EOF once exhausted.
type Iter interface {
	Next() (*object.Commit, error)
	Close()
}

// commitLoader is the subset of object.Store a walk needs.
type commitLoader interface {
	LoadCommit(ctx context.Context, id plumbing.Hash) (*object.Commit, error)
}

type preorderIter struct {
	ctx     context.Context
	store   commitLoader
	seen    map[plumbing.Hash]bool
	stack   [][]plumbing.Hash
	pending *object.Commit
}

// NewPreorderIter returns an Iter that visits start and its ancestors
// depth-first, each commit exactly once. ignore seeds the seen set so
// those commits (and anything only reachable through them) are skipped,
// the shape a shallow fetch or a "stop at these tips" traversal needs.
func NewPreorderIter(ctx context.Context, store commitLoader, start *object.Commit, ignore []plumbing.Hash) Iter {
	seen := make(map[plumbing.Hash]bool, len(ignore))
	for _, h := range ignore {
		seen[h] = true
	}
	return &preorderIter{ctx: ctx, store: store, seen: seen, pending: start}
}

func (it *preorderIter) Next() (*object.Commit, error) {
	for {
		var c *object.Commit
		if it.pending != nil {
			c = it.pending
			it.pending = nil
		} else {
			for len(it.stack) > 0 {
				top := it.stack[len(it.stack)-1]
				if len(top) == 0 {
					it.stack = it.stack[:len(it.stack)-1]
					continue
				}
				h := top[0]
				it.stack[len(it.stack)-1] = top[1:]

				if it.seen[h] {
					continue
				}

				loaded, err := it.store.LoadCommit(it.ctx, h)
				if err != nil {
					return nil, err
				}
				c = loaded
				break
			}
			if c == nil {
				return nil, io.EOF
			}
		}

		if it.seen[c.Hash] {
			continue
		}
		it.seen[c.Hash] = true

		if len(c.ParentHashes) > 0 {
			it.stack = append(it.stack, append([]plumbing.Hash(nil), c.ParentHashes...))
		}
		return c, nil
	}
}

func (it *preorderIter) Close() {}

// dateOrderComparator orders two *object.Commit by commit time,
// newest first, breaking ties by hash for determinism.
func dateOrderComparator(left, right interface{}) int {
	l := left.(*object.Commit)
	r := right.(*object.Commit)
	switch {
	case l.Committer.When.After(r.Committer.When):
		return -1
	case l.Committer.When.Before(r.Committer.When):
		return 1
	default:
		return l.Hash.Compare(r.Hash)
	}
}

type dateOrderIter struct {
	ctx   context.Context
	store commitLoader
	heap  *binaryheap.Heap
	seen  map[plumbing.Hash]bool
}

// NewDateOrderIter returns an Iter that visits start and its ancestors
// newest-committer-time-first, the order `git log --date-order` uses.
// A commit is only emitted after being popped off the frontier, so a
// commit with two children reachable by different paths is still only
// visited once.
func NewDateOrderIter(ctx context.Context, store commitLoader, start *object.Commit, ignore []plumbing.Hash) Iter {
	seen := make(map[plumbing.Hash]bool, len(ignore))
	for _, h := range ignore {
		seen[h] = true
	}
	h := binaryheap.NewWith(dateOrderComparator)
	h.Push(start)
	return &dateOrderIter{ctx: ctx, store: store, heap: h, seen: seen}
}

func (it *dateOrderIter) Next() (*object.Commit, error) {
	for {
		v, ok := it.heap.Pop()
		if !ok {
			return nil, io.EOF
		}
		c := v.(*object.Commit)
		if it.seen[c.Hash] {
			continue
		}
		it.seen[c.Hash] = true

		for _, p := range c.ParentHashes {
			if it.seen[p] {
				continue
			}
			parent, err := it.store.LoadCommit(it.ctx, p)
			if err != nil {
				return nil, err
			}
			it.heap.Push(parent)
		}
		return c, nil
	}
}

func (it *dateOrderIter) Close() {}

// ForEach drains it, calling cb for each commit in order until cb
// returns an error or it is exhausted.
func ForEach(it Iter, cb func(*object.Commit) error) error {
	defer it.Close()
	for {
		c, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := cb(c); err != nil {
			return err
		}
	}
}
