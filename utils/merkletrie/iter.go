package merkletrie

import (
	"io"

	"github.com/statewalker/vcs-sub011/utils/merkletrie/internal/frame"
	"github.com/statewalker/vcs-sub011/utils/merkletrie/noder"
)

// Iter walks a noder.Noder tree in a deterministic, name-sorted preorder.
// Next moves to the next sibling without descending into the last
// returned node's subtree; Step descends into it (if it is a directory)
// before moving on. DiffTree relies on this distinction to skip whole
// subtrees that compare equal by hash.
type Iter struct {
	top      *frame.Frame
	ancestor noder.Path
	stack    []stackFrame
	last     noder.Noder
}

type stackFrame struct {
	frame    *frame.Frame
	ancestor noder.Path
}

// NewIter returns an iterator over t's descendants. A nil t yields an
// iterator that is immediately exhausted.
func NewIter(t noder.Noder) (*Iter, error) {
	if t == nil {
		return &Iter{}, nil
	}

	top, err := frame.New(t)
	if err != nil {
		return nil, err
	}

	return &Iter{top: top}, nil
}

// NewIterFromPath returns an iterator over the descendants of p's last
// element, with paths returned by the iterator prefixed by p.
func NewIterFromPath(p noder.Path) (*Iter, error) {
	top, err := frame.New(p.Last())
	if err != nil {
		return nil, err
	}

	ancestor := make(noder.Path, len(p))
	copy(ancestor, p)

	return &Iter{top: top, ancestor: ancestor}, nil
}

// Next returns the next node in the walk without descending into the
// previously returned node's subtree.
func (iter *Iter) Next() (noder.Path, error) {
	return iter.advance(false)
}

// Step returns the next node in the walk, descending into the previously
// returned node's subtree if it is a directory.
func (iter *Iter) Step() (noder.Path, error) {
	return iter.advance(true)
}

func (iter *Iter) advance(descend bool) (noder.Path, error) {
	if iter.top == nil {
		return nil, io.EOF
	}

	if descend && iter.last != nil && iter.last.IsDir() {
		child, err := frame.New(iter.last)
		if err != nil {
			return nil, err
		}

		iter.stack = append(iter.stack, stackFrame{frame: iter.top, ancestor: iter.ancestor})
		iter.top = child
		iter.ancestor = appendNoder(iter.ancestor, iter.last)
	}

	for iter.top.Len() == 0 {
		if len(iter.stack) == 0 {
			iter.top = nil
			return nil, io.EOF
		}

		last := iter.stack[len(iter.stack)-1]
		iter.stack = iter.stack[:len(iter.stack)-1]
		iter.top = last.frame
		iter.ancestor = last.ancestor
	}

	first, _ := iter.top.First()
	iter.top.Drop()
	iter.last = first

	return appendNoder(iter.ancestor, first), nil
}

func appendNoder(p noder.Path, n noder.Noder) noder.Path {
	out := make(noder.Path, len(p)+1)
	copy(out, p)
	out[len(p)] = n
	return out
}
