package refs

import (
	"context"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// Iter enumerates references. Next returns io.EOF once exhausted.
type Iter interface {
	Next() (*Reference, error)
	Close() error
}

// Store is a reference backend: loose-shadows-packed precedence, atomic
// packing and compare-and-swap are backend responsibilities so each can
// implement them against its own storage model (files, in-memory map).
type Store interface {
	// Reference returns the single reference named name, without
	// following symbolic links.
	Reference(ctx context.Context, name Name) (*Reference, error)
	// SetReference writes ref unconditionally.
	SetReference(ctx context.Context, ref *Reference) error
	// CompareAndSwapReference writes ref only if the reference
	// currently named ref.Name() resolves (one hop, not transitively)
	// to old; a zero old means "must not currently exist". Fails with
	// plumbing.ErrConflict otherwise.
	CompareAndSwapReference(ctx context.Context, ref *Reference, old plumbing.Hash) error
	// RemoveReference deletes name. Removing an absent reference is
	// not an error.
	RemoveReference(ctx context.Context, name Name) error
	// IterReferences enumerates every reference, loose and packed,
	// each name appearing once.
	IterReferences(ctx context.Context) (Iter, error)
	// PackRefs compacts every loose direct reference (except HEAD)
	// into the packed-refs representation, atomically.
	PackRefs(ctx context.Context) error
}

// Resolve follows a (possibly chained) symbolic reference starting at
// name until it reaches a direct reference, detecting cycles.
func Resolve(ctx context.Context, s Store, name Name) (*Reference, error) {
	const maxDepth = 10

	seen := make(map[Name]struct{})
	cur := name

	for i := 0; i < maxDepth; i++ {
		if _, ok := seen[cur]; ok {
			return nil, fmt.Errorf("%w: cyclic symbolic reference at %s", plumbing.ErrInvalid, cur)
		}
		seen[cur] = struct{}{}

		ref, err := s.Reference(ctx, cur)
		if err != nil {
			return nil, err
		}

		if ref.Type() == HashReference {
			return ref, nil
		}
		cur = ref.Target()
	}

	return nil, fmt.Errorf("%w: symbolic reference chain from %s too deep", plumbing.ErrInvalid, name)
}

// sliceIter adapts a pre-built []*Reference to Iter.
type sliceIter struct {
	refs []*Reference
	pos  int
}

// NewSliceIter wraps a slice of references as an Iter, for backends that
// already have every reference in hand.
func NewSliceIter(refs []*Reference) Iter {
	return &sliceIter{refs: refs}
}

func (it *sliceIter) Next() (*Reference, error) {
	if it.pos >= len(it.refs) {
		return nil, io.EOF
	}
	r := it.refs[it.pos]
	it.pos++
	return r, nil
}

func (it *sliceIter) Close() error { return nil }
