package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// CompositeStore layers a writable primary store over an ordered list of
// read-only fallbacks. Store and Remove only ever touch the primary; Load,
// Has and Size consult the primary first, then each fallback in turn; Keys
// returns the deduplicated union of every layer. The typical use is a
// loose-object store backed by a pack directory fallback.
type CompositeStore struct {
	Primary   RawStore
	Fallbacks []RawStore
}

// NewCompositeStore returns a CompositeStore over primary and fallbacks, in
// fallback lookup order.
func NewCompositeStore(primary RawStore, fallbacks ...RawStore) *CompositeStore {
	return &CompositeStore{Primary: primary, Fallbacks: fallbacks}
}

func (c *CompositeStore) Store(ctx context.Context, key string, r io.Reader) error {
	return c.Primary.Store(ctx, key, r)
}

func (c *CompositeStore) Remove(ctx context.Context, key string) error {
	return c.Primary.Remove(ctx, key)
}

func (c *CompositeStore) Load(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	if ok, err := c.Primary.Has(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return c.Primary.Load(ctx, key, start, end)
	}

	for _, fb := range c.Fallbacks {
		ok, err := fb.Has(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return fb.Load(ctx, key, start, end)
		}
	}

	return nil, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
}

func (c *CompositeStore) Has(ctx context.Context, key string) (bool, error) {
	ok, err := c.Primary.Has(ctx, key)
	if err != nil || ok {
		return ok, err
	}

	for _, fb := range c.Fallbacks {
		ok, err := fb.Has(ctx, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}

func (c *CompositeStore) Size(ctx context.Context, key string) (int64, error) {
	if ok, err := c.Primary.Has(ctx, key); err != nil {
		return 0, err
	} else if ok {
		return c.Primary.Size(ctx, key)
	}

	for _, fb := range c.Fallbacks {
		ok, err := fb.Has(ctx, key)
		if err != nil {
			return 0, err
		}
		if ok {
			return fb.Size(ctx, key)
		}
	}

	return 0, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
}

func (c *CompositeStore) Keys(ctx context.Context) (KeyIter, error) {
	seen := make(map[string]struct{})
	var keys []string

	layers := append([]RawStore{c.Primary}, c.Fallbacks...)
	for _, layer := range layers {
		it, err := layer.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for {
			k, err := it.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				it.Close()
				return nil, err
			}
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
		it.Close()
	}

	return newSliceKeyIter(keys), nil
}

var _ RawStore = (*CompositeStore)(nil)
