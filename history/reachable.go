package history

import (
	"context"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// objectLoader is the subset of object.Store the reachability walk needs.
type objectLoader interface {
	commitLoader
	Kind(ctx context.Context, id plumbing.Hash) (plumbing.ObjectType, error)
	LoadTree(ctx context.Context, id plumbing.Hash) (*object.Tree, error)
	LoadTag(ctx context.Context, id plumbing.Hash) (*object.Tag, error)
}

// CollectReachableObjects returns every commit, tree, blob and tag id
// reachable from wants via commit->(tree,parents), tree->(blob|subtree)
// and tag->target, stopping at any id already in haves or already
// yielded: the object set a pack built to satisfy wants given haves
// already on the other side must contain.
func CollectReachableObjects(ctx context.Context, store objectLoader, wants []plumbing.Hash, haves map[plumbing.Hash]bool) (map[plumbing.Hash]bool, error) {
	visited := make(map[plumbing.Hash]bool, len(haves))
	for h := range haves {
		visited[h] = true
	}

	var walk func(h plumbing.Hash) error
	walk = func(h plumbing.Hash) error {
		if visited[h] {
			return nil
		}
		visited[h] = true

		kind, err := store.Kind(ctx, h)
		if err != nil {
			return err
		}

		switch kind {
		case plumbing.CommitObject:
			c, err := store.LoadCommit(ctx, h)
			if err != nil {
				return err
			}
			if err := walk(c.TreeHash); err != nil {
				return err
			}
			for _, p := range c.ParentHashes {
				if err := walk(p); err != nil {
					return err
				}
			}
		case plumbing.TreeObject:
			if err := walkTreeEntries(ctx, store, visited, h); err != nil {
				return err
			}
		case plumbing.TagObject:
			tag, err := store.LoadTag(ctx, h)
			if err != nil {
				return err
			}
			if err := walk(tag.TargetHash); err != nil {
				return err
			}
		}
		return nil
	}

	for _, w := range wants {
		if err := walk(w); err != nil {
			return nil, err
		}
	}

	for h := range haves {
		delete(visited, h)
	}
	return visited, nil
}

func walkTreeEntries(ctx context.Context, store objectLoader, visited map[plumbing.Hash]bool, id plumbing.Hash) error {
	if id == object.EmptyTreeHash {
		return nil
	}

	t, err := store.LoadTree(ctx, id)
	if err != nil {
		return err
	}

	for _, e := range t.Entries {
		if visited[e.Hash] {
			continue
		}
		switch e.Mode {
		case filemode.Submodule:
			// A submodule entry names a commit in another repository's
			// object store; it is never present in this one.
			continue
		case filemode.Dir:
			visited[e.Hash] = true
			if err := walkTreeEntries(ctx, store, visited, e.Hash); err != nil {
				return err
			}
		default:
			visited[e.Hash] = true
		}
	}

	return nil
}
