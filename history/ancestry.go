package history

import (
	"context"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// IsAncestor reports whether candidate is c or an ancestor of c.
func IsAncestor(ctx context.Context, store commitLoader, c *object.Commit, candidate plumbing.Hash) (bool, error) {
	if c.Hash == candidate {
		return true, nil
	}

	visited := map[plumbing.Hash]bool{c.Hash: true}
	queue := append([]plumbing.Hash(nil), c.ParentHashes...)

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		if h == candidate {
			return true, nil
		}
		if visited[h] {
			continue
		}
		visited[h] = true

		parent, err := store.LoadCommit(ctx, h)
		if err != nil {
			return false, err
		}
		queue = append(queue, parent.ParentHashes...)
	}

	return false, nil
}

// FindMergeBase returns the best common ancestors of a and b: commits
// reachable from both that are not themselves ancestors of another
// common ancestor. Git's merge-base walk can return more than one
// result when history contains criss-cross merges; callers that need a
// single base should pick the first.
func FindMergeBase(ctx context.Context, store commitLoader, a, b *object.Commit) ([]*object.Commit, error) {
	reachA, err := ancestorSet(ctx, store, a)
	if err != nil {
		return nil, err
	}
	reachB, err := ancestorSet(ctx, store, b)
	if err != nil {
		return nil, err
	}

	var common []plumbing.Hash
	for h := range reachA {
		if reachB[h] {
			common = append(common, h)
		}
	}
	if len(common) == 0 {
		return nil, nil
	}

	commits := make(map[plumbing.Hash]*object.Commit, len(common))
	for _, h := range common {
		c, err := store.LoadCommit(ctx, h)
		if err != nil {
			return nil, err
		}
		commits[h] = c
	}

	// Drop any candidate that is itself an ancestor of another
	// candidate: only the "lowest" common ancestors survive.
	var result []*object.Commit
	for h, c := range commits {
		dominated := false
		for other := range commits {
			if other == h {
				continue
			}
			isAnc, err := IsAncestor(ctx, store, commits[other], h)
			if err != nil {
				return nil, err
			}
			if isAnc {
				dominated = true
				break
			}
		}
		if !dominated {
			result = append(result, c)
		}
	}

	return result, nil
}

func ancestorSet(ctx context.Context, store commitLoader, start *object.Commit) (map[plumbing.Hash]bool, error) {
	set := map[plumbing.Hash]bool{start.Hash: true}
	queue := append([]plumbing.Hash(nil), start.ParentHashes...)

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		if set[h] {
			continue
		}
		set[h] = true

		c, err := store.LoadCommit(ctx, h)
		if err != nil {
			return nil, err
		}
		queue = append(queue, c.ParentHashes...)
	}

	return set, nil
}
