package porcelain

import (
	"context"
	"fmt"
	"time"

	"github.com/statewalker/vcs-sub011/merge"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// RevertCommand applies the inverse of a single commit onto the
// current branch.
type RevertCommand struct {
	repo      *Repo
	source    plumbing.Hash
	committer object.Signature
}

// Revert returns a builder that reverts source on top of HEAD.
func (r *Repo) Revert(source plumbing.Hash) *RevertCommand {
	return &RevertCommand{repo: r, source: source}
}

func (c *RevertCommand) SetCommitter(s object.Signature) *RevertCommand {
	c.committer = s
	return c
}

// Call three-way merges the inverse of source's change (base =
// source's tree, theirs = source's parent tree) onto the current
// HEAD, then commits the result as authored and committed by the
// caller. Conflicts are staged and reported rather than committed.
func (c *RevertCommand) Call(ctx context.Context) (*MergeResult, error) {
	r := c.repo

	source, err := r.Store.LoadCommit(ctx, c.source)
	if err != nil {
		return nil, err
	}
	if len(source.ParentHashes) == 0 {
		return nil, fmt.Errorf("%w: cannot revert a commit with no parent", plumbing.ErrInvalid)
	}
	sourceParent, err := r.Store.LoadCommit(ctx, source.ParentHashes[0])
	if err != nil {
		return nil, err
	}

	ours, err := r.headCommit(ctx)
	if err != nil {
		return nil, err
	}

	result, err := merge.ThreeWay(ctx, r.Store, r.Index, r.Worktree, r.Cache, source.TreeHash, ours.TreeHash, sourceParent.TreeHash)
	if err != nil {
		return nil, err
	}
	if result.HasConflicts() {
		return &MergeResult{Status: MergeConflicting, Conflicts: result.Conflicts}, nil
	}

	treeHash, err := r.Index.WriteTree(ctx, r.Store)
	if err != nil {
		return nil, err
	}

	committer := c.committer
	if committer.When.IsZero() {
		committer.When = time.Now()
	}

	commit := &object.Commit{
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{ours.Hash},
		Author:       committer,
		Committer:    committer,
		Message:      fmt.Sprintf("Revert \"%s\"", firstLine(source.Message)),
	}
	hash, err := r.Store.StoreCommit(ctx, commit)
	if err != nil {
		return nil, err
	}
	if err := r.updateBranchOrHead(ctx, ours.Hash, hash, committer, fmt.Sprintf("revert: %s", firstLine(source.Message))); err != nil {
		return nil, err
	}

	return &MergeResult{Status: MergeCommitted, Commit: hash}, nil
}
