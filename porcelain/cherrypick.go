package porcelain

import (
	"context"
	"fmt"
	"time"

	"github.com/statewalker/vcs-sub011/merge"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// CherryPickCommand reapplies the change introduced by a single commit
// onto the current branch.
type CherryPickCommand struct {
	repo      *Repo
	source    plumbing.Hash
	committer object.Signature
}

// CherryPick returns a builder that cherry-picks source onto HEAD.
func (r *Repo) CherryPick(source plumbing.Hash) *CherryPickCommand {
	return &CherryPickCommand{repo: r, source: source}
}

func (c *CherryPickCommand) SetCommitter(s object.Signature) *CherryPickCommand {
	c.committer = s
	return c
}

// Call three-way merges source's change (base = source's parent tree,
// theirs = source's tree) onto the current HEAD, then commits the
// result with source's author but the caller as committer. Conflicts
// are staged and reported rather than committed.
func (c *CherryPickCommand) Call(ctx context.Context) (*MergeResult, error) {
	r := c.repo

	source, err := r.Store.LoadCommit(ctx, c.source)
	if err != nil {
		return nil, err
	}
	if len(source.ParentHashes) == 0 {
		return nil, fmt.Errorf("%w: cannot cherry-pick a commit with no parent", plumbing.ErrInvalid)
	}
	sourceParent, err := r.Store.LoadCommit(ctx, source.ParentHashes[0])
	if err != nil {
		return nil, err
	}

	ours, err := r.headCommit(ctx)
	if err != nil {
		return nil, err
	}

	result, err := merge.ThreeWay(ctx, r.Store, r.Index, r.Worktree, r.Cache, sourceParent.TreeHash, ours.TreeHash, source.TreeHash)
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
		Author:       source.Author,
		Committer:    committer,
		Message:      source.Message,
	}
	hash, err := r.Store.StoreCommit(ctx, commit)
	if err != nil {
		return nil, err
	}
	if err := r.updateBranchOrHead(ctx, ours.Hash, hash, committer, fmt.Sprintf("cherry-pick: %s", firstLine(source.Message))); err != nil {
		return nil, err
	}

	return &MergeResult{Status: MergeCommitted, Commit: hash}, nil
}
