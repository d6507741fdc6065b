package porcelain

import (
	"context"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// ResetMode selects how far a reset propagates.
type ResetMode int

const (
	// ResetSoft moves the current branch (or HEAD) only.
	ResetSoft ResetMode = iota
	// ResetMixed additionally replaces the staging index with the
	// target's tree.
	ResetMixed
	// ResetHard additionally replaces the worktree's content.
	ResetHard
)

// ResetCommand moves the current branch (or HEAD) to a target commit.
type ResetCommand struct {
	repo   *Repo
	target plumbing.Hash
	mode   ResetMode
}

// Reset returns a builder that resets to target. The default mode is
// ResetMixed.
func (r *Repo) Reset(target plumbing.Hash) *ResetCommand {
	return &ResetCommand{repo: r, target: target, mode: ResetMixed}
}

func (c *ResetCommand) SetMode(mode ResetMode) *ResetCommand {
	c.mode = mode
	return c
}

func (c *ResetCommand) Call(ctx context.Context) error {
	r := c.repo

	var old plumbing.Hash
	if head, err := r.headCommit(ctx); err == nil {
		old = head.Hash
	}

	target, err := r.Store.LoadCommit(ctx, c.target)
	if err != nil {
		return err
	}

	if err := r.updateBranchOrHead(ctx, old, target.Hash, object.Signature{When: target.Committer.When}, "reset: moving to "+c.target.String()); err != nil {
		return err
	}

	if c.mode == ResetSoft {
		return nil
	}

	if err := r.Index.ReadTree(ctx, r.Store, target.TreeHash); err != nil {
		return err
	}

	if c.mode == ResetMixed {
		return nil
	}

	if r.Worktree != nil {
		if err := checkoutTreeToWorktree(ctx, r.Store, r.Worktree, target.TreeHash); err != nil {
			return err
		}
	}
	return nil
}
