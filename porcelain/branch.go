package porcelain

import (
	"context"
	"fmt"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

// BranchCreateCommand creates a new branch pointing at a starting
// commit.
type BranchCreateCommand struct {
	repo  *Repo
	name  string
	start plumbing.Hash
	force bool
}

// BranchCreate returns a builder for a new branch named name.
func (r *Repo) BranchCreate(name string) *BranchCreateCommand {
	return &BranchCreateCommand{repo: r, name: name}
}

// SetStart sets the commit the branch should point at; if unset, Call
// uses the current HEAD commit.
func (c *BranchCreateCommand) SetStart(hash plumbing.Hash) *BranchCreateCommand {
	c.start = hash
	return c
}

// SetForce allows Call to overwrite an existing branch of the same
// name.
func (c *BranchCreateCommand) SetForce(force bool) *BranchCreateCommand {
	c.force = force
	return c
}

func (c *BranchCreateCommand) Call(ctx context.Context) error {
	r := c.repo
	start := c.start
	if start.IsZero() {
		head, err := r.headCommit(ctx)
		if err != nil {
			return err
		}
		start = head.Hash
	}

	name := refs.NewBranchName(c.name)
	old := plumbing.ZeroHash
	if c.force {
		if existing, err := r.Refs.Reference(ctx, name); err == nil {
			old = existing.Hash()
		}
	}

	if err := r.Refs.CompareAndSwapReference(ctx, refs.NewHashReference(name, start), old); err != nil {
		return fmt.Errorf("create branch %s: %w", c.name, err)
	}
	return nil
}

// BranchDeleteCommand removes a branch reference.
type BranchDeleteCommand struct {
	repo *Repo
	name string
}

// BranchDelete returns a builder that deletes branch name.
func (r *Repo) BranchDelete(name string) *BranchDeleteCommand {
	return &BranchDeleteCommand{repo: r, name: name}
}

func (c *BranchDeleteCommand) Call(ctx context.Context) error {
	return c.repo.Refs.RemoveReference(ctx, refs.NewBranchName(c.name))
}

// BranchRenameCommand renames a branch, preserving the commit it
// points at and updating HEAD if it was the current branch.
type BranchRenameCommand struct {
	repo    *Repo
	oldName string
	newName string
}

// BranchRename returns a builder that renames branch oldName to
// newName.
func (r *Repo) BranchRename(oldName, newName string) *BranchRenameCommand {
	return &BranchRenameCommand{repo: r, oldName: oldName, newName: newName}
}

func (c *BranchRenameCommand) Call(ctx context.Context) error {
	r := c.repo
	oldRefName := refs.NewBranchName(c.oldName)
	newRefName := refs.NewBranchName(c.newName)

	old, err := r.Refs.Reference(ctx, oldRefName)
	if err != nil {
		return err
	}

	if err := r.Refs.SetReference(ctx, refs.NewHashReference(newRefName, old.Hash())); err != nil {
		return fmt.Errorf("create branch %s: %w", c.newName, err)
	}
	if err := r.Refs.RemoveReference(ctx, oldRefName); err != nil {
		return fmt.Errorf("remove old branch %s: %w", c.oldName, err)
	}

	branch, onBranch, err := r.currentBranch(ctx)
	if err != nil {
		return err
	}
	if onBranch && branch == oldRefName {
		return r.Refs.SetReference(ctx, refs.NewSymbolicReference(refs.HEAD, newRefName))
	}
	return nil
}
