package git

import (
	"context"
	"fmt"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// AddCommand stages one or more worktree paths into the repository's
// index, the missing link between a bare Worktree (which only knows
// how to read and write file content) and Index.Add (which only knows
// hashes): it reads each path's content, stores it as a blob, and
// records the resulting hash at its mode.
type AddCommand struct {
	repo  *Repository
	paths []string
}

// Add returns a builder that stages paths.
func (r *Repository) Add(paths ...string) *AddCommand {
	return &AddCommand{repo: r, paths: paths}
}

// Call stages every path given to Add.
func (c *AddCommand) Call(ctx context.Context) error {
	r := c.repo
	if r.Worktree == nil {
		return fmt.Errorf("%w: repository has no worktree", plumbing.ErrInvalid)
	}

	for _, path := range c.paths {
		if err := r.stagePath(ctx, path); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
	}
	return nil
}

// AddAll stages every path currently present in the worktree.
func (r *Repository) AddAll(ctx context.Context) error {
	if r.Worktree == nil {
		return fmt.Errorf("%w: repository has no worktree", plumbing.ErrInvalid)
	}

	paths, err := r.Worktree.List(ctx)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := r.stagePath(ctx, path); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
	}
	return nil
}

func (r *Repository) stagePath(ctx context.Context, path string) error {
	info, err := r.Worktree.Stat(ctx, path)
	if err != nil {
		return err
	}

	rc, err := r.Worktree.ReadBlob(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()

	hash, err := r.Store.StoreBlobWithSize(ctx, info.Size, rc)
	if err != nil {
		return err
	}

	r.Index.Add(path, hash, info.Mode)
	return nil
}
