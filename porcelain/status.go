package porcelain

import (
	"context"
	"errors"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// StatusEntry reports one path's staged state relative to HEAD.
type StatusEntry struct {
	Path string
	Kind ChangeKind
}

// Status reports the staging index against HEAD's tree (the "staged"
// changes a commit would record) and any paths left conflicted by a
// merge.
//
// Detecting unstaged, worktree-only changes would additionally require
// hashing every tracked worktree file's content and comparing it
// against the staged blob hash; that needs a streaming hash path over
// worktree.Worktree that avoids buffering whole files in memory, which
// is not built yet. Only the staged-vs-HEAD and conflict views are
// reported here.
type StatusCommand struct {
	repo *Repo
}

// Status returns a builder for a status report.
func (r *Repo) Status() *StatusCommand {
	return &StatusCommand{repo: r}
}

// StatusResult is the outcome of a status query.
type StatusResult struct {
	Staged    []StatusEntry
	Conflicts []string
}

func (c *StatusCommand) Call(ctx context.Context) (*StatusResult, error) {
	r := c.repo

	headTree := object.EmptyTreeHash
	head, err := r.headCommit(ctx)
	switch {
	case err == nil:
		headTree = head.TreeHash
	case errors.Is(err, plumbing.ErrNotFound):
		// unborn branch: every staged path is new.
	default:
		return nil, err
	}

	result := &StatusResult{Conflicts: r.Index.GetConflictedPaths()}
	if r.Index.HasConflicts() {
		// WriteTree refuses a tree while any path is still conflicted;
		// the staged-vs-HEAD view isn't meaningful mid-conflict anyway.
		return result, nil
	}

	stagedTree, err := r.Index.WriteTree(ctx, r.Store)
	if err != nil {
		return nil, err
	}

	changes, err := r.Diff(headTree, stagedTree).Call(ctx)
	if err != nil {
		return nil, err
	}
	for _, ch := range changes {
		result.Staged = append(result.Staged, StatusEntry{Path: ch.Path, Kind: ch.Kind})
	}
	return result, nil
}
