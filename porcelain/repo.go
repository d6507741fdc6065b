// Package porcelain implements the user-facing commands layered over
// the object store, ref store, staging index, worktree and three-way
// merge engine: commit, branch, checkout, merge, cherry-pick, revert,
// reset, tag, stash, log, diff and status. Each command is a small
// builder: construct it from a Repo, chain its Set* methods, then Call.
package porcelain

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/statewalker/vcs-sub011/index"
	"github.com/statewalker/vcs-sub011/merge"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/refs"
	"github.com/statewalker/vcs-sub011/worktree"
)

// Repo bundles the layers a porcelain command operates across: the
// object store everything is encoded through, the ref backend, the
// staging index, and (for a non-bare repository) a worktree. Cache is
// optional; a nil Cache simply disables recorded-resolution reuse.
type Repo struct {
	Store    *object.Store
	Refs     refs.Store
	Index    *index.Index
	Worktree worktree.Worktree
	Cache    *merge.ResolutionCache
	Log      *logrus.Entry
}

func (r *Repo) log() *logrus.Entry {
	if r.Log != nil {
		return r.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func (r *Repo) reflogs() (refs.ReflogStore, bool) {
	rl, ok := r.Refs.(refs.ReflogStore)
	return rl, ok
}

func (r *Repo) appendReflog(ctx context.Context, name refs.Name, old, new plumbing.Hash, who object.Signature, message string) {
	rl, ok := r.reflogs()
	if !ok {
		return
	}
	entry := &refs.ReflogEntry{Old: old, New: new, Name: who.Name, Email: who.Email, When: who.When, Message: message}
	if err := rl.AppendReflog(ctx, name, entry); err != nil {
		r.log().WithError(err).WithField("ref", name).Warn("failed to append reflog entry")
	}
}

// head resolves HEAD one hop: it returns the reference HEAD directly
// names (a symbolic ref to refs/heads/<branch>, or a direct ref when
// detached), without following further.
func (r *Repo) head(ctx context.Context) (*refs.Reference, error) {
	return r.Refs.Reference(ctx, refs.HEAD)
}

// headCommit resolves HEAD all the way to a commit. It returns
// plumbing.ErrNotFound if the repository has no commits yet (an unborn
// branch).
func (r *Repo) headCommit(ctx context.Context) (*object.Commit, error) {
	ref, err := refs.Resolve(ctx, r.Refs, refs.HEAD)
	if err != nil {
		return nil, err
	}
	return r.Store.LoadCommit(ctx, ref.Hash())
}

// currentBranch returns the branch name HEAD symbolically points at,
// and false if HEAD is currently detached (a direct reference).
func (r *Repo) currentBranch(ctx context.Context) (refs.Name, bool, error) {
	ref, err := r.head(ctx)
	if err != nil {
		return "", false, err
	}
	if ref.Type() != refs.SymbolicReference {
		return "", false, nil
	}
	return ref.Target(), true, nil
}

// updateBranchOrHead moves whichever reference HEAD currently resolves
// to one hop from (the current branch, or HEAD itself when detached)
// from old to new, via compare-and-swap, and appends a reflog entry for
// both that reference and HEAD.
func (r *Repo) updateBranchOrHead(ctx context.Context, old, new plumbing.Hash, who object.Signature, message string) error {
	target, onBranch, err := r.currentBranch(ctx)
	if err != nil {
		return err
	}
	if !onBranch {
		target = refs.HEAD
	}

	if err := r.Refs.CompareAndSwapReference(ctx, refs.NewHashReference(target, new), old); err != nil {
		return fmt.Errorf("update %s: %w", target, err)
	}
	r.appendReflog(ctx, target, old, new, who, message)
	if onBranch {
		r.appendReflog(ctx, refs.HEAD, old, new, who, message)
	}
	return nil
}
