package porcelain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// CommitCommand records the current staging index as a new commit on
// the current branch (or updates HEAD directly when detached).
type CommitCommand struct {
	repo *Repo

	message     string
	author      object.Signature
	committer   object.Signature
	allowEmpty  bool
}

// Commit returns a builder for a new commit.
func (r *Repo) Commit() *CommitCommand {
	return &CommitCommand{repo: r}
}

func (c *CommitCommand) SetMessage(message string) *CommitCommand {
	c.message = message
	return c
}

func (c *CommitCommand) SetAuthor(s object.Signature) *CommitCommand {
	c.author = s
	return c
}

func (c *CommitCommand) SetCommitter(s object.Signature) *CommitCommand {
	c.committer = s
	return c
}

func (c *CommitCommand) SetAllowEmpty(allow bool) *CommitCommand {
	c.allowEmpty = allow
	return c
}

// Call writes the staging index as a tree, stores a commit pointing at
// it with the current HEAD (if any) as sole parent, and moves the
// current branch (or HEAD, when detached) to it.
func (c *CommitCommand) Call(ctx context.Context) (plumbing.Hash, error) {
	r := c.repo

	if r.Index.HasConflicts() {
		return plumbing.ZeroHash, fmt.Errorf("%w: cannot commit with unresolved conflicts at %v", plumbing.ErrConflict, r.Index.GetConflictedPaths())
	}

	treeHash, err := r.Index.WriteTree(ctx, r.Store)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	var parents []plumbing.Hash
	var oldHash plumbing.Hash
	head, err := r.headCommit(ctx)
	switch {
	case err == nil:
		parents = []plumbing.Hash{head.Hash}
		oldHash = head.Hash
		if head.TreeHash == treeHash && !c.allowEmpty {
			return plumbing.ZeroHash, fmt.Errorf("%w: nothing to commit (use SetAllowEmpty to force)", plumbing.ErrInvalid)
		}
	case errors.Is(err, plumbing.ErrNotFound):
		// unborn branch: this is the first commit.
	default:
		return plumbing.ZeroHash, err
	}

	author, committer := c.author, c.committer
	if author.When.IsZero() {
		author.When = time.Now()
	}
	if committer.Name == "" {
		committer = author
	}
	if committer.When.IsZero() {
		committer.When = time.Now()
	}

	commit := &object.Commit{
		TreeHash:     treeHash,
		ParentHashes: parents,
		Author:       author,
		Committer:    committer,
		Message:      c.message,
	}
	hash, err := r.Store.StoreCommit(ctx, commit)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := r.updateBranchOrHead(ctx, oldHash, hash, committer, commitSubjectMessage(c.message)); err != nil {
		return plumbing.ZeroHash, err
	}

	r.log().WithField("commit", hash).Debug("committed")
	return hash, nil
}

// commitSubjectMessage renders a commit's reflog message as
// "commit: <subject line>", for the first commit on a branch too.
func commitSubjectMessage(message string) string {
	subject := message
	for i, ch := range message {
		if ch == '\n' {
			subject = message[:i]
			break
		}
	}
	return "commit: " + subject
}
