package porcelain

import (
	"context"
	"fmt"
	"time"

	"github.com/statewalker/vcs-sub011/history"
	"github.com/statewalker/vcs-sub011/merge"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// MergeStatus is the outcome of a merge command.
type MergeStatus int

const (
	MergeUpToDate MergeStatus = iota
	MergeFastForward
	MergeCommitted
	MergeConflicting
)

func (s MergeStatus) String() string {
	switch s {
	case MergeUpToDate:
		return "up-to-date"
	case MergeFastForward:
		return "fast-forward"
	case MergeCommitted:
		return "committed"
	case MergeConflicting:
		return "conflicting"
	default:
		return "unknown"
	}
}

// MergeResult reports a merge command's outcome.
type MergeResult struct {
	Status    MergeStatus
	Commit    plumbing.Hash
	Conflicts []string
}

func (r *MergeResult) HasConflicts() bool { return r.Status == MergeConflicting }

// MergeCommand merges a source commit into the current branch.
type MergeCommand struct {
	repo      *Repo
	source    plumbing.Hash
	noFF      bool
	noCommit  bool
	message   string
	committer object.Signature
}

// Merge returns a builder that merges source into the current branch.
func (r *Repo) Merge(source plumbing.Hash) *MergeCommand {
	return &MergeCommand{repo: r, source: source}
}

func (c *MergeCommand) SetNoFF(v bool) *MergeCommand {
	c.noFF = v
	return c
}

func (c *MergeCommand) SetNoCommit(v bool) *MergeCommand {
	c.noCommit = v
	return c
}

func (c *MergeCommand) SetMessage(message string) *MergeCommand {
	c.message = message
	return c
}

func (c *MergeCommand) SetCommitter(s object.Signature) *MergeCommand {
	c.committer = s
	return c
}

func (c *MergeCommand) committerOrDefault() object.Signature {
	s := c.committer
	if s.When.IsZero() {
		s.When = time.Now()
	}
	return s
}

func (c *MergeCommand) Call(ctx context.Context) (*MergeResult, error) {
	r := c.repo

	ours, err := r.headCommit(ctx)
	if err != nil {
		return nil, err
	}
	theirs, err := r.Store.LoadCommit(ctx, c.source)
	if err != nil {
		return nil, err
	}

	bases, err := history.FindMergeBase(ctx, r.Store, ours, theirs)
	if err != nil {
		return nil, err
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%w: no common ancestor between %s and %s", plumbing.ErrInvalid, ours.Hash, theirs.Hash)
	}
	// Several criss-cross merge bases are possible; the first is used
	// as the merge's base tree, a deliberate simplification (a virtual
	// merge-of-bases, as recursive-merge strategies build, is not
	// implemented).
	base := bases[0]

	if base.Hash == theirs.Hash {
		return &MergeResult{Status: MergeUpToDate}, nil
	}

	if base.Hash == ours.Hash && !c.noFF {
		if err := r.updateBranchOrHead(ctx, ours.Hash, theirs.Hash, c.committerOrDefault(), "merge: Fast-forward"); err != nil {
			return nil, err
		}
		if err := r.Index.ReadTree(ctx, r.Store, theirs.TreeHash); err != nil {
			return nil, err
		}
		if r.Worktree != nil {
			if err := checkoutTreeToWorktree(ctx, r.Store, r.Worktree, theirs.TreeHash); err != nil {
				return nil, err
			}
		}
		return &MergeResult{Status: MergeFastForward, Commit: theirs.Hash}, nil
	}

	result, err := merge.ThreeWay(ctx, r.Store, r.Index, r.Worktree, r.Cache, base.TreeHash, ours.TreeHash, theirs.TreeHash)
	if err != nil {
		return nil, err
	}
	if result.HasConflicts() {
		return &MergeResult{Status: MergeConflicting, Conflicts: result.Conflicts}, nil
	}

	if c.noCommit {
		return &MergeResult{Status: MergeCommitted}, nil
	}

	committer := c.committerOrDefault()
	message := c.message
	if message == "" {
		message = fmt.Sprintf("Merge commit '%s'", c.source.String())
	}

	treeHash, err := r.Index.WriteTree(ctx, r.Store)
	if err != nil {
		return nil, err
	}
	commit := &object.Commit{
		TreeHash:     treeHash,
		ParentHashes: []plumbing.Hash{ours.Hash, theirs.Hash},
		Author:       committer,
		Committer:    committer,
		Message:      message,
	}
	hash, err := r.Store.StoreCommit(ctx, commit)
	if err != nil {
		return nil, err
	}
	if err := r.updateBranchOrHead(ctx, ours.Hash, hash, committer, "merge: Merge made by the three-way strategy"); err != nil {
		return nil, err
	}

	return &MergeResult{Status: MergeCommitted, Commit: hash}, nil
}
