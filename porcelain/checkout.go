package porcelain

import (
	"context"
	"fmt"

	"github.com/statewalker/vcs-sub011/merge"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/refs"
)

// CheckoutCommand switches the current branch (or detaches HEAD) to a
// target commit, three-way merging the target against whatever is
// currently staged so uncommitted work survives the switch when
// possible.
type CheckoutCommand struct {
	repo   *Repo
	branch string // set via SetBranch; empty means SetCommit was used
	commit plumbing.Hash
	create bool
	start  plumbing.Hash
}

// Checkout returns a builder for switching to a target.
func (r *Repo) Checkout() *CheckoutCommand {
	return &CheckoutCommand{repo: r}
}

// SetBranch targets an existing branch; HEAD becomes symbolic to it on
// success.
func (c *CheckoutCommand) SetBranch(name string) *CheckoutCommand {
	c.branch = name
	return c
}

// SetCommit targets a raw commit id; HEAD becomes detached on success.
func (c *CheckoutCommand) SetCommit(hash plumbing.Hash) *CheckoutCommand {
	c.commit = hash
	return c
}

// SetCreate makes Call create the branch named by SetBranch first
// (like `checkout -b`), pointing at SetStart's commit, or the current
// HEAD commit if SetStart was never called.
func (c *CheckoutCommand) SetCreate(create bool) *CheckoutCommand {
	c.create = create
	return c
}

// SetStart sets the commit a newly created branch should start at;
// only meaningful together with SetCreate.
func (c *CheckoutCommand) SetStart(hash plumbing.Hash) *CheckoutCommand {
	c.start = hash
	return c
}

// CheckoutResult reports the outcome of a checkout.
type CheckoutResult struct {
	Conflicts []string
}

func (res *CheckoutResult) HasConflicts() bool { return len(res.Conflicts) > 0 }

func (c *CheckoutCommand) Call(ctx context.Context) (*CheckoutResult, error) {
	r := c.repo

	if c.create {
		b := r.BranchCreate(c.branch)
		if !c.start.IsZero() {
			b.SetStart(c.start)
		}
		if err := b.Call(ctx); err != nil {
			return nil, err
		}
	}

	var targetHash plumbing.Hash
	var targetRef refs.Name
	if c.branch != "" {
		targetRef = refs.NewBranchName(c.branch)
		ref, err := r.Refs.Reference(ctx, targetRef)
		if err != nil {
			return nil, err
		}
		targetHash = ref.Hash()
	} else {
		targetHash = c.commit
	}

	targetCommit, err := r.Store.LoadCommit(ctx, targetHash)
	if err != nil {
		return nil, fmt.Errorf("checkout target %s: %w", targetHash, err)
	}

	baseTree := object.EmptyTreeHash
	if head, err := r.headCommit(ctx); err == nil {
		baseTree = head.TreeHash
	}

	// "ours" is the currently staged tree: the worktree's effective
	// content as far as the staging index already captures it. A full
	// stat-based dirty/clean detection over the worktree is out of
	// scope here; see DESIGN.md.
	oursTree, err := r.Index.WriteTree(ctx, r.Store)
	if err != nil {
		return nil, err
	}

	result, err := merge.ThreeWay(ctx, r.Store, r.Index, r.Worktree, r.Cache, baseTree, oursTree, targetCommit.TreeHash)
	if err != nil {
		return nil, err
	}
	if result.HasConflicts() {
		return &CheckoutResult{Conflicts: result.Conflicts}, nil
	}

	var headRef *refs.Reference
	if targetRef != "" {
		headRef = refs.NewSymbolicReference(refs.HEAD, targetRef)
	} else {
		headRef = refs.NewHashReference(refs.HEAD, targetHash)
	}
	if err := r.Refs.SetReference(ctx, headRef); err != nil {
		return nil, fmt.Errorf("update HEAD: %w", err)
	}

	r.log().WithField("target", targetHash).Debug("checked out")
	return &CheckoutResult{}, nil
}
