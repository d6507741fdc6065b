package porcelain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/statewalker/vcs-sub011/merge"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/refs"
)

const stashRef refs.Name = "refs/stash"

// StashPushCommand snapshots the current staging index onto refs/stash
// and restores the worktree to HEAD.
//
// The snapshot is recorded as a two-parent commit (HEAD and an
// index-only commit), matching the common case of Git's own stash
// representation. Git additionally supports a three-parent form
// carrying a third, orphan commit of untracked files; that form needs
// a proper untracked-file detection layer over the worktree, which is
// out of scope here, so untracked files are never swept into a stash.
type StashPushCommand struct {
	repo    *Repo
	message string
}

// StashPush returns a builder for a new stash entry.
func (r *Repo) StashPush() *StashPushCommand {
	return &StashPushCommand{repo: r}
}

func (c *StashPushCommand) SetMessage(message string) *StashPushCommand {
	c.message = message
	return c
}

func (c *StashPushCommand) Call(ctx context.Context) (plumbing.Hash, error) {
	r := c.repo

	head, err := r.headCommit(ctx)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	workingTree, err := r.Index.WriteTree(ctx, r.Store)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if workingTree == head.TreeHash {
		return plumbing.ZeroHash, fmt.Errorf("%w: nothing to stash", plumbing.ErrInvalid)
	}

	who := object.Signature{When: time.Now()}
	message := c.message
	if message == "" {
		message = fmt.Sprintf("WIP on %s", head.Hash.String()[:7])
	}

	indexCommit := &object.Commit{
		TreeHash:     workingTree,
		ParentHashes: []plumbing.Hash{head.Hash},
		Author:       who,
		Committer:    who,
		Message:      "index on " + message,
	}
	indexHash, err := r.Store.StoreCommit(ctx, indexCommit)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	stashCommit := &object.Commit{
		TreeHash:     workingTree,
		ParentHashes: []plumbing.Hash{head.Hash, indexHash},
		Author:       who,
		Committer:    who,
		Message:      message,
	}
	stashHash, err := r.Store.StoreCommit(ctx, stashCommit)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	old := plumbing.ZeroHash
	if cur, err := r.Refs.Reference(ctx, stashRef); err == nil {
		old = cur.Hash()
	}
	if err := r.Refs.CompareAndSwapReference(ctx, refs.NewHashReference(stashRef, stashHash), old); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("update %s: %w", stashRef, err)
	}
	r.appendReflog(ctx, stashRef, old, stashHash, who, message)

	if err := r.Index.ReadTree(ctx, r.Store, head.TreeHash); err != nil {
		return plumbing.ZeroHash, err
	}
	if r.Worktree != nil {
		if err := checkoutTreeToWorktree(ctx, r.Store, r.Worktree, head.TreeHash); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	return stashHash, nil
}

// resolveStashEntry returns the commit hash of stash@{index}, where
// index 0 is the most recently pushed entry.
func resolveStashEntry(ctx context.Context, r *Repo, index int) (plumbing.Hash, error) {
	ref, err := r.Refs.Reference(ctx, stashRef)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if index == 0 {
		return ref.Hash(), nil
	}

	rl, ok := r.reflogs()
	if !ok {
		return plumbing.ZeroHash, fmt.Errorf("%w: ref store does not support stash history", plumbing.ErrUnsupported)
	}
	entries, err := rl.ReadReflog(ctx, stashRef)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	// Follow the chain back from the current tip (each live entry's Old
	// is the next live entry's New), skipping dropped entries.
	want, n := ref.Hash(), 0
	for _, e := range entries {
		if want.IsZero() {
			break
		}
		if e.New != want {
			continue
		}
		if n == index {
			return e.New, nil
		}
		n++
		want = e.Old
	}
	return plumbing.ZeroHash, fmt.Errorf("%w: no stash entry at index %d", plumbing.ErrNotFound, index)
}

// StashApplyCommand three-way merges a stash entry's change into the
// current state without removing it from refs/stash.
type StashApplyCommand struct {
	repo  *Repo
	index int
}

// StashApply returns a builder that applies stash@{0} by default; use
// SetIndex to target a different entry.
func (r *Repo) StashApply() *StashApplyCommand {
	return &StashApplyCommand{repo: r}
}

func (c *StashApplyCommand) SetIndex(index int) *StashApplyCommand {
	c.index = index
	return c
}

func (c *StashApplyCommand) Call(ctx context.Context) (*merge.Result, error) {
	r := c.repo

	stashHash, err := resolveStashEntry(ctx, r, c.index)
	if err != nil {
		return nil, err
	}
	stash, err := r.Store.LoadCommit(ctx, stashHash)
	if err != nil {
		return nil, err
	}
	if len(stash.ParentHashes) == 0 {
		return nil, fmt.Errorf("%w: stash entry %s has no parent", plumbing.ErrCorruptObject, stashHash)
	}
	base, err := r.Store.LoadCommit(ctx, stash.ParentHashes[0])
	if err != nil {
		return nil, err
	}
	head, err := r.headCommit(ctx)
	if err != nil {
		return nil, err
	}

	return merge.ThreeWay(ctx, r.Store, r.Index, r.Worktree, r.Cache, base.TreeHash, head.TreeHash, stash.TreeHash)
}

// StashPopCommand applies stash@{0} and, if it applied cleanly, drops
// it.
type StashPopCommand struct {
	repo *Repo
}

// StashPop returns a builder that pops the most recent stash entry.
func (r *Repo) StashPop() *StashPopCommand {
	return &StashPopCommand{repo: r}
}

func (c *StashPopCommand) Call(ctx context.Context) (*merge.Result, error) {
	r := c.repo

	result, err := r.StashApply().Call(ctx)
	if err != nil {
		return nil, err
	}
	if result.HasConflicts() {
		return result, nil
	}
	if err := r.StashDrop().Call(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// StashDropCommand removes the most recent stash entry by rolling
// refs/stash back to what it pointed at before that entry was pushed.
//
// refs.ReflogStore exposes no truncate or delete operation, so the
// dropped entry's line is not physically removed from the on-disk
// reflog; only refs/stash itself moves. StashList therefore only ever
// reports entries from the current refs/stash tip backward, so a
// dropped entry never resurfaces there even though its reflog line
// persists on disk.
type StashDropCommand struct {
	repo *Repo
}

// StashDrop returns a builder that drops the most recent stash entry.
func (r *Repo) StashDrop() *StashDropCommand {
	return &StashDropCommand{repo: r}
}

func (c *StashDropCommand) Call(ctx context.Context) error {
	r := c.repo

	cur, err := r.Refs.Reference(ctx, stashRef)
	if err != nil {
		return err
	}

	rl, ok := r.reflogs()
	if !ok {
		return fmt.Errorf("%w: ref store does not support stash history", plumbing.ErrUnsupported)
	}
	entries, err := rl.ReadReflog(ctx, stashRef)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: no stash entries", plumbing.ErrNotFound)
	}

	var top *refs.ReflogEntry
	for _, e := range entries {
		if e.New == cur.Hash() {
			top = e
			break
		}
	}
	if top == nil {
		return fmt.Errorf("%w: no reflog entry for stash tip %s", plumbing.ErrNotFound, cur.Hash())
	}
	if top.Old.IsZero() {
		return r.Refs.RemoveReference(ctx, stashRef)
	}
	return r.Refs.CompareAndSwapReference(ctx, refs.NewHashReference(stashRef, top.Old), cur.Hash())
}

// StashEntry describes one entry of the stash list, numbered like
// Git's stash@{N}: 0 is the most recently pushed entry.
type StashEntry struct {
	Index   int
	Hash    plumbing.Hash
	Message string
	When    time.Time
}

// StashListCommand lists stash entries newest first.
type StashListCommand struct {
	repo *Repo
}

// StashList returns a builder that lists all stash entries.
func (r *Repo) StashList() *StashListCommand {
	return &StashListCommand{repo: r}
}

func (c *StashListCommand) Call(ctx context.Context) ([]StashEntry, error) {
	r := c.repo
	rl, ok := r.reflogs()
	if !ok {
		return nil, fmt.Errorf("%w: ref store does not support stash history", plumbing.ErrUnsupported)
	}
	cur, err := r.Refs.Reference(ctx, stashRef)
	if err != nil {
		if errors.Is(err, plumbing.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	entries, err := rl.ReadReflog(ctx, stashRef)
	if err != nil {
		if errors.Is(err, plumbing.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var out []StashEntry
	want := cur.Hash()
	for _, e := range entries {
		if want.IsZero() {
			break
		}
		if e.New != want {
			continue
		}
		out = append(out, StashEntry{Index: len(out), Hash: e.New, Message: e.Message, When: e.When})
		want = e.Old
	}
	return out, nil
}

// StashClearCommand removes refs/stash entirely.
type StashClearCommand struct {
	repo *Repo
}

// StashClear returns a builder that removes all stash entries.
func (r *Repo) StashClear() *StashClearCommand {
	return &StashClearCommand{repo: r}
}

func (c *StashClearCommand) Call(ctx context.Context) error {
	return c.repo.Refs.RemoveReference(ctx, stashRef)
}
