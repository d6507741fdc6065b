package porcelain

import (
	"context"
	"strings"

	"github.com/statewalker/vcs-sub011/index"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/worktree"
)

// checkoutTreeToWorktree replaces wt's content with exactly treeHash's
// blobs: existing paths not in the tree are removed, the rest are
// (re)written.
func checkoutTreeToWorktree(ctx context.Context, store *object.Store, wt worktree.Worktree, treeHash plumbing.Hash) error {
	var idx index.Index
	if err := idx.ReadTree(ctx, store, treeHash); err != nil {
		return err
	}

	existing, err := wt.List(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(idx.Entries("")))
	for _, e := range idx.Entries("") {
		wanted[e.Path] = true
		if err := writeBlobToWorktree(ctx, store, wt, e.Path, e.Mode, e.Hash); err != nil {
			return err
		}
	}

	for _, p := range existing {
		if !wanted[p] {
			if err := wt.Remove(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeBlobToWorktree(ctx context.Context, store *object.Store, wt worktree.Worktree, path string, mode filemode.FileMode, hash plumbing.Hash) error {
	_, rc, err := store.LoadBlob(ctx, hash)
	if err != nil {
		return err
	}
	defer rc.Close()
	return wt.WriteBlob(ctx, path, mode, rc)
}

// firstLine returns s up to (not including) its first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
