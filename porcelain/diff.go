package porcelain

import (
	"context"

	"github.com/statewalker/vcs-sub011/index"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// ChangeKind classifies one path's difference between two trees.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeDeleted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change describes one path's difference between two trees.
type Change struct {
	Path     string
	Kind     ChangeKind
	FromHash plumbing.Hash
	FromMode filemode.FileMode
	ToHash   plumbing.Hash
	ToMode   filemode.FileMode
}

// DiffCommand computes a two-way path-level diff between two trees.
type DiffCommand struct {
	repo     *Repo
	from, to plumbing.Hash
}

// Diff returns a builder that diffs from's tree against to's tree.
func (r *Repo) Diff(from, to plumbing.Hash) *DiffCommand {
	return &DiffCommand{repo: r, from: from, to: to}
}

func (c *DiffCommand) Call(ctx context.Context) ([]Change, error) {
	r := c.repo

	before, err := flattenTree(ctx, r.Store, c.from)
	if err != nil {
		return nil, err
	}
	after, err := flattenTree(ctx, r.Store, c.to)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for path, a := range before {
		b, ok := after[path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: path, Kind: ChangeDeleted, FromHash: a.Hash, FromMode: a.Mode})
		case b.Hash != a.Hash || b.Mode != a.Mode:
			changes = append(changes, Change{Path: path, Kind: ChangeModified, FromHash: a.Hash, FromMode: a.Mode, ToHash: b.Hash, ToMode: b.Mode})
		}
	}
	for path, b := range after {
		if _, ok := before[path]; !ok {
			changes = append(changes, Change{Path: path, Kind: ChangeAdded, ToHash: b.Hash, ToMode: b.Mode})
		}
	}
	return changes, nil
}

type treeLeaf struct {
	Hash plumbing.Hash
	Mode filemode.FileMode
}

// flattenTree reads treeHash's full path set into a flat map, the same
// technique merge.flatten uses for three-way classification, kept as
// its own unexported copy here since a two-tree diff has no need for
// merge's conflict-staging machinery.
func flattenTree(ctx context.Context, store *object.Store, treeHash plumbing.Hash) (map[string]treeLeaf, error) {
	out := map[string]treeLeaf{}
	if treeHash.IsZero() || treeHash == object.EmptyTreeHash {
		return out, nil
	}
	var idx index.Index
	if err := idx.ReadTree(ctx, store, treeHash); err != nil {
		return nil, err
	}
	for _, e := range idx.Entries("") {
		out[e.Path] = treeLeaf{Hash: e.Hash, Mode: e.Mode}
	}
	return out, nil
}
