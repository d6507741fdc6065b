// Package index is the staging area: the stage-0 map checkout/commit
// build trees from, plus stages 1-3 a three-way merge uses to record an
// unresolved conflict.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// Stage identifies which side of a merge an entry belongs to. Stage 0
// is the normal, fully-merged slot; an entry only occupies stages 1-3
// while its path is conflicted.
type Stage uint8

const (
	StageBase   Stage = 1 // the common ancestor
	StageOurs   Stage = 2
	StageTheirs Stage = 3
)

// Entry is one staged path at one stage.
type Entry struct {
	Path  string
	Hash  plumbing.Hash
	Mode  filemode.FileMode
	Stage Stage // 0 for a normal, fully-merged entry
}

// Index is the in-memory staging area. The zero value is an empty
// index, ready to use.
type Index struct {
	// stage0 holds every fully-merged path.
	stage0 map[string]*Entry
	// conflicts holds, per conflicted path, whichever of stages 1-3
	// are present (a path missing on one side omits that stage).
	conflicts map[string]map[Stage]*Entry
}

func (idx *Index) init() {
	if idx.stage0 == nil {
		idx.stage0 = make(map[string]*Entry)
	}
	if idx.conflicts == nil {
		idx.conflicts = make(map[string]map[Stage]*Entry)
	}
}

// Add stages path at stage 0 and clears any conflict previously
// recorded for it.
func (idx *Index) Add(path string, hash plumbing.Hash, mode filemode.FileMode) {
	idx.init()
	idx.stage0[path] = &Entry{Path: path, Hash: hash, Mode: mode}
	delete(idx.conflicts, path)
}

// Remove unstages path entirely, at every stage.
func (idx *Index) Remove(path string) {
	idx.init()
	delete(idx.stage0, path)
	delete(idx.conflicts, path)
}

// AddConflict records path as conflicted, staging one side of the
// three-way merge. A zero hash means that side has no entry for path
// (e.g. it was added by only one branch). Staging any conflict side
// removes path's stage-0 entry, since a conflicted path is by
// definition not fully merged.
func (idx *Index) AddConflict(path string, stage Stage, hash plumbing.Hash, mode filemode.FileMode) {
	idx.init()
	delete(idx.stage0, path)

	if idx.conflicts[path] == nil {
		idx.conflicts[path] = make(map[Stage]*Entry)
	}
	idx.conflicts[path][stage] = &Entry{Path: path, Hash: hash, Mode: mode, Stage: stage}
}

// Entries returns every stage-0 entry whose path has prefix, sorted by
// path. An empty prefix returns everything.
func (idx *Index) Entries(prefix string) []*Entry {
	idx.init()
	var out []*Entry
	for p, e := range idx.stage0 {
		if strings.HasPrefix(p, prefix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// GetEntries returns every entry staged for path: a single stage-0
// entry for a normal path, or whichever of stages 1-3 are present for
// a conflicted one. It returns nil if path is not staged at all.
func (idx *Index) GetEntries(path string) []*Entry {
	idx.init()
	if e, ok := idx.stage0[path]; ok {
		return []*Entry{e}
	}

	sides, ok := idx.conflicts[path]
	if !ok {
		return nil
	}
	var out []*Entry
	for _, stage := range []Stage{StageBase, StageOurs, StageTheirs} {
		if e, ok := sides[stage]; ok {
			out = append(out, e)
		}
	}
	return out
}

// HasConflicts reports whether any path is currently conflicted.
func (idx *Index) HasConflicts() bool {
	return len(idx.conflicts) > 0
}

// GetConflictedPaths returns every conflicted path, sorted.
func (idx *Index) GetConflictedPaths() []string {
	idx.init()
	paths := make([]string, 0, len(idx.conflicts))
	for p := range idx.conflicts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// dirNode is a directory accumulator used while building a tree from
// the flat stage-0 path map.
type dirNode struct {
	entries map[string]*object.TreeEntry // immediate file children
	dirs    map[string]*dirNode          // immediate subdirectories
}

func newDirNode() *dirNode {
	return &dirNode{entries: make(map[string]*object.TreeEntry), dirs: make(map[string]*dirNode)}
}

func (d *dirNode) child(name string) *dirNode {
	c, ok := d.dirs[name]
	if !ok {
		c = newDirNode()
		d.dirs[name] = c
	}
	return c
}

// WriteTree materializes the current stage-0 map as nested tree
// objects, grouping paths by "/", and returns the root tree's id. It
// fails with plumbing.ErrConflict if any path is currently conflicted.
func (idx *Index) WriteTree(ctx context.Context, store *object.Store) (plumbing.Hash, error) {
	idx.init()
	if idx.HasConflicts() {
		return plumbing.ZeroHash, fmt.Errorf("%w: cannot write a tree while paths are conflicted", plumbing.ErrConflict)
	}

	root := newDirNode()
	for path, e := range idx.stage0 {
		parts := strings.Split(path, "/")
		dir := root
		for _, part := range parts[:len(parts)-1] {
			dir = dir.child(part)
		}
		name := parts[len(parts)-1]
		dir.entries[name] = &object.TreeEntry{Name: name, Mode: e.Mode, Hash: e.Hash}
	}

	return writeDirNode(ctx, store, root)
}

func writeDirNode(ctx context.Context, store *object.Store, d *dirNode) (plumbing.Hash, error) {
	t := &object.Tree{}
	for _, e := range d.entries {
		t.Entries = append(t.Entries, *e)
	}
	for name, sub := range d.dirs {
		id, err := writeDirNode(ctx, store, sub)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		t.Entries = append(t.Entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: id})
	}

	return store.StoreTree(ctx, t)
}

// ReadTree replaces every stage-0 entry with the contents of the tree
// named treeHash, recursively, using "/"-joined paths. Existing
// conflicts are left untouched.
func (idx *Index) ReadTree(ctx context.Context, store *object.Store, treeHash plumbing.Hash) error {
	idx.init()
	idx.stage0 = make(map[string]*Entry)
	return readTreeInto(ctx, store, treeHash, "", idx.stage0)
}

func readTreeInto(ctx context.Context, store *object.Store, treeHash plumbing.Hash, prefix string, out map[string]*Entry) error {
	t, err := store.LoadTree(ctx, treeHash)
	if err != nil {
		return err
	}

	for _, e := range t.Entries {
		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}

		if e.Mode == filemode.Dir {
			if err := readTreeInto(ctx, store, e.Hash, path, out); err != nil {
				return err
			}
			continue
		}

		out[path] = &Entry{Path: path, Hash: e.Hash, Mode: e.Mode}
	}

	return nil
}
