// Package merge implements the three-way tree merge: given a common
// ancestor and two divergent trees, it classifies every path, applies
// the unambiguous ones to a staging index and worktree, and records the
// rest as conflicts at stages 1-3 for a person (or a recorded
// resolution) to settle.
package merge

import (
	"bytes"
	"context"
	"sort"

	"github.com/statewalker/vcs-sub011/index"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/worktree"
)

// Class is the outcome of comparing one path across base, ours and
// theirs.
type Class int

const (
	Unchanged Class = iota
	ModifiedByThem
	ModifiedByUs
	ModifiedBothSame
	ModifiedBothDiffer
	DeletedByUs
	DeleteModify
	DeletedByThem
	ModifyDelete
	DeletedBoth
	AddedByUs
	AddedByThem
	AddedBothSame
	AddedBothDiffer
)

func (c Class) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case ModifiedByThem:
		return "modified-by-them"
	case ModifiedByUs:
		return "modified-by-us"
	case ModifiedBothSame:
		return "modified-both-same"
	case ModifiedBothDiffer:
		return "modified-both-differ"
	case DeletedByUs:
		return "deleted-by-us"
	case DeleteModify:
		return "delete-modify"
	case DeletedByThem:
		return "deleted-by-them"
	case ModifyDelete:
		return "modify-delete"
	case DeletedBoth:
		return "deleted-both"
	case AddedByUs:
		return "added-by-us"
	case AddedByThem:
		return "added-by-them"
	case AddedBothSame:
		return "added-both-same"
	case AddedBothDiffer:
		return "added-both-differ"
	default:
		return "unknown"
	}
}

// Conflict reports whether Class leaves a path unresolved.
func (c Class) Conflict() bool {
	switch c {
	case ModifiedBothDiffer, DeleteModify, ModifyDelete, AddedBothDiffer:
		return true
	default:
		return false
	}
}

// entry is a path's (hash, mode) pair on one side of a merge; nil means
// the path is absent on that side.
type entry struct {
	Hash plumbing.Hash
	Mode filemode.FileMode
}

func equalEntries(a, b *entry) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Hash == b.Hash && a.Mode == b.Mode
}

// PathResult is the classification of a single path.
type PathResult struct {
	Path                string
	Class               Class
	Base, Ours, Theirs  *entry
	AutoResolvedByCache bool
}

// Result is the outcome of a full three-way merge.
type Result struct {
	Paths     []PathResult
	Conflicts []string
}

// HasConflicts reports whether any path was left conflicted.
func (r *Result) HasConflicts() bool { return len(r.Conflicts) > 0 }

// ThreeWay merges the trees base, ours and theirs, staging the result
// into idx. If wt is non-nil, resolved paths are written to (or removed
// from) it, and conflicted paths get a conflict-marker file in place of
// their stage-0 blob. If cache is non-nil, a conflict whose exact
// (base, ours, theirs) blob triple was resolved before is applied
// automatically instead of being staged again.
func ThreeWay(ctx context.Context, store *object.Store, idx *index.Index, wt worktree.Worktree, cache *ResolutionCache, base, ours, theirs plumbing.Hash) (*Result, error) {
	baseFiles, err := flatten(ctx, store, base)
	if err != nil {
		return nil, err
	}
	oursFiles, err := flatten(ctx, store, ours)
	if err != nil {
		return nil, err
	}
	theirsFiles, err := flatten(ctx, store, theirs)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]bool, len(baseFiles)+len(oursFiles)+len(theirsFiles))
	for p := range baseFiles {
		paths[p] = true
	}
	for p := range oursFiles {
		paths[p] = true
	}
	for p := range theirsFiles {
		paths[p] = true
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	result := &Result{}
	for _, p := range sorted {
		b, o, t := baseFiles[p], oursFiles[p], theirsFiles[p]
		class := classify(b, o, t)
		pr := PathResult{Path: p, Class: class, Base: b, Ours: o, Theirs: t}

		if !class.Conflict() {
			if err := applyResolved(ctx, store, idx, wt, p, resolvedEntry(class, o, t)); err != nil {
				return nil, err
			}
			result.Paths = append(result.Paths, pr)
			continue
		}

		if cache != nil {
			if postimage, ok, err := cache.Lookup(hashOf(b), hashOf(o), hashOf(t)); err != nil {
				return nil, err
			} else if ok {
				hash, err := store.StoreBlob(ctx, bytes.NewReader(postimage))
				if err != nil {
					return nil, err
				}
				if err := applyResolved(ctx, store, idx, wt, p, &entry{Hash: hash, Mode: pickMode(o, t)}); err != nil {
					return nil, err
				}
				pr.AutoResolvedByCache = true
				result.Paths = append(result.Paths, pr)
				continue
			}
		}

		stageConflict(idx, p, b, o, t)
		if wt != nil {
			if err := writeConflictMarkers(ctx, store, wt, p, b, o, t); err != nil {
				return nil, err
			}
		}
		result.Conflicts = append(result.Conflicts, p)
		result.Paths = append(result.Paths, pr)
	}

	return result, nil
}

func hashOf(e *entry) plumbing.Hash {
	if e == nil {
		return plumbing.ZeroHash
	}
	return e.Hash
}

func pickMode(o, t *entry) filemode.FileMode {
	if o != nil {
		return o.Mode
	}
	if t != nil {
		return t.Mode
	}
	return filemode.Regular
}

// classify implements spec's three-way classification table.
func classify(b, o, t *entry) Class {
	switch {
	case b == nil:
		switch {
		case o == nil:
			return AddedByThem
		case t == nil:
			return AddedByUs
		case equalEntries(o, t):
			return AddedBothSame
		default:
			return AddedBothDiffer
		}
	case o == nil && t == nil:
		return DeletedBoth
	case o == nil:
		if equalEntries(b, t) {
			return DeletedByUs
		}
		return DeleteModify
	case t == nil:
		if equalEntries(b, o) {
			return DeletedByThem
		}
		return ModifyDelete
	default:
		bo, bt := equalEntries(b, o), equalEntries(b, t)
		switch {
		case bo && bt:
			return Unchanged
		case bo:
			return ModifiedByThem
		case bt:
			return ModifiedByUs
		case equalEntries(o, t):
			return ModifiedBothSame
		default:
			return ModifiedBothDiffer
		}
	}
}

// resolvedEntry picks the final (hash, mode) for a non-conflicting
// class; nil means the path is deleted.
func resolvedEntry(class Class, o, t *entry) *entry {
	switch class {
	case Unchanged, ModifiedByUs, ModifiedBothSame, AddedByUs, AddedBothSame:
		return o
	case ModifiedByThem, AddedByThem:
		return t
	default: // DeletedByUs, DeletedByThem, DeletedBoth
		return nil
	}
}

func applyResolved(ctx context.Context, store *object.Store, idx *index.Index, wt worktree.Worktree, path string, final *entry) error {
	if final == nil {
		idx.Remove(path)
		if wt != nil {
			return wt.Remove(ctx, path)
		}
		return nil
	}

	idx.Add(path, final.Hash, final.Mode)
	if wt == nil {
		return nil
	}

	_, rc, err := store.LoadBlob(ctx, final.Hash)
	if err != nil {
		return err
	}
	defer rc.Close()
	return wt.WriteBlob(ctx, path, final.Mode, rc)
}

func stageConflict(idx *index.Index, path string, b, o, t *entry) {
	if b != nil {
		idx.AddConflict(path, index.StageBase, b.Hash, b.Mode)
	}
	if o != nil {
		idx.AddConflict(path, index.StageOurs, o.Hash, o.Mode)
	}
	if t != nil {
		idx.AddConflict(path, index.StageTheirs, t.Hash, t.Mode)
	}
}

// flatten reads treeHash into a flat path -> entry map, the same shape
// index.Index.ReadTree builds, using a scratch index so the recursive
// walk isn't duplicated here. A zero hash (no tree on that side) flattens
// to the empty map.
func flatten(ctx context.Context, store *object.Store, treeHash plumbing.Hash) (map[string]*entry, error) {
	out := make(map[string]*entry)
	if treeHash.IsZero() {
		return out, nil
	}

	var scratch index.Index
	if err := scratch.ReadTree(ctx, store, treeHash); err != nil {
		return nil, err
	}
	for _, e := range scratch.Entries("") {
		out[e.Path] = &entry{Hash: e.Hash, Mode: e.Mode}
	}
	return out, nil
}
