package merge

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v6"

	"github.com/statewalker/vcs-sub011/index"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/worktree"
)

// ResolutionCache records how a conflict was resolved, keyed by the
// triple of blob ids involved, so the identical conflict never has to
// be resolved by hand twice. Each entry lives at
// rr-cache/<signature>/{preimage,postimage}.
type ResolutionCache struct {
	fs billy.Filesystem
}

// NewResolutionCache returns a cache rooted at fs.
func NewResolutionCache(fs billy.Filesystem) *ResolutionCache {
	return &ResolutionCache{fs: fs}
}

func signature(base, ours, theirs plumbing.Hash) string {
	h := sha1.New()
	io.WriteString(h, base.String()+":"+ours.String()+":"+theirs.String())
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ResolutionCache) dir(base, ours, theirs plumbing.Hash) string {
	return path.Join("rr-cache", signature(base, ours, theirs))
}

// Record saves preimage (the conflict-marked text offered for
// resolution) and postimage (the content it was resolved to).
func (c *ResolutionCache) Record(base, ours, theirs plumbing.Hash, preimage, postimage []byte) error {
	dir := c.dir(base, ours, theirs)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(c.fs, path.Join(dir, "preimage"), preimage); err != nil {
		return err
	}
	return writeFileAtomic(c.fs, path.Join(dir, "postimage"), postimage)
}

// Lookup returns the recorded postimage for this exact conflict, if any.
func (c *ResolutionCache) Lookup(base, ours, theirs plumbing.Hash) ([]byte, bool, error) {
	f, err := c.fs.Open(path.Join(c.dir(base, ours, theirs), "postimage"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func writeFileAtomic(fs billy.Filesystem, name string, data []byte) error {
	tmp := name + ".tmp"
	f, err := fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		fs.Remove(tmp)
		return err
	}
	if err := fs.Rename(tmp, name); err != nil {
		fs.Remove(tmp)
		return err
	}
	return nil
}

// Resolve applies content as path's resolution: it stores content as a
// blob, stages it at stage 0 (clearing the conflict), and, if wt is
// non-nil, writes it to the worktree in place of the conflict-marker
// file. If cache is non-nil, the resolution is also recorded against
// path's (base, ours, theirs) blob triple for future reuse.
func Resolve(ctx context.Context, store *object.Store, idx *index.Index, wt worktree.Worktree, cache *ResolutionCache, path string, content []byte, mode filemode.FileMode) error {
	var base, ours, theirs plumbing.Hash
	var oursEntry, theirsEntry *entry
	for _, e := range idx.GetEntries(path) {
		switch e.Stage {
		case index.StageBase:
			base = e.Hash
		case index.StageOurs:
			ours = e.Hash
			oursEntry = &entry{Hash: e.Hash, Mode: e.Mode}
		case index.StageTheirs:
			theirs = e.Hash
			theirsEntry = &entry{Hash: e.Hash, Mode: e.Mode}
		}
	}

	hash, err := store.StoreBlob(ctx, bytes.NewReader(content))
	if err != nil {
		return err
	}

	if cache != nil {
		oursText, err := loadText(ctx, store, oursEntry)
		if err != nil {
			return err
		}
		theirsText, err := loadText(ctx, store, theirsEntry)
		if err != nil {
			return err
		}
		preimage := renderConflict(oursText, theirsText)
		if err := cache.Record(base, ours, theirs, []byte(preimage), content); err != nil {
			return err
		}
	}

	idx.Add(path, hash, mode)
	if wt == nil {
		return nil
	}
	return wt.WriteBlob(ctx, path, mode, bytes.NewReader(content))
}
