package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/idxfile"
	"github.com/statewalker/vcs-sub011/plumbing/format/objfile"
	"github.com/statewalker/vcs-sub011/plumbing/format/packfile"
	"github.com/statewalker/vcs-sub011/storage"
)

// ErrPackStoreReadOnly is returned by PackStore's Store and Remove:
// packs are rewritten wholesale by repacking, never edited in place.
var ErrPackStoreReadOnly = fmt.Errorf("pack store is read-only")

// PackStore is a read-only storage.RawStore backed by every pack/idx
// pair found directly inside a directory (typically .git/objects/pack).
// It is meant as a CompositeStore fallback behind a writable LooseStore:
// newly received objects land as loose files, while history that has
// been packed (by a fetch or a gc) is served straight out of its pack
// without ever inflating the whole file into memory.
type PackStore struct {
	dir billy.Filesystem

	mu    sync.RWMutex
	packs []*openPack
}

type openPack struct {
	name string
	pack billy.File
	idx  *idxfile.ReaderAtIndex
}

var _ storage.RawStore = (*PackStore)(nil)

// NewPackStore opens every pack-*.idx/pack-*.pack pair found directly
// inside dir.
func NewPackStore(dir billy.Filesystem) (*PackStore, error) {
	s := &PackStore{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rescans dir for pack files: pairs that appeared since the
// last scan are opened, and pairs whose files disappeared (a
// concurrent repack pruning an old pack) are closed and dropped. Call
// this after writing new packs into dir, since PackStore otherwise
// never looks at the directory again after opening.
func (s *PackStore) Reload() error {
	names, err := packNames(s.dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(names))
	kept := make([]*openPack, 0, len(names))
	for _, name := range names {
		seen[name] = true
		if p := findOpenPack(s.packs, name); p != nil {
			kept = append(kept, p)
			continue
		}
		p, err := openPackFiles(s.dir, name)
		if err != nil {
			return fmt.Errorf("opening pack %s: %w", name, err)
		}
		kept = append(kept, p)
	}

	for _, p := range s.packs {
		if !seen[p.name] {
			p.idx.Close()
			p.pack.Close()
		}
	}

	s.packs = kept
	return nil
}

// Close closes every open pack and idx file.
func (s *PackStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, p := range s.packs {
		if err := p.idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := p.pack.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.packs = nil
	return firstErr
}

func findOpenPack(packs []*openPack, name string) *openPack {
	for _, p := range packs {
		if p.name == name {
			return p
		}
	}
	return nil
}

func openPackFiles(dir billy.Filesystem, name string) (*openPack, error) {
	packFile, err := dir.Open(name + ".pack")
	if err != nil {
		return nil, err
	}

	idxFile, err := dir.Open(name + ".idx")
	if err != nil {
		packFile.Close()
		return nil, err
	}

	idx, err := idxfile.NewReaderAtIndex(idxFile, plumbing.HashSize)
	if err != nil {
		packFile.Close()
		return nil, err
	}

	return &openPack{name: name, pack: packFile, idx: idx}, nil
}

// packNames lists the base names (without extension) of every
// pack-*.idx file in dir that has a matching pack-*.pack file.
func packNames(dir billy.Filesystem) ([]string, error) {
	entries, err := dir.ReadDir("")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	packs := make(map[string]bool)
	idxs := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".pack"):
			packs[strings.TrimSuffix(name, ".pack")] = true
		case strings.HasSuffix(name, ".idx"):
			idxs[strings.TrimSuffix(name, ".idx")] = true
		}
	}

	var names []string
	for name := range idxs {
		if packs[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// findPack returns the pack holding key and key's offset within it.
func (s *PackStore) findPack(key string) (*openPack, int64, bool) {
	h, ok := plumbing.FromHex(key)
	if !ok {
		return nil, 0, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.packs {
		offset, err := p.idx.FindOffset(h)
		if err == nil {
			return p, offset, true
		}
	}
	return nil, 0, false
}

// resolveBase loads an object by hash for use as a REF_DELTA base,
// searching every open pack (a delta may point at a base packed
// earlier, in a different pack than the one holding the delta itself).
func (s *PackStore) resolveBase(h plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	p, offset, ok := s.findPack(h.String())
	if !ok {
		return 0, nil, fmt.Errorf("%w: delta base %s", plumbing.ErrNotFound, h)
	}
	return packfile.ReadEntryAt(p.pack, offset, s.resolveBase)
}

func (s *PackStore) Store(context.Context, string, io.Reader) error {
	return ErrPackStoreReadOnly
}

func (s *PackStore) Remove(context.Context, string) error {
	return ErrPackStoreReadOnly
}

func (s *PackStore) Has(_ context.Context, key string) (bool, error) {
	_, _, ok := s.findPack(key)
	return ok, nil
}

func (s *PackStore) Size(_ context.Context, key string) (int64, error) {
	p, offset, ok := s.findPack(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
	}

	t, content, err := packfile.ReadEntryAt(p.pack, offset, s.resolveBase)
	if err != nil {
		return 0, err
	}

	return framedSize(t, content), nil
}

func (s *PackStore) Load(_ context.Context, key string, start, end int64) (io.ReadCloser, error) {
	p, offset, ok := s.findPack(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
	}

	t, content, err := packfile.ReadEntryAt(p.pack, offset, s.resolveBase)
	if err != nil {
		return nil, err
	}

	framed, err := frameObject(t, content)
	if err != nil {
		return nil, err
	}

	if start > 0 {
		if start > int64(len(framed)) {
			start = int64(len(framed))
		}
		framed = framed[start:]
	}
	if end >= 0 {
		if n := end - start; n >= 0 && n < int64(len(framed)) {
			framed = framed[:n]
		}
	}

	return io.NopCloser(bytes.NewReader(framed)), nil
}

// Keys enumerates the hash of every object across every open pack.
// An object present in more than one pack (common right after a fetch
// that repacks) is reported once.
func (s *PackStore) Keys(context.Context) (storage.KeyIter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var keys []string
	for _, p := range s.packs {
		it, err := p.idx.Entries()
		if err != nil {
			return nil, err
		}
		for {
			e, err := it.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				it.Close()
				return nil, err
			}
			if k := e.Hash.String(); !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		it.Close()
	}

	sort.Strings(keys)
	return newKeyIter(keys), nil
}

// frameObject re-encodes a resolved pack entry in the loose-object wire
// format (objfile: a zlib stream of "<type> <size>\0<content>") so
// PackStore can sit behind the same ObjectStore that expects every
// RawStore to hand back objfile-framed bytes.
func frameObject(t plumbing.ObjectType, content []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := objfile.NewWriter(&buf)
	if err := w.WriteHeader(t, int64(len(content))); err != nil {
		return nil, err
	}
	if _, err := w.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func framedSize(t plumbing.ObjectType, content []byte) int64 {
	framed, err := frameObject(t, content)
	if err != nil {
		return int64(len(content))
	}
	return int64(len(framed))
}
