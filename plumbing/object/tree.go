package object

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
)

// EmptyTreeHash is the well-known id of the tree with no entries.
var EmptyTreeHash = plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

// TreeEntry is one line of a tree: a name, the mode it was recorded
// with, and the id of the blob/tree/commit(submodule) it names.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// Tree is the canonical directory listing: entries sorted the way Git
// sorts them (byte order, except a directory's name compares as if it
// had a trailing '/').
type Tree struct {
	Hash    plumbing.Hash
	Entries []TreeEntry
}

// sortKey returns the comparison key for a tree entry: Git compares a
// subdirectory's name with a trailing slash appended, so that e.g.
// "lib.c" (a file) sorts before "lib" (a directory), matching "lib.c" <
// "lib/" byte-wise even though "lib.c" would NOT sort before the bare
// string "lib".
func sortKey(name string, mode filemode.FileMode) string {
	if mode == filemode.Dir {
		return name + "/"
	}
	return name
}

// Sort orders t's entries into canonical tree order, in place.
func (t *Tree) Sort() {
	sort.Slice(t.Entries, func(i, j int) bool {
		return sortKey(t.Entries[i].Name, t.Entries[i].Mode) < sortKey(t.Entries[j].Name, t.Entries[j].Mode)
	})
}

// Encode serializes t in canonical form: for each sorted entry,
// "<mode> <name>\0<20 raw hash bytes>".
func (t *Tree) Encode() ([]byte, error) {
	cp := *t
	cp.Entries = append([]TreeEntry(nil), t.Entries...)
	cp.Sort()

	var buf bytes.Buffer
	seen := make(map[string]struct{}, len(cp.Entries))
	for _, e := range cp.Entries {
		if e.Name == "" || bytes.ContainsAny([]byte(e.Name), "/\x00") {
			return nil, fmt.Errorf("%w: invalid tree entry name %q", plumbing.ErrInvalid, e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tree entry name %q", plumbing.ErrInvalid, e.Name)
		}
		seen[e.Name] = struct{}{}

		fmt.Fprintf(&buf, "%o %s\x00", uint32(e.Mode), e.Name)
		buf.Write(e.Hash.Bytes())
	}

	return buf.Bytes(), nil
}

// DecodeTree parses a tree's canonical content.
func DecodeTree(r io.Reader) (*Tree, error) {
	br := bufio.NewReader(r)
	t := &Tree{}

	for {
		modeAndName, err := br.ReadString(0)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading tree entry: %v", plumbing.ErrCorruptObject, err)
		}
		modeAndName = modeAndName[:len(modeAndName)-1] // trim the NUL

		sp := bytes.IndexByte([]byte(modeAndName), ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: malformed tree entry %q", plumbing.ErrCorruptObject, modeAndName)
		}

		modeNum, err := strconv.ParseUint(modeAndName[:sp], 8, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed tree entry mode %q", plumbing.ErrCorruptObject, modeAndName[:sp])
		}

		var hashBuf [plumbing.HashSize]byte
		if _, err := io.ReadFull(br, hashBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated tree entry hash: %v", plumbing.ErrCorruptObject, err)
		}
		h, _ := plumbing.FromBytes(hashBuf[:])

		t.Entries = append(t.Entries, TreeEntry{
			Name: modeAndName[sp+1:],
			Mode: filemode.FileMode(modeNum),
			Hash: h,
		})
	}

	return t, nil
}

// StoreTree encodes and stores t, filling in and returning its id.
func (s *Store) StoreTree(ctx context.Context, t *Tree) (plumbing.Hash, error) {
	content, err := t.Encode()
	if err != nil {
		return plumbing.Hash{}, err
	}

	id, err := s.store(ctx, plumbing.TreeObject, content)
	if err != nil {
		return plumbing.Hash{}, err
	}
	t.Hash = id
	return id, nil
}

// LoadTree loads and decodes a tree.
func (s *Store) LoadTree(ctx context.Context, id plumbing.Hash) (*Tree, error) {
	if id == EmptyTreeHash {
		return &Tree{Hash: id}, nil
	}

	rc, _, err := s.load(ctx, id, plumbing.TreeObject)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := DecodeTree(rc)
	if err != nil {
		return nil, err
	}
	t.Hash = id
	return t, nil
}

// Find returns the entry named name, or false if absent.
func (t *Tree) Find(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}
