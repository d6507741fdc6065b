package fsnoder

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/statewalker/vcs-sub011/utils/merkletrie/noder"
)

// dir values represent directory-like noders in a merkle trie built from
// the string DSL New parses.
type dir struct {
	name     string
	children []noder.Noder // sorted by name
	hash     []byte        // memoized
}

// newDir returns a noder representing a directory with the given
// children. Children are copied and sorted by name.
func newDir(name string, children []noder.Noder) (*dir, error) {
	sorted := make([]noder.Noder, len(children))
	copy(sorted, children)
	sort.Sort(byName(sorted))

	return &dir{
		name:     name,
		children: sorted,
	}, nil
}

// The hash of a dir is the fnv64a digest of its sorted children's names
// and hashes concatenated; two dirs with the same (name, hash) children
// in the same order hash the same regardless of the dir's own name, so
// renaming a directory does not change its content hash.
func (d *dir) Hash() []byte {
	if d.hash == nil {
		h := fnv.New64a()
		for _, c := range d.children {
			h.Write([]byte(c.Name()))
			h.Write(c.Hash())
		}
		d.hash = h.Sum(nil)
	}

	return d.hash
}

func (d *dir) Name() string {
	return d.name
}

func (d *dir) IsDir() bool {
	return true
}

func (d *dir) Children() ([]noder.Noder, error) {
	return d.children, nil
}

func (d *dir) NumChildren() (int, error) {
	return len(d.children), nil
}

func (d *dir) Skip() bool {
	return false
}

const (
	dirStartMark  = '('
	dirEndMark    = ')'
	dirElementSep = ' '
)

// String returns a string formatted as: name(child1 child2 ...).
func (d *dir) String() string {
	var buf bytes.Buffer
	buf.WriteString(d.name)
	buf.WriteRune(dirStartMark)
	for i, c := range d.children {
		if i != 0 {
			buf.WriteRune(dirElementSep)
		}
		buf.WriteString(fmt.Sprint(c))
	}
	buf.WriteRune(dirEndMark)

	return buf.String()
}

// byName sorts noders by name.
type byName []noder.Noder

func (a byName) Len() int           { return len(a) }
func (a byName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byName) Less(i, j int) bool { return a[i].Name() < a[j].Name() }
