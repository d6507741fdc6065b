// Package index adapts a staged index.Index into a noder.Noder tree, so
// the same difftree algorithm that diffs two worktrees can diff a
// worktree against what is staged, or a staged tree against a commit.
package index

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing/format/index"
	"github.com/statewalker/vcs-sub011/utils/merkletrie/noder"
)

// IsEquals reports whether two noder.Hasher leaves produced by this
// package carry the same content hash. A directory never equals
// anything, since directories have no hash of their own: their identity
// is carried entirely by their children.
func IsEquals(a, b noder.Hasher) bool {
	pathA := a.(noder.Path)
	pathB := b.(noder.Path)
	if pathA[len(pathA)-1].IsDir() || pathB[len(pathB)-1].IsDir() {
		return false
	}

	return bytes.Equal(a.Hash(), b.Hash())
}

// Node is a noder.Noder view of one path in a staged index.Index: either
// one of its file entries, or a directory synthesized from the common
// prefix of several entries.
type Node struct {
	index  *index.Index
	parent string
	name   string
	entry  *index.Entry
	isDir  bool
}

// NewRootNode returns the root Node of idx.
func NewRootNode(idx *index.Index) (*Node, error) {
	return &Node{index: idx, isDir: true}, nil
}

func (n *Node) String() string {
	return n.fullpath()
}

// Hash returns the blob hash and file mode of the entry this node
// represents, concatenated as filesystem.node does; directories have no
// hash.
func (n *Node) Hash() []byte {
	if n.IsDir() {
		return nil
	}

	return append(n.entry.Hash.Bytes(), n.entry.Mode.Bytes()...)
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) IsDir() bool {
	return n.isDir
}

func (n *Node) Skip() bool {
	return false
}

// Children returns the direct children of a directory node: index
// entries whose path has this node's path as a prefix, one level deep,
// with deeper entries folded into synthesized directory nodes.
func (n *Node) Children() ([]noder.Noder, error) {
	path := n.fullpath()
	dirs := make(map[string]bool)

	var c []noder.Noder
	for _, e := range n.index.Entries {
		if e.Name == path {
			continue
		}

		prefix := path
		if prefix != "" {
			prefix += "/"
		}

		if !strings.HasPrefix(e.Name, prefix) {
			continue
		}

		name := e.Name[len(path):]
		if len(name) != 0 && name[0] == '/' {
			name = name[1:]
		}

		parts := strings.Split(name, "/")
		if len(parts) > 1 {
			dirs[parts[0]] = true
			continue
		}

		c = append(c, &Node{
			index:  n.index,
			parent: path,
			name:   name,
			entry:  e,
		})
	}

	for dir := range dirs {
		c = append(c, &Node{
			index:  n.index,
			parent: path,
			name:   dir,
			isDir:  true,
		})
	}

	return c, nil
}

func (n *Node) NumChildren() (int, error) {
	files, err := n.Children()
	return len(files), err
}

func (n *Node) fullpath() string {
	return filepath.Join(n.parent, n.name)
}
