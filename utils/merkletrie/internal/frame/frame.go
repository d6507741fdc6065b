// Package frame holds one level of a tree walk: the sorted-by-name
// children of a node, with a cursor that the difftree iterator advances
// as it merges two trees' frames together.
package frame

import (
	"fmt"
	"sort"
	"strings"

	"github.com/statewalker/vcs-sub011/utils/merkletrie/noder"
)

// Frame is the sorted list of a node's children.
type Frame struct {
	nodes []noder.Noder
}

// New returns the Frame of n's children, sorted by name.
func New(n noder.Noder) (*Frame, error) {
	children, err := n.Children()
	if err != nil {
		return nil, fmt.Errorf("cannot get children of %s: %w", n.Name(), err)
	}

	sorted := make([]noder.Noder, len(children))
	copy(sorted, children)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.Compare(sorted[i].Name(), sorted[j].Name()) < 0
	})

	return &Frame{nodes: sorted}, nil
}

// Len returns the number of nodes still left in the frame.
func (f *Frame) Len() int {
	return len(f.nodes)
}

// First returns the first remaining node, without removing it.
func (f *Frame) First() (noder.Noder, bool) {
	if len(f.nodes) == 0 {
		return nil, false
	}
	return f.nodes[0], true
}

// Drop removes the first node from the frame, if any.
func (f *Frame) Drop() {
	if len(f.nodes) == 0 {
		return
	}
	f.nodes = f.nodes[1:]
}

// String returns a JSON-array-like rendering of the remaining node names,
// useful for test assertions and debugging.
func (f *Frame) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range f.nodes {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(n.Name())
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return b.String()
}
