package merkletrie

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/statewalker/vcs-sub011/utils/merkletrie/noder"
)

// DiffTree compares the trees rooted at from and to and returns the list
// of changes needed to turn from into to. Either root may be nil,
// denoting an empty tree. Names are compared with noder.Path's ordering,
// and a directory whose hash matches on both sides is skipped entirely
// without visiting its children.
func DiffTree(from, to noder.Noder) (Changes, error) {
	var changes Changes
	if err := diffNode(nil, from, to, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func diffNode(prefix noder.Path, from, to noder.Noder, out *Changes) error {
	if from == nil && to == nil {
		return nil
	}

	if from != nil && (from.Skip() || (to != nil && to.Skip())) {
		return nil
	}

	if from == nil {
		return out.AddRecursiveInsert(appendPath(prefix, to))
	}
	if to == nil {
		return out.AddRecursiveDelete(appendPath(prefix, from))
	}

	if from.IsDir() != to.IsDir() {
		if err := out.AddRecursiveDelete(appendPath(prefix, from)); err != nil {
			return err
		}
		return out.AddRecursiveInsert(appendPath(prefix, to))
	}

	if !from.IsDir() {
		if !bytes.Equal(from.Hash(), to.Hash()) {
			*out = append(*out, NewModify(appendPath(prefix, from), appendPath(prefix, to)))
		}
		return nil
	}

	if bytes.Equal(from.Hash(), to.Hash()) {
		return nil
	}

	fromChildren, err := sortedChildren(from)
	if err != nil {
		return fmt.Errorf("cannot get children of %s: %w", from.Name(), err)
	}
	toChildren, err := sortedChildren(to)
	if err != nil {
		return fmt.Errorf("cannot get children of %s: %w", to.Name(), err)
	}

	childPrefix := appendPath(prefix, from)

	i, j := 0, 0
	for i < len(fromChildren) || j < len(toChildren) {
		switch {
		case i >= len(fromChildren):
			if err := diffNode(childPrefix, nil, toChildren[j], out); err != nil {
				return err
			}
			j++
		case j >= len(toChildren):
			if err := diffNode(childPrefix, fromChildren[i], nil, out); err != nil {
				return err
			}
			i++
		default:
			c := compareNoderNames(fromChildren[i].Name(), toChildren[j].Name())
			switch {
			case c < 0:
				if err := diffNode(childPrefix, fromChildren[i], nil, out); err != nil {
					return err
				}
				i++
			case c > 0:
				if err := diffNode(childPrefix, nil, toChildren[j], out); err != nil {
					return err
				}
				j++
			default:
				if err := diffNode(childPrefix, fromChildren[i], toChildren[j], out); err != nil {
					return err
				}
				i++
				j++
			}
		}
	}

	return nil
}

func sortedChildren(n noder.Noder) ([]noder.Noder, error) {
	children, err := n.Children()
	if err != nil {
		return nil, err
	}

	sorted := make([]noder.Noder, len(children))
	copy(sorted, children)
	sort.Slice(sorted, func(i, j int) bool {
		return compareNoderNames(sorted[i].Name(), sorted[j].Name()) < 0
	})

	return sorted, nil
}

func compareNoderNames(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func appendPath(prefix noder.Path, n noder.Noder) noder.Path {
	out := make(noder.Path, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = n
	return out
}
