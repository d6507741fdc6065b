package merkletrie

import (
	"errors"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/utils/merkletrie/noder"
)

// ErrEmptyFileName is returned when building a Change from an empty path.
var ErrEmptyFileName = errors.New("empty filename")

// Action is the kind of change between two trees' corresponding paths.
type Action int

const (
	Insert Action = iota
	Delete
	Modify
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "Insert"
	case Delete:
		return "Delete"
	case Modify:
		return "Modify"
	default:
		panic(fmt.Sprintf("unsupported action: %d", a))
	}
}

// Change is one difference between two trees: From is the path in the
// source tree (nil for Insert), To is the path in the target tree (nil
// for Delete); both set means Modify.
type Change struct {
	From noder.Path
	To   noder.Path
}

// NewInsert returns a Change recording that n was inserted.
func NewInsert(n noder.Path) *Change { return &Change{To: n} }

// NewDelete returns a Change recording that n was deleted.
func NewDelete(n noder.Path) *Change { return &Change{From: n} }

// NewModify returns a Change recording that a was modified into b.
func NewModify(a, b noder.Path) *Change { return &Change{From: a, To: b} }

// Action classifies the change based on which of From/To are set.
func (c *Change) Action() (Action, error) {
	if c.From == nil && c.To == nil {
		return Action(0), fmt.Errorf("malformed change: nil from and to")
	}
	if c.From == nil {
		return Insert, nil
	}
	if c.To == nil {
		return Delete, nil
	}
	return Modify, nil
}

func (c *Change) String() string {
	action, err := c.Action()
	if err != nil {
		panic(err)
	}

	var path noder.Path
	if action == Delete {
		path = c.From
	} else {
		path = c.To
	}

	return fmt.Sprintf("<%s %s>", action, path.String())
}

// Changes is an ordered list of Change values produced by DiffTree.
type Changes []*Change

// NewChanges returns an empty Changes value.
func NewChanges() Changes {
	return Changes{}
}

// AddRecursiveInsert appends an Insert change for root and, if root is a
// directory, for every node in its subtree.
func (l *Changes) AddRecursiveInsert(root noder.Path) error {
	return l.addRecursive(root, NewInsert)
}

// AddRecursiveDelete appends a Delete change for root and, if root is a
// directory, for every node in its subtree.
func (l *Changes) AddRecursiveDelete(root noder.Path) error {
	return l.addRecursive(root, NewDelete)
}

func (l *Changes) addRecursive(root noder.Path, newChange func(noder.Path) *Change) error {
	if len(root) == 0 {
		return ErrEmptyFileName
	}
	if root.Last().Name() == "" {
		return ErrEmptyFileName
	}

	*l = append(*l, newChange(root))

	if !root.IsDir() {
		return nil
	}

	iter, err := NewIterFromPath(root)
	if err != nil {
		return err
	}

	for {
		p, err := iter.Step()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		*l = append(*l, newChange(p))
	}
}
