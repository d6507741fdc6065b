package packp

import (
	"errors"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

// ErrEmptyCommands is returned by UpdateRequests.validate when a
// request carries no ref update at all.
var ErrEmptyCommands = errors.New("commands cannot be empty")

// ErrMalformedCommand is returned when a Command's old and new hash
// are both the zero hash: neither a create, update nor delete.
var ErrMalformedCommand = errors.New("malformed command: old and new are both the zero hash")

// UpdateRequests represents a git-receive-pack reference update
// request: the set of ref changes a push wants to apply, followed by
// the packfile carrying the objects those changes need.
type UpdateRequests struct {
	Capabilities *Capabilities
	Commands     []*Command
	Shallow      *plumbing.Hash
}

// NewUpdateRequests returns an UpdateRequests ready to be filled in.
func NewUpdateRequests() *UpdateRequests {
	return &UpdateRequests{
		Capabilities: NewCapabilities(),
	}
}

func (req *UpdateRequests) validate() error {
	if len(req.Commands) == 0 {
		return ErrEmptyCommands
	}

	for _, c := range req.Commands {
		if err := c.validate(); err != nil {
			return err
		}
	}

	return nil
}

// Action classifies the change a Command makes to a reference.
type Action string

const (
	Create  Action = "create"
	Update  Action = "update"
	Delete  Action = "delete"
	Invalid Action = "invalid"
)

// Command is a single reference change within an UpdateRequests: Old
// is the value the sender believes the reference currently holds (the
// zero hash for a ref that doesn't exist yet), New is the value it
// should hold afterwards (the zero hash to delete it).
type Command struct {
	Name refs.Name
	Old  plumbing.Hash
	New  plumbing.Hash
}

// Action reports whether c creates, updates or deletes its reference.
func (c *Command) Action() Action {
	switch {
	case c.Old == plumbing.ZeroHash && c.New == plumbing.ZeroHash:
		return Invalid
	case c.Old == plumbing.ZeroHash:
		return Create
	case c.New == plumbing.ZeroHash:
		return Delete
	default:
		return Update
	}
}

func (c *Command) validate() error {
	if c.Action() == Invalid {
		return ErrMalformedCommand
	}
	return nil
}
