package config

import (
	"errors"

	format "github.com/statewalker/vcs-sub011/plumbing/format/config"
	"github.com/statewalker/vcs-sub011/refs"
)

// ErrBranchEmptyName is returned when a branch config has no name.
var ErrBranchEmptyName = errors.New("branch config: empty name")

// ErrBranchInvalidMerge is returned when a branch's merge target isn't
// a branch reference.
var ErrBranchInvalidMerge = errors.New("branch config: merge must be a branch reference")

const (
	remoteKey = "remote"
	mergeKey  = "merge"
	rebaseKey = "rebase"
)

// Branch holds the branch.<name> section of a config file: the
// upstream remote and reference tracked by a local branch.
type Branch struct {
	// Name of the branch.
	Name string
	// Remote name of the remote to fetch from when on this branch.
	Remote string
	// Merge is the remote branch reference to merge on pull.
	Merge refs.Name
	// Rebase instructs pull to rebase instead of merge; git accepts
	// "true", "false" and "interactive".
	Rebase string

	raw *format.Subsection
}

// Validate checks that b is well formed.
func (b *Branch) Validate() error {
	if b.Name == "" {
		return ErrBranchEmptyName
	}

	if b.Merge != "" && !b.Merge.IsBranch() {
		return ErrBranchInvalidMerge
	}

	return nil
}

func (b *Branch) unmarshal(s *format.Subsection) error {
	b.raw = s
	b.Name = s.Name
	b.Remote = s.Option(remoteKey)
	b.Merge = refs.Name(s.Option(mergeKey))
	b.Rebase = s.Option(rebaseKey)

	return b.Validate()
}

func (b *Branch) marshal() *format.Subsection {
	if b.raw == nil {
		b.raw = &format.Subsection{}
	}

	b.raw.Name = b.Name
	if b.Remote == "" {
		b.raw.RemoveOption(remoteKey)
	} else {
		b.raw.SetOption(remoteKey, b.Remote)
	}

	if b.Merge == "" {
		b.raw.RemoveOption(mergeKey)
	} else {
		b.raw.SetOption(mergeKey, string(b.Merge))
	}

	if b.Rebase == "" {
		b.raw.RemoveOption(rebaseKey)
	} else {
		b.raw.SetOption(rebaseKey, b.Rebase)
	}

	return b.raw
}
