// Package refs implements the reference namespace: direct and symbolic
// references with loose-shadows-packed precedence, compare-and-swap
// updates, and an append-only reflog.
package refs

import (
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// ReferenceType distinguishes a direct reference (names an object id)
// from a symbolic one (names another reference).
type ReferenceType int8

const (
	InvalidReference ReferenceType = iota
	HashReference
	SymbolicReference
)

// Name is the full path of a reference, e.g. "refs/heads/main" or the
// bare "HEAD".
type Name string

// HEAD is the name of the reference that tracks the current branch (or
// commit, when detached).
const HEAD Name = "HEAD"

const (
	headsPrefix   = "refs/heads/"
	tagsPrefix    = "refs/tags/"
	remotesPrefix = "refs/remotes/"
	notesPrefix   = "refs/notes/"
)

func (n Name) String() string { return string(n) }

// IsBranch reports whether n lives under refs/heads/.
func (n Name) IsBranch() bool { return strings.HasPrefix(string(n), headsPrefix) }

// IsTag reports whether n lives under refs/tags/.
func (n Name) IsTag() bool { return strings.HasPrefix(string(n), tagsPrefix) }

// IsRemote reports whether n lives under refs/remotes/.
func (n Name) IsRemote() bool { return strings.HasPrefix(string(n), remotesPrefix) }

// IsNote reports whether n lives under refs/notes/.
func (n Name) IsNote() bool { return strings.HasPrefix(string(n), notesPrefix) }

// Short returns n with its well-known prefix stripped, e.g.
// "refs/heads/main" -> "main".
func (n Name) Short() string {
	s := string(n)
	for _, prefix := range []string{headsPrefix, tagsPrefix, remotesPrefix, notesPrefix, "refs/"} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimPrefix(s, prefix)
		}
	}
	return s
}

// NewBranchName builds the canonical refs/heads/<name> reference name.
func NewBranchName(name string) Name { return Name(headsPrefix + name) }

// NewTagName builds the canonical refs/tags/<name> reference name.
func NewTagName(name string) Name { return Name(tagsPrefix + name) }

// NewRemoteName builds the canonical refs/remotes/<remote>/<branch>
// reference name.
func NewRemoteName(remote, branch string) Name {
	return Name(remotesPrefix + remote + "/" + branch)
}

// Reference is either a direct reference to an object id, or a symbolic
// reference to another reference name. Use NewHashReference or
// NewSymbolicReference to construct one; the zero value is invalid.
type Reference struct {
	typ    ReferenceType
	name   Name
	target plumbing.Hash
	ref    Name
}

// NewHashReference returns a direct reference from name to target.
func NewHashReference(name Name, target plumbing.Hash) *Reference {
	return &Reference{typ: HashReference, name: name, target: target}
}

// NewSymbolicReference returns a reference from name that points at
// another reference, target.
func NewSymbolicReference(name, target Name) *Reference {
	return &Reference{typ: SymbolicReference, name: name, ref: target}
}

func (r *Reference) Type() ReferenceType { return r.typ }
func (r *Reference) Name() Name          { return r.name }

// Hash returns the target object id of a direct reference; it is the
// zero hash for a symbolic reference.
func (r *Reference) Hash() plumbing.Hash { return r.target }

// Target returns the name a symbolic reference points to; it is empty
// for a direct reference.
func (r *Reference) Target() Name { return r.ref }

// String renders r the way Git's `show-ref` or a packed-refs line
// would: "<hash> <name>" for a direct reference, "ref: <target>" for a
// symbolic one.
func (r *Reference) String() string {
	switch r.typ {
	case HashReference:
		return r.target.String() + " " + string(r.name)
	case SymbolicReference:
		return "ref: " + string(r.ref)
	default:
		return "<invalid reference>"
	}
}
