// Package packp implements encoding and decoding of the smart HTTP/git
// wire protocol's non-packfile messages: capability negotiation,
// reference advertisement and upload/receive requests.
package packp

import (
	"sort"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

// symrefCapability carries HEAD's resolved branch name to a peer that
// didn't advertise the symref capability itself.
const symrefCapability = "symref"

// AdvRefs values represent the information transmitted on an
// advertised-refs message. Values from this type are not zero-value
// safe, use NewAdvRefs instead.
type AdvRefs struct {
	// Head is the hash HEAD resolves to, nil if HEAD is absent or
	// unborn.
	Head *plumbing.Hash
	// Capabilities are the capabilities supported by the sender of the
	// message.
	Capabilities *Capabilities
	// References are the hashes of every advertised reference, indexed
	// by name.
	References map[refs.Name]plumbing.Hash
	// Peeled holds, for each annotated tag in References, the hash its
	// tag object itself points at, indexed by the same name.
	Peeled map[refs.Name]plumbing.Hash
	// Shallows lists the commits the sender's history is shallow at.
	Shallows []plumbing.Hash
}

// NewAdvRefs returns a pointer to a new AdvRefs value, ready to be
// used.
func NewAdvRefs() *AdvRefs {
	return &AdvRefs{
		Capabilities: NewCapabilities(),
		References:   make(map[refs.Name]plumbing.Hash),
		Peeled:       make(map[refs.Name]plumbing.Hash),
	}
}

// AddReference adds a reference to a and sets Head when it resolves
// HEAD. Symbolic references are not sent directly: the target of a
// symbolic HEAD is instead captured as a symref capability value, the
// way resolveHead expects to find it.
func (a *AdvRefs) AddReference(r *refs.Reference) error {
	if r.Type() == refs.SymbolicReference {
		if r.Name() == refs.HEAD {
			a.Capabilities.Add(symrefCapability, "HEAD:"+string(r.Target()))
		}
		return nil
	}

	a.References[r.Name()] = r.Hash()
	return nil
}

// AddPeeled records that the annotated tag named name peels to hash.
func (a *AdvRefs) AddPeeled(name refs.Name, hash plumbing.Hash) {
	a.Peeled[name] = hash
}

// resolveHead fills in a.Head from the advertised references, the way
// a server that never sent a symref capability for HEAD is resolved by
// a client: try refs/heads/master first, then walk the remaining
// references in alphabetical order, and take whichever one shares
// HEAD's hash. This only runs when the symref capability didn't
// already name HEAD's target directly.
func (a *AdvRefs) resolveHead(headHash plumbing.Hash) {
	if headHash == plumbing.ZeroHash {
		return
	}

	if hash, ok := a.References[refs.NewBranchName("master")]; ok && hash == headHash {
		a.Head = &headHash
		return
	}

	var names []string
	for name := range a.References {
		names = append(names, string(name))
	}
	sort.Strings(names)

	for _, name := range names {
		if a.References[refs.Name(name)] == headHash {
			a.Head = &headHash
			return
		}
	}
}

// resolveSymrefHead sets Head from a symref capability naming HEAD's
// target, when that target is itself among the advertised references.
func (a *AdvRefs) resolveSymrefHead() {
	target := a.Capabilities.SymbolicReference("HEAD")
	if target == "" {
		return
	}

	if hash, ok := a.References[refs.Name(target)]; ok {
		h := hash
		a.Head = &h
	}
}

// IsEmpty reports whether a advertises no references at all, the way a
// freshly initialized, history-less repository answers a reference
// advertisement request.
func (a *AdvRefs) IsEmpty() bool {
	return len(a.References) == 0
}

// refLine pairs a reference name with the hash it, or its peeled form,
// advertises.
type refLine struct {
	name refs.Name
	hash plumbing.Hash
}

// sortedReferences returns every reference in a, each annotated tag
// immediately followed by a synthetic "name^{}" entry for its peeled
// hash, sorted the way `git ls-remote` prints them.
func (a *AdvRefs) sortedReferences() []refLine {
	names := make([]string, 0, len(a.References))
	for name := range a.References {
		names = append(names, string(name))
	}
	sort.Strings(names)

	lines := make([]refLine, 0, len(names)+len(a.Peeled))
	for _, name := range names {
		n := refs.Name(name)
		lines = append(lines, refLine{name: n, hash: a.References[n]})
		if peeled, ok := a.Peeled[n]; ok {
			lines = append(lines, refLine{name: refs.Name(name + "^{}"), hash: peeled})
		}
	}
	return lines
}
