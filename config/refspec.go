package config

import (
	"errors"
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

var (
	// ErrRefSpecMalformedSeparator is returned when a refspec doesn't
	// contain the ":" separator, or contains more than one.
	ErrRefSpecMalformedSeparator = errors.New("malformed refspec, separator is required")
	// ErrRefSpecMalformedWildcard is returned when the wildcard count
	// on either side of a refspec doesn't match.
	ErrRefSpecMalformedWildcard = errors.New("malformed refspec, mismatched number of wildcards")
)

const (
	refSpecWildcard  = "*"
	refSpecForce     = "+"
	refSpecSeparator = ":"
)

// RefSpec is a mapping from remote references to local ones, used by
// fetch and push. The format is an optional "+", followed by
// "<src>:<dst>", where <src> is the pattern for references on the
// remote side and <dst> is where those references land locally. The
// "+" tells git to update the reference even when it isn't a
// fast-forward. An empty <src> with a non-empty <dst> deletes the
// destination reference.
//
//	+refs/heads/*:refs/remotes/origin/*
type RefSpec string

// Validate checks that s is well formed.
func (s RefSpec) Validate() error {
	spec := string(s)
	if s.IsForceUpdate() {
		spec = spec[1:]
	}

	if strings.Count(spec, refSpecSeparator) != 1 {
		return ErrRefSpecMalformedSeparator
	}

	sep := strings.Index(spec, refSpecSeparator)
	src := spec[:sep]
	dst := spec[sep+1:]

	if dst == "" && src != "" {
		return ErrRefSpecMalformedSeparator
	}

	ws := strings.Count(src, refSpecWildcard)
	wd := strings.Count(dst, refSpecWildcard)
	if ws != wd || ws > 1 || wd > 1 {
		return ErrRefSpecMalformedWildcard
	}

	return nil
}

// IsForceUpdate reports whether non fast-forward updates are allowed.
func (s RefSpec) IsForceUpdate() bool {
	return len(s) > 0 && s[0] == refSpecForce[0]
}

// IsDelete reports whether s has an empty source, meaning a deletion
// of the destination reference.
func (s RefSpec) IsDelete() bool {
	return s.Src() == ""
}

// IsExactSHA1 reports whether the source side is a full object hash
// rather than a reference pattern.
func (s RefSpec) IsExactSHA1() bool {
	return plumbing.IsHash(s.Src())
}

// Src returns the source side of the refspec.
func (s RefSpec) Src() string {
	spec := string(s)
	start := 0
	if s.IsForceUpdate() {
		start = 1
	}
	end := strings.Index(spec, refSpecSeparator)
	return spec[start:end]
}

// Dst returns the destination reference for the given remote
// reference name n.
func (s RefSpec) Dst(n refs.Name) refs.Name {
	spec := string(s)
	start := strings.Index(spec, refSpecSeparator) + 1
	dst := spec[start:]
	src := s.Src()

	if !s.isGlob() {
		return refs.Name(dst)
	}

	name := n.String()
	ws := strings.Index(src, refSpecWildcard)
	wd := strings.Index(dst, refSpecWildcard)
	match := name[ws : len(name)-(len(src)-(ws+1))]

	return refs.Name(dst[:wd] + match + dst[wd+1:])
}

// Match reports whether n matches the source side of the refspec.
func (s RefSpec) Match(n refs.Name) bool {
	if !s.isGlob() {
		return s.matchExact(n)
	}
	return s.matchGlob(n)
}

// Reverse swaps the source and destination sides.
func (s RefSpec) Reverse() RefSpec {
	spec := string(s)
	sep := strings.Index(spec, refSpecSeparator)
	return RefSpec(spec[sep+1:] + refSpecSeparator + spec[:sep])
}

func (s RefSpec) String() string {
	return string(s)
}

func (s RefSpec) isGlob() bool {
	return strings.Contains(string(s), refSpecWildcard)
}

func (s RefSpec) matchExact(n refs.Name) bool {
	return s.Src() == n.String()
}

func (s RefSpec) matchGlob(n refs.Name) bool {
	src := s.Src()
	name := n.String()
	wildcard := strings.Index(src, refSpecWildcard)

	prefix := src[:wildcard]
	var suffix string
	if wildcard+1 < len(src) {
		suffix = src[wildcard+1:]
	}

	return len(name) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, suffix)
}

// MatchAny reports whether any of the given refspecs matches n.
func MatchAny(specs []RefSpec, n refs.Name) bool {
	for _, s := range specs {
		if s.Match(n) {
			return true
		}
	}
	return false
}
