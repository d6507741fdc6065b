package noder

import (
	"bytes"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NoChildren is a zero-length, non-nil slice of Noder, useful as the
// Children() return value of a leaf.
var NoChildren = make([]Noder, 0)

// Path values are a stack of nodes, outermost first, that locate a Noder
// inside a tree: the last element is the node itself, every earlier
// element one of its ancestors. A Path is itself a Noder, proxying to its
// last element, so a comparison in terms of Noder can report a full path
// on mismatch.
type Path []Noder

// String returns the full, slash-separated path.
func (p Path) String() string {
	var buf bytes.Buffer
	for i, e := range p {
		if i != 0 {
			buf.WriteRune('/')
		}
		buf.WriteString(e.Name())
	}
	return buf.String()
}

// Last returns the last element of the path: the node the path locates.
func (p Path) Last() Noder {
	return p[len(p)-1]
}

func (p Path) Name() string {
	return p.Last().Name()
}

func (p Path) Hash() []byte {
	return p.Last().Hash()
}

func (p Path) IsDir() bool {
	return p.Last().IsDir()
}

func (p Path) Children() ([]Noder, error) {
	return p.Last().Children()
}

func (p Path) NumChildren() (int, error) {
	return p.Last().NumChildren()
}

func (p Path) Skip() bool {
	return p.Last().Skip()
}

// Compare orders p against other component by component. Names are
// compared after NFC normalization first, so two paths that spell the
// same logical name with different combining-character sequences sort
// adjacently; a tie on the normalized form falls back to comparing the
// raw, un-normalized bytes so the order stays total and deterministic.
func (p Path) Compare(other Path) int {
	a, b := toStrings(p), toStrings(other)
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareNames(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func toStrings(p Path) []string {
	out := make([]string, len(p))
	for i, n := range p {
		out[i] = n.Name()
	}
	return out
}

func compareNames(a, b string) int {
	if c := strings.Compare(norm.NFC.String(a), norm.NFC.String(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
