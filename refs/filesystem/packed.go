package filesystem

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

// decodePackedRefs parses a packed-refs file. Comment lines (#...) and
// peeled-tag marker lines (^...) are recognized and ignored; this store
// does not cache peeled tag targets.
func decodePackedRefs(b []byte) ([]*refs.Reference, error) {
	var out []*refs.Reference

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}

		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: malformed packed-refs line %q", plumbing.ErrCorruptObject, line)
		}

		hash, ok := plumbing.FromHex(line[:sp])
		if !ok {
			return nil, fmt.Errorf("%w: malformed packed-refs hash %q", plumbing.ErrCorruptObject, line[:sp])
		}

		name := refs.Name(line[sp+1:])
		out = append(out, refs.NewHashReference(name, hash))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// encodePackedRefs renders list as a packed-refs file, in the order
// given; writePackedRefs sorts list by name first for determinism.
func encodePackedRefs(list []*refs.Reference) []byte {
	var buf bytes.Buffer
	buf.WriteString("# pack-refs with: peeled fully-peeled sorted\n")
	for _, ref := range list {
		fmt.Fprintf(&buf, "%s %s\n", ref.Hash(), ref.Name())
	}
	return buf.Bytes()
}
