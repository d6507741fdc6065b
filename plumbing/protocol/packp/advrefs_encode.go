package packp

import (
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

// Encode writes the advertised-refs encoding of a to w.
func (a *AdvRefs) Encode(w io.Writer) error {
	pw := pktline.NewWriter(w)

	a.Capabilities.Sort()
	caps := a.Capabilities.String()

	lines := a.sortedReferences()

	if a.Head == nil && len(lines) == 0 {
		if _, err := pw.WritePacketf("%s capabilities^{}\x00%s\n", plumbing.ZeroHash, caps); err != nil {
			return err
		}
		return pw.WriteFlush()
	}

	first := true
	writeLine := func(name string, hash plumbing.Hash) error {
		if first {
			first = false
			_, err := pw.WritePacketf("%s %s\x00%s\n", hash, name, caps)
			return err
		}
		_, err := pw.WritePacketf("%s %s\n", hash, name)
		return err
	}

	if a.Head != nil {
		if err := writeLine("HEAD", *a.Head); err != nil {
			return err
		}
	}

	for _, l := range lines {
		if err := writeLine(string(l.name), l.hash); err != nil {
			return err
		}
	}

	for _, h := range a.Shallows {
		if _, err := pw.WritePacketf("shallow %s\n", h); err != nil {
			return err
		}
	}

	return pw.WriteFlush()
}
