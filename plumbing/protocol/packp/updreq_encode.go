package packp

import (
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

// Encode writes the update-request encoding of req to w.
func (req *UpdateRequests) Encode(w io.Writer) error {
	if err := req.validate(); err != nil {
		return err
	}

	pw := pktline.NewWriter(w)

	if req.Shallow != nil {
		if _, err := pw.WritePacketf("shallow %s\n", *req.Shallow); err != nil {
			return fmt.Errorf("encoding shallow line: %w", err)
		}
	}

	req.Capabilities.Sort()
	caps := req.Capabilities.String()

	first := req.Commands[0]
	if caps == "" {
		if _, err := pw.WritePacketf("%s %s %s\n", first.Old, first.New, first.Name); err != nil {
			return fmt.Errorf("encoding first command: %w", err)
		}
	} else {
		if _, err := pw.WritePacketf("%s %s %s\x00%s\n", first.Old, first.New, first.Name, caps); err != nil {
			return fmt.Errorf("encoding first command: %w", err)
		}
	}

	for _, c := range req.Commands[1:] {
		if _, err := pw.WritePacketf("%s %s %s\n", c.Old, c.New, c.Name); err != nil {
			return fmt.Errorf("encoding command %s: %w", c.Name, err)
		}
	}

	return pw.WriteFlush()
}
