package packp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/refs"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

// ErrEmptyUpdateRequest is returned by Decode when the input holds no
// pkt-lines at all.
var ErrEmptyUpdateRequest = fmt.Errorf("empty update-request message")

// Decode reads the next update-request message from r and stores it
// in req.
func (req *UpdateRequests) Decode(r io.Reader) error {
	d := &updReqDecoder{s: pktline.NewScanner(r), data: req}
	return d.decode()
}

type updReqDecoder struct {
	s     *pktline.Scanner
	line  []byte
	nLine int
	err   error
	data  *UpdateRequests
}

func (d *updReqDecoder) decode() error {
	for state := decodeShallowOrCommand; state != nil; {
		state = state(d)
	}
	if d.err == nil {
		d.err = d.data.validate()
	}
	return d.err
}

type updReqDecoderStateFn func(*updReqDecoder) updReqDecoderStateFn

func (d *updReqDecoder) error(format string, a ...interface{}) {
	d.err = fmt.Errorf("pkt-line %d: %s: %q", d.nLine, fmt.Sprintf(format, a...), d.line)
}

func (d *updReqDecoder) nextLine() bool {
	d.nLine++

	if !d.s.Scan() {
		if d.err = d.s.Err(); d.err != nil {
			return false
		}
		if d.nLine == 1 {
			d.err = ErrEmptyUpdateRequest
			return false
		}
		d.error("unexpected EOF")
		return false
	}

	if d.s.Len() == pktline.Flush {
		d.line = nil
		return true
	}

	d.line = bytes.TrimSuffix(d.s.Bytes(), advEOL)
	return true
}

func decodeShallowOrCommand(d *updReqDecoder) updReqDecoderStateFn {
	if ok := d.nextLine(); !ok {
		return nil
	}

	if bytes.HasPrefix(d.line, advShallow) {
		rest := bytes.TrimPrefix(d.line, advShallow)
		h, ok := readHexHash(rest)
		if !ok {
			d.error("invalid shallow hash")
			return nil
		}
		d.data.Shallow = &h
		return decodeFirstCommand
	}

	return decodeFirstCommandFrom(d)
}

func decodeFirstCommand(d *updReqDecoder) updReqDecoderStateFn {
	if ok := d.nextLine(); !ok {
		return nil
	}
	return decodeFirstCommandFrom(d)
}

func decodeFirstCommandFrom(d *updReqDecoder) updReqDecoderStateFn {
	line := d.line
	nulAt := bytes.IndexByte(line, 0)
	var caps []byte
	if nulAt >= 0 {
		caps = line[nulAt+1:]
		line = line[:nulAt]
	}

	c, err := parseCommandLine(line)
	if err != nil {
		d.error("%s", err)
		return nil
	}
	d.data.Commands = append(d.data.Commands, c)

	if len(caps) > 0 {
		d.data.Capabilities.Decode(string(caps))
	}

	return decodeOtherCommands
}

func decodeOtherCommands(d *updReqDecoder) updReqDecoderStateFn {
	if ok := d.nextLine(); !ok {
		return nil
	}
	if isAdvFlush(d.line) {
		return nil
	}

	c, err := parseCommandLine(d.line)
	if err != nil {
		d.error("%s", err)
		return nil
	}
	d.data.Commands = append(d.data.Commands, c)

	return decodeOtherCommands
}

func parseCommandLine(line []byte) (*Command, error) {
	parts := bytes.SplitN(line, advSP, 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed command line: %q", line)
	}

	old, ok := readHexHash(parts[0])
	if !ok {
		return nil, fmt.Errorf("invalid old object id: %q", parts[0])
	}
	newHash, ok := readHexHash(parts[1])
	if !ok {
		return nil, fmt.Errorf("invalid new object id: %q", parts[1])
	}

	return &Command{Name: refs.Name(parts[2]), Old: old, New: newHash}, nil
}
