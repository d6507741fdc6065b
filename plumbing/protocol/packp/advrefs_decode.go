package packp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
	"github.com/statewalker/vcs-sub011/refs"
)

const hashSize = 40

var (
	advEOL     = []byte("\n")
	advSP      = []byte(" ")
	advNull    = []byte("\x00")
	advPeeled  = []byte("^{}")
	advShallow = []byte("shallow ")
	noHeadMark = []byte(" capabilities^{}\x00")
)

// ErrEmptyAdvRefs is returned by Decode when the message announces no
// references at all, not even a zero-id placeholder (an HTTP server
// answering an empty repository with a bare flush-pkt).
var ErrEmptyAdvRefs = errors.New("empty advertised-ref message")

// Decode reads the next advertised-refs message from r and stores it
// in a.
func (a *AdvRefs) Decode(r io.Reader) error {
	d := &advRefsDecoder{s: pktline.NewScanner(r), data: a}
	return d.decode()
}

type advRefsDecoder struct {
	s     *pktline.Scanner
	line  []byte
	nLine int
	hash  plumbing.Hash
	err   error
	data  *AdvRefs
}

func (d *advRefsDecoder) decode() error {
	for state := decodeFirstHash; state != nil; {
		state = state(d)
	}
	if d.err == nil && d.data.Head == nil {
		d.data.resolveHead(d.hash)
	}
	return d.err
}

type advDecoderStateFn func(*advRefsDecoder) advDecoderStateFn

func (d *advRefsDecoder) error(format string, a ...interface{}) {
	d.err = fmt.Errorf("pkt-line %d: %s: %q", d.nLine, fmt.Sprintf(format, a...), d.line)
}

func (d *advRefsDecoder) nextLine() bool {
	d.nLine++

	if !d.s.Scan() {
		if d.err = d.s.Err(); d.err != nil {
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

func isAdvFlush(line []byte) bool {
	return len(line) == 0
}

// The first pkt-line is either a zero hash followed by the
// "capabilities^{}" marker, announcing an empty repository, or a real
// hash followed by the first advertised reference.
func decodeFirstHash(d *advRefsDecoder) advDecoderStateFn {
	if ok := d.nextLine(); !ok {
		return nil
	}
	if isAdvFlush(d.line) {
		d.err = ErrEmptyAdvRefs
		return nil
	}

	if len(d.line) < hashSize {
		d.error("cannot read hash, pkt-line too short")
		return nil
	}

	h, ok := readHexHash(d.line[:hashSize])
	if !ok {
		d.error("invalid hash text")
		return nil
	}
	d.hash = h
	d.line = d.line[hashSize:]

	if d.hash == plumbing.ZeroHash {
		return decodeNoRefs
	}
	return decodeFirstRef
}

func decodeNoRefs(d *advRefsDecoder) advDecoderStateFn {
	if !bytes.HasPrefix(d.line, noHeadMark) {
		d.error("malformed zero-id ref")
		return nil
	}
	d.line = d.line[len(noHeadMark):]

	return decodeCaps
}

func decodeFirstRef(d *advRefsDecoder) advDecoderStateFn {
	if !bytes.HasPrefix(d.line, advSP) {
		d.error("no space after hash")
		return nil
	}
	d.line = d.line[1:]

	chunks := bytes.SplitN(d.line, advNull, 2)
	if len(chunks) < 2 {
		d.error("NUL not found")
		return nil
	}
	name := refs.Name(chunks[0])
	d.line = chunks[1]

	if name == refs.HEAD {
		h := d.hash
		d.data.Head = &h
	} else {
		d.data.References[name] = d.hash
	}

	return decodeCaps
}

func decodeCaps(d *advRefsDecoder) advDecoderStateFn {
	if len(d.line) > 0 {
		d.data.Capabilities.Decode(string(d.line))
	}
	d.data.resolveSymrefHead()
	return decodeOtherRefs
}

// Every remaining ref line is either a tip or a peeled annotated tag
// ("<hash> <ref>^{}"), until a "shallow " line or the closing flush.
func decodeOtherRefs(d *advRefsDecoder) advDecoderStateFn {
	if ok := d.nextLine(); !ok {
		return nil
	}

	if bytes.HasPrefix(d.line, advShallow) {
		return decodeAdvShallow
	}
	if isAdvFlush(d.line) {
		return nil
	}

	into := d.data.References
	line := d.line
	if bytes.HasSuffix(line, advPeeled) {
		line = bytes.TrimSuffix(line, advPeeled)
		into = d.data.Peeled
	}

	name, hash, err := readRefLine(line)
	if err != nil {
		d.error("%s", err)
		return nil
	}
	into[name] = hash

	return decodeOtherRefs
}

func decodeAdvShallow(d *advRefsDecoder) advDecoderStateFn {
	if !bytes.HasPrefix(d.line, advShallow) {
		d.error("malformed shallow line")
		return nil
	}
	rest := bytes.TrimPrefix(d.line, advShallow)
	if len(rest) != hashSize {
		d.error("malformed shallow hash")
		return nil
	}

	h, ok := readHexHash(rest)
	if !ok {
		d.error("invalid shallow hash text")
		return nil
	}
	d.data.Shallows = append(d.data.Shallows, h)

	if ok := d.nextLine(); !ok {
		return nil
	}
	if isAdvFlush(d.line) {
		return nil
	}
	return decodeAdvShallow
}

func readRefLine(data []byte) (refs.Name, plumbing.Hash, error) {
	parts := bytes.SplitN(data, advSP, 2)
	if len(parts) != 2 {
		return "", plumbing.ZeroHash, fmt.Errorf("malformed ref line: no space found")
	}
	h, ok := readHexHash(parts[0])
	if !ok {
		return "", plumbing.ZeroHash, fmt.Errorf("invalid hash text: %s", parts[0])
	}
	return refs.Name(parts[1]), h, nil
}

func readHexHash(text []byte) (plumbing.Hash, bool) {
	var h plumbing.Hash
	if len(text) != hashSize {
		return plumbing.ZeroHash, false
	}
	if _, err := hex.Decode(h[:], text); err != nil {
		return plumbing.ZeroHash, false
	}
	return h, true
}
