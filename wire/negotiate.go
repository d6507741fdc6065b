package wire

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing"
)

func parseHash(text string) (plumbing.Hash, bool) {
	var h plumbing.Hash
	if len(text) != len(h)*2 {
		return plumbing.ZeroHash, false
	}
	if _, err := hex.Decode(h[:], []byte(text)); err != nil {
		return plumbing.ZeroHash, false
	}
	return h, true
}

// sendHaves writes haves as "have <id>" lines, a flush and a closing
// "done", the client side of the fetch negotiation. This module
// doesn't offer multi_ack: the server replies with a single ACK or
// NAK once negotiation ends, not per batch.
func sendHaves(d *Duplex, haves []plumbing.Hash) error {
	for _, h := range haves {
		if err := d.WriteFrame([]byte(fmt.Sprintf("have %s\n", h))); err != nil {
			return err
		}
	}
	if len(haves) > 0 {
		if err := d.WriteFlush(); err != nil {
			return err
		}
	}
	return d.WriteFrame([]byte("done\n"))
}

// readAckNak reads the server's answer to sendHaves: a common ancestor
// hash and true if the server found one, or the zero hash and false on
// NAK.
func readAckNak(d *Duplex) (plumbing.Hash, bool, error) {
	line, err := d.ReadFrame()
	if err == ErrFlush {
		return plumbing.ZeroHash, false, nil
	}
	if err != nil {
		return plumbing.ZeroHash, false, err
	}

	text := strings.TrimSuffix(string(line), "\n")
	if text == "NAK" {
		return plumbing.ZeroHash, false, nil
	}

	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] != "ACK" {
		return plumbing.ZeroHash, false, &ProtocolError{Op: "negotiate", Err: fmt.Errorf("unexpected response %q", text)}
	}

	h, ok := parseHash(fields[1])
	if !ok {
		return plumbing.ZeroHash, false, &ProtocolError{Op: "negotiate", Err: fmt.Errorf("malformed ACK line %q", text)}
	}
	return h, true, nil
}

// serveNegotiate is the server side of sendHaves/readAckNak: it reads
// have lines until the client sends "done", asking haveFn whether each
// one names an object the server already has, then answers with the
// last one haveFn accepted (ACK) or NAK if none were.
func serveNegotiate(d *Duplex, haveFn func(h plumbing.Hash) bool) (plumbing.Hash, bool, error) {
	var common plumbing.Hash
	found := false

	for {
		line, err := d.ReadFrame()
		if err == ErrFlush {
			continue
		}
		if err != nil {
			return plumbing.ZeroHash, false, err
		}

		text := strings.TrimSuffix(string(line), "\n")
		if text == "done" {
			break
		}

		rest, ok := strings.CutPrefix(text, "have ")
		if !ok {
			return plumbing.ZeroHash, false, &ProtocolError{Op: "negotiate", Err: fmt.Errorf("unexpected line %q", text)}
		}
		h, ok := parseHash(rest)
		if !ok {
			return plumbing.ZeroHash, false, &ProtocolError{Op: "negotiate", Err: fmt.Errorf("malformed have line %q", text)}
		}
		if haveFn(h) {
			common = h
			found = true
		}
	}

	if found {
		if err := d.WriteFrame([]byte(fmt.Sprintf("ACK %s\n", common))); err != nil {
			return plumbing.ZeroHash, false, err
		}
		return common, true, nil
	}

	if err := d.WriteFrame([]byte("NAK\n")); err != nil {
		return plumbing.ZeroHash, false, err
	}
	return plumbing.ZeroHash, false, nil
}
