// Package sideband implements the side-band mechanism the pack
// protocol uses to multiplex a packfile, progress text and error
// messages onto a single connection while a fetch or push is
// streaming.
package sideband

import (
	"errors"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

// Channel identifies which of the three side-band streams a pkt-line
// payload belongs to. It is always the payload's first byte.
type Channel byte

const (
	// PackData carries raw packfile bytes.
	PackData Channel = 1
	// ProgressMessage carries human-readable progress text, normally
	// relayed to the user's terminal rather than parsed.
	ProgressMessage Channel = 2
	// ErrorMessage carries a fatal error from the remote end; receiving
	// one aborts the transfer.
	ErrorMessage Channel = 3
)

// WithPayload prepends ch's channel byte to p, ready to be written as
// a single pkt-line.
func (ch Channel) WithPayload(p []byte) []byte {
	out := make([]byte, 0, len(p)+1)
	out = append(out, byte(ch))
	return append(out, p...)
}

// Type selects which of the two side-band capabilities is in effect,
// since they agree on a different maximum packet size.
type Type int

const (
	// Sideband is the "side-band" capability: pkt-line payloads, channel
	// byte included, up to 1000 bytes.
	Sideband Type = iota
	// Sideband64k is the "side-band-64k" capability: packets up to
	// 65520 bytes, letting a fetch spend fewer round trips relaying the
	// packfile.
	Sideband64k
)

// MaxPackedSize is the largest PackData chunk side-band (not
// side-band-64k) allows in a single pkt-line.
const MaxPackedSize = 1000

// maxPacketSize returns the largest pkt-line payload (channel byte
// included, 4-byte length header excluded) t allows.
func (t Type) maxPacketSize() int {
	if t == Sideband64k {
		return pktline.MaxPayloadSize
	}
	return MaxPackedSize
}

// ErrMaxPackedExceeded is returned by a Demuxer reading a PackData
// chunk larger than its Type allows.
var ErrMaxPackedExceeded = errors.New("max. packed size exceeded")

// Demuxer is an io.Reader that pulls PackData bytes out of a
// side-band-multiplexed stream, forwarding ProgressMessage payloads to
// Progress (if set) and failing on the first ErrorMessage.
type Demuxer struct {
	// Progress receives every ProgressMessage payload verbatim. A nil
	// Progress silently discards them.
	Progress io.Writer

	t       Type
	s       *pktline.Scanner
	pending []byte
}

// NewDemuxer returns a Demuxer reading a t-multiplexed stream from r.
func NewDemuxer(t Type, r io.Reader) *Demuxer {
	return &Demuxer{t: t, s: pktline.NewScanner(r)}
}

// Read implements io.Reader, returning only PackData bytes.
func (d *Demuxer) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		n := copy(p, d.pending)
		d.pending = d.pending[n:]
		return n, nil
	}

	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	payload := d.s.Bytes()
	if len(payload) == 0 {
		return 0, io.EOF
	}

	switch Channel(payload[0]) {
	case PackData:
		data := payload[1:]
		if d.t != Sideband64k && len(data) > MaxPackedSize {
			return 0, ErrMaxPackedExceeded
		}

		n := copy(p, data)
		if n < len(data) {
			d.pending = data[n:]
		}
		return n, nil

	case ProgressMessage:
		if d.Progress != nil {
			if _, err := d.Progress.Write(payload[1:]); err != nil {
				return 0, err
			}
		}
		return d.Read(p)

	case ErrorMessage:
		return 0, fmt.Errorf("unexpected error: %s", payload[1:])

	default:
		return 0, fmt.Errorf("unknown channel %s", payload)
	}
}

// Muxer is an io.Writer that wraps every Write as a PackData channel
// pkt-line, splitting it into as many packets as t's maximum packet
// size requires.
type Muxer struct {
	t  Type
	pw *pktline.Writer
}

// NewMuxer returns a Muxer writing a t-multiplexed stream to w.
func NewMuxer(t Type, w io.Writer) *Muxer {
	return &Muxer{t: t, pw: pktline.NewWriter(w)}
}

// Write implements io.Writer by writing p as one or more PackData
// pkt-lines.
func (m *Muxer) Write(p []byte) (int, error) {
	return m.WriteChannel(PackData, p)
}

// WriteChannel writes p as one or more pkt-lines on ch, splitting it
// so that no single pkt-line exceeds m's negotiated maximum size.
func (m *Muxer) WriteChannel(ch Channel, p []byte) (int, error) {
	max := m.t.maxPacketSize() - 1
	written := 0

	for len(p) > 0 {
		n := len(p)
		if n > max {
			n = max
		}

		if _, err := m.pw.WritePacket(ch.WithPayload(p[:n])); err != nil {
			return written, err
		}

		written += n
		p = p[n:]
	}

	return written, nil
}
