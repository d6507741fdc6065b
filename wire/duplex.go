// Package wire binds the pkt-line based smart protocol messages in
// plumbing/protocol/packp to an abstract duplex connection and drives
// the fetch and push exchanges built on top of them. The duplex itself
// is transport-agnostic: it only needs an io.ReadWriter, so the same
// negotiation code runs over an HTTP body pair, an in-process pipe or a
// raw socket.
package wire

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

// Service names the two pack-protocol roles a handshake selects.
type Service string

const (
	// UploadPackService requests a fetch: the server streams objects
	// the client doesn't have.
	UploadPackService Service = "git-upload-pack"
	// ReceivePackService requests a push: the client streams objects
	// the server doesn't have and asks it to update its refs.
	ReceivePackService Service = "git-receive-pack"
)

// ErrFlush is returned by Duplex.ReadFrame for a flush-pkt: a frame
// boundary carrying no payload, such as the one ending a ref
// advertisement, a want list or a negotiation batch.
var ErrFlush = errors.New("wire: flush-pkt")

// DefaultFrameTimeout bounds how long ReadFrame waits for the next
// pkt-line when the underlying connection supports read deadlines.
const DefaultFrameTimeout = 30 * time.Second

// deadlineSetter is implemented by net.Conn and similar transports.
type deadlineSetter interface {
	SetReadDeadline(t time.Time) error
}

// Duplex frames a bidirectional byte stream into pkt-lines, the unit
// every wire-protocol exchange after the first byte is built from.
type Duplex struct {
	// FrameTimeout bounds each ReadFrame call on a transport that
	// supports read deadlines. Zero disables the deadline.
	FrameTimeout time.Duration

	rw io.ReadWriter
	c  io.Closer
	pw *pktline.Writer
	s  *pktline.Scanner
}

// NewDuplex wraps rw (and, if non-nil, c for Close) as a Duplex with
// DefaultFrameTimeout.
func NewDuplex(rw io.ReadWriter, c io.Closer) *Duplex {
	return &Duplex{
		FrameTimeout: DefaultFrameTimeout,
		rw:           rw,
		c:            c,
		pw:           pktline.NewWriter(rw),
		s:            pktline.NewScanner(rw),
	}
}

// Read lets a Duplex stand in directly as the raw io.Reader a packfile
// decoder or side-band demuxer consumes: once the negotiation phase
// ends, whatever remains on the stream is packfile bytes rather than
// pkt-line-framed messages.
func (d *Duplex) Read(p []byte) (int, error) { return d.rw.Read(p) }

// Write lets a Duplex stand in as a raw io.Writer, for the same reason
// on the sending side.
func (d *Duplex) Write(p []byte) (int, error) { return d.rw.Write(p) }

// WriteFrame writes payload as a single pkt-line.
func (d *Duplex) WriteFrame(payload []byte) error {
	_, err := d.pw.WritePacket(payload)
	return err
}

// WriteFlush writes a flush-pkt.
func (d *Duplex) WriteFlush() error { return d.pw.WriteFlush() }

// ReadFrame reads the next pkt-line, returning ErrFlush if it is a
// flush-pkt and io.EOF once the underlying stream is exhausted. A
// transport exposing SetReadDeadline gets FrameTimeout applied to the
// read; a timeout surfaces as a ProtocolError.
func (d *Duplex) ReadFrame() ([]byte, error) {
	if ds, ok := d.rw.(deadlineSetter); ok && d.FrameTimeout > 0 {
		_ = ds.SetReadDeadline(time.Now().Add(d.FrameTimeout))
	}

	if !d.s.Scan() {
		if err := d.s.Err(); err != nil {
			return nil, &ProtocolError{Op: "read-frame", Err: err}
		}
		return nil, io.EOF
	}

	if d.s.Len() == pktline.Flush {
		return nil, ErrFlush
	}
	return d.s.Bytes(), nil
}

// Close closes the underlying transport, if it supports it.
func (d *Duplex) Close() error {
	if d.c == nil {
		return nil
	}
	return d.c.Close()
}

// WriteService sends the single pkt-line naming the service the
// writer wants to speak: the handshake that selects a server's role.
func WriteService(d *Duplex, svc Service) error {
	return d.WriteFrame([]byte(string(svc) + "\n"))
}

// ReadService reads the service handshake frame a client sends.
func ReadService(d *Duplex) (Service, error) {
	b, err := d.ReadFrame()
	if err != nil {
		return "", err
	}
	return Service(strings.TrimSuffix(string(b), "\n")), nil
}

// ProtocolError wraps a failure in the wire exchange itself (a
// malformed message, a read timeout, an unexpected EOF) as opposed to
// a failure in the underlying object store.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string { return "wire: " + e.Op + ": " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }
