package pktline

import (
	"io"
)

// Scanner provides a convenient interface for reading the payloads of a
// series of pkt-lines.  It takes an io.Reader providing the source,
// which then can be tokenized through repeated calls to the Scan
// method.
//
// After each Scan call, the Bytes method will return the payload of the
// corresponding pkt-line on a shared buffer, which will be MaxPayloadSize
// bytes or smaller.  Flush, delim and response-end pkt-lines are
// represented by empty byte slices; Len reports their status code.
//
// Scanning stops at EOF or the first I/O error.
type Scanner struct {
	r   io.Reader // The reader provided by the client
	err error     // Sticky error
	buf []byte    // Payload of the last read pkt-line
	n   int       // Status/length of the last read pkt-line
}

// NewScanner returns a new Scanner to read from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		r: r,
	}
}

// Err returns the first error encountered by the Scanner.
func (s *Scanner) Err() error {
	return s.err
}

// Scan advances the Scanner to the next pkt-line, whose payload will
// then be available through the Bytes method.  Scanning stops at EOF
// or the first I/O error.  After Scan returns false, the Err method
// will return any error that occurred during scanning, except that if
// it was io.EOF, Err will return nil.
func (s *Scanner) Scan() bool {
	if s.r == nil {
		return false
	}

	l, p, err := ReadPacket(s.r)
	if err != nil {
		if err == io.EOF {
			s.err = nil
		} else {
			s.err = err
		}
		return false
	}

	s.n, s.buf = l, p
	return true
}

// Bytes returns the payload of the most recent packet generated by a call
// to Scan.
func (s *Scanner) Bytes() []byte {
	return s.buf
}

// Text returns the payload of the most recent packet generated by a call
// to Scan, as a string.
func (s *Scanner) Text() string {
	return string(s.buf)
}

// Len returns the length, or status code, of the most recent packet
// generated by a call to Scan.
func (s *Scanner) Len() int {
	return s.n
}
