package objfile

import (
	"bufio"
	"errors"
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// Reader reads a loose object: call Header once, then read the content
// through the Reader itself, then Close.
type Reader struct {
	zlib io.ReadCloser
	hash plumbing.Hasher

	typ  plumbing.ObjectType
	size int64
	read int64
}

// NewReader returns a Reader over the zlib-compressed stream r. It
// returns an error immediately if the zlib header cannot be read.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zlib.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}

	return &Reader{zlib: zr}, nil
}

// Header reads and parses the object header, returning the object's type
// and declared content size.
func (r *Reader) Header() (t plumbing.ObjectType, size int64, err error) {
	var typ []byte
	if typ, size, err = r.readHeader(); err != nil {
		return
	}

	if t, err = plumbing.ParseObjectType(string(typ)); err != nil {
		return
	}

	r.typ = t
	r.size = size
	r.hash = plumbing.NewHasher(t, size)

	return
}

func (r *Reader) readHeader() ([]byte, int64, error) {
	var typ []byte
	for {
		b := make([]byte, 1)
		if _, err := io.ReadFull(r.zlib, b); err != nil {
			return nil, 0, err
		}
		if b[0] == ' ' {
			break
		}
		typ = append(typ, b[0])
	}

	var size []byte
	for {
		b := make([]byte, 1)
		if _, err := io.ReadFull(r.zlib, b); err != nil {
			return nil, 0, err
		}
		if b[0] == 0 {
			break
		}
		size = append(size, b[0])
	}

	n, err := strconv.ParseInt(string(size), 10, 64)
	if err != nil {
		return nil, 0, errors.New("invalid object size")
	}

	return typ, n, nil
}

// Read implements io.Reader over the object content, after Header has
// run.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.zlib.Read(p)
	if n > 0 {
		r.read += int64(n)
		_, _ = r.hash.Write(p[:n])
	}
	return n, err
}

// Hash returns the object's canonical id, computed from the header and
// the bytes read so far. Valid once Header has been called.
func (r *Reader) Hash() plumbing.Hash {
	return r.hash.Sum()
}

// Close releases the underlying zlib reader.
func (r *Reader) Close() error {
	return r.zlib.Close()
}
