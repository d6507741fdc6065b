package objfile

import (
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// Writer writes a loose object: call WriteHeader once, then Write the
// content, then Close.
type Writer struct {
	zlib *zlib.Writer
	hash plumbing.Hasher

	size    int64
	written int64
}

// NewWriter returns a Writer that zlib-compresses onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zlib: zlib.NewWriter(w)}
}

// WriteHeader writes the object header for the given type and declared
// content size; size must be non-negative.
func (w *Writer) WriteHeader(t plumbing.ObjectType, size int64) error {
	if !t.Valid() {
		return plumbing.ErrInvalidType
	}
	if size < 0 {
		return ErrNegativeSize
	}

	w.size = size
	w.hash = plumbing.NewHasher(t, size)

	header := t.String() + " " + strconv.FormatInt(size, 10) + "\x00"
	_, err := w.zlib.Write([]byte(header))
	return err
}

// Write implements io.Writer over the object content, failing with
// ErrOverflow if more bytes are written than WriteHeader declared.
func (w *Writer) Write(p []byte) (int, error) {
	overflow := w.written+int64(len(p)) - w.size
	if overflow > 0 {
		p = p[:int64(len(p))-overflow]
	}

	n, err := w.zlib.Write(p)
	if err == nil && overflow > 0 {
		err = ErrOverflow
	}

	w.written += int64(n)
	_, _ = w.hash.Write(p[:n])

	return n, err
}

// Hash returns the object's canonical id, valid once all content has
// been written.
func (w *Writer) Hash() plumbing.Hash {
	return w.hash.Sum()
}

// Close flushes the zlib stream.
func (w *Writer) Close() error {
	return w.zlib.Close()
}
