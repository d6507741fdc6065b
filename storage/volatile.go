package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrBufferTooLarge is returned when a VolatileBuffer's hard cap is
// exceeded, so an adversarial or merely oversized stream cannot exhaust
// temp storage.
var ErrBufferTooLarge = errors.New("volatile buffer exceeds its size cap")

// DefaultMemoryThreshold is the number of bytes a VolatileBuffer keeps
// in memory before spilling to a temp file.
const DefaultMemoryThreshold = 1 << 20 // 1 MiB

// VolatileBuffer materializes a byte stream of initially-unknown size so
// that its final size can be known before a consumer reads the first
// byte, per spec's content-addressing requirement: the object store must
// know an object's length before it can frame the header a hash is
// computed over. Small writes stay in memory; once the in-memory
// threshold is crossed, VolatileBuffer spills to a temp file. It is an
// io.Writer while being filled and produces fresh io.ReadSeekClosers
// once filled.
type VolatileBuffer struct {
	threshold int64
	maxSize   int64

	mem  []byte
	file *os.File
	size int64

	closed bool
}

// NewVolatileBuffer returns a buffer that spills to a temp file once more
// than threshold bytes (DefaultMemoryThreshold if threshold <= 0) have
// been written, and refuses to grow past maxSize bytes (no cap if
// maxSize <= 0).
func NewVolatileBuffer(threshold, maxSize int64) *VolatileBuffer {
	if threshold <= 0 {
		threshold = DefaultMemoryThreshold
	}
	return &VolatileBuffer{threshold: threshold, maxSize: maxSize}
}

// Write implements io.Writer, spilling to a temp file once the in-memory
// threshold is crossed.
func (b *VolatileBuffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("write to closed volatile buffer")
	}
	if b.maxSize > 0 && b.size+int64(len(p)) > b.maxSize {
		return 0, fmt.Errorf("%w: cap %d bytes", ErrBufferTooLarge, b.maxSize)
	}

	if b.file == nil && int64(len(b.mem))+int64(len(p)) <= b.threshold {
		b.mem = append(b.mem, p...)
		b.size += int64(len(p))
		return len(p), nil
	}

	if b.file == nil {
		f, err := os.CreateTemp("", "vcs-volatile-*")
		if err != nil {
			return 0, err
		}
		if len(b.mem) > 0 {
			if _, err := f.Write(b.mem); err != nil {
				f.Close()
				os.Remove(f.Name())
				return 0, err
			}
		}
		b.file = f
		b.mem = nil
	}

	n, err := b.file.Write(p)
	b.size += int64(n)
	return n, err
}

// Size returns the number of bytes written so far.
func (b *VolatileBuffer) Size() int64 { return b.size }

// Reader returns a fresh handle positioned at the start of the buffered
// content. Multiple readers may be obtained; each is independent.
func (b *VolatileBuffer) Reader() (io.ReadSeekCloser, error) {
	if b.file != nil {
		f, err := os.Open(b.file.Name())
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return &memReader{data: b.mem}, nil
}

// Close releases any temp file backing the buffer. The buffer must not
// be written to after Close.
func (b *VolatileBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.file != nil {
		name := b.file.Name()
		b.file.Close()
		return os.Remove(name)
	}
	return nil
}

// memReader is a ReadSeekCloser over an in-memory byte slice, used when a
// VolatileBuffer never crossed its spill threshold.
type memReader struct {
	data []byte
	pos  int64
}

func (r *memReader) Read(p []byte) (int, error) {
	if r.pos >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += int64(n)
	return n, nil
}

func (r *memReader) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		base = int64(len(r.data))
	default:
		return 0, errors.New("invalid whence")
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, errors.New("negative seek position")
	}
	r.pos = newPos
	return r.pos, nil
}

func (r *memReader) Close() error { return nil }
