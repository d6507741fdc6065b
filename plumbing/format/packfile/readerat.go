package packfile

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/packfile/util"
)

// ResolveBase looks up a delta's base object by hash, for REF_DELTA
// entries whose base lives in a different pack (or among loose
// objects) than the entry being read.
type ResolveBase func(plumbing.Hash) (plumbing.ObjectType, []byte, error)

// ReadEntryAt reads and fully resolves the single object whose entry
// header starts at offset within a pack accessible through ra, without
// reading any other entry that doesn't chain into it as a delta base.
// OFS_DELTA bases are found by walking backwards within the same pack;
// REF_DELTA bases are resolved through resolveBase, which may be nil
// if the caller knows no REF_DELTA entries will be encountered.
func ReadEntryAt(ra io.ReaderAt, offset int64, resolveBase ResolveBase) (plumbing.ObjectType, []byte, error) {
	t, size, headerLen, err := readEntryHeaderAt(ra, offset)
	if err != nil {
		return 0, nil, err
	}
	pos := offset + headerLen

	switch t {
	case plumbing.OFSDeltaObject:
		back, n, err := readOffsetDeltaAt(ra, pos)
		if err != nil {
			return 0, nil, err
		}
		pos += n

		baseType, base, err := ReadEntryAt(ra, offset-back, resolveBase)
		if err != nil {
			return 0, nil, err
		}
		delta, err := inflateAt(ra, pos, size)
		if err != nil {
			return 0, nil, err
		}
		content, err := patchDelta(base, delta)
		if err != nil {
			return 0, nil, err
		}
		return baseType, content, nil

	case plumbing.REFDeltaObject:
		var baseHash plumbing.Hash
		if _, err := ra.ReadAt(baseHash[:], pos); err != nil {
			return 0, nil, err
		}
		pos += int64(plumbing.HashSize)

		if resolveBase == nil {
			return 0, nil, NewError("ref-delta base resolver not provided")
		}
		baseType, base, err := resolveBase(baseHash)
		if err != nil {
			return 0, nil, fmt.Errorf("resolving ref-delta base %s: %w", baseHash, err)
		}
		delta, err := inflateAt(ra, pos, size)
		if err != nil {
			return 0, nil, err
		}
		content, err := patchDelta(base, delta)
		if err != nil {
			return 0, nil, err
		}
		return baseType, content, nil

	default:
		content, err := inflateAt(ra, pos, size)
		if err != nil {
			return 0, nil, err
		}
		return t, content, nil
	}
}

// readEntryHeaderAt is readEntryHeader adapted to random access: it
// reads one header byte at a time instead of slicing a buffer already
// held in memory.
func readEntryHeaderAt(ra io.ReaderAt, offset int64) (plumbing.ObjectType, uint64, int64, error) {
	first, err := readByteAt(ra, offset)
	if err != nil {
		return 0, 0, 0, err
	}
	pos := offset + 1

	t := util.ObjectType(first)
	size := uint64(first & 0x0f)
	shift := uint(4)
	for first&0x80 != 0 {
		first, err = readByteAt(ra, pos)
		if err != nil {
			return 0, 0, 0, err
		}
		pos++
		size |= uint64(first&0x7f) << shift
		shift += 7
	}

	return t, size, pos - offset, nil
}

// readOffsetDeltaAt is readOffsetDelta adapted to random access.
func readOffsetDeltaAt(ra io.ReaderAt, offset int64) (int64, int64, error) {
	b, err := readByteAt(ra, offset)
	if err != nil {
		return 0, 0, err
	}
	pos := offset + 1

	back := int64(b & 0x7f)
	for b&0x80 != 0 {
		b, err = readByteAt(ra, pos)
		if err != nil {
			return 0, 0, err
		}
		pos++
		back = ((back + 1) << 7) | int64(b&0x7f)
	}

	return back, pos - offset, nil
}

func readByteAt(ra io.ReaderAt, offset int64) (byte, error) {
	var b [1]byte
	if _, err := ra.ReadAt(b[:], offset); err != nil {
		return 0, err
	}
	return b[0], nil
}

// inflateAt decompresses exactly one zlib stream starting at offset,
// reading only as far as the stream's own length dictates.
func inflateAt(ra io.ReaderAt, offset int64, size uint64) ([]byte, error) {
	zr, err := zlib.NewReader(&offsetReader{ra: ra, off: offset})
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data := make([]byte, size)
	if _, err := io.ReadFull(zr, data); err != nil {
		return nil, err
	}
	return data, nil
}

// offsetReader adapts an io.ReaderAt into a sequential io.Reader
// starting at a fixed offset, advancing as it is read.
type offsetReader struct {
	ra  io.ReaderAt
	off int64
}

func (r *offsetReader) Read(p []byte) (int, error) {
	n, err := r.ra.ReadAt(p, r.off)
	r.off += int64(n)
	return n, err
}
