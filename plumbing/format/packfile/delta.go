package packfile

import (
	"bytes"
	"errors"
)

// ErrInvalidDelta is returned when a delta stream is truncated or
// references bytes outside its base or target.
var ErrInvalidDelta = errors.New("invalid delta")

// maxCopySize is the copy length implied when a copy command's size
// bytes are all zero: git encodes exactly 0x10000 that way since the
// size bits alone can't reach it.
const maxCopySize = 0x10000

const minDeltaSize = 4

// patchDelta applies a Git pack delta to src, reconstructing the target
// content it was diffed against. The delta is the instruction stream
// used by OFS_DELTA/REF_DELTA pack entries: a source size, a target
// size, then a sequence of copy-from-source and insert-literal
// commands.
func patchDelta(src, delta []byte) ([]byte, error) {
	if len(delta) < minDeltaSize {
		return nil, ErrInvalidDelta
	}

	srcSz, delta := decodeDeltaSize(delta)
	if srcSz != uint64(len(src)) {
		return nil, ErrInvalidDelta
	}

	targetSz, delta := decodeDeltaSize(delta)

	dst := bytes.NewBuffer(make([]byte, 0, targetSz))

	for len(delta) > 0 {
		cmd := delta[0]
		delta = delta[1:]

		switch {
		case cmd&0x80 != 0:
			// Copy a run from src: up to four offset bytes, then up to
			// three size bytes, present only where their bit is set.
			var offset, size uint64
			var err error
			offset, delta, err = decodeCopyField(cmd, 0x01, 4, delta)
			if err != nil {
				return nil, err
			}
			size, delta, err = decodeCopyField(cmd, 0x10, 3, delta)
			if err != nil {
				return nil, err
			}
			if size == 0 {
				size = maxCopySize
			}
			if offset+size > srcSz || offset+size < offset {
				return nil, ErrInvalidDelta
			}
			dst.Write(src[offset : offset+size])

		case cmd != 0:
			// Insert cmd literal bytes taken directly from the delta.
			if uint64(len(delta)) < uint64(cmd) {
				return nil, ErrInvalidDelta
			}
			dst.Write(delta[:cmd])
			delta = delta[cmd:]

		default:
			return nil, ErrInvalidDelta
		}
	}

	if uint64(dst.Len()) != targetSz {
		return nil, ErrInvalidDelta
	}
	return dst.Bytes(), nil
}

// decodeDeltaSize reads a delta header size: 7 payload bits per byte,
// continuation while the high bit is set, least-significant group
// first.
func decodeDeltaSize(b []byte) (uint64, []byte) {
	var size uint64
	var shift uint
	var i int
	for i < len(b) {
		c := b[i]
		size |= uint64(c&0x7f) << shift
		i++
		if c&0x80 == 0 {
			break
		}
		shift += 7
	}
	return size, b[i:]
}

// decodeCopyField reads up to maxBytes optional little-endian bytes of a
// copy command's offset or size, one byte per set bit of mask<<k for
// k in [0, maxBytes), starting from bit.
func decodeCopyField(cmd byte, bit byte, maxBytes uint, delta []byte) (uint64, []byte, error) {
	var value uint64
	for k := uint(0); k < maxBytes; k++ {
		if cmd&(bit<<k) != 0 {
			if len(delta) == 0 {
				return 0, nil, ErrInvalidDelta
			}
			value |= uint64(delta[0]) << (8 * k)
			delta = delta[1:]
		}
	}
	return value, delta, nil
}

// encodeDeltaSize appends size encoded the same way decodeDeltaSize
// reads it.
func encodeDeltaSize(size uint64, out []byte) []byte {
	for {
		b := byte(size & 0x7f)
		size >>= 7
		if size != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			return out
		}
	}
}

// blockSize is the anchor length createDelta hashes to find candidate
// copy sources: short enough to catch small shared runs, long enough
// that the block index stays cheap to build.
const blockSize = 16

// maxEncodedCopy caps a single copy command's length at 0xffff, below
// the maxCopySize that patchDelta reads from an all-zero size field.
const maxEncodedCopy = 0xffff

// createDelta builds a Git pack delta instruction stream that
// patchDelta(base, result) reconstructs back into target. It indexes
// base in fixed-size blocks, then walks target looking for the longest
// run copyable from a matching block, falling back to literal inserts
// where nothing matches.
func createDelta(base, target []byte) []byte {
	out := encodeDeltaSize(uint64(len(base)), nil)
	out = encodeDeltaSize(uint64(len(target)), out)

	index := indexBlocks(base)

	var insert []byte
	flushInsert := func() {
		for len(insert) > 0 {
			n := len(insert)
			if n > 127 {
				n = 127
			}
			out = append(out, byte(n))
			out = append(out, insert[:n]...)
			insert = insert[n:]
		}
	}

	for i := 0; i < len(target); {
		off, length := matchAt(base, target, index, i)
		if length < blockSize {
			insert = append(insert, target[i])
			i++
			continue
		}

		flushInsert()
		out = append(out, encodeCopy(uint32(off), uint32(length))...)
		i += length
	}
	flushInsert()

	return out
}

// indexBlocks maps every blockSize-byte block hash in base to the
// offsets it occurs at.
func indexBlocks(base []byte) map[uint64][]int {
	index := make(map[uint64][]int)
	if len(base) < blockSize {
		return index
	}
	for i := 0; i+blockSize <= len(base); i++ {
		h := hashBlock(base[i : i+blockSize])
		index[h] = append(index[h], i)
	}
	return index
}

// matchAt finds the longest run starting at target[i] that also occurs
// in base, extending a blockSize anchor match in both directions.
func matchAt(base, target []byte, index map[uint64][]int, i int) (offset, length int) {
	if i+blockSize > len(target) {
		return 0, 0
	}
	h := hashBlock(target[i : i+blockSize])
	candidates, ok := index[h]
	if !ok {
		return 0, 0
	}

	best, bestLen := -1, 0
	for _, off := range candidates {
		if !bytes.Equal(base[off:off+blockSize], target[i:i+blockSize]) {
			continue
		}
		n := blockSize
		for off+n < len(base) && i+n < len(target) && n < maxEncodedCopy &&
			base[off+n] == target[i+n] {
			n++
		}
		if n > bestLen {
			best, bestLen = off, n
		}
	}
	if best < 0 {
		return 0, 0
	}
	return best, bestLen
}

// hashBlock computes an FNV-1a hash over a fixed-size base block.
func hashBlock(b []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime64
	}
	return h
}

// encodeCopy writes a copy command in the format decodeCopyField reads:
// the high bit marks a copy, the low nibble selects which of the four
// little-endian offset bytes follow, and the next three bits select
// which of the three little-endian size bytes follow. All seven bytes
// are always present here, which costs a little space but keeps the
// encoder simple and always correct.
func encodeCopy(offset, size uint32) []byte {
	cmd := byte(0x80 | 0x0f | 0x70)
	out := []byte{
		cmd,
		byte(offset), byte(offset >> 8), byte(offset >> 16), byte(offset >> 24),
		byte(size), byte(size >> 8), byte(size >> 16),
	}
	return out
}
