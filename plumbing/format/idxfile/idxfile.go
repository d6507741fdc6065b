// Package idxfile reads and writes the pack v2 index format: a sorted
// table mapping each object id reachable from a pack to its CRC32 and
// its byte offset within the pack, fronted by a 256-entry fanout table
// keyed on the first byte of the object id.
package idxfile

import (
	"encoding/binary"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// VersionSupported is the only on-disk idx version this package reads
// or writes.
const VersionSupported = 2

// fanout is the number of buckets in the fanout table, one per possible
// leading byte of an object id.
const fanout = 256

// noMapping marks a fanout bucket with no objects as unmapped in
// MemoryIndex.FanoutMapping.
const noMapping = -1

// Entry is a single object's index record.
type Entry struct {
	Hash   plumbing.Hash
	Offset uint64
	CRC32  uint32
}

// EntryIter yields index Entry values one at a time.
type EntryIter interface {
	Next() (*Entry, error)
	Close() error
}

// Index looks up pack-local information about objects by hash or by
// pack offset, without requiring the whole idx file to be held in
// memory.
type Index interface {
	// Contains reports whether h is present in the index.
	Contains(h plumbing.Hash) (bool, error)
	// FindOffset returns the pack offset of h.
	FindOffset(h plumbing.Hash) (int64, error)
	// FindCRC32 returns the CRC32 checksum recorded for h.
	FindCRC32(h plumbing.Hash) (uint32, error)
	// FindHash returns the object id stored at the given pack offset.
	FindHash(offset int64) (plumbing.Hash, error)
	// Count returns the number of objects in the index.
	Count() (int64, error)
	// Entries iterates entries in hash order.
	Entries() (EntryIter, error)
	// EntriesByOffset iterates entries in ascending pack-offset order.
	EntriesByOffset() (EntryIter, error)
}

// MemoryIndex is the whole idx file decoded into memory: the fanout
// table plus, per non-empty bucket, a contiguous slice of names,
// CRC32s and 32-bit offsets (with the overflow table for offsets that
// don't fit in 31 bits).
type MemoryIndex struct {
	Version uint32

	Fanout        [fanout]uint32
	FanoutMapping [fanout]int

	Names    [][]byte
	CRC32    [][]byte
	Offset32 [][]byte
	Offset64 []byte

	PackfileChecksum plumbing.Hash
	IdxChecksum      plumbing.Hash

	offsetHash offsetHashCache
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex returns an empty index ready to be filled by a
// Decoder. hashSize is accepted for API symmetry with the streaming
// reader but is otherwise ignored: this package only ever produces
// SHA-1 (20-byte) object ids.
func NewMemoryIndex(hashSize int) *MemoryIndex {
	idx := &MemoryIndex{Version: VersionSupported}
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}
	return idx
}

func (idx *MemoryIndex) findIndex(h plumbing.Hash) (int, bool) {
	first := int(h[0])
	bucket := idx.FanoutMapping[first]
	if bucket == noMapping {
		return 0, false
	}

	names := idx.Names[bucket]
	n := len(names) / plumbing.HashSize

	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		cmp := h.Compare(names[mid*plumbing.HashSize : (mid+1)*plumbing.HashSize])
		switch {
		case cmp == 0:
			return bucket<<24 | mid, true
		case cmp < 0:
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return 0, false
}

func splitPos(pos int) (bucket, offset int) {
	return pos >> 24, pos & 0xffffff
}

// Contains implements Index.
func (idx *MemoryIndex) Contains(h plumbing.Hash) (bool, error) {
	_, ok := idx.findIndex(h)
	return ok, nil
}

// FindOffset implements Index.
func (idx *MemoryIndex) FindOffset(h plumbing.Hash) (int64, error) {
	pos, ok := idx.findIndex(h)
	if !ok {
		return 0, plumbing.ErrNotFound
	}

	bucket, offset := splitPos(pos)
	o := decodeOffset(idx.Offset32[bucket], idx.Offset64, offset)

	idx.offsetHash.Put(o, h)
	return o, nil
}

// FindCRC32 implements Index.
func (idx *MemoryIndex) FindCRC32(h plumbing.Hash) (uint32, error) {
	pos, ok := idx.findIndex(h)
	if !ok {
		return 0, plumbing.ErrNotFound
	}

	bucket, offset := splitPos(pos)
	buf := idx.CRC32[bucket][offset*4 : offset*4+4]
	return beUint32(buf), nil
}

// FindHash implements Index.
func (idx *MemoryIndex) FindHash(offset int64) (plumbing.Hash, error) {
	if h, ok := idx.offsetHash.Get(offset); ok {
		return h, nil
	}

	if err := idx.offsetHash.BuildOnce(idx.buildOffsetHash); err != nil {
		return plumbing.ZeroHash, err
	}

	if h, ok := idx.offsetHash.Get(offset); ok {
		return h, nil
	}
	return plumbing.ZeroHash, plumbing.ErrNotFound
}

func (idx *MemoryIndex) buildOffsetHash() (map[int64]plumbing.Hash, error) {
	out := make(map[int64]plumbing.Hash)
	iter, err := idx.Entries()
	if err != nil {
		return nil, err
	}
	for {
		e, err := iter.Next()
		if err != nil {
			break
		}
		out[int64(e.Offset)] = e.Hash
	}
	return out, nil
}

// Count implements Index.
func (idx *MemoryIndex) Count() (int64, error) {
	return int64(idx.Fanout[fanout-1]), nil
}

// Entries implements Index, iterating in ascending hash order.
func (idx *MemoryIndex) Entries() (EntryIter, error) {
	return &memoryEntryIter{idx: idx}, nil
}

// EntriesByOffset implements Index, iterating in ascending pack-offset
// order.
func (idx *MemoryIndex) EntriesByOffset() (EntryIter, error) {
	iter, err := idx.Entries()
	if err != nil {
		return nil, err
	}

	var all entriesByOffset
	for {
		e, err := iter.Next()
		if err != nil {
			break
		}
		all = append(all, e)
	}

	sortByOffset(all)
	return &idxfileEntryOffsetIter{entries: all}, nil
}

type memoryEntryIter struct {
	idx    *MemoryIndex
	bucket int
	offset int
}

func (i *memoryEntryIter) Next() (*Entry, error) {
	for {
		if i.bucket >= fanout {
			return nil, io.EOF
		}

		bucket := i.idx.FanoutMapping[i.bucket]
		if bucket == noMapping {
			i.bucket++
			i.offset = 0
			continue
		}

		names := i.idx.Names[bucket]
		n := len(names) / plumbing.HashSize
		if i.offset >= n {
			i.bucket++
			i.offset = 0
			continue
		}

		var h plumbing.Hash
		copy(h[:], names[i.offset*plumbing.HashSize:(i.offset+1)*plumbing.HashSize])

		crc := beUint32(i.idx.CRC32[bucket][i.offset*4 : i.offset*4+4])
		off := decodeOffset(i.idx.Offset32[bucket], i.idx.Offset64, i.offset)

		i.offset++
		return &Entry{Hash: h, Offset: uint64(off), CRC32: crc}, nil
	}
}

func (i *memoryEntryIter) Close() error { return nil }

type entriesByOffset []*Entry

func (e entriesByOffset) Len() int           { return len(e) }
func (e entriesByOffset) Less(i, j int) bool { return e[i].Offset < e[j].Offset }
func (e entriesByOffset) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }

func sortByOffset(e entriesByOffset) {
	// insertion sort is fine: pack indexes in practice are small enough
	// that this never shows up in a profile.
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && e.Less(j, j-1); j-- {
			e.Swap(j, j-1)
		}
	}
}

func beUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func decodeOffset(offset32, offset64 []byte, pos int) int64 {
	o32 := beUint32(offset32[pos*Off32Size : pos*Off32Size+Off32Size])
	if uint64(o32)&Is64BitsMask == 0 {
		return int64(o32)
	}

	i := int(uint64(o32) &^ Is64BitsMask)
	return int64(binary.BigEndian.Uint64(offset64[i*Off64Size : i*Off64Size+Off64Size]))
}

type idxfileEntryOffsetIter struct {
	entries entriesByOffset
	pos     int
}

func (i *idxfileEntryOffsetIter) Next() (*Entry, error) {
	if i.pos >= len(i.entries) {
		return nil, io.EOF
	}
	e := i.entries[i.pos]
	i.pos++
	return e, nil
}

func (i *idxfileEntryOffsetIter) Close() error {
	i.pos = len(i.entries)
	return nil
}
