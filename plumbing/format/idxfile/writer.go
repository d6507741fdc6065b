package idxfile

import (
	"encoding/binary"
	"sort"

	"github.com/statewalker/vcs-sub011/plumbing"
)

type objectRecord struct {
	hash   plumbing.Hash
	offset int64
	crc    uint32
}

type objectRecords []objectRecord

func (o objectRecords) Len() int      { return len(o) }
func (o objectRecords) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o objectRecords) Less(i, j int) bool {
	return o[i].hash.Compare(o[j].hash.Bytes()) < 0
}

// Writer accumulates per-object pack metadata reported while a pack is
// being scanned and builds a MemoryIndex from it. It satisfies the
// observer interface a packfile scanner drives as it walks a pack.
type Writer struct {
	count    uint32
	checksum plumbing.Hash
	records  objectRecords
}

// Add records a single object's hash, pack offset and CRC32.
func (w *Writer) Add(h plumbing.Hash, offset int64, crc uint32) {
	w.records = append(w.records, objectRecord{hash: h, offset: offset, crc: crc})
}

// OnHeader implements the pack scanner observer interface.
func (w *Writer) OnHeader(count uint32) error {
	w.count = count
	w.records = make(objectRecords, 0, count)
	return nil
}

// OnInflatedObjectHeader implements the pack scanner observer interface.
func (w *Writer) OnInflatedObjectHeader(t plumbing.ObjectType, objSize int64, pos int64) error {
	return nil
}

// OnInflatedObjectContent implements the pack scanner observer interface.
func (w *Writer) OnInflatedObjectContent(h plumbing.Hash, pos int64, crc uint32, content []byte) error {
	w.Add(h, pos, crc)
	return nil
}

// OnFooter implements the pack scanner observer interface.
func (w *Writer) OnFooter(h plumbing.Hash) error {
	w.checksum = h
	return nil
}

// Index builds a MemoryIndex from the records accumulated so far,
// bucketing them by leading hash byte and promoting any offset beyond
// the 31-bit range into the 64-bit overflow table.
func (w *Writer) Index() (*MemoryIndex, error) {
	sort.Sort(w.records)

	idx := &MemoryIndex{Version: VersionSupported, PackfileChecksum: w.checksum}
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}

	var counts [fanout]uint32
	for _, r := range w.records {
		counts[r.hash[0]]++
	}

	var running uint32
	for k := 0; k < fanout; k++ {
		running += counts[k]
		idx.Fanout[k] = running
	}

	var big []int64

	start, next := 0, 0
	for k := 0; k < fanout; k++ {
		end := int(idx.Fanout[k])
		if end == start {
			continue
		}
		idx.FanoutMapping[k] = next

		names := make([]byte, 0, (end-start)*plumbing.HashSize)
		crcs := make([]byte, 0, (end-start)*IdxCRCSize)
		offs := make([]byte, 0, (end-start)*Off32Size)

		for _, r := range w.records[start:end] {
			names = append(names, r.hash.Bytes()...)

			var crcBuf [IdxCRCSize]byte
			binary.BigEndian.PutUint32(crcBuf[:], r.crc)
			crcs = append(crcs, crcBuf[:]...)

			var off32 uint32
			if r.offset > 0x7fffffff {
				off32 = uint32(Is64BitsMask) | uint32(len(big))
				big = append(big, r.offset)
			} else {
				off32 = uint32(r.offset)
			}

			var offBuf [Off32Size]byte
			binary.BigEndian.PutUint32(offBuf[:], off32)
			offs = append(offs, offBuf[:]...)
		}

		idx.Names = append(idx.Names, names)
		idx.CRC32 = append(idx.CRC32, crcs)
		idx.Offset32 = append(idx.Offset32, offs)

		start = end
		next++
	}

	if len(big) > 0 {
		idx.Offset64 = make([]byte, len(big)*Off64Size)
		for i, o := range big {
			binary.BigEndian.PutUint64(idx.Offset64[i*Off64Size:i*Off64Size+Off64Size], uint64(o))
		}
	}

	return idx, nil
}
