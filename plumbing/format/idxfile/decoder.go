package idxfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// Decoder reads the pack v2 idx format into a MemoryIndex.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads a full idx stream into idx.
func (d *Decoder) Decode(idx *MemoryIndex) error {
	if err := d.readHeader(idx); err != nil {
		return err
	}
	if err := d.readFanout(idx); err != nil {
		return err
	}

	count := int(idx.Fanout[fanout-1])

	names := make([]byte, count*plumbing.HashSize)
	if _, err := io.ReadFull(d.r, names); err != nil {
		return fmt.Errorf("%w: reading object names: %v", plumbing.ErrCorruptPack, err)
	}

	crcs := make([]byte, count*IdxCRCSize)
	if _, err := io.ReadFull(d.r, crcs); err != nil {
		return fmt.Errorf("%w: reading crc32 table: %v", plumbing.ErrCorruptPack, err)
	}

	off32 := make([]byte, count*Off32Size)
	if _, err := io.ReadFull(d.r, off32); err != nil {
		return fmt.Errorf("%w: reading offset table: %v", plumbing.ErrCorruptPack, err)
	}

	n64 := 0
	for i := 0; i < count; i++ {
		v := binary.BigEndian.Uint32(off32[i*Off32Size : i*Off32Size+Off32Size])
		if uint64(v)&Is64BitsMask != 0 {
			if p := int(uint64(v)&^Is64BitsMask) + 1; p > n64 {
				n64 = p
			}
		}
	}
	if n64 > 0 {
		idx.Offset64 = make([]byte, n64*Off64Size)
		if _, err := io.ReadFull(d.r, idx.Offset64); err != nil {
			return fmt.Errorf("%w: reading 64-bit offset table: %v", plumbing.ErrCorruptPack, err)
		}
	}

	var packSum, idxSum [plumbing.HashSize]byte
	if _, err := io.ReadFull(d.r, packSum[:]); err != nil {
		return fmt.Errorf("%w: reading packfile checksum: %v", plumbing.ErrCorruptPack, err)
	}
	idx.PackfileChecksum, _ = plumbing.FromBytes(packSum[:])

	if _, err := io.ReadFull(d.r, idxSum[:]); err != nil {
		return fmt.Errorf("%w: reading idx checksum: %v", plumbing.ErrCorruptPack, err)
	}
	idx.IdxChecksum, _ = plumbing.FromBytes(idxSum[:])

	d.bucket(idx, names, crcs, off32)
	return nil
}

func (d *Decoder) readHeader(idx *MemoryIndex) error {
	header := make([]byte, len(IdxHeader)+4)
	if _, err := io.ReadFull(d.r, header); err != nil {
		return fmt.Errorf("%w: reading idx header: %v", plumbing.ErrCorruptPack, err)
	}
	if !bytes.Equal(header[:len(IdxHeader)], IdxHeader) {
		return fmt.Errorf("%w: invalid idx signature", plumbing.ErrCorruptPack)
	}

	version := binary.BigEndian.Uint32(header[len(IdxHeader):])
	if version != VersionSupported {
		return fmt.Errorf("%w: unsupported idx version %d", plumbing.ErrCorruptPack, version)
	}

	idx.Version = version
	return nil
}

func (d *Decoder) readFanout(idx *MemoryIndex) error {
	buf := make([]byte, IdxFanoutSize)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return fmt.Errorf("%w: reading fanout table: %v", plumbing.ErrCorruptPack, err)
	}

	for i := 0; i < fanout; i++ {
		idx.Fanout[i] = binary.BigEndian.Uint32(buf[i*4 : i*4+4])
	}
	return nil
}

// bucket regroups the flat, sorted names/crcs/offsets tables into
// per-leading-byte slices, matching the layout Encode walks back out.
func (d *Decoder) bucket(idx *MemoryIndex, names, crcs, off32 []byte) {
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}

	start := 0
	next := 0
	for k := 0; k < fanout; k++ {
		end := int(idx.Fanout[k])
		if end == start {
			continue
		}

		idx.FanoutMapping[k] = next
		idx.Names = append(idx.Names, names[start*plumbing.HashSize:end*plumbing.HashSize])
		idx.CRC32 = append(idx.CRC32, crcs[start*IdxCRCSize:end*IdxCRCSize])
		idx.Offset32 = append(idx.Offset32, off32[start*Off32Size:end*Off32Size])

		start = end
		next++
	}
}
