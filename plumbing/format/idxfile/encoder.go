package idxfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pjbgf/sha1cd"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// ErrNilWriter is returned by Encode when given a nil io.Writer.
var ErrNilWriter = errors.New("nil writer")

// ErrNilIndex is returned by Encode when given a nil MemoryIndex.
var ErrNilIndex = errors.New("nil index")

// Encode writes idx to w in the pack v2 idx format, computing the
// trailing idx checksum as it goes and storing it back onto idx.
func Encode(w io.Writer, idx *MemoryIndex) error {
	if w == nil {
		return ErrNilWriter
	}
	if idx == nil {
		return ErrNilIndex
	}
	if idx.Version != 0 && idx.Version != VersionSupported {
		return fmt.Errorf("idxfile: unsupported version %d", idx.Version)
	}

	h := sha1cd.New()
	mw := io.MultiWriter(w, h)

	if _, err := mw.Write(IdxHeader); err != nil {
		return err
	}
	if err := writeUint32(mw, VersionSupported); err != nil {
		return err
	}

	for _, c := range idx.Fanout {
		if err := writeUint32(mw, c); err != nil {
			return err
		}
	}

	for k := 0; k < fanout; k++ {
		pos := idx.FanoutMapping[k]
		if pos == noMapping {
			continue
		}
		if pos < 0 || pos >= len(idx.Names) {
			return fmt.Errorf("idxfile: invalid fanout mapping %d", pos)
		}
		if _, err := mw.Write(idx.Names[pos]); err != nil {
			return err
		}
	}

	for k := 0; k < fanout; k++ {
		pos := idx.FanoutMapping[k]
		if pos == noMapping {
			continue
		}
		if pos >= len(idx.CRC32) {
			return fmt.Errorf("idxfile: invalid crc32 index %d", pos)
		}
		if _, err := mw.Write(idx.CRC32[pos]); err != nil {
			return err
		}
	}

	for k := 0; k < fanout; k++ {
		pos := idx.FanoutMapping[k]
		if pos == noMapping {
			continue
		}
		if pos >= len(idx.Offset32) {
			return fmt.Errorf("idxfile: invalid offset32 index %d", pos)
		}
		if _, err := mw.Write(idx.Offset32[pos]); err != nil {
			return err
		}
	}

	if len(idx.Offset64) > 0 {
		if _, err := mw.Write(idx.Offset64); err != nil {
			return err
		}
	}

	if _, err := mw.Write(idx.PackfileChecksum.Bytes()); err != nil {
		return err
	}

	sum := h.Sum(nil)
	idx.IdxChecksum, _ = plumbing.FromBytes(sum)
	if _, err := w.Write(sum); err != nil {
		return err
	}

	return nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
