// Package packfile reads and writes Git pack files: the concatenated,
// zlib-compressed object format used to transfer and store history
// efficiently (spec.md §4.4/§4.13).
package packfile

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pjbgf/sha1cd"
	"golang.org/x/sync/errgroup"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/packfile/util"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// signature is the four magic bytes every pack file opens with.
var signature = [4]byte{'P', 'A', 'C', 'K'}

// VersionSupported is the only pack format version this package
// produces or accepts.
const VersionSupported = 2

const checksumSize = 20

// DefaultWindow is the number of preceding same-type entries Encode
// considers as delta bases for each object when no window is given.
const DefaultWindow = 10

// Encode writes a version 2 pack containing exactly the objects named
// by hashes, delta-compressing against up to DefaultWindow preceding
// same-type entries. See EncodeWindow.
func Encode(ctx context.Context, w io.Writer, store *object.Store, hashes []plumbing.Hash) error {
	return EncodeWindow(ctx, w, store, hashes, DefaultWindow)
}

// windowEntry is a previously written object kept around as a
// candidate delta base for later entries of the same type.
type windowEntry struct {
	hash    plumbing.Hash
	content []byte
}

// EncodeWindow writes a version 2 pack containing exactly the objects
// named by hashes, in order. Before writing each object it searches up
// to window preceding entries of the same type (concurrently, via
// errgroup) for the one that produces the smallest REF_DELTA
// instruction stream against it, and emits a delta entry when that
// beats storing the object whole. window <= 0 disables delta search
// entirely.
func EncodeWindow(ctx context.Context, w io.Writer, store *object.Store, hashes []plumbing.Hash, window int) error {
	h := sha1cd.New()
	tw := io.MultiWriter(w, h)

	if _, err := tw.Write(signature[:]); err != nil {
		return err
	}
	if err := writeUint32(tw, VersionSupported); err != nil {
		return err
	}
	if err := writeUint32(tw, uint32(len(hashes))); err != nil {
		return err
	}

	windows := make(map[plumbing.ObjectType][]windowEntry)

	for _, id := range hashes {
		t, _, rc, err := store.Objects.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("loading %s: %w", id, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", id, err)
		}

		delta, base, err := bestDelta(ctx, content, windows[t])
		if err != nil {
			return fmt.Errorf("searching delta base for %s: %w", id, err)
		}

		if delta != nil && len(delta) < len(content) {
			err = writeDeltaEntry(tw, base, delta)
		} else {
			err = writeWholeEntry(tw, t, int64(len(content)), bytes.NewReader(content))
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", id, err)
		}

		if window > 0 {
			windows[t] = pushWindow(windows[t], windowEntry{hash: id, content: content}, window)
		}
	}

	_, err := w.Write(h.Sum(nil))
	return err
}

// bestDelta searches candidates concurrently for the one yielding the
// smallest delta against target, returning (nil, zero hash, nil) when
// there are no candidates.
func bestDelta(ctx context.Context, target []byte, candidates []windowEntry) ([]byte, plumbing.Hash, error) {
	if len(candidates) == 0 {
		return nil, plumbing.Hash{}, nil
	}

	deltas := make([][]byte, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			deltas[i] = createDelta(c.content, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, plumbing.Hash{}, err
	}

	best := 0
	for i := 1; i < len(deltas); i++ {
		if len(deltas[i]) < len(deltas[best]) {
			best = i
		}
	}
	return deltas[best], candidates[best].hash, nil
}

// pushWindow appends e, trimming to the most recent window entries.
func pushWindow(entries []windowEntry, e windowEntry, window int) []windowEntry {
	entries = append(entries, e)
	if len(entries) > window {
		entries = entries[len(entries)-window:]
	}
	return entries
}

func writeWholeEntry(w io.Writer, t plumbing.ObjectType, size int64, r io.Reader) error {
	if err := writeEntryHeader(w, t, uint64(size)); err != nil {
		return err
	}

	zw := zlib.NewWriter(w)
	if _, err := io.Copy(zw, r); err != nil {
		return err
	}
	return zw.Close()
}

// writeDeltaEntry writes a REF_DELTA entry: a header sized to the
// instruction stream's uncompressed length, the 20-byte base object
// hash in the clear, then the delta itself zlib-compressed.
func writeDeltaEntry(w io.Writer, base plumbing.Hash, delta []byte) error {
	if err := writeEntryHeader(w, plumbing.REFDeltaObject, uint64(len(delta))); err != nil {
		return err
	}
	if _, err := w.Write(base[:]); err != nil {
		return err
	}

	zw := zlib.NewWriter(w)
	if _, err := zw.Write(delta); err != nil {
		return err
	}
	return zw.Close()
}

// writeEntryHeader writes a pack object header: the low 4 bits of the
// first byte hold the start of the size, the next 3 bits the type, and
// the high bit marks continuation; size then continues 7 bits per byte
// the same way util.VariableLengthSize decodes it.
func writeEntryHeader(w io.Writer, t plumbing.ObjectType, size uint64) error {
	first := byte(size&0x0f) | byte(t)<<4
	size >>= 4
	if size > 0 {
		first |= 0x80
	}
	if _, err := w.Write([]byte{first}); err != nil {
		return err
	}
	for size > 0 {
		b := byte(size & 0x7f)
		size >>= 7
		if size > 0 {
			b |= 0x80
		}
		if _, err := w.Write([]byte{b}); err != nil {
			return err
		}
	}
	return nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// rawEntry is one pack entry before delta resolution: whole objects
// carry content directly, delta entries carry their base reference
// alongside the delta instructions.
type rawEntry struct {
	t        plumbing.ObjectType
	content  []byte
	baseHash plumbing.Hash // set for REF_DELTA
	baseOfs  int64         // set for OFS_DELTA: the base entry's offset from the pack's start
	offset   int64         // byte offset of this entry's header from the pack's start
}

// Decode reads a version 2 pack from r and stores every object it
// contains into store, resolving OFS_DELTA/REF_DELTA entries against
// either an earlier entry in the same pack or an object already present
// in store. It returns the hashes of every object stored, in the order
// their entries appeared in the pack.
//
// The whole pack is read into memory before parsing: entry boundaries
// in a zlib-compressed stream can only be found by exhausting its
// deflate stream, and doing that against a byte slice (rather than a
// live network stream) keeps offset bookkeeping exact without relying
// on a decompressor's internal read-ahead behavior.
func Decode(ctx context.Context, r io.Reader, store *object.Store) ([]plumbing.Hash, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(buf) < len(signature)+4+4+checksumSize {
		return nil, NewError("packfile too short")
	}

	body, trailer := buf[:len(buf)-checksumSize], buf[len(buf)-checksumSize:]
	h := sha1cd.New()
	h.Write(body)
	sum := h.Sum(nil)
	if !bytes.Equal(sum, trailer) {
		return nil, NewError("packfile checksum mismatch").AddDetails("got %x want %x", sum, trailer)
	}

	if !bytes.Equal(buf[:len(signature)], signature[:]) {
		return nil, NewError("not a packfile").AddDetails("signature %q", buf[:len(signature)])
	}
	version := binary.BigEndian.Uint32(buf[4:8])
	if version != VersionSupported {
		return nil, NewError("unsupported packfile version").AddDetails("version %d", version)
	}
	count := binary.BigEndian.Uint32(buf[8:12])

	entries := make([]rawEntry, 0, count)
	byOffset := make(map[int64]int, count)
	pos := int64(12)

	for i := uint32(0); i < count; i++ {
		offset := pos
		t, size, n, err := readEntryHeader(buf[pos:])
		if err != nil {
			return nil, fmt.Errorf("reading entry %d header: %w", i, err)
		}
		pos += n

		entry := rawEntry{t: t, offset: offset}

		switch t {
		case plumbing.OFSDeltaObject:
			back, n, err := readOffsetDelta(buf[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
			entry.baseOfs = offset - back
		case plumbing.REFDeltaObject:
			if int(pos)+plumbing.HashSize > len(buf) {
				return nil, NewError("truncated ref-delta base hash")
			}
			copy(entry.baseHash[:], buf[pos:pos+plumbing.HashSize])
			pos += plumbing.HashSize
		}

		content, n, err := inflateEntry(buf[pos:], size)
		if err != nil {
			return nil, fmt.Errorf("inflating entry %d: %w", i, err)
		}
		pos += n
		entry.content = content

		byOffset[offset] = len(entries)
		entries = append(entries, entry)
	}

	resolved := make([][]byte, len(entries))
	resolvedType := make([]plumbing.ObjectType, len(entries))
	hashes := make([]plumbing.Hash, 0, len(entries))

	var resolve func(i int) ([]byte, plumbing.ObjectType, error)
	resolve = func(i int) ([]byte, plumbing.ObjectType, error) {
		if resolved[i] != nil {
			return resolved[i], resolvedType[i], nil
		}
		e := entries[i]

		base, baseType, err := entryBase(ctx, store, e, byOffset, resolve)
		if err != nil {
			return nil, 0, err
		}
		if base == nil {
			resolved[i], resolvedType[i] = e.content, e.t
			return e.content, e.t, nil
		}

		content, err := patchDelta(base, e.content)
		if err != nil {
			return nil, 0, err
		}
		resolved[i], resolvedType[i] = content, baseType
		return content, baseType, nil
	}

	for i := range entries {
		content, t, err := resolve(i)
		if err != nil {
			return nil, err
		}
		id, err := store.Objects.StoreWithSize(ctx, t, int64(len(content)), bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, id)
	}

	return hashes, nil
}

// entryBase returns the decoded base content and type for a delta
// entry, or (nil, 0, nil) when e is not a delta.
func entryBase(
	ctx context.Context,
	store *object.Store,
	e rawEntry,
	byOffset map[int64]int,
	resolve func(int) ([]byte, plumbing.ObjectType, error),
) ([]byte, plumbing.ObjectType, error) {
	switch e.t {
	case plumbing.OFSDeltaObject:
		baseIdx, ok := byOffset[e.baseOfs]
		if !ok {
			return nil, 0, NewError("delta base offset not found")
		}
		return resolve(baseIdx)
	case plumbing.REFDeltaObject:
		baseType, _, rc, err := store.Objects.Load(ctx, e.baseHash)
		if err != nil {
			return nil, 0, fmt.Errorf("loading delta base %s: %w", e.baseHash, err)
		}
		defer rc.Close()
		base, err := io.ReadAll(rc)
		if err != nil {
			return nil, 0, err
		}
		return base, baseType, nil
	default:
		return nil, 0, nil
	}
}

// readEntryHeader decodes a pack object header starting at buf[0] and
// reports how many bytes it occupied.
func readEntryHeader(buf []byte) (plumbing.ObjectType, uint64, int64, error) {
	if len(buf) == 0 {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	br := bytes.NewReader(buf)
	first, err := br.ReadByte()
	if err != nil {
		return 0, 0, 0, err
	}
	t := util.ObjectType(first)
	size, err := util.VariableLengthSize(first, br)
	if err != nil {
		return 0, 0, 0, err
	}
	return t, size, int64(len(buf)) - int64(br.Len()), nil
}

// readOffsetDelta reads an OFS_DELTA negative offset: base-128 digits,
// continuation bit set on all but the last, with a +1 added per extra
// digit per Git's packed object format.
func readOffsetDelta(buf []byte) (int64, int64, error) {
	if len(buf) == 0 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	i := 0
	b := buf[i]
	i++
	offset := int64(b & 0x7f)
	for b&0x80 != 0 {
		if i >= len(buf) {
			return 0, 0, io.ErrUnexpectedEOF
		}
		b = buf[i]
		i++
		offset = ((offset + 1) << 7) | int64(b&0x7f)
	}
	return offset, int64(i), nil
}

// inflateEntry decompresses exactly one zlib stream from the start of
// buf and reports how many compressed bytes it consumed.
func inflateEntry(buf []byte, size uint64) ([]byte, int64, error) {
	br := bytes.NewReader(buf)
	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, 0, err
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(zr, data); err != nil {
		zr.Close()
		return nil, 0, err
	}
	if err := zr.Close(); err != nil {
		return nil, 0, err
	}

	return data, int64(len(buf)) - int64(br.Len()), nil
}
