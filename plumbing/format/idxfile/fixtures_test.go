package idxfile_test

import (
	"bytes"
	"io/fs"
	"time"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/idxfile"
)

// fixtureEntries mixes offsets below and above the 31-bit boundary, so
// round-trip tests exercise both the direct 32-bit offset table and
// the 64-bit overflow table.
var fixtureEntries = []struct {
	offset int64
	hash   string
	crc    uint32
}{
	{12, "303953e5aa461c203a324821bc1717f9b4fff895", 0xbc347c4c},
	{142, "5296768e3d9f661387ccbff18c4dea6c997fd78c", 0xcdc22842},
	{1601322837, "03fc8d58d44267274edef4585eaeeb445879d33f", 0x929dfaaa},
	{2646996529, "8f3ceb4ea4cb9e4a0f751795eb41c9a4f07be772", 0xa61def8a},
	{3452385606, "e0d1d625010087f79c9e01ad9d8f95e1628dda02", 0x06bea180},
	{3707047470, "90eba326cdc4d1d61c5ad25224ccbf08731dd041", 0x7193f3ba},
	{5323223332, "bab53055add7bc35882758a922c54a874d6b1272", 0xac269b8e},
	{5894072943, "1b8995f51987d8a449ca5ea4356595102dc2fbd4", 0x2187c056},
	{5924278919, "35858be9c6f5914cbe6768489c41eb6809a2bceb", 0x9c89d9d2},
}

var fixtureChecksum = plumbing.NewHash("afabc2269205cf85da1bf7e2fdff42f73810f29b")

func fixtureHashes() []plumbing.Hash {
	out := make([]plumbing.Hash, len(fixtureEntries))
	for i, e := range fixtureEntries {
		out[i] = plumbing.NewHash(e.hash)
	}
	return out
}

func fixtureOffsets() []int64 {
	out := make([]int64, len(fixtureEntries))
	for i, e := range fixtureEntries {
		out[i] = e.offset
	}
	return out
}

// buildFixtureIndex drives a Writer the way a pack scan would, then
// encodes it, returning both the in-memory index and its on-disk bytes.
func buildFixtureIndex() (*idxfile.MemoryIndex, []byte, error) {
	w := new(idxfile.Writer)
	if err := w.OnHeader(uint32(len(fixtureEntries))); err != nil {
		return nil, nil, err
	}
	for _, e := range fixtureEntries {
		h := plumbing.NewHash(e.hash)
		if err := w.OnInflatedObjectHeader(plumbing.BlobObject, 0, e.offset); err != nil {
			return nil, nil, err
		}
		if err := w.OnInflatedObjectContent(h, e.offset, e.crc, nil); err != nil {
			return nil, nil, err
		}
	}
	if err := w.OnFooter(fixtureChecksum); err != nil {
		return nil, nil, err
	}

	idx, err := w.Index()
	if err != nil {
		return nil, nil, err
	}

	buf := new(bytes.Buffer)
	if err := idxfile.Encode(buf, idx); err != nil {
		return nil, nil, err
	}

	return idx, buf.Bytes(), nil
}

// readerAtFile adapts a byte slice to idxfile.IndexFile.
type readerAtFile struct {
	*bytes.Reader
	closed bool
}

func newReaderAtFile(b []byte) *readerAtFile {
	return &readerAtFile{Reader: bytes.NewReader(b)}
}

func (f *readerAtFile) Close() error {
	f.closed = true
	return nil
}

func (f *readerAtFile) Stat() (fs.FileInfo, error) {
	return fixtureFileInfo{size: f.Reader.Size()}, nil
}

type fixtureFileInfo struct {
	size int64
}

func (i fixtureFileInfo) Name() string       { return "pack.idx" }
func (i fixtureFileInfo) Size() int64        { return i.size }
func (i fixtureFileInfo) Mode() fs.FileMode  { return 0644 }
func (i fixtureFileInfo) ModTime() time.Time { return time.Time{} }
func (i fixtureFileInfo) IsDir() bool        { return false }
func (i fixtureFileInfo) Sys() interface{}   { return nil }
