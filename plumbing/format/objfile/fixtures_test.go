package objfile

import (
	"bytes"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing"
)

type objfileFixture struct {
	t       plumbing.ObjectType
	content []byte
}

var objfileFixtures = []objfileFixture{
	{t: plumbing.BlobObject, content: []byte("")},
	{t: plumbing.BlobObject, content: []byte("hello world\n")},
	{t: plumbing.TreeObject, content: bytes.Repeat([]byte("x"), 512)},
	{t: plumbing.CommitObject, content: []byte("tree 0000000000000000000000000000000000000000\n")},
}

// hash returns the canonical object id of the fixture.
func (f objfileFixture) hash() plumbing.Hash {
	return plumbing.ComputeHash(f.t, f.content)
}

// encode writes the fixture out in loose-object format, as NewReader
// expects to find it.
func (f objfileFixture) encode() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := NewWriter(buf)
	if err := w.WriteHeader(f.t, int64(len(f.content))); err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, bytes.NewReader(f.content)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
