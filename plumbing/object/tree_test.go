package object_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/storage"
	"github.com/statewalker/vcs-sub011/storage/memory"
)

func newTestStore() *object.Store {
	return object.NewStore(storage.NewObjectStore(memory.NewStore(), 0, 0))
}

func TestEmptyTreeHash(t *testing.T) {
	tree := &object.Tree{}
	content, err := tree.Encode()
	require.NoError(t, err)
	assert.Empty(t, content)
	assert.Equal(t, object.EmptyTreeHash, plumbing.ComputeHash(plumbing.TreeObject, content))
}

func TestTreeDirectoryVsDottedFileSortOrder(t *testing.T) {
	// Git's tree sort compares a directory's name with a trailing slash,
	// so "lib.c" (file) sorts before "lib" (directory): '.' < '/'.
	tree := &object.Tree{Entries: []object.TreeEntry{
		{Name: "lib", Mode: filemode.Dir, Hash: plumbing.NewHash("1111111111111111111111111111111111111111")},
		{Name: "lib.c", Mode: filemode.Regular, Hash: plumbing.NewHash("2222222222222222222222222222222222222222")},
	}}
	tree.Sort()

	require.Len(t, tree.Entries, 2)
	assert.Equal(t, "lib.c", tree.Entries[0].Name)
	assert.Equal(t, "lib", tree.Entries[1].Name)
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	tree := &object.Tree{Entries: []object.TreeEntry{
		{Name: "README.md", Mode: filemode.Regular, Hash: plumbing.NewHash("ce013625030ba8dba906f756967f9e9ca394464a")},
		{Name: "bin", Mode: filemode.Dir, Hash: plumbing.NewHash("3333333333333333333333333333333333333333")},
		{Name: "run.sh", Mode: filemode.Executable, Hash: plumbing.NewHash("4444444444444444444444444444444444444444")},
	}}

	content, err := tree.Encode()
	require.NoError(t, err)

	decoded, err := object.DecodeTree(bytes.NewReader(content))
	require.NoError(t, err)

	tree.Sort()
	assert.Equal(t, tree.Entries, decoded.Entries)
}

func TestTreeEncodeRejectsDuplicateNames(t *testing.T) {
	tree := &object.Tree{Entries: []object.TreeEntry{
		{Name: "a", Mode: filemode.Regular, Hash: plumbing.NewHash("1111111111111111111111111111111111111111")},
		{Name: "a", Mode: filemode.Regular, Hash: plumbing.NewHash("2222222222222222222222222222222222222222")},
	}}
	_, err := tree.Encode()
	assert.ErrorIs(t, err, plumbing.ErrInvalid)
}

func TestStoreTreeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tree := &object.Tree{Entries: []object.TreeEntry{
		{Name: "README.md", Mode: filemode.Regular, Hash: plumbing.NewHash("ce013625030ba8dba906f756967f9e9ca394464a")},
	}}

	id, err := s.StoreTree(ctx, tree)
	require.NoError(t, err)

	loaded, err := s.LoadTree(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tree.Entries, loaded.Entries)

	entry, ok := loaded.Find("README.md")
	require.True(t, ok)
	assert.Equal(t, filemode.Regular, entry.Mode)
}

func TestLoadEmptyTreeWithoutStorage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tree, err := s.LoadTree(ctx, object.EmptyTreeHash)
	require.NoError(t, err)
	assert.Empty(t, tree.Entries)
}
