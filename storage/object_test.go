package storage_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/storage"
	"github.com/statewalker/vcs-sub011/storage/memory"
)

func TestObjectStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	objStore := storage.NewObjectStore(raw, 0, 0)

	content := []byte("hello\n")
	id, err := objStore.StoreWithSize(ctx, plumbing.BlobObject, int64(len(content)), bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, plumbing.ComputeHash(plumbing.BlobObject, content), id)

	typ, size, rc, err := objStore.Load(ctx, id)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, plumbing.BlobObject, typ)
	assert.EqualValues(t, len(content), size)

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestObjectStoreIdempotent(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	objStore := storage.NewObjectStore(raw, 0, 0)

	content := []byte("same bytes\n")
	id1, err := objStore.StoreWithSize(ctx, plumbing.BlobObject, int64(len(content)), bytes.NewReader(content))
	require.NoError(t, err)
	id2, err := objStore.StoreWithSize(ctx, plumbing.BlobObject, int64(len(content)), bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestObjectStoreSizeMismatch(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	objStore := storage.NewObjectStore(raw, 0, 0)

	_, err := objStore.StoreWithSize(ctx, plumbing.BlobObject, 100, bytes.NewReader([]byte("short")))
	assert.ErrorIs(t, err, plumbing.ErrSizeMismatch)
}

func TestObjectStoreUnknownSize(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	objStore := storage.NewObjectStore(raw, 0, 0)

	content := []byte("streamed without a declared size\n")
	id, err := objStore.Store(ctx, plumbing.BlobObject, bytes.NewReader(content))
	require.NoError(t, err)

	typ, size, err := objStore.GetHeader(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, plumbing.BlobObject, typ)
	assert.EqualValues(t, len(content), size)
}

func TestObjectStoreHas(t *testing.T) {
	ctx := context.Background()
	raw := memory.NewStore()
	objStore := storage.NewObjectStore(raw, 0, 0)

	ok, err := objStore.Has(ctx, plumbing.ComputeHash(plumbing.BlobObject, []byte("nope")))
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := objStore.Store(ctx, plumbing.BlobObject, bytes.NewReader([]byte("present")))
	require.NoError(t, err)

	ok, err = objStore.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}
