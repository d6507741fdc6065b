package memory_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/storage/memory"
)

func TestStoreLoadHasRemove(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, s.Store(ctx, "k", bytes.NewReader([]byte("hello world"))))

	ok, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := s.Size(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 11, size)

	rc, err := s.Load(ctx, "k", 0, -1)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello world", string(got))

	require.NoError(t, s.Remove(ctx, "k"))
	ok, err = s.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadRange(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Store(ctx, "k", bytes.NewReader([]byte("0123456789"))))

	rc, err := s.Load(ctx, "k", 3, 6)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "345", string(got))
}

func TestLoadMissing(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	_, err := s.Load(ctx, "nope", 0, -1)
	assert.ErrorIs(t, err, plumbing.ErrNotFound)
}

func TestKeysSorted(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Store(ctx, "b", bytes.NewReader(nil)))
	require.NoError(t, s.Store(ctx, "a", bytes.NewReader(nil)))
	require.NoError(t, s.Store(ctx, "c", bytes.NewReader(nil)))

	it, err := s.Keys(ctx)
	require.NoError(t, err)

	var keys []string
	for {
		k, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
