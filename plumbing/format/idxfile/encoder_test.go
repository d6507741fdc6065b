package idxfile_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing/format/idxfile"
)

func TestEncodeRoundTrip(t *testing.T) {
	idx, encoded, err := buildFixtureIndex()
	require.NoError(t, err)

	decoded := new(idxfile.MemoryIndex)
	d := idxfile.NewDecoder(bytes.NewReader(encoded))
	require.NoError(t, d.Decode(decoded))

	assert.Equal(t, idx.PackfileChecksum, decoded.PackfileChecksum)
	assert.Equal(t, idx.IdxChecksum, decoded.IdxChecksum)

	wantIter, err := idx.Entries()
	require.NoError(t, err)
	gotIter, err := decoded.Entries()
	require.NoError(t, err)

	for {
		want, werr := wantIter.Next()
		got, gerr := gotIter.Next()
		if werr == io.EOF {
			assert.Equal(t, io.EOF, gerr)
			break
		}
		require.NoError(t, werr)
		require.NoError(t, gerr)
		assert.Equal(t, want, got)
	}
}

func TestEncodeErrors(t *testing.T) {
	idx, _, err := buildFixtureIndex()
	require.NoError(t, err)

	t.Run("nil writer", func(t *testing.T) {
		err := idxfile.Encode(nil, idx)
		assert.ErrorIs(t, err, idxfile.ErrNilWriter)
	})

	t.Run("nil index", func(t *testing.T) {
		err := idxfile.Encode(new(bytes.Buffer), nil)
		assert.ErrorIs(t, err, idxfile.ErrNilIndex)
	})

	t.Run("unsupported version", func(t *testing.T) {
		bad := &idxfile.MemoryIndex{Version: 3}
		err := idxfile.Encode(new(bytes.Buffer), bad)
		assert.Error(t, err)
	})
}
