package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

func TestDecodePackedRefsSkipsCommentsAndPeeledLines(t *testing.T) {
	content := []byte(`# pack-refs with: peeled fully-peeled sorted
aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa refs/heads/main
bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb refs/tags/v1
^cccccccccccccccccccccccccccccccccccccccc
`)

	list, err := decodePackedRefs(content)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, refs.Name("refs/heads/main"), list[0].Name())
	assert.Equal(t, refs.Name("refs/tags/v1"), list[1].Name())
}

func TestEncodeDecodePackedRefsRoundTrip(t *testing.T) {
	list := []*refs.Reference{
		refs.NewHashReference("refs/heads/main", plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")),
	}
	encoded := encodePackedRefs(list)

	decoded, err := decodePackedRefs(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, list[0].Name(), decoded[0].Name())
	assert.Equal(t, list[0].Hash(), decoded[0].Hash())
}
