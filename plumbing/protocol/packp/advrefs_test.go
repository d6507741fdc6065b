package packp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
	"github.com/statewalker/vcs-sub011/refs"
)

func hashFromHex(t *testing.T, s string) plumbing.Hash {
	t.Helper()
	h, ok := plumbing.FromHex(s)
	require.True(t, ok)
	return h
}

func TestAdvRefsEncodeDecodeRoundTrip(t *testing.T) {
	master := hashFromHex(t, "6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	tagHash := hashFromHex(t, "1111111111111111111111111111111111111111")
	peeled := hashFromHex(t, "2222222222222222222222222222222222222222")

	ar := NewAdvRefs()
	ar.Head = &master
	ar.Capabilities.Add("ofs-delta")
	ar.Capabilities.Add("agent", "git/2.0")
	ar.References[refs.NewBranchName("master")] = master
	ar.References[refs.NewTagName("v1.0")] = tagHash
	ar.AddPeeled(refs.NewTagName("v1.0"), peeled)
	ar.Shallows = append(ar.Shallows, hashFromHex(t, "3333333333333333333333333333333333333333"))

	var buf bytes.Buffer
	require.NoError(t, ar.Encode(&buf))

	got := NewAdvRefs()
	require.NoError(t, got.Decode(&buf))

	require.NotNil(t, got.Head)
	assert.Equal(t, master, *got.Head)
	assert.True(t, got.Capabilities.Supports("ofs-delta"))
	assert.Equal(t, master, got.References[refs.NewBranchName("master")])
	assert.Equal(t, tagHash, got.References[refs.NewTagName("v1.0")])
	assert.Equal(t, peeled, got.Peeled[refs.NewTagName("v1.0")])
	assert.Equal(t, ar.Shallows, got.Shallows)
}

func TestAdvRefsEncodeEmptyRepository(t *testing.T) {
	ar := NewAdvRefs()
	ar.Capabilities.Add("report-status")

	var buf bytes.Buffer
	require.NoError(t, ar.Encode(&buf))

	got := NewAdvRefs()
	require.NoError(t, got.Decode(&buf))

	assert.True(t, got.IsEmpty())
	assert.Nil(t, got.Head)
	assert.True(t, got.Capabilities.Supports("report-status"))
}

func TestAdvRefsDecodeBareFlushIsEmptyMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pktline.NewWriter(&buf).WriteFlush())

	got := NewAdvRefs()
	assert.ErrorIs(t, got.Decode(&buf), ErrEmptyAdvRefs)
}

func TestAdvRefsDecodeSymrefCapability(t *testing.T) {
	master := hashFromHex(t, "6ecf0ef2c2dffb796033e5a02219af86ec6584e5")

	ar := NewAdvRefs()
	ar.Capabilities.Add("symref", "HEAD:"+string(refs.NewBranchName("main")))
	ar.References[refs.NewBranchName("main")] = master

	var buf bytes.Buffer
	require.NoError(t, ar.Encode(&buf))

	got := NewAdvRefs()
	require.NoError(t, got.Decode(&buf))

	require.NotNil(t, got.Head)
	assert.Equal(t, master, *got.Head)
}

func TestAdvRefsAddReferenceCapturesSymbolicHead(t *testing.T) {
	ar := NewAdvRefs()
	require.NoError(t, ar.AddReference(refs.NewSymbolicReference(refs.HEAD, refs.NewBranchName("main"))))

	assert.Equal(t, "HEAD:"+string(refs.NewBranchName("main")), ar.Capabilities.Get("symref").Values[0])
}

func TestAdvRefsIsEmpty(t *testing.T) {
	ar := NewAdvRefs()
	assert.True(t, ar.IsEmpty())

	ar.References[refs.NewBranchName("master")] = plumbing.ZeroHash
	assert.False(t, ar.IsEmpty())
}
