package object_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

func TestTagEncodeDecodeRoundTrip(t *testing.T) {
	tag := &object.Tag{
		TargetHash: plumbing.NewHash("1111111111111111111111111111111111111111"),
		TargetType: plumbing.CommitObject,
		Name:       "v1.0.0",
		Tagger:     testSignature(),
		Message:    "release\n",
	}

	content, err := tag.Encode()
	require.NoError(t, err)

	decoded, err := object.DecodeTag(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, tag.TargetHash, decoded.TargetHash)
	assert.Equal(t, tag.TargetType, decoded.TargetType)
	assert.Equal(t, tag.Name, decoded.Name)
	assert.Equal(t, "release\n", decoded.Message)
}

func TestTagEncodeRejectsEmptyName(t *testing.T) {
	tag := &object.Tag{TargetHash: plumbing.NewHash("1111111111111111111111111111111111111111"), TargetType: plumbing.CommitObject}
	_, err := tag.Encode()
	assert.ErrorIs(t, err, plumbing.ErrInvalid)
}

func TestTagEncodeRejectsInvalidTargetType(t *testing.T) {
	tag := &object.Tag{TargetHash: plumbing.NewHash("1111111111111111111111111111111111111111"), Name: "v1"}
	_, err := tag.Encode()
	assert.ErrorIs(t, err, plumbing.ErrInvalid)
}

func TestStoreTagRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	tag := &object.Tag{
		TargetHash: plumbing.NewHash("2222222222222222222222222222222222222222"),
		TargetType: plumbing.CommitObject,
		Name:       "v2.0.0",
		Tagger:     testSignature(),
		Message:    "second release\n",
	}

	id, err := s.StoreTag(ctx, tag)
	require.NoError(t, err)

	loaded, err := s.LoadTag(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tag.Name, loaded.Name)
	assert.Equal(t, tag.TargetHash, loaded.TargetHash)
}
