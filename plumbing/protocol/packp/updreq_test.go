package packp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

func TestUpdateRequestsEncodeDecodeRoundTrip(t *testing.T) {
	oldHash := hashFromHex(t, "1111111111111111111111111111111111111111")
	newHash := hashFromHex(t, "2222222222222222222222222222222222222222")
	shallow := hashFromHex(t, "3333333333333333333333333333333333333333")

	req := NewUpdateRequests()
	req.Shallow = &shallow
	req.Capabilities.Add("report-status")
	req.Commands = []*Command{
		{Name: refs.NewBranchName("main"), Old: oldHash, New: newHash},
		{Name: refs.NewTagName("v1.0"), Old: plumbing.ZeroHash, New: newHash},
	}

	var buf bytes.Buffer
	require.NoError(t, req.Encode(&buf))

	got := NewUpdateRequests()
	require.NoError(t, got.Decode(&buf))

	require.NotNil(t, got.Shallow)
	assert.Equal(t, shallow, *got.Shallow)
	assert.True(t, got.Capabilities.Supports("report-status"))
	require.Len(t, got.Commands, 2)
	assert.Equal(t, Update, got.Commands[0].Action())
	assert.Equal(t, Create, got.Commands[1].Action())
}

func TestUpdateRequestsEncodeRejectsEmptyCommands(t *testing.T) {
	req := NewUpdateRequests()
	var buf bytes.Buffer
	assert.ErrorIs(t, req.Encode(&buf), ErrEmptyCommands)
}

func TestCommandActionDelete(t *testing.T) {
	c := &Command{Name: refs.NewBranchName("gone"), Old: hashFromHex(t, "1111111111111111111111111111111111111111"), New: plumbing.ZeroHash}
	assert.Equal(t, Delete, c.Action())
}

func TestCommandActionInvalid(t *testing.T) {
	c := &Command{Name: refs.NewBranchName("nop")}
	assert.Equal(t, Invalid, c.Action())
}
