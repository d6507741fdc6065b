package packp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/refs"
)

func TestReportStatusEncodeDecodeRoundTrip(t *testing.T) {
	s := NewReportStatus()
	s.UnpackStatus = "ok"
	s.CommandStatuses = []*CommandStatus{
		{Name: refs.NewBranchName("main"), Status: "ok"},
		{Name: refs.NewBranchName("rejected"), Status: "non-fast-forward"},
	}

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))

	got := NewReportStatus()
	require.NoError(t, got.Decode(&buf))

	assert.Equal(t, "ok", got.UnpackStatus)
	require.Len(t, got.CommandStatuses, 2)
	assert.NoError(t, got.CommandStatuses[0].Error())

	err := got.Error()
	require.Error(t, err)
	var cmdErr CommandStatusErr
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, refs.NewBranchName("rejected"), cmdErr.Name)
}

func TestReportStatusUnpackFailureTakesPriority(t *testing.T) {
	s := NewReportStatus()
	s.UnpackStatus = "index-pack failed"

	var buf bytes.Buffer
	require.NoError(t, s.Encode(&buf))

	got := NewReportStatus()
	require.NoError(t, got.Decode(&buf))

	var unpackErr UnpackStatusErr
	require.ErrorAs(t, got.Error(), &unpackErr)
}
