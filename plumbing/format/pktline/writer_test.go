package pktline_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

func TestWriterWritePacket(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)

	n, err := w.WritePacket([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "000ahello\n", buf.String())
}

func TestWriterWritePacketString(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)

	_, err := w.WritePacketString("world!\n")
	require.NoError(t, err)
	assert.Equal(t, "000bworld!\n", buf.String())
}

func TestWriterWritePacketf(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)

	_, err := w.WritePacketf("%s=%d\n", "n", 7)
	require.NoError(t, err)
	assert.Equal(t, "0008n=7\n", buf.String())
}

func TestWriterWriteFlushAndDelim(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)

	require.NoError(t, w.WriteFlush())
	require.NoError(t, w.WriteDelim())
	assert.Equal(t, "00000001", buf.String())
}

func TestWriterWriteError(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)

	_, err := w.WriteError(assert.AnError)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ERR ")
}

func TestWriterRejectsOversizePayload(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)

	_, err := w.WritePacket(bytes.Repeat([]byte("a"), pktline.MaxPayloadSize+1))
	assert.ErrorIs(t, err, pktline.ErrPayloadTooLong)
}

func TestWriterImplementsIoWriter(t *testing.T) {
	var buf bytes.Buffer
	w := pktline.NewWriter(&buf)

	n, err := w.Write([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "raw", buf.String())
}

func TestWriterWrapsItselfIdempotently(t *testing.T) {
	var buf bytes.Buffer
	inner := pktline.NewWriter(&buf)
	outer := pktline.NewWriter(inner)
	assert.Same(t, inner, outer)
}
