package pktline_test

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

func TestWritePacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := pktline.WritePacket(&buf, []byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "000ahello\n", buf.String())

	l, p, err := pktline.ReadPacket(&buf)
	require.NoError(t, err)
	assert.Equal(t, 10, l)
	assert.Equal(t, "hello\n", string(p))
}

func TestWritePacketEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacket(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "0004", buf.String())
}

func TestWritePacketRejectsOversizePayload(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacket(&buf, bytes.Repeat([]byte("a"), pktline.MaxPayloadSize+1))
	assert.ErrorIs(t, err, pktline.ErrPayloadTooLong)
}

func TestWritePacketf(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacketf(&buf, "%s %d\n", "foo", 42)
	require.NoError(t, err)
	assert.Equal(t, "000bfoo 42\n", buf.String())
}

func TestWritePacketln(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacketln(&buf, "foo")
	require.NoError(t, err)
	assert.Equal(t, "0008foo\n", buf.String())
}

func TestWriteFlushAndDelim(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pktline.WriteFlush(&buf))
	require.NoError(t, pktline.WriteDelim(&buf))
	assert.Equal(t, "00000001", buf.String())
}

func TestWriteErrorPacket(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WriteErrorPacket(&buf, errors.New("boom"))
	require.NoError(t, err)
	assert.Equal(t, "000dERR boom\n", buf.String())
}

func TestReadPacketFlush(t *testing.T) {
	l, p, err := pktline.ReadPacket(bytes.NewReader(pktline.FlushPkt))
	require.NoError(t, err)
	assert.Equal(t, pktline.Flush, l)
	assert.Nil(t, p)
}

func TestReadPacketSurfacesErrorLine(t *testing.T) {
	_, _, err := pktline.ReadPacket(strings.NewReader("001cERR something went wrong\n"))
	var errLine *pktline.ErrorLine
	require.True(t, errors.As(err, &errLine))
	assert.Equal(t, "something went wrong", errLine.Text)
}

func TestReadPacketStringMatchesReadPacket(t *testing.T) {
	l, s, err := pktline.ReadPacketString(strings.NewReader("0008foo\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, l)
	assert.Equal(t, "foo\n", s)
}

func TestPeekPacketDoesNotAdvance(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("0007ab\n0007cd\n"))

	l, p, err := pktline.PeekPacket(r)
	require.NoError(t, err)
	assert.Equal(t, 7, l)
	assert.Equal(t, "ab\n", string(p))

	l, p, err = pktline.ReadPacket(r)
	require.NoError(t, err)
	assert.Equal(t, 7, l)
	assert.Equal(t, "ab\n", string(p))

	l, p, err = pktline.ReadPacket(r)
	require.NoError(t, err)
	assert.Equal(t, 7, l)
	assert.Equal(t, "cd\n", string(p))
}

func TestPeekPacketString(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("0008foo\n"))
	l, s, err := pktline.PeekPacketString(r)
	require.NoError(t, err)
	assert.Equal(t, 8, l)
	assert.Equal(t, "foo\n", s)
}
