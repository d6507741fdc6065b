package sideband

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
)

func TestDemuxerRead(t *testing.T) {
	expected := []byte("abcdefghijklmnopqrstuvwxyz")

	buf := &bytes.Buffer{}
	pw := pktline.NewWriter(buf)
	pw.WritePacket(PackData.WithPayload(expected[0:8]))
	pw.WritePacket(ProgressMessage.WithPayload([]byte("FOO\n")))
	pw.WritePacket(PackData.WithPayload(expected[8:16]))
	pw.WritePacket(PackData.WithPayload(expected[16:26]))

	content := make([]byte, 26)
	d := NewDemuxer(Sideband64k, buf)
	n, err := io.ReadFull(d, content)
	require.NoError(t, err)
	assert.Equal(t, 26, n)
	assert.Equal(t, expected, content)
}

func TestDemuxerReadMoreThanContains(t *testing.T) {
	expected := []byte("abcdefghijklmnopqrstuvwxyz")

	buf := &bytes.Buffer{}
	pktline.NewWriter(buf).WritePacket(PackData.WithPayload(expected))

	content := make([]byte, 42)
	d := NewDemuxer(Sideband64k, buf)
	n, err := io.ReadFull(d, content)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, 26, n)
	assert.Equal(t, expected, content[:26])
}

func TestDemuxerReadWithError(t *testing.T) {
	expected := []byte("abcdefghijklmnopqrstuvwxyz")

	buf := &bytes.Buffer{}
	pw := pktline.NewWriter(buf)
	pw.WritePacket(PackData.WithPayload(expected[0:8]))
	pw.WritePacket(ErrorMessage.WithPayload([]byte("FOO\n")))
	pw.WritePacket(PackData.WithPayload(expected[8:16]))

	content := make([]byte, 26)
	d := NewDemuxer(Sideband64k, buf)
	n, err := io.ReadFull(d, content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOO")
	assert.Equal(t, 8, n)
	assert.Equal(t, expected[0:8], content[0:8])
}

type failingReader struct{}

func (r *failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestDemuxerReadFromFailingReader(t *testing.T) {
	content := make([]byte, 26)
	d := NewDemuxer(Sideband64k, &failingReader{})
	_, err := io.ReadFull(d, content)
	assert.ErrorContains(t, err, "boom")
}

func TestDemuxerReadWithProgress(t *testing.T) {
	expected := []byte("abcdefghijklmnopqrstuvwxyz")

	input := &bytes.Buffer{}
	pw := pktline.NewWriter(input)
	pw.WritePacket(PackData.WithPayload(expected[0:8]))
	pw.WritePacket(ProgressMessage.WithPayload([]byte("FOO\n")))
	pw.WritePacket(PackData.WithPayload(expected[8:16]))
	pw.WritePacket(PackData.WithPayload(expected[16:26]))

	output := &bytes.Buffer{}
	content := make([]byte, 26)
	d := NewDemuxer(Sideband64k, input)
	d.Progress = output

	n, err := io.ReadFull(d, content)
	require.NoError(t, err)
	assert.Equal(t, 26, n)
	assert.Equal(t, expected, content)
	assert.Equal(t, []byte("FOO\n"), output.Bytes())
}

func TestDemuxerReadWithUnknownChannel(t *testing.T) {
	buf := &bytes.Buffer{}
	pktline.NewWriter(buf).WritePacket([]byte("4FOO\n"))

	content := make([]byte, 26)
	d := NewDemuxer(Sideband64k, buf)
	_, err := io.ReadFull(d, content)
	assert.ErrorContains(t, err, "unknown channel")
}

func TestDemuxerReadMaxPackedExceeded(t *testing.T) {
	buf := &bytes.Buffer{}
	pktline.NewWriter(buf).WritePacket(PackData.WithPayload(bytes.Repeat([]byte{'0'}, MaxPackedSize+1)))

	content := make([]byte, 13)
	d := NewDemuxer(Sideband, buf)
	_, err := io.ReadFull(d, content)
	assert.Equal(t, ErrMaxPackedExceeded, err)
}

func TestMuxerWrite(t *testing.T) {
	buf := &bytes.Buffer{}
	m := NewMuxer(Sideband, buf)

	n, err := m.Write(bytes.Repeat([]byte{'F'}, (MaxPackedSize-1)*2))
	require.NoError(t, err)
	assert.Equal(t, 1998, n)
	assert.Equal(t, 2008, buf.Len())
}

func TestMuxerWriteChannelMultipleChannels(t *testing.T) {
	buf := &bytes.Buffer{}
	m := NewMuxer(Sideband, buf)

	n, err := m.WriteChannel(PackData, bytes.Repeat([]byte{'D'}, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = m.WriteChannel(ProgressMessage, bytes.Repeat([]byte{'P'}, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = m.WriteChannel(PackData, bytes.Repeat([]byte{'D'}, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, 27, buf.Len())
	assert.Equal(t, "0009\x01DDDD0009\x02PPPP0009\x01DDDD", buf.String())
}
