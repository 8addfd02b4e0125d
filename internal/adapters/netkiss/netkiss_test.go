package netkiss

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKISSEscapesReservedBytes(t *testing.T) {
	payload := []byte{0x01, kissFEND, 0x02, kissFESC, 0x03}
	frame := encodeKISS(payload)

	assert.Equal(t, byte(kissFEND), frame[0])
	assert.Equal(t, byte(0x00), frame[1]) // port/command byte
	assert.Equal(t, byte(kissFEND), frame[len(frame)-1])

	r := bufio.NewReader(bytes.NewReader(frame))
	got, err := readKISSFrame(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadKISSFrameRoundTripsPlainPayload(t *testing.T) {
	payload := []byte("hello ALE")
	frame := encodeKISS(payload)

	r := bufio.NewReader(bytes.NewReader(frame))
	got, err := readKISSFrame(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadKISSFrameSkipsLeadingGarbageBeforeFEND(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE}) // noise before the first FEND
	buf.Write(encodeKISS([]byte{0x10, 0x20}))

	r := bufio.NewReader(&buf)
	got, err := readKISSFrame(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x20}, got)
}

func TestReadKISSFrameReturnsErrorOnTruncatedStream(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{kissFEND, 0x00, 0x01}))
	_, err := readKISSFrame(r)
	assert.Error(t, err)
}
