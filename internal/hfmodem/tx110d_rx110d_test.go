package hfmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTx110DRx110DLoopback runs a full frame through TransmitFrame and
// DecodeCapture over an ideal (noiseless) channel: waveform 0 (BPSK,
// rate 1/2), a single super-frame, no TLC blocks, and a payload sized
// so the coded bit count lands on exactly two full UltraShort
// interleaver blocks (§4.1/§4.3/§4.6/§4.9/§4.10 end to end).
func TestTx110DRx110DLoopback(t *testing.T) {
	wid := WID{Waveform: 0, Interleaver: UltraShort, ConstraintLength: K7}
	params := FrameParams{
		Waveform:    0,
		BWKHz:       3,
		WID:         wid,
		Superframes: 1,
		TLCBlocks:   0,
	}
	tx, err := NewTx110D(params)
	require.NoError(t, err)

	// 224 data bits + 32 EOM bits = 256 bits; tail-biting doubles to
	// 512 coded bits, exactly two full 256-bit UltraShort blocks.
	payload := make([]byte, 224)
	for i := range payload {
		payload[i] = byte((i * 7) % 2)
	}

	samples, err := tx.TransmitFrame(payload, true)
	require.NoError(t, err)
	require.NotEmpty(t, samples)

	rx := NewRx110D(3)
	result, err := rx.DecodeCapture(samples)
	require.NoError(t, err)

	assert.Equal(t, wid, result.WID)
	assert.False(t, result.SawTLC)
	assert.Equal(t, 1, result.Superframes)
	assert.True(t, result.EOMDetected)
	require.GreaterOrEqual(t, len(result.Data), len(payload))
	assert.Equal(t, payload, result.Data[:len(payload)])
	assert.Equal(t, RxComplete, rx.State())
}

func TestRx110DDecodeCaptureRejectsNoise(t *testing.T) {
	rx := NewRx110D(3)
	noise := make([]complex128, 512)
	for i := range noise {
		noise[i] = complex(0.01, -0.01)
	}
	_, err := rx.DecodeCapture(noise)
	assert.Error(t, err)
}
