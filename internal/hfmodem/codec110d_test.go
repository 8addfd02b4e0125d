package hfmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codec110DTestConfig(t *testing.T) Codec110DConfig {
	t.Helper()
	ilv, err := LookupInterleaver(UltraShort, 3)
	require.NoError(t, err)
	return Codec110DConfig{
		K:             K7,
		Rate:          CodeRate{1, 2},
		Interleaver:   ilv,
		BitsPerSymbol: 1, // BPSK
	}
}

func TestCodec110DEncodeDecodeRoundTripWithEOM(t *testing.T) {
	cfg := codec110DTestConfig(t)
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)
	dec, err := NewDecoder(cfg)
	require.NoError(t, err)

	// With EOM(32 bits) appended and tail-biting doubling the bit count,
	// a 96-bit payload produces exactly one full 256-bit UltraShort
	// interleaver block: 2*(96+32) = 256.
	payload := make([]byte, 96)
	for i := range payload {
		payload[i] = byte(i % 2)
	}

	symbols, err := enc.Encode(payload, true)
	require.NoError(t, err)

	require.NoError(t, dec.DecodeBlock(symbols))
	data, eomDetected, err := dec.Flush()
	require.NoError(t, err)
	assert.True(t, eomDetected)
	require.GreaterOrEqual(t, len(data), len(payload))
	assert.Equal(t, payload, data[:len(payload)])
}

func TestCodec110DDecodeBlockAcceptsArbitraryChunking(t *testing.T) {
	cfg := codec110DTestConfig(t)
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)
	dec, err := NewDecoder(cfg)
	require.NoError(t, err)

	payload := make([]byte, 96)
	for i := range payload {
		payload[i] = byte((i * 3) % 2)
	}
	symbols, err := enc.Encode(payload, true)
	require.NoError(t, err)

	// Feed symbols in small, uneven chunks rather than all at once.
	for i := 0; i < len(symbols); {
		n := 3
		if i+n > len(symbols) {
			n = len(symbols) - i
		}
		require.NoError(t, dec.DecodeBlock(symbols[i:i+n]))
		i += n
	}

	data, eomDetected, err := dec.Flush()
	require.NoError(t, err)
	assert.True(t, eomDetected)
	assert.Equal(t, payload, data[:len(payload)])
}

func TestCodec110DDecoderResetClearsState(t *testing.T) {
	cfg := codec110DTestConfig(t)
	dec, err := NewDecoder(cfg)
	require.NoError(t, err)
	require.NoError(t, dec.DecodeBlock(make([]int, 10)))
	dec.Reset()
	data, detected, err := dec.Flush()
	require.NoError(t, err)
	assert.False(t, detected)
	assert.Nil(t, data)
}

func TestCodec110DEncodeDecodeRoundTripMisalignedPayload(t *testing.T) {
	ilv, err := LookupInterleaver(Short, 3)
	require.NoError(t, err)
	cfg := Codec110DConfig{
		K:             K7,
		Rate:          CodeRate{1, 2},
		Interleaver:   ilv,
		BitsPerSymbol: 1,
	}
	enc, err := NewEncoder(cfg)
	require.NoError(t, err)
	dec, err := NewDecoder(cfg)
	require.NoError(t, err)

	// 100 bits + 32-bit EOM is 132 bits, nowhere near a multiple of the
	// Short interleaver's 1024-bit block (§8 invariant 1: round-trips
	// for any length, not just exact block multiples).
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte((i * 5) % 2)
	}

	symbols, err := enc.Encode(payload, true)
	require.NoError(t, err)
	assert.Equal(t, ilv.CodedBits, len(symbols))

	require.NoError(t, dec.DecodeBlock(symbols))
	data, eomDetected, err := dec.Flush()
	require.NoError(t, err)
	assert.True(t, eomDetected)
	require.GreaterOrEqual(t, len(data), len(payload))
	assert.Equal(t, payload, data[:len(payload)])
}

func TestNewEncoderRejectsBadRate(t *testing.T) {
	cfg := codec110DTestConfig(t)
	cfg.Rate = CodeRate{1, 1}
	_, err := NewEncoder(cfg)
	assert.Error(t, err)
}
