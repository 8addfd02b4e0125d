package hfmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWIDRoundTripAllWaveforms(t *testing.T) {
	for wf := 0; wf < 14; wf++ {
		for _, ilv := range []InterleaverType{UltraShort, Short, Medium, Long} {
			for _, k := range []ConstraintLength{K7, K9} {
				w := WID{Waveform: wf, Interleaver: ilv, ConstraintLength: k}
				bits := EncodeWID(w)
				got, err := DecodeWID(bits)
				require.NoError(t, err)
				assert.Equal(t, w, got)
			}
		}
	}
}

func TestWIDDecodeRejectsReservedWaveform(t *testing.T) {
	w := WID{Waveform: 14}
	bits := EncodeWID(w)
	_, err := DecodeWID(bits)
	assert.ErrorIs(t, err, ErrReservedValue)
}

func TestWIDDecodeDetectsSingleBitCorruption(t *testing.T) {
	w := WID{Waveform: 5, Interleaver: Medium, ConstraintLength: K9}
	bits := EncodeWID(w)
	for i := range bits {
		corrupt := append([]byte(nil), bits...)
		corrupt[i] ^= 1
		_, err := DecodeWID(corrupt)
		assert.Error(t, err, "bit %d flip should be detected", i)
	}
}

func TestWIDDecodeWrongLength(t *testing.T) {
	_, err := DecodeWID([]byte{1, 0, 1})
	assert.ErrorIs(t, err, ErrFrameTooShort)
}

func TestDowncountRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(0, 31).Draw(rt, "count")
		c := Downcount{Count: count}
		bits := EncodeDowncount(c)
		got, err := DecodeDowncount(bits)
		require.NoError(rt, err)
		assert.Equal(rt, c, got)
	})
}

func TestDowncountDecodeDetectsParityMismatch(t *testing.T) {
	c := Downcount{Count: 17}
	bits := EncodeDowncount(c)
	bits[7] ^= 1
	_, err := DecodeDowncount(bits)
	assert.ErrorIs(t, err, ErrParityMismatch)
}

func TestDowncountDecodeWrongLength(t *testing.T) {
	_, err := DecodeDowncount([]byte{1, 0})
	assert.ErrorIs(t, err, ErrFrameTooShort)
}
