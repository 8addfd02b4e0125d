package hfmodem

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiniProbeSequenceDeterministicAndLengthMatchesK(t *testing.T) {
	wp, err := LookupWaveform(0)
	require.NoError(t, err)

	a, err := MiniProbeSequence(0, 3)
	require.NoError(t, err)
	b, err := MiniProbeSequence(0, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, wp.K)

	other, err := MiniProbeSequence(1, 3)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestMiniProbeRxEstimateChannelExactMatch(t *testing.T) {
	rx, err := NewMiniProbeRx(0, 3)
	require.NoError(t, err)

	est, boundary, err := rx.EstimateChannel(rx.ref)
	require.NoError(t, err)
	assert.False(t, boundary)
	assert.InDelta(t, 1.0, est.Amplitude, 1e-9)
	assert.InDelta(t, 0.0, est.Phase, 1e-9)
	assert.InDelta(t, 100.0, est.SNRdB, 1e-9)
}

func TestMiniProbeRxSmoothedPhaseAveragesHistory(t *testing.T) {
	rx, err := NewMiniProbeRx(0, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rx.SmoothedPhase())

	_, _, err = rx.EstimateChannel(rx.ref)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rx.SmoothedPhase(), 1e-9)
}

func TestCorrectChannelUndoesAmplitudeAndPhase(t *testing.T) {
	iq := []complex128{octantToComplex(0), octantToComplex(2), octantToComplex(5)}
	est := ChannelEstimate{Amplitude: 2.0, Phase: 0.5}

	// Simulate a channel that scales by Amplitude and rotates by +Phase;
	// CorrectChannel should invert exactly that transform.
	applied := make([]complex128, len(iq))
	rot := cmplx.Rect(est.Amplitude, est.Phase)
	for i, v := range iq {
		applied[i] = v * rot
	}

	corrected := CorrectChannel(applied, est)
	for i := range corrected {
		assert.InDelta(t, real(iq[i]), real(corrected[i]), 1e-9)
		assert.InDelta(t, imag(iq[i]), imag(corrected[i]), 1e-9)
	}
}

func TestCorrectChannelZeroAmplitudeIsPassthrough(t *testing.T) {
	iq := []complex128{1 + 2i, 3 - 1i}
	out := CorrectChannel(iq, ChannelEstimate{})
	assert.Equal(t, iq, out)
}

func TestCyclicShiftAndContinuation(t *testing.T) {
	seq := []complex128{0, 1, 2, 3}
	shifted := cyclicShift(seq, 1)
	assert.Equal(t, []complex128{1, 2, 3, 0}, shifted)

	cont := cyclicContinuation(seq, 2, 6)
	assert.Equal(t, []complex128{2, 3, 0, 1, 2, 3}, cont)
}

func TestMiniProbeRxDetectEOTOnCyclicContinuation(t *testing.T) {
	rx, err := NewMiniProbeRx(0, 3)
	require.NoError(t, err)

	tail := cyclicContinuation(rx.ref, 0, len(rx.ref)-1)
	assert.True(t, rx.DetectEOT(tail, len(rx.ref)+4))
}

func TestMiniProbeRxDetectEOTFalseWhenBufferFillsAFrame(t *testing.T) {
	rx, err := NewMiniProbeRx(0, 3)
	require.NoError(t, err)
	buf := make([]complex128, len(rx.ref)+4)
	assert.False(t, rx.DetectEOT(buf, len(rx.ref)+4))
}
