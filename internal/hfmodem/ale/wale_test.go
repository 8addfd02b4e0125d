package ale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleDisassembleFrameDeep(t *testing.T) {
	pdu := PDU{Type: LsuReq, Caller: 0x1234, Called: 0x5678}
	samples, err := AssembleFrame(pdu, Deep, false)
	require.NoError(t, err)
	assert.Greater(t, len(samples), preambleLen(Deep))

	got, err := DisassembleFrame(samples, Deep)
	require.NoError(t, err)
	assert.Equal(t, pdu.Type, got.Type)
	assert.Equal(t, pdu.Caller, got.Caller)
	assert.Equal(t, pdu.Called, got.Called)
}

func TestAssembleDisassembleFrameFast(t *testing.T) {
	pdu := PDU{Type: LsuConf, Caller: 0x0001, Called: 0x0002}
	samples, err := AssembleFrame(pdu, Fast, false)
	require.NoError(t, err)

	got, err := DisassembleFrame(samples, Fast)
	require.NoError(t, err)
	assert.Equal(t, pdu.Type, got.Type)
	assert.Equal(t, pdu.Caller, got.Caller)
	assert.Equal(t, pdu.Called, got.Called)
}

func TestDiscriminateLength(t *testing.T) {
	assert.Equal(t, Deep, DiscriminateLength(deepLenHeuristic+1))
	assert.Equal(t, Fast, DiscriminateLength(deepLenHeuristic-1))
}

func TestCorrelateCaptureFindsPhaseZero(t *testing.T) {
	window := captureProbeSeq()
	score, phase := CorrelateCapture(window)
	assert.Greater(t, score, 0.9)
	assert.Equal(t, 0, phase)
}

func TestDisassembleFrameRejectsShortSamples(t *testing.T) {
	_, err := DisassembleFrame(make([]complex128, 4), Deep)
	assert.ErrorIs(t, err, ErrBadFrame)
}
