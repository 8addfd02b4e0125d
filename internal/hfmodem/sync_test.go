package hfmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncSearchFindsFixedWindow(t *testing.T) {
	walshLen, err := WalshLength(3)
	require.NoError(t, err)
	window := octantsToComplex(pnSlice(FixedPN(), 0, walshLen))

	s := NewSync()
	res, err := s.Search(window, 3)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.False(t, res.IsTLC)
	assert.Equal(t, 0, res.Phase)
	assert.InDelta(t, 1.0, res.Correlation, 1e-9)
}

func TestSyncSearchFindsTLCWindow(t *testing.T) {
	walshLen, err := WalshLength(3)
	require.NoError(t, err)
	window := octantsToComplex(pnSlice(TLCPN(), 0, walshLen))

	s := NewSync()
	res, err := s.Search(window, 3)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.True(t, res.IsTLC)
	assert.InDelta(t, 1.0, res.Correlation, 1e-9)
}

func TestSyncSearchNoHitOnUncorrelatedWindow(t *testing.T) {
	walshLen, err := WalshLength(3)
	require.NoError(t, err)
	window := make([]complex128, walshLen)
	for i := range window {
		window[i] = complex(0.01, -0.01)
	}

	s := NewSync()
	res, err := s.Search(window, 3)
	require.NoError(t, err)
	assert.False(t, res.Hit)
}

func TestSyncSearchRejectsWrongLength(t *testing.T) {
	s := NewSync()
	_, err := s.Search(make([]complex128, 3), 3)
	assert.ErrorIs(t, err, ErrFrameTooShort)
}

func TestPreambleDecoderRoundTripAcrossSuperframes(t *testing.T) {
	wid := WID{Waveform: 2, Interleaver: Medium, ConstraintLength: K7}
	preamble, err := BuildPreamble(PreambleConfig{
		BWKHz:       3,
		WID:         wid,
		Superframes: 2,
		TLCBlocks:   0,
	})
	require.NoError(t, err)

	dec, err := NewPreambleDecoder(3)
	require.NoError(t, err)

	gotWID, dc, consumed, err := dec.DecodeFirstSuperframe(preamble)
	require.NoError(t, err)
	assert.Equal(t, wid, gotWID)
	assert.Equal(t, 1, dc.Count)
	assert.Equal(t, 0, dec.Phase())

	gotWID2, dc2, _, err := dec.DecodeSubsequentSuperframe(preamble[consumed:])
	require.NoError(t, err)
	assert.Equal(t, wid, gotWID2)
	assert.Equal(t, 0, dc2.Count)
}
