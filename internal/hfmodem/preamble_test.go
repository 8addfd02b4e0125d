package hfmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPreambleLengthFirstSuperframe(t *testing.T) {
	walshLen, err := WalshLength(3)
	require.NoError(t, err)

	preamble, err := BuildPreamble(PreambleConfig{
		BWKHz:       3,
		WID:         WID{Waveform: 0, Interleaver: UltraShort, ConstraintLength: K7},
		Superframes: 1,
		TLCBlocks:   0,
	})
	require.NoError(t, err)
	assert.Len(t, preamble, (fixedBlocksFirst+countBlocks+widBlocks)*walshLen)
}

func TestBuildPreambleLengthWithTLCAndSecondSuperframe(t *testing.T) {
	walshLen, err := WalshLength(3)
	require.NoError(t, err)

	preamble, err := BuildPreamble(PreambleConfig{
		BWKHz:       3,
		WID:         WID{Waveform: 1, Interleaver: Short, ConstraintLength: K9},
		Superframes: 2,
		TLCBlocks:   2,
	})
	require.NoError(t, err)
	want := 2*walshLen + // TLC
		(fixedBlocksFirst+countBlocks+widBlocks)*walshLen + // superframe 1
		(fixedBlocksRest+countBlocks+widBlocks)*walshLen // superframe 2
	assert.Len(t, preamble, want)
}

func TestBuildPreambleRejectsZeroSuperframes(t *testing.T) {
	_, err := BuildPreamble(PreambleConfig{BWKHz: 3, Superframes: 0})
	assert.Error(t, err)
}
