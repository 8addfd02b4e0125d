package dte

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxFSMArmPortReady(t *testing.T) {
	arb := NewArbiter(FullDuplex)
	f := NewTxFSM(arb, nil)
	require.NoError(t, f.Arm())
	assert.Equal(t, ArmedPortReady, f.State())
}

func TestTxFSMDataArmStartDrain(t *testing.T) {
	arb := NewArbiter(FullDuplex)
	f := NewTxFSM(arb, nil)
	require.NoError(t, f.Arm())
	require.NoError(t, f.TxData([]byte("hello"), FirstAndLast))
	assert.Equal(t, ReadyToStart, f.State())

	require.NoError(t, f.Start())
	assert.Equal(t, Started, f.State())

	block, ok := f.NextBlock()
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), block)

	f.Drained()
	assert.Equal(t, Flushed, f.State())
}

func TestTxFSMTxDataBeforeArmRejected(t *testing.T) {
	arb := NewArbiter(FullDuplex)
	f := NewTxFSM(arb, nil)
	err := f.TxData([]byte("x"), First)
	assert.Error(t, err)
}

func TestTxFSMQueueFullBackpressure(t *testing.T) {
	arb := NewArbiter(FullDuplex)
	f := NewTxFSM(arb, nil)
	require.NoError(t, f.Arm())
	big := make([]byte, maxQueueBytes+1)
	err := f.TxData(big, First)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTxFSMAbortReleasesWaitingDrainLoop(t *testing.T) {
	arb := NewArbiter(FullDuplex)
	f := NewTxFSM(arb, nil)
	require.NoError(t, f.Arm())
	require.NoError(t, f.TxData([]byte{1}, First))
	require.NoError(t, f.Start())
	_, _ = f.NextBlock()

	done := make(chan struct{})
	go func() {
		_, ok := f.NextBlock()
		assert.False(t, ok)
		close(done)
	}()

	f.Abort()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NextBlock did not unblock after Abort")
	}
	assert.Equal(t, Flushed, f.State())
}
