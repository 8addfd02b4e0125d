package dte

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArbiterFullDuplexAlwaysSucceeds(t *testing.T) {
	a := NewArbiter(FullDuplex)
	assert.True(t, a.AcquireTX())
	assert.True(t, a.AcquireRX())
}

func TestArbiterRxMasterBlocksTxWhileRxActive(t *testing.T) {
	a := NewArbiter(RxMaster)
	require := assert.New(t)
	require.True(a.AcquireRX())
	require.False(a.AcquireTX())
	a.ReleaseRX()
	require.True(a.AcquireTX())
}

func TestArbiterTxMasterPreemptsRx(t *testing.T) {
	a := NewArbiter(TxMaster)
	aborted := false
	a.SetRxAbortHandler(func() { aborted = true })

	assert.True(t, a.AcquireRX())
	assert.True(t, a.AcquireTX())
	assert.True(t, aborted)
}

func TestArbiterWaitPortReadyUnblocksOnRelease(t *testing.T) {
	a := NewArbiter(RxMaster)
	a.AcquireRX()

	done := make(chan struct{})
	go func() {
		a.WaitPortReady(nil)
		close(done)
	}()

	a.ReleaseRX()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitPortReady did not unblock after ReleaseRX")
	}
}
