package dte

import "sync"

// Mode selects how the port arbitrates between TxFSM and RxFSM (§4.15).
type Mode int

const (
	FullDuplex Mode = iota
	TxMaster
	RxMaster
)

func (m Mode) String() string {
	switch m {
	case FullDuplex:
		return "FullDuplex"
	case TxMaster:
		return "TxMaster"
	case RxMaster:
		return "RxMaster"
	default:
		return "unknown"
	}
}

// Arbiter serializes TX/RX access to a single shared port under
// half-duplex modes, and is a pass-through under FullDuplex (§4.15).
// Port-ready notifications fan out via a broadcast channel that is
// swapped out on every state change, the same wake-all-waiters pattern
// TxFSM's queue uses when it broadcasts on every append.
type Arbiter struct {
	mu   sync.Mutex
	mode Mode

	txActive bool
	rxActive bool
	ready    chan struct{}

	onRxAbort func()
}

// NewArbiter constructs an Arbiter in the given mode.
func NewArbiter(mode Mode) *Arbiter {
	return &Arbiter{mode: mode, ready: make(chan struct{})}
}

// SetMode changes the arbitration mode. Switching into a half-duplex
// mode while the opposite side is active does not preempt it; it only
// affects future Acquire calls.
func (a *Arbiter) SetMode(mode Mode) {
	a.mu.Lock()
	a.mode = mode
	a.mu.Unlock()
}

// SetRxAbortHandler installs the callback AcquireTX invokes under
// TxMaster to force an in-progress receive to stop when a transmit
// preempts it.
func (a *Arbiter) SetRxAbortHandler(f func()) {
	a.mu.Lock()
	a.onRxAbort = f
	a.mu.Unlock()
}

// AcquireTX reserves the port for transmit. Under FullDuplex it always
// succeeds. Under TxMaster it preempts an active receive by invoking the
// abort handler. Under RxMaster it fails if a receive is active.
func (a *Arbiter) AcquireTX() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.mode {
	case FullDuplex:
	case TxMaster:
		if a.rxActive && a.onRxAbort != nil {
			a.onRxAbort()
		}
	case RxMaster:
		if a.rxActive {
			return false
		}
	}
	a.txActive = true
	return true
}

// ReleaseTX releases the port's transmit reservation and wakes any
// waiter blocked in WaitPortReady.
func (a *Arbiter) ReleaseTX() {
	a.mu.Lock()
	a.txActive = false
	a.broadcastLocked()
	a.mu.Unlock()
}

// AcquireRX reserves the port for receive. Under RxMaster it always
// succeeds; under TxMaster it fails while a transmit is active; under
// FullDuplex it always succeeds.
func (a *Arbiter) AcquireRX() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == TxMaster && a.txActive {
		return false
	}
	a.rxActive = true
	return true
}

// ReleaseRX releases the port's receive reservation and wakes any
// waiter blocked in WaitPortReady.
func (a *Arbiter) ReleaseRX() {
	a.mu.Lock()
	a.rxActive = false
	a.broadcastLocked()
	a.mu.Unlock()
}

func (a *Arbiter) broadcastLocked() {
	close(a.ready)
	a.ready = make(chan struct{})
}

// WaitPortReady blocks until the next ReleaseTX or ReleaseRX, or until
// cancel fires. It is used by
// TxFSM's ArmedPortNotReady -> ArmedPortReady transition.
func (a *Arbiter) WaitPortReady(cancel <-chan struct{}) {
	a.mu.Lock()
	ch := a.ready
	a.mu.Unlock()
	select {
	case <-ch:
	case <-cancel:
	}
}

// PortReadyForTX reports whether TX could acquire the port right now
// without blocking, used by TxFSM to decide Armed{PortReady,PortNotReady}.
func (a *Arbiter) PortReadyForTX() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == RxMaster && a.rxActive {
		return false
	}
	return true
}

