package dte

import "sync"

// TxState is one of the DTE-facing transmit states (§4.14).
type TxState int

const (
	Flushed TxState = iota
	ArmedPortNotReady
	ArmedPortReady
	ReadyToStart
	Starting
	Started
	DrainingOk
	DrainingForced
)

func (s TxState) String() string {
	switch s {
	case Flushed:
		return "Flushed"
	case ArmedPortNotReady:
		return "ArmedPortNotReady"
	case ArmedPortReady:
		return "ArmedPortReady"
	case ReadyToStart:
		return "ReadyToStart"
	case Starting:
		return "Starting"
	case Started:
		return "Started"
	case DrainingOk:
		return "DrainingOk"
	case DrainingForced:
		return "DrainingForced"
	default:
		return "unknown"
	}
}

// Order marks where a TxData call's bytes sit within the logical
// transmission, mirroring the blocking-factor framing the PHY layer
// needs to decide preamble/EOM placement (§4.14).
type Order int

const (
	First Order = iota
	Continuation
	Last
	FirstAndLast
)

const blockingFactor = 96 // bytes per PHY block, matches a 110D codec block of symbols-worth of payload

// prefillBytes is 3 PHY blocks of queued data. Start does not compare
// the queue length against it: Start proceeds with any amount queued.
const prefillBytes = 3 * blockingFactor

// maxQueueBytes bounds the pending-data queue; TxData beyond this
// returns ErrQueueFull rather than blocking the DTE caller.
const maxQueueBytes = 64 * 1024

// TxFSM is the DTE-facing transmit state machine (§4.14). It owns a
// byte queue guarded by a mutex and condition variable in the same
// shape as a classic producer/consumer transmit queue: TxData appends
// and signals, the PHY-facing drain loop waits and removes.
type TxFSM struct {
	arb *Arbiter
	bus *Bus

	mu    sync.Mutex
	cond  *sync.Cond
	state TxState
	queue []byte
	abort bool
}

// NewTxFSM constructs a TxFSM bound to an Arbiter for half-duplex
// coordination and a Bus for tx_status/tx_underrun notifications.
func NewTxFSM(arb *Arbiter, bus *Bus) *TxFSM {
	f := &TxFSM{arb: arb, bus: bus, state: Flushed}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// State returns the current transmit state.
func (f *TxFSM) State() TxState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Arm transitions Flushed -> Armed{PortReady,PortNotReady} depending on
// whether the Arbiter reports the port immediately available.
func (f *TxFSM) Arm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Flushed {
		return &TransitionError{State: f.state.String(), Event: "arm"}
	}
	if f.arb.PortReadyForTX() {
		f.state = ArmedPortReady
	} else {
		f.state = ArmedPortNotReady
	}
	f.publish("tx_status")
	return nil
}

// PortBecameReady advances ArmedPortNotReady -> ArmedPortReady; the
// owning task calls this after Arbiter.WaitPortReady unblocks.
func (f *TxFSM) PortBecameReady() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ArmedPortNotReady {
		return &TransitionError{State: f.state.String(), Event: "port_ready"}
	}
	f.state = ArmedPortReady
	f.publish("tx_status")
	return nil
}

// TxData appends bytes of the given Order to the transmit queue. It is
// valid from ArmedPortReady (first call moves to ReadyToStart) through
// Started. Returns ErrQueueFull under backpressure rather than
// blocking the caller.
func (f *TxFSM) TxData(data []byte, order Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case ArmedPortReady:
		f.state = ReadyToStart
	case ReadyToStart, Starting, Started:
	default:
		return &TransitionError{State: f.state.String(), Event: "tx_data"}
	}
	if len(f.queue)+len(data) > maxQueueBytes {
		return ErrQueueFull
	}
	f.queue = append(f.queue, data...)
	f.cond.Broadcast()
	if order == Last || order == FirstAndLast {
		// No more data is coming; Started's drain loop will notice the
		// queue draining to empty and move to DrainingOk on its own.
	}
	return nil
}

// Start transitions ReadyToStart -> Starting -> Started, acquiring the
// Arbiter's TX reservation for the duration. It does not check the
// queued amount against prefillBytes and does not wait for a Last
// write: any data queued by TxData is enough.
func (f *TxFSM) Start() error {
	f.mu.Lock()
	if f.state != ReadyToStart {
		f.mu.Unlock()
		return &TransitionError{State: f.state.String(), Event: "start"}
	}
	f.state = Starting
	f.mu.Unlock()

	if !f.arb.AcquireTX() {
		f.mu.Lock()
		f.state = ReadyToStart
		f.mu.Unlock()
		return ErrPortNotReady
	}

	f.mu.Lock()
	f.state = Started
	f.publish("tx_status")
	f.mu.Unlock()
	return nil
}

// NextBlock blocks until at least one byte is queued or the PHY layer
// has been told to abort, and returns up to blockingFactor bytes for
// the downstream modulator to consume (§4.14 drain loop).
func (f *TxFSM) NextBlock() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) == 0 && !f.abort {
		if f.state != Started {
			return nil, false
		}
		f.cond.Wait()
	}
	if f.abort {
		return nil, false
	}
	n := len(f.queue)
	if n > blockingFactor {
		n = blockingFactor
	}
	block := append([]byte(nil), f.queue[:n]...)
	f.queue = f.queue[n:]
	if len(f.queue) == 0 && len(block) < blockingFactor {
		f.publish("tx_underrun")
	}
	return block, true
}

// QueueLen reports how many bytes are currently queued, for a
// PHY-facing drain loop deciding whether more blocks are forthcoming.
func (f *TxFSM) QueueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Abort forces an immediate stop from any state: it passes through
// DrainingForced, releases the Arbiter's TX reservation, and returns
// the FSM to Flushed.
func (f *TxFSM) Abort() {
	f.mu.Lock()
	f.abort = true
	f.state = DrainingForced
	f.cond.Broadcast()
	f.mu.Unlock()
	f.arb.ReleaseTX()
	f.finishDrain()
}

// Drained reports the transmit loop has flushed all PHY-side buffering
// and returns the FSM to Flushed. From Started with an empty queue it
// passes through DrainingOk and releases the Arbiter's TX reservation.
func (f *TxFSM) Drained() {
	f.mu.Lock()
	ok := f.state == Started && len(f.queue) == 0
	if ok {
		f.state = DrainingOk
	}
	f.mu.Unlock()
	if ok {
		f.arb.ReleaseTX()
	}
	f.finishDrain()
}

func (f *TxFSM) finishDrain() {
	f.mu.Lock()
	f.queue = nil
	f.abort = false
	f.state = Flushed
	f.publish("tx_status")
	f.mu.Unlock()
}

func (f *TxFSM) publish(name string) {
	if f.bus == nil {
		return
	}
	f.bus.Publish(Event{Kind: KindTX, Name: name, Data: f.state})
}
