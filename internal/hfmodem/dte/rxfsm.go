package dte

import "time"

// RxState is one of the DTE-facing receive states (§4.14).
type RxState int

const (
	NoCarrier RxState = iota
	CarrierDetected
	Receiving
)

func (s RxState) String() string {
	switch s {
	case NoCarrier:
		return "NoCarrier"
	case CarrierDetected:
		return "CarrierDetected"
	case Receiving:
		return "Receiving"
	default:
		return "unknown"
	}
}

// rxIdleTimeout is how long Receiving may go without a Data() call
// before the FSM force-flushes back to NoCarrier (§5 "rx_idle=500ms").
const rxIdleTimeout = 500 * time.Millisecond

// agcResetBatch is the sample count, accumulated across Data calls,
// past which the AGC gain/phase state is reset rather than carried
// forward, so a long receive doesn't drift on stale gain/phase estimates.
const agcResetBatch = 1000

// RxFSM is the DTE-facing receive state machine (§4.14), driven by the
// PHY-facing sync/decode pipeline through explicit event methods.
type RxFSM struct {
	arb *Arbiter
	bus *Bus

	state     RxState
	wid       any
	lastEvent time.Time
	agc       agcState
	sampleAcc int
}

type agcState struct {
	gain  float64
	phase float64
}

// NewRxFSM constructs an RxFSM bound to an Arbiter and event Bus.
func NewRxFSM(arb *Arbiter, bus *Bus) *RxFSM {
	return &RxFSM{arb: arb, bus: bus, state: NoCarrier, agc: agcState{gain: 1}}
}

// State returns the current receive state.
func (f *RxFSM) State() RxState { return f.state }

// SyncAcquired transitions NoCarrier -> CarrierDetected once the sync
// correlator reports a hit, acquiring the Arbiter's RX reservation.
func (f *RxFSM) SyncAcquired() error {
	if f.state != NoCarrier {
		return &TransitionError{State: f.state.String(), Event: "sync_acquired"}
	}
	if !f.arb.AcquireRX() {
		return ErrPortNotReady
	}
	f.state = CarrierDetected
	f.lastEvent = time.Time{}
	f.publish("rx_carrier")
	return nil
}

// WidDecoded records the decoded waveform ID for the in-progress
// receive; valid in CarrierDetected. The caller passes whatever
// waveform-ID value the PHY layer decoded (e.g. a WID); RxFSM only
// stores and republishes it, so it stays agnostic of that type.
func (f *RxFSM) WidDecoded(wid any) error {
	if f.state != CarrierDetected {
		return &TransitionError{State: f.state.String(), Event: "wid_decoded"}
	}
	f.wid = wid
	f.publish("wid_decoded")
	return nil
}

// DataStart transitions CarrierDetected -> Receiving once the first
// data block is ready to stream out.
func (f *RxFSM) DataStart() error {
	if f.state != CarrierDetected {
		return &TransitionError{State: f.state.String(), Event: "data_start"}
	}
	f.state = Receiving
	return nil
}

// Data delivers one batch of demodulated symbols while Receiving,
// applying AGC normalization and resetting the carried gain/phase state
// once accumulated sample count crosses agcResetBatch.
func (f *RxFSM) Data(samples []complex128) ([]complex128, error) {
	if f.state != Receiving {
		return nil, &TransitionError{State: f.state.String(), Event: "data"}
	}
	out := f.normalizeAGC(samples)
	f.sampleAcc += len(samples)
	if f.sampleAcc > agcResetBatch {
		f.agc = agcState{gain: 1}
		f.sampleAcc = 0
	}
	f.lastEvent = time.Now()
	f.publish("rx_data")
	return out, nil
}

// normalizeAGC scales samples by a running gain that each call moves
// 10% of the way toward 1/mean, where mean is the batch's average of
// max(|re|,|im|); the gain carries across calls rather than resetting
// per batch.
func (f *RxFSM) normalizeAGC(samples []complex128) []complex128 {
	if len(samples) == 0 {
		return samples
	}
	var sum float64
	for _, s := range samples {
		sum += absC(s)
	}
	mean := sum / float64(len(samples))
	if mean > 0 {
		const alpha = 0.1
		f.agc.gain = f.agc.gain*(1-alpha) + (1/mean)*alpha
	}
	out := make([]complex128, len(samples))
	for i, s := range samples {
		out[i] = s * complex(f.agc.gain, 0)
	}
	return out
}

func absC(c complex128) float64 {
	re, im := real(c), imag(c)
	if re < 0 {
		re = -re
	}
	if im < 0 {
		im = -im
	}
	if re > im {
		return re
	}
	return im
}

// IdleExpired reports whether Receiving has gone longer than
// rxIdleTimeout since the last Data() call, the condition under which
// the owning task should call Complete() to force-flush.
func (f *RxFSM) IdleExpired(now time.Time) bool {
	if f.state != Receiving || f.lastEvent.IsZero() {
		return false
	}
	return now.Sub(f.lastEvent) > rxIdleTimeout
}

// Complete transitions CarrierDetected/Receiving -> NoCarrier, releasing
// the Arbiter's RX reservation and publishing rx_complete.
func (f *RxFSM) Complete() error {
	switch f.state {
	case CarrierDetected, Receiving:
	default:
		return &TransitionError{State: f.state.String(), Event: "complete"}
	}
	f.arb.ReleaseRX()
	f.state = NoCarrier
	f.wid = nil
	f.sampleAcc = 0
	f.publish("rx_complete")
	return nil
}

func (f *RxFSM) publish(name string) {
	if f.bus == nil {
		return
	}
	f.bus.Publish(Event{Kind: KindRX, Name: name, Data: f.state})
}

// PublishPayload emits a "rx_data" event carrying a completed frame's
// decoded bytes, for host adapters that forward them verbatim (KISS
// TNC endpoints). This is distinct from Data(), which reports AGC'd IQ
// liveness per batch rather than the decoded result of a full frame.
func (f *RxFSM) PublishPayload(data []byte) {
	if f.bus == nil {
		return
	}
	f.bus.Publish(Event{Kind: KindRX, Name: "rx_data", Data: data})
}
