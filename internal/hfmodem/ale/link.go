package ale

import "time"

// LinkState is one of the 8 states of the ALE link-establishment
// machine (§3 "ALE Link state", §4.13).
type LinkState int

const (
	Idle LinkState = iota
	Scanning
	Lbt
	Calling
	Lbr
	Responding
	Linked
	Terminating
)

func (s LinkState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Scanning:
		return "Scanning"
	case Lbt:
		return "Lbt"
	case Calling:
		return "Calling"
	case Lbr:
		return "Lbr"
	case Responding:
		return "Responding"
	case Linked:
		return "Linked"
	case Terminating:
		return "Terminating"
	default:
		return "unknown"
	}
}

// Role records which side of a link a station ended up playing, held
// in LinkInfo once Linked.
type Role int

const (
	RoleNone Role = iota
	RoleCaller
	RoleResponder
)

// TermOrigin distinguishes a link termination the local station issued
// from one signalled by the peer (§8 scenario 6).
type TermOrigin int

const (
	TermLocal TermOrigin = iota
	TermRemote
)

// LinkEvent is one outward notification the Link FSM produces; Events
// is the ordered list a single FSM call can emit.
type LinkEvent struct {
	Name       string
	Reason     string
	Origin     TermOrigin
	ReasonCode byte
	PDU        *PDU
}

// LinkTimeouts holds the §4.13/§5 tunable timer defaults.
type LinkTimeouts struct {
	LBT        time.Duration
	LBR        time.Duration
	Tune       time.Duration
	Handshake  time.Duration
	Response   time.Duration
	Activity   time.Duration
}

// DefaultLinkTimeouts returns the §5 timeout defaults.
func DefaultLinkTimeouts() LinkTimeouts {
	return LinkTimeouts{
		LBT:       200 * time.Millisecond,
		LBR:       200 * time.Millisecond,
		Tune:      40 * time.Millisecond,
		Handshake: 100 * time.Millisecond,
		Response:  2000 * time.Millisecond,
		Activity:  30 * time.Second,
	}
}

// Link is the single-writer ALE link-establishment actor (§3 "ALE Link
// state", §4.13). It is driven by explicit event methods; timers are
// deadlines the owning task schedules externally and reports back via
// TimerFired — there is no goroutine or channel owned by Link itself,
// matching the single-threaded cooperative actor model (§5).
type Link struct {
	SelfAddr uint16
	Timeouts LinkTimeouts

	state      LinkState
	remoteAddr uint16
	waveform   Waveform
	we         Role
	pendingReq *PDU
}

// NewLink constructs a Link for one station address.
func NewLink(selfAddr uint16) *Link {
	return &Link{SelfAddr: selfAddr, Timeouts: DefaultLinkTimeouts(), state: Idle}
}

// State returns the current link state.
func (l *Link) State() LinkState { return l.state }

// Scan transitions Idle -> Scanning.
func (l *Link) Scan() ([]LinkEvent, error) {
	if l.state != Idle {
		return nil, &TransitionError{State: l.state.String(), Event: "scan"}
	}
	l.state = Scanning
	return []LinkEvent{{Name: "scanning"}}, nil
}

// StopScan transitions Scanning -> Idle.
func (l *Link) StopScan() ([]LinkEvent, error) {
	if l.state != Scanning {
		return nil, &TransitionError{State: l.state.String(), Event: "stop"}
	}
	l.clear()
	return nil, nil
}

// Call initiates an outbound call (Idle -> Lbt); the caller is
// responsible for scheduling a t_lbt timer and reporting it via
// TimerFired.
func (l *Link) Call(dst uint16, w Waveform) ([]LinkEvent, error) {
	if l.state != Idle {
		return nil, &TransitionError{State: l.state.String(), Event: "call"}
	}
	l.remoteAddr = dst
	l.waveform = w
	l.we = RoleCaller
	l.state = Lbt
	return nil, nil
}

// ChannelBusy aborts an in-progress Lbt or Lbr with a call_failed event.
func (l *Link) ChannelBusy() ([]LinkEvent, error) {
	switch l.state {
	case Lbt:
		l.clear()
		return []LinkEvent{{Name: "call_failed", Reason: "channel_busy"}}, nil
	case Lbr:
		l.clear()
		return []LinkEvent{{Name: "call_failed", Reason: "channel_busy"}}, nil
	default:
		return nil, &TransitionError{State: l.state.String(), Event: "channel_busy"}
	}
}

// RxLsuReq handles an inbound LsuReq addressed to this station, moving
// Idle or Scanning into Lbr.
func (l *Link) RxLsuReq(pdu PDU) ([]LinkEvent, error) {
	if pdu.Called != l.SelfAddr {
		return nil, nil
	}
	switch l.state {
	case Idle, Scanning:
		l.remoteAddr = pdu.Caller
		l.we = RoleResponder
		req := pdu
		l.pendingReq = &req
		l.state = Lbr
		return nil, nil
	default:
		return nil, &TransitionError{State: l.state.String(), Event: "rx_lsu_req"}
	}
}

// TimerFired advances the timer-driven transitions: Lbt -> Calling,
// Lbr -> Responding, and the Calling response timeout.
func (l *Link) TimerFired(timer string) ([]LinkEvent, error) {
	switch l.state {
	case Lbt:
		if timer != "t_lbt" {
			return nil, &TransitionError{State: l.state.String(), Event: timer}
		}
		l.state = Calling
		req := PDU{Type: LsuReq, Caller: l.SelfAddr, Called: l.remoteAddr}
		return []LinkEvent{{Name: "tx_pdu", PDU: &req}}, nil
	case Lbr:
		if timer != "t_lbr" {
			return nil, &TransitionError{State: l.state.String(), Event: timer}
		}
		l.state = Responding
		return nil, nil
	case Calling:
		if timer != "t_response" {
			return nil, &TransitionError{State: l.state.String(), Event: timer}
		}
		term := PDU{Type: LsuTerm, Caller: l.SelfAddr, Called: l.remoteAddr, TermReason: byte(TermLocal)}
		l.clear()
		return []LinkEvent{{Name: "tx_pdu", PDU: &term}, {Name: "call_failed", Reason: "timeout"}}, nil
	case Responding:
		if timer != "handshake_done" {
			return nil, &TransitionError{State: l.state.String(), Event: timer}
		}
		conf := PDU{Type: LsuConf, Caller: l.SelfAddr, Called: l.remoteAddr}
		l.state = Linked
		return []LinkEvent{{Name: "tx_pdu", PDU: &conf}, {Name: "linked", Reason: l.we.String()}}, nil
	case Linked:
		if timer != "t_activity" {
			return nil, &TransitionError{State: l.state.String(), Event: timer}
		}
		return nil, nil
	case Terminating:
		if timer != "tx_done" {
			return nil, &TransitionError{State: l.state.String(), Event: timer}
		}
		l.clear()
		return nil, nil
	default:
		return nil, &TransitionError{State: l.state.String(), Event: timer}
	}
}

func (r Role) String() string {
	switch r {
	case RoleCaller:
		return "Caller"
	case RoleResponder:
		return "Responder"
	default:
		return "none"
	}
}

// RxLsuConf handles an inbound LsuConf while Calling, transitioning to
// Linked if it matches the outstanding request.
func (l *Link) RxLsuConf(pdu PDU) ([]LinkEvent, error) {
	if l.state != Calling {
		return nil, nil
	}
	if pdu.Caller != l.remoteAddr || pdu.Called != l.SelfAddr {
		return nil, nil
	}
	l.state = Linked
	return []LinkEvent{{Name: "linked", Reason: l.we.String()}}, nil
}

// RxLsuTerm handles an inbound LsuTerm, dropping Calling or Linked back
// to Idle with a remote-origin link_terminated event.
func (l *Link) RxLsuTerm(pdu PDU) ([]LinkEvent, error) {
	switch l.state {
	case Calling, Linked:
		if pdu.Caller != l.remoteAddr {
			return nil, nil
		}
		l.clear()
		return []LinkEvent{{Name: "link_terminated", Origin: TermRemote, ReasonCode: pdu.TermReason}}, nil
	default:
		return nil, nil
	}
}

// Terminate issues a local termination from Linked, transmitting
// LsuTerm and emitting a local-origin link_terminated event.
func (l *Link) Terminate() ([]LinkEvent, error) {
	if l.state != Linked {
		return nil, &TransitionError{State: l.state.String(), Event: "terminate"}
	}
	term := PDU{Type: LsuTerm, Caller: l.SelfAddr, Called: l.remoteAddr, TermReason: byte(TermLocal)}
	l.state = Terminating
	return []LinkEvent{
		{Name: "tx_pdu", PDU: &term},
		{Name: "link_terminated", Origin: TermLocal, ReasonCode: 0},
	}, nil
}

// Activity resets the t_activity inactivity timer while Linked; the
// caller is expected to reschedule its own deadline on receiving this.
func (l *Link) Activity() error {
	if l.state != Linked {
		return &TransitionError{State: l.state.String(), Event: "activity"}
	}
	return nil
}

func (l *Link) clear() {
	l.state = Idle
	l.remoteAddr = 0
	l.waveform = Deep
	l.we = RoleNone
	l.pendingReq = nil
}

// TransitionError reports an event delivered in a state that does not
// accept it.
type TransitionError struct {
	State string
	Event string
}

func (e *TransitionError) Error() string {
	return "ale: link: event " + e.Event + " not valid in state " + e.State
}
