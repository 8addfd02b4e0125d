package dte

import "errors"

// Sentinel errors for the DTE-facing FSMs, kept local to this package
// (rather than importing internal/hfmodem) so dte has no dependency on
// internal/hfmodem — the same package-local-error pattern the ale
// package uses for its own TransitionError.
var (
	ErrQueueFull    = errors.New("dte: tx queue full")
	ErrPortNotReady = errors.New("dte: port not ready")
	ErrArbiterBusy  = errors.New("dte: port held by opposing half-duplex side")
)

// TransitionError reports an event delivered to an FSM in a state that
// does not accept it.
type TransitionError struct {
	State string
	Event string
}

func (e *TransitionError) Error() string {
	return "dte: cannot handle " + e.Event + " in state " + e.State
}
