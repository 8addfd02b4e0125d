// Package dte implements the DTE-facing half of the modem: the TX/RX
// finite state machines, half-duplex arbitration between them, and the
// event bus host adapters subscribe to (§4.14-4.17).
package dte

import (
	"sync"
	"weak"
)

// Kind is a coarse event category a subscriber filters on (§4.17).
type Kind string

const (
	KindTX  Kind = "tx"
	KindRX  Kind = "rx"
	KindAll Kind = "all"
)

// Event is one notification broadcast on the bus.
type Event struct {
	Kind Kind
	Name string
	Data any
}

// Sink is a subscriber's mailbox. A Sink is held weakly by the bus: once
// nothing else references it, it is garbage collected and the bus stops
// delivering to it on the next Publish (§4.17 "subscribers are weakly
// held and removed when their lifetime ends").
type Sink struct {
	filter Kind
	ch     chan Event
}

// Events returns the channel new events for this subscription arrive
// on. The channel is buffered; a slow consumer drops events rather than
// blocking the publishing actor.
func (s *Sink) Events() <-chan Event { return s.ch }

const sinkBuffer = 64

// Bus is a per-rig event topic with filtered subscriptions.
type Bus struct {
	mu   sync.Mutex
	subs []weak.Pointer[Sink]
}

// NewBus constructs an empty event bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers a new Sink for the given filter. The caller must
// keep a reference to the returned Sink alive for as long as it wants
// to keep receiving events.
func (b *Bus) Subscribe(filter Kind) *Sink {
	s := &Sink{filter: filter, ch: make(chan Event, sinkBuffer)}
	b.mu.Lock()
	b.subs = append(b.subs, weak.Make(s))
	b.mu.Unlock()
	return s
}

// Publish broadcasts ev to every live subscriber whose filter matches,
// in registration order (§5 ordering guarantee (a)), and compacts away
// any subscriber that has been garbage collected.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	live := b.subs[:0]
	for _, w := range b.subs {
		s := w.Value()
		if s == nil {
			continue
		}
		if s.filter == KindAll || s.filter == ev.Kind {
			select {
			case s.ch <- ev:
			default:
			}
		}
		live = append(live, w)
	}
	b.subs = live
}
