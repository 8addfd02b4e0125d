// Package devicewatch discovers USB-serial CAT/PTT interfaces as they
// are plugged in or removed, via udev hotplug monitoring, so
// internal/adapters/rigctl can bind/rebind without a process restart
// (§3, §4 "Device hotplug watch").
package devicewatch

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// Event is one hotplug notification for a tty-class device.
type Event struct {
	Action string // "add" or "remove"
	DevPath string
}

// Watcher monitors udev for tty subsystem add/remove events.
type Watcher struct {
	u   *udev.Udev
	mon *udev.Monitor
}

// New opens a netlink udev monitor filtered to the tty subsystem.
func New() (*Watcher, error) {
	u := &udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return nil, fmt.Errorf("adapters/devicewatch: could not create udev monitor")
	}
	if err := mon.FilterAddMatchSubsystem("tty"); err != nil {
		return nil, fmt.Errorf("adapters/devicewatch: filter: %w", err)
	}
	return &Watcher{u: u, mon: mon}, nil
}

// Watch starts the monitor and returns a channel of hotplug events; it
// closes the channel when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	deviceCh, errCh, err := w.mon.DeviceChan(ctx)
	if err != nil {
		return nil, fmt.Errorf("adapters/devicewatch: start monitor: %w", err)
	}
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case dev, ok := <-deviceCh:
				if !ok {
					return
				}
				out <- Event{Action: dev.Action(), DevPath: dev.Devnode()}
			case <-errCh:
				return
			}
		}
	}()
	return out, nil
}
