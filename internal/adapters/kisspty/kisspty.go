// Package kisspty exposes a Modem on a Unix pseudo-tty, for local
// clients that expect a serial-style device rather than a network
// socket, built on creack/pty rather than raw cgo openpty (§3, §4).
// Bytes pass through unframed: no KISS framing is decoded or added.
package kisspty

import (
	"bufio"
	"fmt"
	"os"

	"github.com/creack/pty"

	"github.com/w1ale/hfmodem/internal/hfmodem/dte"
	"github.com/w1ale/hfmodem/internal/hfmodem/modem"
)

// PTY is a pseudo-tty endpoint bound to a Modem.
type PTY struct {
	master, slave *os.File
	modem         *modem.Modem
}

// Open allocates a pty pair bound to m; SlaveName gives the path a
// client opens (e.g. symlinked to a fixed path like /tmp/kisstnc).
func Open(m *modem.Modem) (*PTY, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("adapters/kisspty: open: %w", err)
	}
	return &PTY{master: master, slave: slave, modem: m}, nil
}

// SlaveName returns the pty slave's device path for a client to open.
func (p *PTY) SlaveName() string { return p.slave.Name() }

// Serve reads raw byte chunks (up to 4096 bytes per read) from the pty
// master and sends each chunk to the Modem as one FirstAndLast
// transmission, and writes rx_data payloads back to the master as raw
// bytes, until the pty is closed. It does not decode or add KISS
// framing.
func (p *PTY) Serve() error {
	sink := p.modem.Subscribe(dte.KindRX)
	go func() {
		for ev := range sink.Events() {
			if ev.Name != "rx_data" {
				continue
			}
			if data, ok := ev.Data.([]byte); ok {
				_, _ = p.master.Write(data)
			}
		}
	}()

	r := bufio.NewReader(p.master)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if err := p.modem.ArmTX(); err != nil {
			continue
		}
		if err := p.modem.TxData(buf[:n], dte.FirstAndLast); err != nil {
			continue
		}
		_ = p.modem.StartTX()
	}
}

// Close releases both ends of the pty.
func (p *PTY) Close() error {
	_ = p.slave.Close()
	return p.master.Close()
}
