// Package rigctl backs internal/hfmodem/phy.Rig with three alternative
// keying/tuning backends (§3 DOMAIN STACK): Hamlib CAT control, a raw
// GPIO PTT line, and a raw serial line discipline for rigs with
// neither.
package rigctl

import (
	"fmt"

	gpiocdev "github.com/warthog618/go-gpiocdev"
	"github.com/pkg/term"
	hamlib "github.com/xylo04/goHamlib"
)

// HamlibRig keys PTT and sets frequency through a Hamlib rig backend
// (rigctld-style CAT control).
type HamlibRig struct {
	rig *hamlib.Rig
}

// OpenHamlib opens a Hamlib rig by model number and device path.
func OpenHamlib(model int, device string) (*HamlibRig, error) {
	r := &hamlib.Rig{}
	if err := r.Init(model); err != nil {
		return nil, fmt.Errorf("adapters/rigctl: hamlib init: %w", err)
	}
	r.SetConf("rig_pathname", device)
	if err := r.Open(); err != nil {
		return nil, fmt.Errorf("adapters/rigctl: hamlib open: %w", err)
	}
	return &HamlibRig{rig: r}, nil
}

// SetPTT keys or unkeys the rig via CAT.
func (h *HamlibRig) SetPTT(on bool) error {
	if err := h.rig.SetPTT(hamlib.VFOCurr, boolToPTT(on)); err != nil {
		return fmt.Errorf("adapters/rigctl: set ptt: %w", err)
	}
	return nil
}

// SetFrequency tunes the rig via CAT.
func (h *HamlibRig) SetFrequency(hz uint64) error {
	if err := h.rig.SetFreq(hamlib.VFOCurr, float64(hz)); err != nil {
		return fmt.Errorf("adapters/rigctl: set freq: %w", err)
	}
	return nil
}

// Close releases the Hamlib rig handle.
func (h *HamlibRig) Close() error {
	return h.rig.Close()
}

func boolToPTT(on bool) hamlib.PTT {
	if on {
		return hamlib.PTTOn
	}
	return hamlib.PTTOff
}

// GPIORig keys PTT over a GPIO line (e.g. a Raspberry Pi header pin
// wired to a rig's PTT input), for interfaces with no CAT support.
// SetFrequency is a no-op: GPIO PTT implies a fixed, manually-tuned
// channel.
type GPIORig struct {
	line *gpiocdev.Line
}

// OpenGPIO requests offset on chip as an output line, idle low.
func OpenGPIO(chip string, offset int) (*GPIORig, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("adapters/rigctl: gpio request: %w", err)
	}
	return &GPIORig{line: line}, nil
}

// SetPTT drives the GPIO line high (keyed) or low (unkeyed).
func (g *GPIORig) SetPTT(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := g.line.SetValue(v); err != nil {
		return fmt.Errorf("adapters/rigctl: gpio set: %w", err)
	}
	return nil
}

// SetFrequency is unsupported on a bare GPIO PTT line.
func (g *GPIORig) SetFrequency(hz uint64) error { return nil }

// Close releases the GPIO line request.
func (g *GPIORig) Close() error { return g.line.Close() }

// SerialRig keys PTT by asserting RTS on a raw serial line, for
// rigs with neither CAT nor a dedicated GPIO header, using pkg/term's
// raw-mode line discipline.
type SerialRig struct {
	t *term.Term
}

// OpenSerial opens device in raw mode for RTS-based PTT keying.
func OpenSerial(device string) (*SerialRig, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("adapters/rigctl: serial open: %w", err)
	}
	return &SerialRig{t: t}, nil
}

// SetPTT asserts or drops RTS to key the rig.
func (s *SerialRig) SetPTT(on bool) error {
	if err := s.t.SetRTS(on); err != nil {
		return fmt.Errorf("adapters/rigctl: set rts: %w", err)
	}
	return nil
}

// SetFrequency is unsupported over a bare RTS PTT line.
func (s *SerialRig) SetFrequency(hz uint64) error { return nil }

// Close closes the serial line.
func (s *SerialRig) Close() error { return s.t.Close() }
