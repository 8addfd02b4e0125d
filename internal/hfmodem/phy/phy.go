// Package phy declares the external collaborators the core treats as
// pure interfaces (§1 "Out of scope: specified only by interface"):
// the raw DSP primitives, rig control, and audio I/O. internal/adapters
// implements these against real hardware/libraries; internal/hfmodem/modem
// depends only on these interfaces, never on a concrete adapter.
package phy

// Constellation mirrors internal/hfmodem's Constellation enum by value
// (BPSK=0 .. QAM64=5). It is declared locally, not imported, so phy has
// no dependency on internal/hfmodem; internal/hfmodem/modem's Modem is
// the package that imports phy. The two enums are equal by value, so a
// plain numeric cast converts between them.
type Constellation int

const (
	BPSK Constellation = iota
	QPSK
	PSK8
	QAM16
	QAM32
	QAM64
)

// Mod is the downstream modulator interface (§6 "Downstream (PHY)").
// ModulateIQ mirrors Demod.DemodulateIQ for callers that already have
// symbol-rate complex baseband (e.g. hfmodem.Tx110D's frame assembly,
// which interleaves preamble/probe/data segments of differing
// constellations into one IQ stream) rather than a single-constellation
// symbol-index slice.
type Mod interface {
	Modulate(symbols []int, c Constellation) ([]int16, error)
	ModulateMixed(symbols []int, constellations []Constellation) ([]int16, error)
	ModulateIQ(iq []complex128) ([]int16, error)
	Flush() ([]int16, error)
	Reset()
}

// Demod is the downstream demodulator interface: an 8th-power-PLL-style
// carrier recovery producing IQ and hard symbol decisions.
type Demod interface {
	DemodulateIQ(samples []int16) ([]complex128, error)
	DemodulateSymbols(samples []int16, c Constellation) ([]int, error)
	Reset()
}

// Rig is the rig-control interface (CAT/PTT), backed by rigctld/Hamlib,
// a GPIO line, or a tty PTT signal in internal/adapters/rigctl.
type Rig interface {
	SetPTT(on bool) error
	SetFrequency(hz uint64) error
	Close() error
}

// AudioIO is the sound-card capture/playback interface, backed by
// PortAudio in internal/adapters/audio.
type AudioIO interface {
	Play(samples []int16) error
	Capture() (<-chan []int16, error)
	SampleRate() int
	Close() error
}
