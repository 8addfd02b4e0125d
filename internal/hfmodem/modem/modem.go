// Package modem wires one rig's Config, Arbiter/Bus, TxFSM/RxFSM, and
// ALE Link behind the §6 host-adapter API surface. It is kept separate
// from internal/hfmodem itself (the bit/symbol-exact PHY core) because
// it is the one place that needs to import both internal/hfmodem/ale
// and internal/hfmodem/dte — internal/hfmodem/ale already imports
// internal/hfmodem for shared primitives (ConvEncoder, Walsh tables),
// so a Modem type living inside package hfmodem and importing ale back
// would be a cycle.
package modem

import (
	"github.com/charmbracelet/log"

	"github.com/w1ale/hfmodem/internal/hfmodem"
	"github.com/w1ale/hfmodem/internal/hfmodem/ale"
	"github.com/w1ale/hfmodem/internal/hfmodem/dte"
	"github.com/w1ale/hfmodem/internal/hfmodem/phy"
)

// Modem is the per-rig supervisor (§6): it owns the TxFSM/RxFSM pair,
// the half-duplex Arbiter, the event Bus, and the ALE Link, wiring them
// to a concrete Mod/Demod/Rig/AudioIO set of adapters. It is the single
// addressable actor a host adapter (netkiss, kisspty) talks to.
type Modem struct {
	log *log.Logger
	cfg hfmodem.Config

	mod   phy.Mod
	demod phy.Demod
	rig   phy.Rig
	audio phy.AudioIO

	arb *dte.Arbiter
	bus *dte.Bus
	tx  *dte.TxFSM
	rx  *dte.RxFSM
	lnk *ale.Link

	txParams TxParams
	capture  *hfmodem.CaptureWriter
}

// TxParams names the waveform/bandwidth/interleaver triple a future
// arm_tx/start_tx pair will transmit with (§6 "set_tx_params"). These
// are the concrete WID fields Tx110D/Rx110D need, as opposed to
// Config's Waveform/Interleaver strings, which stay free-text
// operator-facing labels for a future ALE-driven rate selector (§9
// open question "waveform selection").
type TxParams struct {
	Waveform         int
	BWKHz            int
	Interleaver      hfmodem.InterleaverType
	ConstraintLength hfmodem.ConstraintLength
}

// defaultTxParams is MIL-STD-188-110D Appendix D's most robust
// combination: WF0 (BPSK, rate 1/2), the shortest interleaver, and the
// shorter constraint length, so a Modem can transmit before a host ever
// calls SetTxParams.
func defaultTxParams(bwKHz int) TxParams {
	return TxParams{Waveform: 0, BWKHz: bwKHz, Interleaver: hfmodem.UltraShort, ConstraintLength: hfmodem.K7}
}

// Deps bundles the adapter collaborators a Modem is constructed with,
// keeping Modem itself free of any concrete adapter import.
type Deps struct {
	Mod   phy.Mod
	Demod phy.Demod
	Rig   phy.Rig
	Audio phy.AudioIO
}

// New constructs a Modem for one rig, wiring its logging, config,
// Arbiter/Bus, and DTE-facing FSMs, and opening a CaptureWriter when
// cfg.Capture.Enabled.
func New(rigID string, cfg hfmodem.Config, deps Deps) (*Modem, error) {
	root := hfmodem.NewLogger(rigID, nil, false)

	mode := dte.FullDuplex
	switch cfg.Duplex {
	case "tx_master":
		mode = dte.TxMaster
	case "rx_master":
		mode = dte.RxMaster
	}

	arb := dte.NewArbiter(mode)
	bus := dte.NewBus()
	tx := dte.NewTxFSM(arb, bus)
	rx := dte.NewRxFSM(arb, bus)
	lnk := ale.NewLink(cfg.SelfAddr)

	cap, err := hfmodem.NewCaptureWriter(cfg.Capture, rigID)
	if err != nil {
		return nil, err
	}

	m := &Modem{
		log: root, cfg: cfg,
		mod: deps.Mod, demod: deps.Demod, rig: deps.Rig, audio: deps.Audio,
		arb: arb, bus: bus, tx: tx, rx: rx, lnk: lnk,
		txParams: defaultTxParams(cfg.BWKHz),
		capture:  cap,
	}
	if m.audio != nil && m.demod != nil {
		go m.runRxPump()
	}
	return m, nil
}

// ArmTX arms the transmit FSM (§6 "arm_tx").
func (m *Modem) ArmTX() error { return m.tx.Arm() }

// TxData queues bytes for transmission (§6 "tx_data").
func (m *Modem) TxData(data []byte, order dte.Order) error { return m.tx.TxData(data, order) }

// StartTX starts transmission once armed and data is queued (§6 "start_tx").
// When a modulator is configured it also drives the PHY-facing drain
// loop: host bytes queued via TxData flow through Codec110D/Tx110D into
// modulated audio (§2 "host -> TxFSM -> Codec110D -> Tx110D -> Mod").
func (m *Modem) StartTX() error {
	if err := m.tx.Start(); err != nil {
		return err
	}
	if m.rig != nil {
		if err := m.rig.SetPTT(true); err != nil {
			m.log.Warn("ptt key failed", "err", err)
		}
	}
	if m.mod != nil {
		go m.runTxDrain()
	}
	return nil
}

// runTxDrain is the PHY-facing consumer TxFSM's doc comment refers to:
// it drains queued bytes down to a complete message, encodes and
// modulates them, plays the result, and returns the FSM to Flushed.
func (m *Modem) runTxDrain() {
	var payload []byte
	for {
		block, ok := m.tx.NextBlock()
		if !ok {
			break
		}
		payload = append(payload, block...)
		if m.tx.QueueLen() == 0 {
			break
		}
	}
	if m.tx.State() == dte.Flushed {
		// AbortTX already unkeyed PTT and returned the FSM to Flushed.
		return
	}

	if len(payload) > 0 {
		if err := m.transmit(payload); err != nil {
			m.log.Error("transmit failed", "err", err)
		}
	}

	m.tx.Drained()
	if m.rig != nil {
		if err := m.rig.SetPTT(false); err != nil {
			m.log.Warn("ptt unkey failed", "err", err)
		}
	}
}

// transmit runs one message through Tx110D and the modulator/audio
// chain.
func (m *Modem) transmit(payload []byte) error {
	tx, err := hfmodem.NewTx110D(m.frameParams())
	if err != nil {
		return err
	}
	iq, err := tx.TransmitFrame(payload, true)
	if err != nil {
		return err
	}
	pcm, err := m.mod.ModulateIQ(iq)
	if err != nil {
		return err
	}
	tail, err := m.mod.Flush()
	if err != nil {
		return err
	}
	m.mod.Reset()
	if m.audio == nil {
		return nil
	}
	if err := m.audio.Play(pcm); err != nil {
		return err
	}
	if len(tail) > 0 {
		return m.audio.Play(tail)
	}
	return nil
}

// frameParams builds the FrameParams the current TxParams describe,
// with a single superframe and no TLC blocks (the DTE-facing API has no
// knob for either; §9 open question "superframe count").
func (m *Modem) frameParams() hfmodem.FrameParams {
	return hfmodem.FrameParams{
		Waveform: m.txParams.Waveform,
		BWKHz:    m.txParams.BWKHz,
		WID: hfmodem.WID{
			Waveform:         m.txParams.Waveform,
			Interleaver:      m.txParams.Interleaver,
			ConstraintLength: m.txParams.ConstraintLength,
		},
		Superframes: 1,
	}
}

// rxCaptureMax bounds the accumulated demodulated-IQ buffer a pending
// receive holds before the oldest samples are dropped, so a channel
// with no real frame on it doesn't grow runRxPump's buffer forever.
const rxCaptureMax = 10 * 48000

// runRxPump is the audio -> Demod -> Rx110D -> Codec110D -> RxFSM half
// of §2's data flow: it accumulates demodulated IQ and, once Rx110D can
// decode a complete frame out of it, republishes the payload and resets
// for the next one. Rx110D.DecodeCapture decodes a whole capture at
// once rather than incrementally, so SyncAcquired/WidDecoded/DataStart
// are all reported together once a frame actually completes, not as
// each stage is reached live (§9 open question "streaming RX decode").
func (m *Modem) runRxPump() {
	ch, err := m.audio.Capture()
	if err != nil {
		m.log.Error("audio capture unavailable", "err", err)
		return
	}
	rx := hfmodem.NewRx110D(m.txParams.BWKHz)
	var buf []complex128
	for batch := range ch {
		iq, err := m.demod.DemodulateIQ(batch)
		if err != nil {
			m.log.Warn("demodulate failed", "err", err)
			continue
		}
		buf = append(buf, iq...)
		if len(buf) > rxCaptureMax {
			buf = buf[len(buf)-rxCaptureMax:]
		}
		if m.capture != nil {
			_ = m.capture.WriteIQ(iq)
		}

		result, err := rx.DecodeCapture(buf)
		if err != nil {
			continue
		}
		m.deliverRxResult(result)
		buf = buf[:0]
	}
}

func (m *Modem) deliverRxResult(result *hfmodem.Rx110DResult) {
	if err := m.rx.SyncAcquired(); err != nil {
		m.log.Warn("rx sync_acquired rejected", "err", err)
		return
	}
	if err := m.rx.WidDecoded(result.WID); err != nil {
		m.log.Warn("rx wid_decoded rejected", "err", err)
	}
	if err := m.rx.DataStart(); err != nil {
		m.log.Warn("rx data_start rejected", "err", err)
	}
	m.rx.PublishPayload(result.Data)
	if err := m.rx.Complete(); err != nil {
		m.log.Warn("rx complete rejected", "err", err)
	}
}

// AbortTX force-stops an in-progress transmit (§6 "abort_tx").
func (m *Modem) AbortTX() {
	m.tx.Abort()
	if m.rig != nil {
		if err := m.rig.SetPTT(false); err != nil {
			m.log.Warn("ptt unkey failed", "err", err)
		}
	}
}

// TxStatus returns the current transmit FSM state (§6 "tx_status").
func (m *Modem) TxStatus() dte.TxState { return m.tx.State() }

// SetTxParams updates the waveform/bandwidth/interleaver used by the
// next armed transmission (§6 "set_tx_params").
func (m *Modem) SetTxParams(p TxParams) { m.txParams = p }

// AbortRX force-stops an in-progress receive (§6 "abort_rx").
func (m *Modem) AbortRX() error { return m.rx.Complete() }

// RxStatus returns the current receive FSM state (§6 "rx_status").
func (m *Modem) RxStatus() dte.RxState { return m.rx.State() }

// SetDuplexMode changes the Arbiter's half-duplex arbitration mode
// (§6 "set_duplex_mode").
func (m *Modem) SetDuplexMode(mode dte.Mode) { m.arb.SetMode(mode) }

// Subscribe registers a new event sink filtered by kind (§6 "subscribe").
func (m *Modem) Subscribe(filter dte.Kind) *dte.Sink { return m.bus.Subscribe(filter) }

// Link exposes the ALE link-establishment actor for host adapters that
// drive scan/call/terminate directly.
func (m *Modem) Link() *ale.Link { return m.lnk }

// Close releases the Modem's rig and audio collaborators and flushes
// any open capture file.
func (m *Modem) Close() error {
	m.capture.Close()
	if m.audio != nil {
		m.audio.Close()
	}
	if m.rig != nil {
		return m.rig.Close()
	}
	return nil
}
