package hfmodem

// FrameParams selects the waveform, bandwidth, and preamble shape for
// one 110D transmission (§4.1, §4.3).
type FrameParams struct {
	Waveform    int
	BWKHz       int
	WID         WID
	Superframes int
	TLCBlocks   int
}

// Tx110D assembles complete 110D Appendix D frames: preamble, initial
// mini-probe, interleaved (data block, mini-probe) pairs, and an EOT
// continuation of the probe sequence (§4.3 "Frame assembly").
type Tx110D struct {
	params FrameParams
	wp     WaveformParams
	enc    *Encoder
	probe  []complex128
}

// NewTx110D builds a Tx110D for one frame-parameter set.
func NewTx110D(p FrameParams) (*Tx110D, error) {
	wp, err := LookupWaveform(p.Waveform)
	if err != nil {
		return nil, err
	}
	ilv, err := LookupInterleaver(p.WID.Interleaver, p.BWKHz)
	if err != nil {
		return nil, err
	}
	enc, err := NewEncoder(Codec110DConfig{
		K:             p.WID.ConstraintLength,
		Rate:          wp.Rate,
		Interleaver:   ilv,
		BitsPerSymbol: wp.Constellation.BitsPerSymbol(),
	})
	if err != nil {
		return nil, err
	}
	probe, err := MiniProbeSequence(p.Waveform, p.BWKHz)
	if err != nil {
		return nil, err
	}
	return &Tx110D{params: p, wp: wp, enc: enc, probe: probe}, nil
}

// TransmitFrame encodes data and returns the full IQ sample sequence
// ready to hand to a modulator/audio adapter.
func (t *Tx110D) TransmitFrame(data []byte, useEOM bool) ([]complex128, error) {
	preamble, err := BuildPreamble(PreambleConfig{
		BWKHz:       t.params.BWKHz,
		WID:         t.params.WID,
		Superframes: t.params.Superframes,
		TLCBlocks:   t.params.TLCBlocks,
	})
	if err != nil {
		return nil, err
	}
	symbols, err := t.enc.Encode(data, useEOM)
	if err != nil {
		return nil, err
	}

	out := make([]complex128, 0, len(preamble)+len(t.probe)*(1+len(symbols)/t.wp.U+1)+len(symbols))
	out = append(out, preamble...)
	out = append(out, t.probe...)

	for i := 0; i < len(symbols); i += t.wp.U {
		end := i + t.wp.U
		if end > len(symbols) {
			end = len(symbols)
		}
		for _, s := range symbols[i:end] {
			out = append(out, SymbolToIQ(t.wp.Constellation, s))
		}
		out = append(out, t.probe...)
	}
	out = append(out, cyclicContinuation(t.probe, 0, len(t.probe))...)
	return out, nil
}
