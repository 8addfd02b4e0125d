package hfmodem

// RxState names a point in the §4.10 receive state machine:
// idle -> searching -> tlc_found -> preamble -> receiving -> complete.
type RxState int

const (
	RxIdle RxState = iota
	RxSearching
	RxTLCFound
	RxPreamble
	RxReceiving
	RxComplete
)

func (s RxState) String() string {
	switch s {
	case RxIdle:
		return "idle"
	case RxSearching:
		return "searching"
	case RxTLCFound:
		return "tlc_found"
	case RxPreamble:
		return "preamble"
	case RxReceiving:
		return "receiving"
	case RxComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Rx110DResult is what DecodeCapture returns once a frame completes.
type Rx110DResult struct {
	WID          WID
	Data         []byte
	EOMDetected  bool
	ChannelPath  []ChannelEstimate
	SawTLC       bool
	Superframes  int
}

// Rx110D drives one capture buffer through the §4.10 state machine: it
// slides a Walsh-length window looking for sync, resolves the
// Fixed/TLC ambiguity and phase offset, consumes every super-frame down
// to Downcount == 0, then decodes data blocks against interleaved
// mini-probes until EOT is detected or the capture runs out.
type Rx110D struct {
	bwKHz int
	state RxState
}

// NewRx110D constructs a receiver for a fixed bandwidth.
func NewRx110D(bwKHz int) *Rx110D {
	return &Rx110D{bwKHz: bwKHz, state: RxIdle}
}

// State reports the last state reached by DecodeCapture.
func (r *Rx110D) State() RxState { return r.state }

// DecodeCapture runs the full idle->complete progression over one
// contiguous IQ capture. It returns an error if sync is never acquired
// or the decoded WID/Downcount never validate.
func (r *Rx110D) DecodeCapture(samples []complex128) (*Rx110DResult, error) {
	r.state = RxSearching
	walshLen, err := WalshLength(r.bwKHz)
	if err != nil {
		return nil, err
	}

	sync := NewSync()
	sawTLC := false
	pos := 0
	for pos+walshLen <= len(samples) {
		res, err := sync.Search(samples[pos:pos+walshLen], r.bwKHz)
		if err != nil {
			return nil, err
		}
		if res.Hit {
			if res.IsTLC {
				r.state = RxTLCFound
				sawTLC = true
				pos += walshLen
				continue
			}
			break
		}
		pos++
	}
	if pos+walshLen > len(samples) {
		return nil, ErrChecksumMismatch
	}

	r.state = RxPreamble
	dec, err := NewPreambleDecoder(r.bwKHz)
	if err != nil {
		return nil, err
	}
	wid, dc, consumed, err := dec.DecodeFirstSuperframe(samples[pos:])
	if err != nil {
		return nil, err
	}
	pos += consumed
	superframes := 1

	for dc.Count > 0 {
		var next Downcount
		wid, next, consumed, err = dec.DecodeSubsequentSuperframe(samples[pos:])
		if err != nil {
			return nil, err
		}
		dc = next
		pos += consumed
		superframes++
	}

	r.state = RxReceiving
	wp, err := LookupWaveform(wid.Waveform)
	if err != nil {
		return nil, err
	}
	ilv, err := LookupInterleaver(wid.Interleaver, r.bwKHz)
	if err != nil {
		return nil, err
	}
	codecDec, err := NewDecoder(Codec110DConfig{
		K:             wid.ConstraintLength,
		Rate:          wp.Rate,
		Interleaver:   ilv,
		BitsPerSymbol: wp.Constellation.BitsPerSymbol(),
	})
	if err != nil {
		return nil, err
	}
	probeRx, err := NewMiniProbeRx(wid.Waveform, r.bwKHz)
	if err != nil {
		return nil, err
	}

	// Initial probe: consumed for sync but also estimated, so the first
	// data block is channel-corrected from it rather than decoded raw.
	if pos+len(probeRx.ref) > len(samples) {
		return nil, ErrFrameTooShort
	}
	prevEst, _, err := probeRx.EstimateChannel(samples[pos : pos+len(probeRx.ref)])
	if err != nil {
		return nil, err
	}
	pos += len(probeRx.ref)

	var path []ChannelEstimate
	frameLen := wp.U + wp.K
	for {
		remaining := samples[pos:]
		if probeRx.DetectEOT(remaining, frameLen) {
			break
		}
		if len(remaining) < frameLen {
			break
		}
		dataIQ := remaining[:wp.U]
		probeIQ := remaining[wp.U : wp.U+wp.K]

		// Derotate/scale this frame's data by the preceding probe's
		// estimate (§4.10 "per-frame corrected symbols") before
		// hard-decoding; the trailing probe corrects the *next* frame.
		corrected := CorrectChannel(dataIQ, prevEst)
		symbols := make([]int, len(corrected))
		for i, iq := range corrected {
			symbols[i] = IQToSymbol(wp.Constellation, iq)
		}
		if err := codecDec.DecodeBlock(symbols); err != nil {
			return nil, err
		}

		est, _, err := probeRx.EstimateChannel(probeIQ)
		if err != nil {
			return nil, err
		}
		path = append(path, est)
		prevEst = est

		pos += frameLen
	}

	r.state = RxComplete
	data, eom, err := codecDec.Flush()
	if err != nil {
		return nil, err
	}
	return &Rx110DResult{
		WID:         wid,
		Data:        data,
		EOMDetected: eom,
		ChannelPath: path,
		SawTLC:      sawTLC,
		Superframes: superframes,
	}, nil
}
