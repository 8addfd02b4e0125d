package hfmodem

import (
	"math"
	"math/cmplx"
)

// octantToComplex maps an 8-PSK octant (0..7) to a unit complex sample.
func octantToComplex(o int) complex128 {
	angle := 2 * math.Pi * float64(o%8) / 8
	return complex(math.Cos(angle), math.Sin(angle))
}

// MiniProbeSequence returns the K known 8-PSK IQ symbols a given
// waveform/bandwidth's mini-probe carries (§4.8), generated from a
// waveform-keyed PN-like sequence (grounded on the LFSR shape used for
// the preamble PN sequences in tables_pn.go).
func MiniProbeSequence(waveform, bwKHz int) ([]complex128, error) {
	wp, err := LookupWaveform(waveform)
	if err != nil {
		return nil, err
	}
	seed := uint16(0x9F00 ^ (waveform << 4) ^ bwKHz)
	octs := pnOctants(seed, 0x4481, wp.K)
	out := make([]complex128, wp.K)
	for i, o := range octs {
		out[i] = octantToComplex(o)
	}
	return out, nil
}

// cyclicShift rotates a complex sequence left by n positions, used to
// build the boundary-marker variant of the mini-probe reference (§4.8,
// §8 invariant 9).
func cyclicShift(seq []complex128, n int) []complex128 {
	if len(seq) == 0 {
		return nil
	}
	n = n % len(seq)
	if n < 0 {
		n += len(seq)
	}
	out := make([]complex128, len(seq))
	copy(out, seq[n:])
	copy(out[len(seq)-n:], seq[:n])
	return out
}

// cyclicContinuation returns `length` samples starting at `offset`
// within a cyclic repetition of ref (§4.8 EOT detection: "cyclic
// continuation of the reference probe").
func cyclicContinuation(ref []complex128, offset, length int) []complex128 {
	if len(ref) == 0 {
		return nil
	}
	out := make([]complex128, length)
	for i := range out {
		out[i] = ref[(offset+i)%len(ref)]
	}
	return out
}

func dotConjSum(a, b []complex128) complex128 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum complex128
	for i := 0; i < n; i++ {
		sum += a[i] * cmplx.Conj(b[i])
	}
	return sum
}

func norm(a []complex128) float64 {
	var sum float64
	for _, v := range a {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(sum)
}

// ChannelEstimate is the per-probe estimate of §3 "Channel estimate".
type ChannelEstimate struct {
	Amplitude float64
	Phase     float64
	SNRdB     float64
}

const channelHistoryLen = 4

// MiniProbeRx correlates received mini-probe IQ against the known
// reference (and its boundary-marker shift), estimates the channel,
// corrects data IQ, smooths phase over a rolling window, and gates EOT
// detection (§4.8).
type MiniProbeRx struct {
	waveform, bwKHz int
	ref             []complex128
	shifted         []complex128
	history         []ChannelEstimate
}

// NewMiniProbeRx constructs a mini-probe processor for one waveform and
// bandwidth.
func NewMiniProbeRx(waveform, bwKHz int) (*MiniProbeRx, error) {
	ref, err := MiniProbeSequence(waveform, bwKHz)
	if err != nil {
		return nil, err
	}
	return &MiniProbeRx{
		waveform: waveform,
		bwKHz:    bwKHz,
		ref:      ref,
		shifted:  cyclicShift(ref, 1),
	}, nil
}

// EstimateChannel correlates rx (length K) against the known probe and
// its cyclically shifted boundary-marker variant, returning the channel
// estimate (from whichever reference correlates better) and whether the
// shifted (boundary) hypothesis won by at least a 10% margin (§4.8,
// §8 invariants 8-9).
func (m *MiniProbeRx) EstimateChannel(rx []complex128) (ChannelEstimate, bool, error) {
	if len(rx) != len(m.ref) {
		return ChannelEstimate{}, false, ErrFrameTooShort
	}
	corr := dotConjSum(rx, m.ref)
	corrShifted := dotConjSum(rx, m.shifted)
	known := m.ref
	winning := corr
	boundary := false
	if cmplx.Abs(corrShifted) > cmplx.Abs(corr)*1.10 {
		boundary = true
		winning = corrShifted
		known = m.shifted
	}
	k := float64(len(m.ref))
	amplitude := cmplx.Abs(winning) / k
	phase := cmplx.Phase(winning)

	rot := cmplx.Rect(amplitude, phase)
	var noisePower float64
	for i, r := range rx {
		residual := r - rot*known[i]
		noisePower += real(residual)*real(residual) + imag(residual)*imag(residual)
	}
	noisePower /= k
	signalPower := amplitude * amplitude
	snr := 100.0
	if noisePower > 1e-12 {
		snr = 10 * math.Log10(signalPower/noisePower)
	}

	est := ChannelEstimate{Amplitude: amplitude, Phase: phase, SNRdB: snr}
	m.history = append(m.history, est)
	if len(m.history) > channelHistoryLen {
		m.history = m.history[len(m.history)-channelHistoryLen:]
	}
	return est, boundary, nil
}

// SmoothedPhase complex-averages the phase of the last up to 4 channel
// estimates (§3 "Channel estimate... smoothed via a rolling window").
func (m *MiniProbeRx) SmoothedPhase() float64 {
	if len(m.history) == 0 {
		return 0
	}
	var acc complex128
	for _, e := range m.history {
		acc += cmplx.Rect(1, e.Phase)
	}
	return cmplx.Phase(acc)
}

// CorrectChannel divides data IQ by the estimated amplitude and rotates
// by -phase (§4.8).
func CorrectChannel(iq []complex128, est ChannelEstimate) []complex128 {
	out := make([]complex128, len(iq))
	if est.Amplitude == 0 {
		copy(out, iq)
		return out
	}
	derot := cmplx.Rect(1/est.Amplitude, -est.Phase)
	for i, v := range iq {
		out[i] = v * derot
	}
	return out
}

// DetectEOT compares the tail of the receive buffer against a cyclic
// continuation of the reference probe over small offsets, gated on the
// buffer being too short for one more full frame (§4.8 "EOT gating",
// §9 "EOT gating"): naive correlation every U+K symbols would false-
// positive without this gate.
func (m *MiniProbeRx) DetectEOT(buf []complex128, frameLen int) bool {
	if len(buf) >= frameLen {
		return false
	}
	if len(buf) == 0 {
		return false
	}
	best := 0.0
	for offset := 0; offset <= 16; offset++ {
		ref := cyclicContinuation(m.ref, offset, len(buf))
		c := dotConjSum(buf, ref)
		denom := norm(buf) * norm(ref)
		if denom == 0 {
			continue
		}
		score := cmplx.Abs(c) / denom
		if score > best {
			best = score
		}
	}
	return best > 0.85
}
