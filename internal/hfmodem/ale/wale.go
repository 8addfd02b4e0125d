package ale

import (
	"math"
	"math/cmplx"

	"github.com/w1ale/hfmodem/internal/hfmodem"
)

// This file assembles and decodes Deep and Fast WALE frames (§4.12):
// `[TLC][capture probe 96 sym][preamble][data]`, where Deep carries a
// 576-symbol (18 Walsh-block) preamble and Walsh-16 data at ~150 bps,
// and Fast carries a 288-symbol (9 Walsh-block) preamble and BPSK data
// with an initial 32-symbol probe plus interleaved 32-symbol probes
// every 96-symbol data block, at ~2400 bps.

// Waveform selects Deep or Fast WALE.
type Waveform int

const (
	Deep Waveform = iota
	Fast
)

func (w Waveform) String() string {
	if w == Deep {
		return "Deep"
	}
	return "Fast"
}

const (
	captureProbeLen  = 96
	deepPreambleLen  = 576 // 18 * 32
	fastPreambleLen  = 288 // 9 * 32
	walsh16Order     = 16
	fastProbeLen     = 32
	fastDataBlockLen = 96
	symbolRate       = 2400 // symbols/sec, §4.12
	deepLenHeuristic = 2000 // §9 open question: length-based Deep/Fast discriminator
)

func captureProbeSeq() []complex128 {
	octs, _ := pnLikeOctants(0xC3A5, 0x4481, captureProbeLen)
	out := make([]complex128, captureProbeLen)
	for i, o := range octs {
		out[i] = octantFromInt(o)
	}
	return out
}

func octantFromInt(o int) complex128 {
	angle := 2 * math.Pi * float64(o%8) / 8
	return complex(math.Cos(angle), math.Sin(angle))
}

// pnLikeOctants generates a deterministic octant sequence via an LFSR,
// grounded on the same shape as the 110D preamble's PN generator
// (tables_pn.go), reused here for the WALE capture probe and TLC/data
// scramble.
func pnLikeOctants(seed, taps uint16, n int) ([]int, error) {
	state := seed
	out := make([]int, n)
	for i := 0; i < n; i++ {
		bit := byte(0)
		masked := state & taps
		for masked != 0 {
			bit ^= byte(masked & 1)
			masked >>= 1
		}
		state = (state >> 1) | (uint16(bit) << 14)
		out[i] = int(state % 8)
	}
	return out, nil
}

func preambleLen(w Waveform) int {
	if w == Deep {
		return deepPreambleLen
	}
	return fastPreambleLen
}

// AssembleFrame builds the full WALE symbol sequence for one PDU:
// a TLC-equivalent lead (a second copy of the capture probe), capture
// probe, preamble, and Walsh-16 (Deep) or
// probe-interleaved BPSK (Fast) data (§4.12, §8 scenario 5). async is
// accepted for interface symmetry with the source's scheduling model;
// framing is identical either way.
func AssembleFrame(pdu PDU, w Waveform, async bool) ([]complex128, error) {
	tribits, err := EncodeFrame(pdu.Bits())
	if err != nil {
		return nil, err
	}

	var out []complex128
	out = append(out, captureProbeSeq()...) // TLC-equivalent lead
	out = append(out, captureProbeSeq()...) // capture probe (96 symbols)
	out = append(out, preambleSeq(w)...)

	switch w {
	case Deep:
		out = append(out, deepDataSymbols(tribits)...)
	default:
		out = append(out, fastDataSymbols(tribits)...)
	}
	return out, nil
}

func preambleSeq(w Waveform) []complex128 {
	n := preambleLen(w)
	octs, _ := pnLikeOctants(0x5AF0, 0x4481, n)
	out := make([]complex128, n)
	for i, o := range octs {
		out[i] = octantFromInt(o)
	}
	return out
}

// deepDataSymbols Walsh-16-modulates each tribit's constituent bits as
// Walsh-order-16 chip sequences (150 bps-class spreading).
func deepDataSymbols(tribits []int) []complex128 {
	var out []complex128
	for _, t := range tribits {
		for bitPos := 2; bitPos >= 0; bitPos-- {
			bit := (t >> uint(bitPos)) & 1
			chips, _ := hfmodem.WalshCode(walsh16Order, bit*walsh16Order/2)
			for _, c := range chips {
				out = append(out, complex(float64(c), 0))
			}
		}
	}
	return out
}

// fastDataSymbols BPSK-modulates tribit bits directly, interleaving a
// 32-symbol probe every 96-symbol data block (plus the initial probe
// already carried by the capture probe section).
func fastDataSymbols(tribits []int) []complex128 {
	var bits []byte
	for _, t := range tribits {
		bits = append(bits, byte((t>>2)&1), byte((t>>1)&1), byte(t&1))
	}
	probe := captureProbeSeq()[:fastProbeLen]
	var out []complex128
	for i := 0; i < len(bits); i += fastDataBlockLen {
		end := i + fastDataBlockLen
		if end > len(bits) {
			end = len(bits)
		}
		for _, b := range bits[i:end] {
			v := 1.0
			if b == 1 {
				v = -1.0
			}
			out = append(out, complex(v, 0))
		}
		out = append(out, probe...)
	}
	return out
}

// DiscriminateLength implements the documented (and flagged-as-weak)
// Deep/Fast discriminator: total remaining symbol count above the
// threshold selects Deep (§9 open question, §4.12). The length is the
// only input; no correlation against either preamble is computed.
func DiscriminateLength(remainingSymbols int) Waveform {
	if remainingSymbols > deepLenHeuristic {
		return Deep
	}
	return Fast
}

// DisassembleFrame reverses AssembleFrame: given the waveform type and
// a noise-free capture (TLC + capture probe + preamble + data), it
// strips the leading sections, demodulates the data layer, and decodes
// the ALE frame back to a PDU (§8 scenario 5).
func DisassembleFrame(samples []complex128, w Waveform) (PDU, error) {
	skip := 2*captureProbeLen + preambleLen(w)
	if skip > len(samples) {
		return PDU{}, ErrBadFrame
	}
	data := samples[skip:]

	var tribits []int
	switch w {
	case Deep:
		tribits = deepDataDemod(data)
	default:
		tribits = fastDataDemod(data)
	}
	pduBits, err := DecodeFrame(tribits)
	if err != nil {
		return PDU{}, err
	}
	wire, err := bitsToWire(pduBits)
	if err != nil {
		return PDU{}, err
	}
	return DecodePDU(wire)
}

func deepDataDemod(samples []complex128) []int {
	code8, _ := hfmodem.WalshCode(walsh16Order, 8)
	nBits := len(samples) / walsh16Order
	bits := make([]byte, nBits)
	for g := 0; g < nBits; g++ {
		var dot float64
		for i := 0; i < walsh16Order; i++ {
			dot += real(samples[g*walsh16Order+i]) * float64(code8[i])
		}
		if dot > 0 {
			bits[g] = 1
		}
	}
	return tribitsFromBits(bits)
}

func fastDataDemod(samples []complex128) []int {
	var bits []byte
	pos := 0
	for pos < len(samples) {
		end := pos + fastDataBlockLen
		if end > len(samples) {
			end = len(samples)
		}
		for _, s := range samples[pos:end] {
			if real(s) < 0 {
				bits = append(bits, 1)
			} else {
				bits = append(bits, 0)
			}
		}
		pos = end + fastProbeLen
	}
	return tribitsFromBits(bits)
}

func tribitsFromBits(bits []byte) []int {
	n := len(bits) / 3
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(bits[3*i])<<2 | int(bits[3*i+1])<<1 | int(bits[3*i+2])
	}
	return out
}

// CorrelateCapture scores a received 96-symbol window against the
// capture-probe reference across all 8 phase rotations, returning the
// best-magnitude correlation and the resolved phase (§4.12 "32-symbol
// capture-probe correlation against all 8 phase rotations").
func CorrelateCapture(window []complex128) (score float64, phase int) {
	ref := captureProbeSeq()
	n := len(window)
	if n > len(ref) {
		n = len(ref)
	}
	for p := 0; p < 8; p++ {
		rot := cmplx.Rect(1, 2*math.Pi*float64(p)/8)
		var sum complex128
		for i := 0; i < n; i++ {
			sum += window[i] * cmplx.Conj(ref[i]*rot)
		}
		mag := cmplx.Abs(sum) / float64(n)
		if mag > score {
			score, phase = mag, p
		}
	}
	return score, phase
}
