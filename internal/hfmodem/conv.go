package hfmodem

import "math/bits"

// Generator polynomials, octal, bit i of G taps shift-register stage i
// (stage 0 = newest input bit), per §4.2/§4.11.
const (
	Gen110DK7G1 = 0o171
	Gen110DK7G2 = 0o133
	Gen110DK9G1 = 0o753
	Gen110DK9G2 = 0o561
	GenALEK7G1  = 0o133
	GenALEK7G2  = 0o171
)

// ConvEncoder implements the rate-1/2 convolutional encoder shared by
// the 110D and ALE FEC stacks, in both its data-path tail-biting form
// (§4.2, §9 "Tail-biting rotation") and a legacy zero-tail form kept
// for tests and for ALE's conv-encode-with-flush path (§4.11).
//
// State is the K-1 most recent input bits, newest bit in the LSB. A new
// input bit b combines with state as `(state<<1 | b) & mask(K)` to form
// the K-bit tap register; the next state drops the oldest bit via
// `& mask(K-1)`.
type ConvEncoder struct {
	K      ConstraintLength
	G1, G2 uint
}

// NewConvEncoder constructs an encoder for constraint length k (7 or 9)
// and the given generator polynomials.
func NewConvEncoder(k ConstraintLength, g1, g2 uint) *ConvEncoder {
	return &ConvEncoder{K: k, G1: g1, G2: g2}
}

func maskBits(n int) uint { return (uint(1) << uint(n)) - 1 }

func parityBit(v uint) byte { return byte(bits.OnesCount(v) & 1) }

// step combines state with input bit b, returning the tap register
// (K bits) and the next state (K-1 bits).
func step(k int, state uint, b byte) (tap uint, next uint) {
	tap = ((state << 1) | uint(b)) & maskBits(k)
	next = tap & maskBits(k-1)
	return
}

// EncodeTailBiting implements D.5.3.2.3 full tail-biting: the first K-1
// input bits are loaded into the shift register with no output, the
// remaining bits are encoded normally, and finally the preloaded bits
// are re-encoded as the closing tail. Output length is exactly
// 2*len(input). len(input) must be >= K-1.
func (e *ConvEncoder) EncodeTailBiting(input []byte) ([]byte, error) {
	n := len(input)
	k := int(e.K)
	if n < k-1 {
		return nil, ErrFrameTooShort
	}
	var state uint
	for i := 0; i < k-1; i++ {
		_, state = step(k, state, input[i])
	}
	out := make([]byte, 0, 2*n)
	emit := func(b byte) {
		var tap uint
		tap, state = step(k, state, b)
		out = append(out, parityBit(tap&e.G1), parityBit(tap&e.G2))
	}
	for i := k - 1; i < n; i++ {
		emit(input[i])
	}
	for i := 0; i < k-1; i++ {
		emit(input[i])
	}
	return out, nil
}

// EncodeZeroTail is the legacy non-tail-biting mode: register starts at
// the all-zero state and is flushed with K-1 zero bits at the end.
// Output length is 2*(len(input)+K-1). Used by tests and by ALE's
// conv-encode-with-flush (§4.11).
func (e *ConvEncoder) EncodeZeroTail(input []byte) []byte {
	k := int(e.K)
	var state uint
	out := make([]byte, 0, 2*(len(input)+k-1))
	emit := func(b byte) {
		var tap uint
		tap, state = step(k, state, b)
		out = append(out, parityBit(tap&e.G1), parityBit(tap&e.G2))
	}
	for _, b := range input {
		emit(b)
	}
	for i := 0; i < k-1; i++ {
		emit(0)
	}
	return out
}
