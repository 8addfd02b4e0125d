package ale

import (
	"errors"

	"github.com/w1ale/hfmodem/internal/hfmodem"
)

// This file is the ALE FEC/framing pipeline (§4.11): conv-encode-with-
// flush (rate 1/2 K=7, six zero flush bits) over the 96-bit PDU, a
// 12x16 row-write/column-read interleaver operating on convolutional
// dibits (the {g1,g2} pair each input bit produces), and a dibit-to-
// tribit regrouping for 8-PSK symbol mapping. Decode reverses each
// stage and finishes with Viterbi over the full 384-bit code block.
//
// The interleaver's cell unit is a dibit, not a single bit: 12*16=192
// cells * 2 bits/cell = 384 bits, matching the conv output once padded
// (96 PDU bits + 6 flush bits = 102 bits -> 204 coded bits, zero-padded
// to 384). 384 bits divide evenly into 128 tribit symbols with no
// further padding. This reconciles the "12x16 interleaver" and
// "12x16x2=384" figures named in the component design (see DESIGN.md).

const (
	interleaverRows = 12
	interleaverCols = 16
	interleaverCells = interleaverRows * interleaverCols // 192 dibits
	codedBits        = interleaverCells * 2              // 384 bits
	flushBits        = 6                                 // K-1 for K=7
	pduBits          = 96
	meaningfulBits   = pduBits + flushBits // 102

	tribitSymbols = codedBits / 3 // 128
)

// ErrBadFrame is returned when a received tribit stream has the wrong
// length to be one ALE frame.
var ErrBadFrame = errors.New("ale: malformed encoded frame")

func convEncoder() *hfmodem.ConvEncoder {
	return hfmodem.NewConvEncoder(hfmodem.K7, hfmodem.GenALEK7G1, hfmodem.GenALEK7G2)
}

type dibit [2]byte

func bitsToDibits(bits []byte) []dibit {
	out := make([]dibit, len(bits)/2)
	for i := range out {
		out[i] = dibit{bits[2*i], bits[2*i+1]}
	}
	return out
}

func dibitsToBits(dibits []dibit) []byte {
	out := make([]byte, 0, len(dibits)*2)
	for _, d := range dibits {
		out = append(out, d[0], d[1])
	}
	return out
}

// interleaveDibits row-writes dibits into a rows*cols grid and
// column-reads them back out.
func interleaveDibits(dibits []dibit) []dibit {
	out := make([]dibit, interleaverCells)
	idx := 0
	for c := 0; c < interleaverCols; c++ {
		for r := 0; r < interleaverRows; r++ {
			out[idx] = dibits[r*interleaverCols+c]
			idx++
		}
	}
	return out
}

// deinterleaveDibits reverses interleaveDibits: column-write, row-read.
func deinterleaveDibits(dibits []dibit) []dibit {
	grid := make([]dibit, interleaverCells)
	idx := 0
	for c := 0; c < interleaverCols; c++ {
		for r := 0; r < interleaverRows; r++ {
			grid[r*interleaverCols+c] = dibits[idx]
			idx++
		}
	}
	return grid
}

func bitsToTribits(bits []byte) []int {
	out := make([]int, (len(bits)+2)/3)
	for i := range out {
		v := 0
		for j := 0; j < 3; j++ {
			v <<= 1
			if k := 3*i + j; k < len(bits) {
				v |= int(bits[k])
			}
		}
		out[i] = v
	}
	return out
}

func tribitsToBits(tribits []int) []byte {
	out := make([]byte, 0, len(tribits)*3)
	for _, t := range tribits {
		out = append(out, byte((t>>2)&1), byte((t>>1)&1), byte(t&1))
	}
	return out
}

// EncodeFrame runs a 96-bit PDU bitstream through the full ALE
// encode pipeline and returns 128 8-PSK tribit symbols.
func EncodeFrame(pduBitsIn []byte) ([]int, error) {
	if len(pduBitsIn) != pduBits {
		return nil, ErrBadFrame
	}
	coded := convEncoder().EncodeZeroTail(pduBitsIn) // 204 bits
	padded := make([]byte, codedBits)
	copy(padded, coded)

	interleaved := dibitsToBits(interleaveDibits(bitsToDibits(padded)))
	return bitsToTribits(interleaved), nil
}

// DecodeFrame reverses EncodeFrame: tribit-to-dibit, deinterleave,
// Viterbi over the full 384-bit code block, drop the 6 flush bits, and
// return the 96 recovered PDU bits.
func DecodeFrame(tribits []int) ([]byte, error) {
	if len(tribits) != tribitSymbols {
		return nil, ErrBadFrame
	}
	bits := tribitsToBits(tribits)
	deinterleaved := dibitsToBits(deinterleaveDibits(bitsToDibits(bits)))

	soft := make([]float64, len(deinterleaved))
	for i, b := range deinterleaved {
		soft[i] = hfmodem.HardToSoft(b)
	}
	vit := hfmodem.NewViterbi(hfmodem.K7, hfmodem.GenALEK7G1, hfmodem.GenALEK7G2)
	decoded, err := vit.Decode(soft, false)
	if err != nil {
		return nil, err
	}
	if len(decoded) < meaningfulBits {
		return nil, ErrBadFrame
	}
	return decoded[:pduBits], nil
}
