package hfmodem

import (
	"math"
	"math/cmplx"
)

// This file maps waveform symbols (the integers the 110D codec works
// in) to 8-PSK/QAM IQ points and back. The exact QAM bit-to-level
// split is not specified by the rate tables, so it is implementation-
// defined here: Gray-coded I/Q levels split as evenly as possible
// (ceil(bps/2) I bits, floor(bps/2) Q bits). 32-QAM uses the same
// split, which gives a rectangular 8x4 grid rather than a cross shape.

func grayEncode(n int) int { return n ^ (n >> 1) }

func grayDecode(g int) int {
	n := g
	for mask := n >> 1; mask != 0; mask >>= 1 {
		n ^= mask
	}
	return n
}

func qamBitSplit(bps int) (iBits, qBits int) {
	iBits = (bps + 1) / 2
	qBits = bps - iBits
	return
}

func qamLevels(n int) []float64 {
	m := 1 << n
	levels := make([]float64, m)
	for i := 0; i < m; i++ {
		levels[i] = float64(2*i - (m - 1))
	}
	maxAbs := float64(m - 1)
	if maxAbs == 0 {
		return levels
	}
	for i := range levels {
		levels[i] /= maxAbs
	}
	return levels
}

func nearestLevelIndex(v float64, n int) int {
	levels := qamLevels(n)
	best, bestDist := 0, math.Inf(1)
	for i, l := range levels {
		if d := math.Abs(v - l); d < bestDist {
			bestDist, best = d, i
		}
	}
	return best
}

// SymbolToIQ maps a waveform symbol (0..2^bps-1) to a unit-energy-ish
// IQ point for the given constellation.
func SymbolToIQ(c Constellation, sym int) complex128 {
	bps := c.BitsPerSymbol()
	switch c {
	case BPSK, QPSK, PSK8:
		m := 1 << bps
		angle := 2 * math.Pi * float64(grayEncode(sym)) / float64(m)
		return cmplx.Rect(1, angle)
	default:
		iBits, qBits := qamBitSplit(bps)
		iIdx := sym >> qBits
		qIdx := sym & ((1 << qBits) - 1)
		iLevels := qamLevels(iBits)
		qLevels := qamLevels(qBits)
		return complex(iLevels[grayEncode(iIdx)], qLevels[grayEncode(qIdx)])
	}
}

// IQToSymbol hard-decodes an IQ sample back to a waveform symbol.
func IQToSymbol(c Constellation, iq complex128) int {
	bps := c.BitsPerSymbol()
	switch c {
	case BPSK, QPSK, PSK8:
		m := 1 << bps
		angle := cmplx.Phase(iq)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		idx := int(math.Round(angle*float64(m)/(2*math.Pi))) % m
		return grayDecode(idx)
	default:
		iBits, qBits := qamBitSplit(bps)
		iIdx := grayDecode(nearestLevelIndex(real(iq), iBits))
		qIdx := grayDecode(nearestLevelIndex(imag(iq), qBits))
		return iIdx<<qBits | qIdx
	}
}
