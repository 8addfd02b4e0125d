package hfmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSymbolToIQRoundTripAllConstellations(t *testing.T) {
	constellations := []Constellation{BPSK, QPSK, PSK8, QAM16, QAM32, QAM64}
	for _, c := range constellations {
		bits := c.BitsPerSymbol()
		n := 1 << bits
		for sym := 0; sym < n; sym++ {
			iq := SymbolToIQ(c, sym)
			got := IQToSymbol(c, iq)
			assert.Equal(t, sym, got, "constellation %v symbol %d", c, sym)
		}
	}
}

func TestGrayCodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 63).Draw(rt, "n")
		assert.Equal(rt, n, grayDecode(grayEncode(n)))
	})
}
