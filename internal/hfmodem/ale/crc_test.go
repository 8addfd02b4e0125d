package ale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCRC8Deterministic(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	assert.Equal(t, crc8(data), crc8(data))
}

func TestCRC8DetectsSingleBitFlip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(rt, "n")
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(rapid.IntRange(0, 255).Draw(rt, "b"))
		}
		want := crc8(data)
		bit := rapid.IntRange(0, n*8-1).Draw(rt, "bit")
		corrupted := append([]byte(nil), data...)
		corrupted[bit/8] ^= 1 << uint(bit%8)
		assert.NotEqual(rt, want, crc8(corrupted))
	})
}
