package hfmodem

// Downcount is the 110D preamble's super-frame counter (§3
// "Downcount"): 8 bits / 4 dibits, 5 data bits (count 0..31) plus 3
// parity bits. count == 0 marks the last super-frame before data.
type Downcount struct {
	Count int
}

// Bits encodes the Downcount into b[0]..b[7], b[i] holding bit b_i:
// b4..b0 hold Count (b4 the MSB) and b7,b6,b5 the parity bits:
// b7=b1^b2^b3, b6=b2^b3^b4, b5=b0^b1^b2 (§3).
func (c Downcount) Bits() [8]byte {
	var b [8]byte
	v := c.Count & 0x1F
	b[4] = byte((v >> 4) & 1)
	b[3] = byte((v >> 3) & 1)
	b[2] = byte((v >> 2) & 1)
	b[1] = byte((v >> 1) & 1)
	b[0] = byte(v & 1)
	b[7] = b[1] ^ b[2] ^ b[3]
	b[6] = b[2] ^ b[3] ^ b[4]
	b[5] = b[0] ^ b[1] ^ b[2]
	return b
}

// EncodeDowncount returns the Downcount's 8 bits as a flat slice in
// index order (out[i] = b_i, so b0 comes first).
func EncodeDowncount(c Downcount) []byte {
	b := c.Bits()
	out := make([]byte, 8)
	copy(out, b[:])
	return out
}

// DecodeDowncount recovers a Downcount from its 8 encoded bits,
// verifying the parity equations (§8 invariant 6). Any single-dibit
// corruption is caught as ErrParityMismatch.
func DecodeDowncount(bits []byte) (Downcount, error) {
	if len(bits) != 8 {
		return Downcount{}, ErrFrameTooShort
	}
	var b [8]byte
	copy(b[:], bits)
	p7 := b[1] ^ b[2] ^ b[3]
	p6 := b[2] ^ b[3] ^ b[4]
	p5 := b[0] ^ b[1] ^ b[2]
	if p7 != b[7] || p6 != b[6] || p5 != b[5] {
		return Downcount{}, ErrParityMismatch
	}
	count := int(b[4])<<4 | int(b[3])<<3 | int(b[2])<<2 | int(b[1])<<1 | int(b[0])
	return Downcount{Count: count}, nil
}
