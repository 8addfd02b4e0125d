package hfmodem

// Codec110DConfig bundles everything Encoder/Decoder need to run the
// §4.6 pipeline for one waveform/interleaver/bandwidth combination.
type Codec110DConfig struct {
	K             ConstraintLength
	Rate          CodeRate
	Interleaver   InterleaverParams
	BitsPerSymbol int
}

func generatorsFor(k ConstraintLength) (uint, uint) {
	if k == K9 {
		return Gen110DK9G1, Gen110DK9G2
	}
	return Gen110DK7G1, Gen110DK7G2
}

// Encoder is the 110D TX codec: optional EOM append, tail-biting conv
// encode, puncture, interleave, symbol-map (§4.6 "Encoder").
type Encoder struct {
	cfg    Codec110DConfig
	conv   *ConvEncoder
	punct  *Puncturer
	il     *Interleaver
}

// NewEncoder constructs an Encoder, returning a *TableLookupError
// wrapped error if the rate or interleaver parameters are invalid.
func NewEncoder(cfg Codec110DConfig) (*Encoder, error) {
	g1, g2 := generatorsFor(cfg.K)
	punct, err := NewPuncturer(cfg.Rate)
	if err != nil {
		return nil, err
	}
	il, err := NewInterleaver(cfg.Interleaver.CodedBits, cfg.Interleaver.Increment)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		cfg:   cfg,
		conv:  NewConvEncoder(cfg.K, g1, g2),
		punct: punct,
		il:    il,
	}, nil
}

// Encode runs the full TX pipeline over a bit stream and returns
// waveform symbols (each in 0..2^BitsPerSymbol-1). bits may be any
// length (§8 invariant 1): Encode zero-pads it, before the tail-biting
// close rather than after, to the shortest length whose coded,
// punctured output lands on an interleaver block boundary, so the
// interleaver never has to pad the punctured stream itself. Padding
// post-puncture would leave the padding bits outside the tail-biting
// closure Decoder.Flush relies on to recover the message (§9
// "Tail-biting rotation").
func (e *Encoder) Encode(bits []byte, useEOM bool) ([]int, error) {
	data := bits
	if useEOM {
		data = AppendEOM(bits)
	}
	aligned, err := alignedDataLen(len(data), e.punct, e.il.Size)
	if err != nil {
		return nil, err
	}
	if aligned > len(data) {
		padded := make([]byte, aligned)
		copy(padded, data)
		data = padded
	}
	coded, err := e.conv.EncodeTailBiting(data)
	if err != nil {
		return nil, err
	}
	punctured, err := e.punct.Encode(coded)
	if err != nil {
		return nil, err
	}
	interleaved := e.il.Interleave(punctured)
	return mapToSymbols(interleaved, e.cfg.BitsPerSymbol), nil
}

// alignedDataLen returns the smallest n >= dataLen such that punct,
// applied to 2*n tail-biting-coded bits, produces a length that is a
// multiple of ilSize. Search steps by the puncturer's own alignment
// granularity so PunctureLength's block arithmetic stays exact.
func alignedDataLen(dataLen int, punct *Puncturer, ilSize int) (int, error) {
	step := punct.alignmentStep()
	if step <= 0 {
		step = 1
	}
	n := dataLen
	if rem := n % step; rem != 0 {
		n += step - rem
	}
	limit := n + step*(2*ilSize+1)
	for ; n <= limit; n += step {
		if punct.PunctureLength(2*n)%ilSize == 0 {
			return n, nil
		}
	}
	return 0, &TableLookupError{Key: "no data length aligns to the interleaver block size"}
}

func demapSymbols(symbols []int, bps int) []byte {
	out := make([]byte, 0, len(symbols)*bps)
	for _, s := range symbols {
		for i := bps - 1; i >= 0; i-- {
			out = append(out, byte((s>>uint(i))&1))
		}
	}
	return out
}

func mapToSymbols(bits []byte, bps int) []int {
	if bps <= 0 {
		return nil
	}
	n := (len(bits) + bps - 1) / bps
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v := 0
		for j := 0; j < bps; j++ {
			idx := i*bps + j
			var bit byte
			if idx < len(bits) {
				bit = bits[idx]
			}
			v = v<<1 | int(bit)
		}
		out[i] = v
	}
	return out
}

func rotateTailBiting(bits []byte, kMinus1 int) []byte {
	n := len(bits)
	if kMinus1 <= 0 || kMinus1 >= n {
		out := make([]byte, n)
		copy(out, bits)
		return out
	}
	out := make([]byte, n)
	copy(out, bits[n-kMinus1:])
	copy(out[kMinus1:], bits[:n-kMinus1])
	return out
}

// Decoder is the 110D RX codec state machine (§4.6 "Decoder"):
// DecodeBlock accumulates soft bits per arriving interleaver block by
// deinterleaving then depuncturing; Flush runs Viterbi once over the
// whole accumulated buffer (tail-biting requires the complete code
// block, §9 "Per-block vs whole-block Viterbi"), rotates the result by
// K-1 (§9 "Tail-biting rotation"), and scans it for EOM.
type Decoder struct {
	cfg     Codec110DConfig
	vit     *Viterbi
	punct   *Puncturer
	il      *Interleaver
	rawBuf  []float64 // demapped soft bits awaiting a full interleaver block
	softBuf []float64
}

// NewDecoder constructs a Decoder for the same configuration an
// Encoder would use.
func NewDecoder(cfg Codec110DConfig) (*Decoder, error) {
	g1, g2 := generatorsFor(cfg.K)
	punct, err := NewPuncturer(cfg.Rate)
	if err != nil {
		return nil, err
	}
	il, err := NewInterleaver(cfg.Interleaver.CodedBits, cfg.Interleaver.Increment)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		cfg:   cfg,
		vit:   NewViterbi(cfg.K, g1, g2),
		punct: punct,
		il:    il,
	}, nil
}

// DecodeBlock demaps a batch of received symbols and accumulates the
// resulting soft bits; whenever enough have arrived to fill one full
// interleaver block it deinterleaves and depunctures that block,
// carrying any remainder forward. Callers are free to hand symbols in
// arbitrarily sized chunks (e.g. one mini-probe-delimited frame at a
// time) independent of the interleaver's own block size.
func (d *Decoder) DecodeBlock(symbols []int) error {
	bits := demapSymbols(symbols, d.cfg.BitsPerSymbol)
	for _, b := range bits {
		d.rawBuf = append(d.rawBuf, HardToSoft(b))
	}
	for len(d.rawBuf) >= d.il.Size {
		block := d.rawBuf[:d.il.Size]
		deint, err := d.il.DeinterleaveSoft(block)
		if err != nil {
			return err
		}
		depunct, err := d.punct.Depuncture(deint)
		if err != nil {
			return err
		}
		d.softBuf = append(d.softBuf, depunct...)
		d.rawBuf = d.rawBuf[d.il.Size:]
	}
	return nil
}

// Flush runs the Viterbi decoder once over the full accumulated buffer
// and scans the rotated output for EOM. data holds the decoded bits, one
// per byte (up to but excluding the EOM sentinel, when present).
func (d *Decoder) Flush() (data []byte, eomDetected bool, err error) {
	if len(d.softBuf) == 0 {
		return nil, false, nil
	}
	bits, err := d.vit.Decode(d.softBuf, true)
	if err != nil {
		return nil, false, err
	}
	rotated := rotateTailBiting(bits, int(d.cfg.K)-1)
	scanner := NewEOMScanner()
	out, detected, _ := scanner.Scan(rotated)
	if detected {
		return out, true, nil
	}
	return rotated, false, nil
}

// Reset clears accumulated soft bits, for reuse across transmissions.
func (d *Decoder) Reset() {
	d.softBuf = d.softBuf[:0]
	d.rawBuf = d.rawBuf[:0]
}
