package hfmodem

import "fmt"

type punctureMode int

const (
	modePassthrough punctureMode = iota
	modePuncture
	modeRepeat
)

// Puncturer applies or undoes the puncture/repetition pattern for one
// of TABLE D-L's rates (§4.3): 1/2 passthrough, repetition down to
// 1/8..1/3, or puncturing up to 15/16.
type Puncturer struct {
	Rate      CodeRate
	mode      punctureMode
	pattern   []byte // puncture mode: keep(1)/drop(0) over one raw period
	repeatLen int     // repeat mode: output length per input (g1,g2) pair
}

// generatePuncturePattern distributes `drop` zeros evenly across a
// `raw`-length all-ones pattern (Bresenham-style accumulator), giving a
// deterministic, reproducible puncture pattern for a rate this
// implementation had no official MIL-STD-188-110D table for (see
// DESIGN.md).
func generatePuncturePattern(raw, drop int) []byte {
	pattern := make([]byte, raw)
	for i := range pattern {
		pattern[i] = 1
	}
	if drop <= 0 {
		return pattern
	}
	acc, dropped := 0, 0
	for i := 0; i < raw && dropped < drop; i++ {
		acc += drop
		if acc >= raw {
			acc -= raw
			pattern[i] = 0
			dropped++
		}
	}
	return pattern
}

func punctureRateKey(r CodeRate) string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// NewPuncturer builds a Puncturer for one of the rates named in §4.3.
// Rate 15/16 is implemented via the 9/10 pattern as an explicit,
// documented approximation (§9 open question, SPEC_FULL.md §4): the
// resulting coded stream is actually shaped like 9/10, not a true 15/16
// puncture.
func NewPuncturer(rate CodeRate) (*Puncturer, error) {
	switch rate {
	case CodeRate{1, 2}:
		return &Puncturer{Rate: rate, mode: modePassthrough}, nil
	case CodeRate{1, 8}:
		return &Puncturer{Rate: rate, mode: modeRepeat, repeatLen: 8}, nil
	case CodeRate{1, 6}:
		return &Puncturer{Rate: rate, mode: modeRepeat, repeatLen: 6}, nil
	case CodeRate{1, 4}:
		return &Puncturer{Rate: rate, mode: modeRepeat, repeatLen: 4}, nil
	case CodeRate{1, 3}:
		return &Puncturer{Rate: rate, mode: modeRepeat, repeatLen: 3}, nil
	case CodeRate{3, 4}:
		return punctureFor(rate, 3, 4), nil
	case CodeRate{2, 3}:
		return punctureFor(rate, 2, 3), nil
	case CodeRate{9, 16}:
		return punctureFor(rate, 9, 16), nil
	case CodeRate{9, 10}:
		return punctureFor(rate, 9, 10), nil
	case CodeRate{8, 9}:
		return punctureFor(rate, 8, 9), nil
	case CodeRate{5, 6}:
		return punctureFor(rate, 5, 6), nil
	case CodeRate{4, 5}:
		return punctureFor(rate, 4, 5), nil
	case CodeRate{4, 7}:
		return punctureFor(rate, 4, 7), nil
	case CodeRate{7, 8}:
		return punctureFor(rate, 7, 8), nil
	case CodeRate{15, 16}:
		p := punctureFor(rate, 9, 10)
		p.Rate = rate
		return p, nil
	default:
		return nil, &TableLookupError{Key: "puncture rate " + punctureRateKey(rate)}
	}
}

func punctureFor(rate CodeRate, num, den int) *Puncturer {
	raw := 2 * num
	drop := raw - den
	return &Puncturer{Rate: rate, mode: modePuncture, pattern: generatePuncturePattern(raw, drop)}
}

// Encode applies the puncture/repeat pattern to a rate-1/2 coded bit
// stream (interleaved g1,g2,g1,g2,...). len(raw) must be even.
func (p *Puncturer) Encode(raw []byte) ([]byte, error) {
	if len(raw)%2 != 0 {
		return nil, ErrFrameTooShort
	}
	switch p.mode {
	case modePassthrough:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case modeRepeat:
		out := make([]byte, 0, (len(raw)/2)*p.repeatLen)
		for i := 0; i < len(raw); i += 2 {
			pair := raw[i : i+2]
			for j := 0; j < p.repeatLen; j++ {
				out = append(out, pair[j%2])
			}
		}
		return out, nil
	default: // modePuncture
		period := len(p.pattern)
		out := make([]byte, 0, len(raw))
		for i, b := range raw {
			if p.pattern[i%period] == 1 {
				out = append(out, b)
			}
		}
		return out, nil
	}
}

// outputUnitPerPeriod returns how many bits of output one period of the
// pattern keeps (for modePuncture) or produces (for modeRepeat, per
// input pair).
func (p *Puncturer) outputUnitPerPeriod() int {
	switch p.mode {
	case modeRepeat:
		return p.repeatLen
	case modePuncture:
		n := 0
		for _, b := range p.pattern {
			if b == 1 {
				n++
			}
		}
		return n
	default:
		return 2
	}
}

// alignmentStep returns the raw-input (pre-puncture, post-tail-biting)
// bit-count granularity at which PunctureLength's block formula is
// exact: 1 for passthrough/repeat, num (half the puncture period) for
// puncture mode, since the period only closes on whole raw pairs.
func (p *Puncturer) alignmentStep() int {
	if p.mode == modePuncture {
		return len(p.pattern) / 2
	}
	return 1
}

// PunctureLength returns the output length for a raw (rate-1/2) bit
// count of rawLen, satisfying §8 invariant 3's length-parity property.
func (p *Puncturer) PunctureLength(rawLen int) int {
	switch p.mode {
	case modePassthrough:
		return rawLen
	case modeRepeat:
		return (rawLen / 2) * p.repeatLen
	default:
		period := len(p.pattern)
		blocks := rawLen / period
		return blocks * p.outputUnitPerPeriod()
	}
}

// Depuncture reconstructs a soft rate-1/2 stream (length a multiple of
// 2) from a punctured/repeated soft stream, inserting 0.0 erasures at
// punctured positions and averaging repeated soft values element-wise
// (§4.3).
func (p *Puncturer) Depuncture(soft []float64) ([]float64, error) {
	switch p.mode {
	case modePassthrough:
		out := make([]float64, len(soft))
		copy(out, soft)
		return out, nil
	case modeRepeat:
		if len(soft)%p.repeatLen != 0 {
			return nil, ErrFrameTooShort
		}
		out := make([]float64, 0, (len(soft)/p.repeatLen)*2)
		for i := 0; i < len(soft); i += p.repeatLen {
			block := soft[i : i+p.repeatLen]
			var sum0, sum1 float64
			var n0, n1 int
			for j, v := range block {
				if j%2 == 0 {
					sum0 += v
					n0++
				} else {
					sum1 += v
					n1++
				}
			}
			g1, g2 := 0.0, 0.0
			if n0 > 0 {
				g1 = sum0 / float64(n0)
			}
			if n1 > 0 {
				g2 = sum1 / float64(n1)
			}
			out = append(out, g1, g2)
		}
		return out, nil
	default: // modePuncture
		keep := p.outputUnitPerPeriod()
		if keep == 0 || len(soft)%keep != 0 {
			return nil, ErrFrameTooShort
		}
		numBlocks := len(soft) / keep
		period := len(p.pattern)
		out := make([]float64, 0, numBlocks*period)
		si := 0
		for b := 0; b < numBlocks; b++ {
			for _, k := range p.pattern {
				if k == 1 {
					out = append(out, soft[si])
					si++
				} else {
					out = append(out, 0.0)
				}
			}
		}
		return out, nil
	}
}
