package hfmodem

import (
	"math"
	"math/cmplx"
)

// This file implements §4.9 "Sync / preamble decoding": a sliding
// correlation search against the Fixed PN sync pattern (and, for TLC
// detection, its 8-PSK conjugate), followed by a phase/skip cross-
// product search that locks the first super-frame's Count and WID, and
// a fixed 18-Walsh-symbol decode for every super-frame after that.

const syncDefaultThreshold = 0.6

// SyncResult reports the outcome of one correlation window test.
type SyncResult struct {
	Hit         bool
	IsTLC       bool
	Phase       int // resolved 8-PSK phase offset, in 45-degree steps
	Correlation float64
}

// Sync performs the sliding sync-acquisition search against the Fixed
// PN pattern.
type Sync struct {
	Threshold float64
}

// NewSync returns a Sync using the default 0.6 correlation threshold.
func NewSync() *Sync {
	return &Sync{Threshold: syncDefaultThreshold}
}

// Search tests one walshLen-symbol window against all 8 phase
// hypotheses of the Fixed PN pattern and its TLC conjugate, returning
// whichever scores highest (§8 invariant 10: "sync acquisition finds
// the correct window before any later one").
func (s *Sync) Search(window []complex128, bwKHz int) (SyncResult, error) {
	walshLen, err := WalshLength(bwKHz)
	if err != nil {
		return SyncResult{}, err
	}
	if len(window) != walshLen {
		return SyncResult{}, ErrFrameTooShort
	}
	fixedRef := octantsToComplex(pnSlice(FixedPN(), 0, walshLen))
	tlcRef := octantsToComplex(pnSlice(TLCPN(), 0, walshLen))

	threshold := s.Threshold
	if threshold == 0 {
		threshold = syncDefaultThreshold
	}

	var best float64
	var bestPhase int
	var bestIsTLC bool
	for phase := 0; phase < 8; phase++ {
		rot := cmplx.Rect(1, 2*math.Pi*float64(phase)/8)
		if mag := correlateRotated(window, fixedRef, rot); mag > best {
			best, bestPhase, bestIsTLC = mag, phase, false
		}
		if mag := correlateRotated(window, tlcRef, rot); mag > best {
			best, bestPhase, bestIsTLC = mag, phase, true
		}
	}
	return SyncResult{
		Hit:         best > threshold,
		IsTLC:       bestIsTLC,
		Phase:       bestPhase,
		Correlation: best,
	}, nil
}

func correlateRotated(window, ref []complex128, rot complex128) float64 {
	rotated := make([]complex128, len(ref))
	for i, v := range ref {
		rotated[i] = v * rot
	}
	return cmplx.Abs(dotConjSum(window, rotated)) / float64(len(ref))
}

// despreadBlockToDibit recovers the dibit a Walsh-length block carries
// given the section's PN slice and the resolved phase offset: after
// derotating and despreading against the PN reference each chip
// position should sit near +1 or -1 (§4.9, §4.1).
func despreadBlockToDibit(block []complex128, pn []int, phaseOctant int) (int, error) {
	if len(block) != len(pn) {
		return 0, ErrFrameTooShort
	}
	rot := cmplx.Rect(1, -float64(phaseOctant)*math.Pi/4)
	var groupSum [4]float64
	for i, sample := range block {
		pnC := octantToComplex(pn[i])
		d := sample * cmplx.Conj(pnC) * rot
		groupSum[i%4] += real(d)
	}
	folded := make([]int, 4)
	for g, sum := range groupSum {
		if sum < 0 {
			folded[g] = 4
		}
	}
	return WalshDemodulateDibit(folded)
}

// decodeDibitBlocks splits samples into walshLen-length blocks and
// despreads each into a dibit, returning the concatenated bits.
func decodeDibitBlocks(samples []complex128, walshLen, phase int, pn []int, pnCursor int) ([]byte, error) {
	if len(samples)%walshLen != 0 {
		return nil, ErrFrameTooShort
	}
	nBlocks := len(samples) / walshLen
	bits := make([]byte, 0, nBlocks*2)
	for b := 0; b < nBlocks; b++ {
		block := samples[b*walshLen : (b+1)*walshLen]
		slice := pnSlice(pn, pnCursor+b*walshLen, walshLen)
		dibit, err := despreadBlockToDibit(block, slice, phase)
		if err != nil {
			return nil, err
		}
		bits = append(bits, byte((dibit>>1)&1), byte(dibit&1))
	}
	return bits, nil
}

// PreambleDecoder decodes successive super-frames of Count/WID once
// sync has located the start of the first one, persisting the resolved
// 8-PSK phase offset across calls (§3 "resolved 8-PSK phase offset").
type PreambleDecoder struct {
	bwKHz    int
	walshLen int
	phase    int
	countCur int
	widCur   int
}

// NewPreambleDecoder constructs a decoder for one bandwidth.
func NewPreambleDecoder(bwKHz int) (*PreambleDecoder, error) {
	walshLen, err := WalshLength(bwKHz)
	if err != nil {
		return nil, err
	}
	return &PreambleDecoder{bwKHz: bwKHz, walshLen: walshLen}, nil
}

// Phase returns the phase offset resolved by DecodeFirstSuperframe.
func (d *PreambleDecoder) Phase() int { return d.phase }

// DecodeFirstSuperframe resolves the short(m=1)/long(m=9) Fixed-section
// ambiguity and the residual 8-PSK phase offset by trying the
// documented cross-product of 8 phases, the four candidate Fixed-
// section skip lengths {0, W, 8W, 9W}, and 5 base offsets {0,4,8,12,16}
// (§4.9), accepting the first combination that yields both a
// parity-valid Downcount and a checksum-valid WID. The resolved phase
// is cached for subsequent super-frames.
func (d *PreambleDecoder) DecodeFirstSuperframe(buf []complex128) (WID, Downcount, int, error) {
	w := d.walshLen
	skips := []int{0, w, 8 * w, 9 * w}
	offsets := []int{0, 4, 8, 12, 16}

	for phase := 0; phase < 8; phase++ {
		for _, skip := range skips {
			for _, off := range offsets {
				start := skip + off
				need := start + countBlocks*w + widBlocks*w
				if need > len(buf) {
					continue
				}
				dcBits, err := decodeDibitBlocks(buf[start:start+countBlocks*w], w, phase, CountPN(), 0)
				if err != nil {
					continue
				}
				dc, err := DecodeDowncount(dcBits)
				if err != nil {
					continue
				}
				widStart := start + countBlocks*w
				widBits, err := decodeDibitBlocks(buf[widStart:widStart+widBlocks*w], w, phase, WIDPN(), 0)
				if err != nil {
					continue
				}
				wid, err := DecodeWID(widBits)
				if err != nil {
					continue
				}
				d.phase = phase
				d.countCur = countBlocks * w
				d.widCur = widBlocks * w
				return wid, dc, need, nil
			}
		}
	}
	return WID{}, Downcount{}, 0, ErrChecksumMismatch
}

// DecodeSubsequentSuperframe decodes one more super-frame using the
// fixed 18-Walsh-symbol layout (9 Fixed + 4 Count + 5 WID) and the
// phase already resolved by DecodeFirstSuperframe (§4.10: "consume
// successive super-frames using the fixed 18-Walsh-symbol layout").
func (d *PreambleDecoder) DecodeSubsequentSuperframe(buf []complex128) (WID, Downcount, int, error) {
	w := d.walshLen
	need := (fixedBlocksRest + countBlocks + widBlocks) * w
	if len(buf) < need {
		return WID{}, Downcount{}, 0, ErrFrameTooShort
	}
	countStart := fixedBlocksRest * w
	widStart := countStart + countBlocks*w

	dcBits, err := decodeDibitBlocks(buf[countStart:countStart+countBlocks*w], w, d.phase, CountPN(), d.countCur)
	if err != nil {
		return WID{}, Downcount{}, 0, err
	}
	dc, err := DecodeDowncount(dcBits)
	if err != nil {
		return WID{}, Downcount{}, 0, err
	}
	widBits, err := decodeDibitBlocks(buf[widStart:widStart+widBlocks*w], w, d.phase, WIDPN(), d.widCur)
	if err != nil {
		return WID{}, Downcount{}, 0, err
	}
	wid, err := DecodeWID(widBits)
	if err != nil {
		return WID{}, Downcount{}, 0, err
	}
	d.countCur += countBlocks * w
	d.widCur += widBlocks * w
	return wid, dc, need, nil
}
