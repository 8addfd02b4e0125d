// Package hfmodem implements the bit/symbol-exact physical-layer core of
// a software HF modem: MIL-STD-188-110D Appendix D serial-tone waveforms
// and MIL-STD-188-141D 4G ALE / Wideband ALE (WALE). The package is a
// library — it owns no audio device, no rig, no persistence; those are
// external collaborators reached through the phy sub-package's
// interfaces (see internal/hfmodem/phy).
package hfmodem

import "fmt"

// Constellation identifies a symbol-mapping alphabet used by one or more
// 110D Appendix D waveforms.
type Constellation int

const (
	BPSK Constellation = iota
	QPSK
	PSK8
	QAM16
	QAM32
	QAM64
)

func (c Constellation) String() string {
	switch c {
	case BPSK:
		return "BPSK"
	case QPSK:
		return "QPSK"
	case PSK8:
		return "8PSK"
	case QAM16:
		return "16QAM"
	case QAM32:
		return "32QAM"
	case QAM64:
		return "64QAM"
	default:
		return "unknown"
	}
}

// BitsPerSymbol returns how many coded bits each constellation symbol
// carries.
func (c Constellation) BitsPerSymbol() int {
	switch c {
	case BPSK:
		return 1
	case QPSK:
		return 2
	case PSK8:
		return 3
	case QAM16:
		return 4
	case QAM32:
		return 5
	case QAM64:
		return 6
	default:
		return 0
	}
}

// InterleaverType is one of the four 110D Appendix D block-interleaver
// sizes.
type InterleaverType int

const (
	UltraShort InterleaverType = iota
	Short
	Medium
	Long
)

func (t InterleaverType) String() string {
	switch t {
	case UltraShort:
		return "UltraShort"
	case Short:
		return "Short"
	case Medium:
		return "Medium"
	case Long:
		return "Long"
	default:
		return "unknown"
	}
}

// ConstraintLength is the convolutional code's K (shift register length
// plus one), either 7 or 9 per §2 L1 ConvEncoder.
type ConstraintLength int

const (
	K7 ConstraintLength = 7
	K9 ConstraintLength = 9
)

// CodeRate is expressed as a fraction numerator/denominator, e.g. 1/2,
// 3/4, 9/16.
type CodeRate struct {
	Num, Den int
}

func (r CodeRate) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// WaveformParams holds everything derivable from a waveform number per
// §3 "WID": constellation, bits/symbol, code rate, and the per-frame
// data/probe symbol counts used by Tx110D/Rx110D and the mini-probe
// processor.
type WaveformParams struct {
	Waveform      int
	Constellation Constellation
	Rate          CodeRate
	// U is the number of data symbols per frame, K the number of
	// mini-probe symbols appended to each frame, both quoted at the
	// 3 kHz reference bandwidth. LookupWaveform does not scale them
	// with bandwidth, so every bandwidth uses these same counts.
	U, K int
}

// waveformConstellations assigns each of the four code-rate groups
// (§3: WF0-6 => 1/2, 7-9 => 3/4, 10-12 => 7/8, 13 => 9/16) a progression
// of constellations spanning the documented alphabet (BPSK..64QAM). The
// exact waveform-to-constellation map is not pinned by spec.md beyond
// the rate groups; this table is our implementation-defined, internally
// consistent completion of it (see DESIGN.md).
var waveformConstellations = map[int]Constellation{
	0: BPSK, 1: QPSK, 2: PSK8, 3: QAM16, 4: QAM32, 5: QAM64, 6: QAM64,
	7: QPSK, 8: PSK8, 9: QAM16,
	10: QAM16, 11: QAM32, 12: QAM64,
	13: BPSK,
}

func codeRateForWaveform(wf int) (CodeRate, error) {
	switch {
	case wf >= 0 && wf <= 6:
		return CodeRate{1, 2}, nil
	case wf >= 7 && wf <= 9:
		return CodeRate{3, 4}, nil
	case wf >= 10 && wf <= 12:
		return CodeRate{7, 8}, nil
	case wf == 13:
		return CodeRate{9, 16}, nil
	default:
		return CodeRate{}, &TableLookupError{Key: fmt.Sprintf("waveform=%d", wf)}
	}
}

// frameSizeForWaveform gives the implementation-defined (U, K) pair at
// the 3 kHz reference bandwidth. Higher-rate waveforms carry
// proportionally more data symbols per mini-probe for a roughly
// constant probe overhead fraction.
func frameSizeForWaveform(wf int) (u, k int) {
	switch {
	case wf >= 0 && wf <= 6:
		return 128, 16
	case wf >= 7 && wf <= 9:
		return 176, 16
	case wf >= 10 && wf <= 12:
		return 224, 16
	default: // 13
		return 96, 16
	}
}

// LookupWaveform resolves a waveform number to its full parameter set.
// Returns a *TableLookupError for waveform values outside 0..13 (the
// 14/15 "reserved" values are rejected by DecodeWID with
// ErrReservedValue, never reaching this table).
func LookupWaveform(wf int) (WaveformParams, error) {
	if wf < 0 || wf > 13 {
		return WaveformParams{}, &TableLookupError{Key: fmt.Sprintf("waveform=%d", wf)}
	}
	rate, err := codeRateForWaveform(wf)
	if err != nil {
		return WaveformParams{}, err
	}
	u, k := frameSizeForWaveform(wf)
	return WaveformParams{
		Waveform:      wf,
		Constellation: waveformConstellations[wf],
		Rate:          rate,
		U:             u,
		K:             k,
	}, nil
}

// WalshLength returns the Walsh-symbol block length for a bandwidth in
// kHz: 32 symbols at 3 kHz, scaling linearly with bandwidth (§4.1).
func WalshLength(bwKHz int) (int, error) {
	f, err := bwScaleFactor(bwKHz)
	if err != nil {
		return 0, err
	}
	return 32 * f, nil
}

// SymbolRate returns the waveform's baud rate for a given bandwidth:
// 2400 * bw/3 symbols/second.
func SymbolRate(bwKHz int) (int, error) {
	f, err := bwScaleFactor(bwKHz)
	if err != nil {
		return 0, err
	}
	return 2400 * f, nil
}

func bwScaleFactor(bwKHz int) (int, error) {
	switch bwKHz {
	case 3:
		return 1, nil
	case 6:
		return 2, nil
	case 9:
		return 3, nil
	case 12:
		return 4, nil
	default:
		return 0, &TableLookupError{Key: fmt.Sprintf("bandwidth=%dkHz", bwKHz)}
	}
}
