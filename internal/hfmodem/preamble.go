package hfmodem

// This file assembles the 110D preamble (§4.1, §4.9, §6 "110D
// preamble"): `[optional TLC blocks] ++ m * (Fixed ++ Count ++ WID)`,
// each section a run of Walsh-length blocks whose symbols are PN-
// scrambled and, for Count/WID, additionally carry a Walsh-modulated
// dibit. Fixed is 1 block for the first super-frame (m=1) and 9 blocks
// for every subsequent one (m>1), matching §4.9/§4.10's stated layout.

const (
	fixedBlocksFirst = 1
	fixedBlocksRest  = 9
	countBlocks      = 4
	widBlocks        = 5
)

func octantsToComplex(octs []int) []complex128 {
	out := make([]complex128, len(octs))
	for i, o := range octs {
		out[i] = octantToComplex(o)
	}
	return out
}

func pnSlice(pn []int, cursor, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = pn[(cursor+i)%len(pn)]
	}
	return out
}

// spreadDibitOverBlock tiles a dibit's 4-chip Walsh pattern across a
// Walsh-length block and adds it (mod 8, i.e. multiplies in the complex
// domain) to the section's PN sequence.
func spreadDibitOverBlock(dibit int, pn []int) ([]int, error) {
	chips, err := WalshModulateDibit(dibit)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(pn))
	for i, p := range pn {
		out[i] = (p + chips[i%4]) % 8
	}
	return out, nil
}

// PreambleConfig parameterises one preamble build (§4.1).
type PreambleConfig struct {
	BWKHz       int
	WID         WID
	Superframes int // number of super-frames before data; last has Downcount.Count == 0
	TLCBlocks   int // number of leading TLC Walsh blocks, 0 for none
}

// preambleCursors tracks the independent, monotonically advancing PN
// cursor for each section type, mirrored by PreambleDecoder on RX so
// both sides regenerate the identical PN-scrambled sequence.
type preambleCursors struct {
	tlc, fixed, count, wid int
}

// BuildPreamble assembles the full preamble as a complex IQ sequence.
func BuildPreamble(cfg PreambleConfig) ([]complex128, error) {
	walshLen, err := WalshLength(cfg.BWKHz)
	if err != nil {
		return nil, err
	}
	if cfg.Superframes < 1 {
		return nil, &TableLookupError{Key: "preamble requires at least one superframe"}
	}
	var cur preambleCursors
	var octs []int

	for i := 0; i < cfg.TLCBlocks; i++ {
		octs = append(octs, pnSlice(TLCPN(), cur.tlc, walshLen)...)
		cur.tlc += walshLen
	}

	for sf := 0; sf < cfg.Superframes; sf++ {
		fixedN := fixedBlocksFirst
		if sf > 0 {
			fixedN = fixedBlocksRest
		}
		for b := 0; b < fixedN; b++ {
			octs = append(octs, pnSlice(FixedPN(), cur.fixed, walshLen)...)
			cur.fixed += walshLen
		}

		dc := Downcount{Count: cfg.Superframes - 1 - sf}
		dcBits := EncodeDowncount(dc)
		for d := 0; d < countBlocks; d++ {
			dibit := int(dcBits[2*d])<<1 | int(dcBits[2*d+1])
			block, err := spreadDibitOverBlock(dibit, pnSlice(CountPN(), cur.count, walshLen))
			if err != nil {
				return nil, err
			}
			octs = append(octs, block...)
			cur.count += walshLen
		}

		widBits := EncodeWID(cfg.WID)
		for d := 0; d < widBlocks; d++ {
			dibit := int(widBits[2*d])<<1 | int(widBits[2*d+1])
			block, err := spreadDibitOverBlock(dibit, pnSlice(WIDPN(), cur.wid, walshLen))
			if err != nil {
				return nil, err
			}
			octs = append(octs, block...)
			cur.wid += walshLen
		}
	}

	return octantsToComplex(octs), nil
}
