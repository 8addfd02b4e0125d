package hfmodem

// hadamard builds the order x order Walsh-Hadamard matrix by the usual
// recursive doubling construction, rows holding +1/-1 chips. order must
// be a power of two.
func hadamard(order int) [][]int8 {
	h := [][]int8{{1}}
	for len(h) < order {
		n := len(h)
		next := make([][]int8, 2*n)
		for i := 0; i < n; i++ {
			top := make([]int8, 2*n)
			bot := make([]int8, 2*n)
			for j := 0; j < n; j++ {
				top[j] = h[i][j]
				top[j+n] = h[i][j]
				bot[j] = h[i][j]
				bot[j+n] = -h[i][j]
			}
			next[i] = top
			next[i+n] = bot
		}
		h = next
	}
	return h
}

var walshCache = map[int][][]int8{}

// WalshCode returns row `index` of the order-`order` Walsh-Hadamard
// matrix as +1/-1 chips. order must be a power of two and index in
// 0..order-1.
func WalshCode(order, index int) ([]int8, error) {
	if order <= 0 || order&(order-1) != 0 {
		return nil, &TableLookupError{Key: "walsh order must be a power of two"}
	}
	if index < 0 || index >= order {
		return nil, &TableLookupError{Key: "walsh index out of range"}
	}
	h, ok := walshCache[order]
	if !ok {
		h = hadamard(order)
		walshCache[order] = h
	}
	row := make([]int8, order)
	copy(row, h[index])
	return row, nil
}

// walshBaseOrder is the Walsh order used to modulate a single dibit onto
// four 8-PSK octant symbols in the 110D preamble's Fixed/Count/WID
// sections (§4.1, §4.9).
const walshBaseOrder = 4

// WalshModulateDibit maps a 2-bit value (0..3) to a 4-symbol sequence of
// 8-PSK octants (0..7), using the order-4 Walsh code for that dibit: a
// -1 chip contributes a 180-degree (4-octant) phase flip.
func WalshModulateDibit(dibit int) ([]int, error) {
	if dibit < 0 || dibit > 3 {
		return nil, &TableLookupError{Key: "dibit out of range"}
	}
	code, err := WalshCode(walshBaseOrder, dibit)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(code))
	for i, c := range code {
		if c > 0 {
			out[i] = 0
		} else {
			out[i] = 4
		}
	}
	return out, nil
}

// WalshDemodulateDibit correlates a 4-octant received sequence against
// all four order-4 Walsh codes and returns the best-correlating dibit.
// Octants are converted to +1/-1 chips by treating octant 0 as +1 and
// octant 4 as -1 (any residual phase error beyond a hard BPSK slice is
// the caller's responsibility to have already resolved).
func WalshDemodulateDibit(octants []int) (int, error) {
	if len(octants) != walshBaseOrder {
		return 0, ErrFrameTooShort
	}
	chips := make([]int8, walshBaseOrder)
	for i, o := range octants {
		if o%8 < 2 || o%8 > 6 {
			chips[i] = 1
		} else {
			chips[i] = -1
		}
	}
	best, bestScore := -1, -1<<30
	for d := 0; d < walshBaseOrder; d++ {
		code, _ := WalshCode(walshBaseOrder, d)
		score := 0
		for i := range code {
			score += int(code[i]) * int(chips[i])
		}
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return best, nil
}

// walsh16Order is the Walsh order of the Deep-WALE data layer (§4.12).
// ale/wale.go declares its own copy and spreads each data bit over one
// of two order-16 codes (rows 0 and 8).
const walsh16Order = 16
