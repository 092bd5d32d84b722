package lower

import "github.com/sarchlab/rhdl/gateir"

type shiftKind int

const (
	shiftLeft shiftKind = iota
	shiftRightLogical
	shiftRightArithmetic
	rotateLeft
	rotateRight
)

// constShift applies a fixed, compile-time-known shift amount by
// renaming wires: no gates are needed beyond the fill value (spec
// §4.4.6: "constant shift amount lowers to wire renaming only").
func constShift(bits []gateir.NetIndex, amount uint, kind shiftKind, zero gateir.NetIndex) []gateir.NetIndex {
	w := uint(len(bits))
	out := make([]gateir.NetIndex, w)

	switch kind {
	case shiftLeft:
		for i := uint(0); i < w; i++ {
			if i < amount {
				out[i] = zero
			} else {
				out[i] = bits[i-amount]
			}
		}
	case shiftRightLogical:
		for i := uint(0); i < w; i++ {
			if i+amount < w {
				out[i] = bits[i+amount]
			} else {
				out[i] = zero
			}
		}
	case shiftRightArithmetic:
		msb := bits[w-1]
		for i := uint(0); i < w; i++ {
			if i+amount < w {
				out[i] = bits[i+amount]
			} else {
				out[i] = msb
			}
		}
	case rotateLeft:
		amount %= w
		for i := uint(0); i < w; i++ {
			out[i] = bits[(i+w-amount)%w]
		}
	case rotateRight:
		amount %= w
		for i := uint(0); i < w; i++ {
			out[i] = bits[(i+amount)%w]
		}
	}

	return out
}

// bitsNeeded returns ceil(log2(w)), at least 1: the number of barrel-
// shifter mux layers needed to shift a w-bit value by any amount.
func bitsNeeded(w uint) int {
	stages := 0
	for (uint(1) << uint(stages)) < w {
		stages++
	}
	if stages == 0 {
		stages = 1
	}
	return stages
}

// barrelShift builds s=ceil(log2(w)) layers of 2:1 muxes, layer i
// conditionally applying a shift of 2^i gated by selBits[i] (spec
// §4.4.6). Used when the shift amount is only known at run time.
func (lw *lowerer) barrelShift(bits []gateir.NetIndex, selBits []gateir.NetIndex, kind shiftKind) []gateir.NetIndex {
	w := uint(len(bits))
	zero := lw.constBit(0)
	cur := append([]gateir.NetIndex{}, bits...)
	stages := bitsNeeded(w)

	for i := 0; i < stages; i++ {
		var sel gateir.NetIndex
		if i < len(selBits) {
			sel = selBits[i]
		} else {
			sel = zero
		}

		shifted := constShift(cur, uint(1)<<uint(i), kind, zero)
		next := make([]gateir.NetIndex, w)
		for b := range next {
			next[b] = lw.muxGate(sel, cur[b], shifted[b])
		}
		cur = next
	}

	return cur
}
