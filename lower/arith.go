package lower

import "github.com/sarchlab/rhdl/gateir"

// rippleAdder sums a, b and carryIn bit by bit using a chain of
// half/full-adder cells (spec §4.4.5), returning the sum bits and the
// final carry-out.
func (lw *lowerer) rippleAdder(a, b []gateir.NetIndex, carryIn gateir.NetIndex) ([]gateir.NetIndex, gateir.NetIndex) {
	width := len(a)
	sum := make([]gateir.NetIndex, width)
	carry := carryIn
	for i := 0; i < width; i++ {
		axb := lw.binGate(gateir.GateXor, a[i], b[i])
		sum[i] = lw.binGate(gateir.GateXor, axb, carry)
		and1 := lw.binGate(gateir.GateAnd, a[i], b[i])
		and2 := lw.binGate(gateir.GateAnd, axb, carry)
		carry = lw.binGate(gateir.GateOr, and1, and2)
	}
	return sum, carry
}

// rippleSub computes a + ^b + 1, the standard two's-complement
// subtractor built from the same adder cell (spec §4.4.5). The final
// carry-out is 1 exactly when a >= b (unsigned).
func (lw *lowerer) rippleSub(a, b []gateir.NetIndex) ([]gateir.NetIndex, gateir.NetIndex) {
	notB := make([]gateir.NetIndex, len(b))
	for i, bit := range b {
		notB[i] = lw.unaryGate(gateir.GateNot, bit)
	}
	return lw.rippleAdder(a, notB, lw.constBit(1))
}

// multiply builds an array multiplier: one AND-gate partial-product
// row per bit of b, summed by a diagonal of ripple adders (spec
// §4.4.5). Result width is len(a)+len(b).
func (lw *lowerer) multiply(a, b []gateir.NetIndex) []gateir.NetIndex {
	width := len(a) + len(b)
	zero := lw.constBit(0)
	acc := make([]gateir.NetIndex, width)
	for i := range acc {
		acc[i] = zero
	}

	for i, bBit := range b {
		row := make([]gateir.NetIndex, width)
		for j := range row {
			switch {
			case j < i || j-i >= len(a):
				row[j] = zero
			default:
				row[j] = lw.binGate(gateir.GateAnd, a[j-i], bBit)
			}
		}
		acc, _ = lw.rippleAdder(acc, row, zero)
	}

	return acc
}

// divmod implements a restoring divider: one subtract-compare-and
// conditionally-load step per bit, building the quotient and remainder
// in parallel (spec §4.4.5). a and b must be equal width.
func (lw *lowerer) divmod(a, b []gateir.NetIndex) (quotient, remainder []gateir.NetIndex) {
	width := len(a)
	zero := lw.constBit(0)

	rem := make([]gateir.NetIndex, width)
	for i := range rem {
		rem[i] = zero
	}
	quotient = make([]gateir.NetIndex, width)

	for i := width - 1; i >= 0; i-- {
		shifted := make([]gateir.NetIndex, width)
		shifted[0] = a[i]
		copy(shifted[1:], rem[:width-1])

		trial, carryOut := lw.rippleSub(shifted, b)
		quotient[i] = carryOut // carryOut=1 means shifted >= b, subtraction holds

		next := make([]gateir.NetIndex, width)
		for j := 0; j < width; j++ {
			next[j] = lw.muxGate(carryOut, shifted[j], trial[j])
		}
		rem = next
	}

	return quotient, rem
}
