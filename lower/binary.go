package lower

import (
	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/gateir"
)

func (lw *lowerer) compileBinary(e *bir.Expr) []gateir.NetIndex {
	a := lw.compile(e.A)
	b := lw.compile(e.B)

	switch e.BOp {
	case bir.OpAnd, bir.OpOr, bir.OpXor:
		return lw.compileBitwise(e, a, b)

	case bir.OpAdd:
		width := max(len(a), len(b))
		aw := lw.widen(a, uint(width))
		bw := lw.widen(b, uint(width))
		sum, carry := lw.rippleAdder(aw, bw, lw.constBit(0))
		return append(sum, carry)

	case bir.OpSub:
		width := max(len(a), len(b))
		aw := lw.widen(a, uint(width))
		bw := lw.widen(b, uint(width))
		diff, carry := lw.rippleSub(aw, bw)
		// The result's top bit is the borrow (a < b), i.e. the sign bit
		// of the width+1-bit two's-complement difference bir.Eval yields.
		return append(diff, lw.unaryGate(gateir.GateNot, carry))

	case bir.OpMul:
		return lw.multiply(a, b)

	case bir.OpDiv, bir.OpMod:
		width := uint(len(a))
		bw := lw.widen(b, width)
		q, r := lw.divmod(a, bw)
		if e.BOp == bir.OpDiv {
			return q
		}
		return r

	case bir.OpShl, bir.OpShr, bir.OpSar, bir.OpRol, bir.OpRor:
		return lw.compileShift(e, a, b)

	case bir.OpEq, bir.OpNe:
		width := max(len(a), len(b))
		aw := lw.widen(a, uint(width))
		bw := lw.widen(b, uint(width))
		eq := lw.equalBits(aw, bw)
		if e.BOp == bir.OpEq {
			return []gateir.NetIndex{eq}
		}
		return []gateir.NetIndex{lw.unaryGate(gateir.GateNot, eq)}

	case bir.OpLt, bir.OpGt, bir.OpLe, bir.OpGe,
		bir.OpLtSigned, bir.OpGtSigned, bir.OpLeSigned, bir.OpGeSigned:
		return []gateir.NetIndex{lw.compileCompare(e, a, b)}

	default:
		panic("lower: unhandled binary operator")
	}
}

func (lw *lowerer) compileBitwise(e *bir.Expr, a, b []gateir.NetIndex) []gateir.NetIndex {
	width := e.Width
	aw := lw.widen(a, width)
	bw := lw.widen(b, width)

	var t gateir.GateType
	switch e.BOp {
	case bir.OpAnd:
		t = gateir.GateAnd
	case bir.OpOr:
		t = gateir.GateOr
	case bir.OpXor:
		t = gateir.GateXor
	}

	out := make([]gateir.NetIndex, width)
	for i := range out {
		out[i] = lw.binGate(t, aw[i], bw[i])
	}
	return out
}

func (lw *lowerer) compileShift(e *bir.Expr, a, b []gateir.NetIndex) []gateir.NetIndex {
	var kind shiftKind
	switch e.BOp {
	case bir.OpShl:
		kind = shiftLeft
	case bir.OpShr:
		kind = shiftRightLogical
	case bir.OpSar:
		kind = shiftRightArithmetic
	case bir.OpRol:
		kind = rotateLeft
	case bir.OpRor:
		kind = rotateRight
	}

	if e.B.Kind == bir.KindLit {
		return constShift(a, uint(e.B.LitValue), kind, lw.constBit(0))
	}
	return lw.barrelShift(a, b, kind)
}

// compileCompare implements magnitude comparison as a chain of
// full-subtractors: the final carry-out flags a >= b, and signed
// variants flip both operands' MSBs first (spec §4.4.7).
func (lw *lowerer) compileCompare(e *bir.Expr, a, b []gateir.NetIndex) gateir.NetIndex {
	width := max(len(a), len(b))
	aw := lw.widen(a, uint(width))
	bw := lw.widen(b, uint(width))

	signed := false
	switch e.BOp {
	case bir.OpLtSigned, bir.OpGtSigned, bir.OpLeSigned, bir.OpGeSigned:
		signed = true
	}
	if signed {
		aw = append([]gateir.NetIndex{}, aw...)
		bw = append([]gateir.NetIndex{}, bw...)
		msb := width - 1
		aw[msb] = lw.unaryGate(gateir.GateNot, aw[msb])
		bw[msb] = lw.unaryGate(gateir.GateNot, bw[msb])
	}

	_, carryOut := lw.rippleSub(aw, bw)
	eq := lw.equalBits(aw, bw)

	switch e.BOp {
	case bir.OpLt, bir.OpLtSigned:
		return lw.unaryGate(gateir.GateNot, carryOut)
	case bir.OpGe, bir.OpGeSigned:
		return carryOut
	case bir.OpGt, bir.OpGtSigned:
		return lw.binGate(gateir.GateAnd, carryOut, lw.unaryGate(gateir.GateNot, eq))
	case bir.OpLe, bir.OpLeSigned:
		return lw.binGate(gateir.GateOr, lw.unaryGate(gateir.GateNot, carryOut), eq)
	default:
		panic("lower: unreachable compare operator")
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
