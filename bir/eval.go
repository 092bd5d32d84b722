package bir

import "github.com/sarchlab/rhdl/signal"

// Env resolves a net/reg/port name to its current value. The
// behavioral interpreter (component package) supplies one backed by a
// per-propagate value map; tests may supply a bare map[string]uint64.
type Env interface {
	Net(name string) uint64
}

// MapEnv is the map-backed Env used by tests and by simple leaf
// evaluation.
type MapEnv map[string]uint64

func (m MapEnv) Net(name string) uint64 { return m[name] }

// Eval interprets the expression tree against env, returning a value
// already masked to e.Width.
func (e *Expr) Eval(env Env) uint64 {
	return e.eval(env) & signal.Mask(e.Width)
}

func (e *Expr) eval(env Env) uint64 {
	switch e.Kind {
	case KindLit:
		return e.LitValue
	case KindNetRef:
		return env.Net(e.Net)
	case KindSlice:
		v := e.Operand.Eval(env)
		return (v >> e.Lo) & signal.Mask(e.Hi-e.Lo+1)
	case KindConcat:
		var acc uint64
		var shift uint
		for i := len(e.Operands) - 1; i >= 0; i-- {
			part := e.Operands[i]
			acc |= (part.Eval(env) & signal.Mask(part.Width)) << shift
			shift += part.Width
		}
		return acc
	case KindReplicate:
		base := e.Operand.Eval(env) & signal.Mask(e.Operand.Width)
		var acc uint64
		for i := uint(0); i < e.Count; i++ {
			acc |= base << (i * e.Operand.Width)
		}
		return acc
	case KindUnary:
		return evalUnary(e, env)
	case KindBinary:
		return evalBinary(e, env)
	case KindMux:
		if e.Cond.Eval(env) != 0 {
			return e.IfOne.Eval(env)
		}
		return e.IfZero.Eval(env)
	case KindCase:
		sel := e.Selector.Eval(env)
		for _, c := range e.Cases {
			if c.Key == sel {
				return c.Value.Eval(env)
			}
		}
		if e.Default != nil {
			return e.Default.Eval(env)
		}
		return 0
	default:
		panic("bir: unknown expression kind")
	}
}

func evalUnary(e *Expr, env Env) uint64 {
	a := e.Operand.Eval(env)
	switch e.UOp {
	case OpNot:
		return ^a & signal.Mask(e.Operand.Width)
	case OpReduceAnd:
		if a == signal.Mask(e.Operand.Width) {
			return 1
		}
		return 0
	case OpReduceOr:
		if a != 0 {
			return 1
		}
		return 0
	case OpReduceXor:
		return uint64(popcount(a) % 2)
	default:
		panic("bir: unknown unary operator")
	}
}

func popcount(v uint64) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// signExtend reinterprets the low `width` bits of v as a signed
// two's-complement integer.
func signExtend(v uint64, width uint) int64 {
	v &= signal.Mask(width)
	if width >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << (width - 1)
	if v&signBit != 0 {
		v |= ^signal.Mask(width)
	}
	return int64(v)
}

func evalBinary(e *Expr, env Env) uint64 {
	a := e.A.Eval(env)
	b := e.B.Eval(env)

	switch e.BOp {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case OpMod:
		if b == 0 {
			return 0
		}
		return a % b
	case OpAnd:
		return a & b
	case OpOr:
		return a | b
	case OpXor:
		return a ^ b
	case OpShl:
		return a << (b % 64)
	case OpShr:
		return a >> (b % 64)
	case OpSar:
		sa := signExtend(a, e.A.Width)
		return uint64(sa>>(b%64)) & signal.Mask(e.Width)
	case OpRol:
		return rotate(a, e.A.Width, uint(b), true)
	case OpRor:
		return rotate(a, e.A.Width, uint(b), false)
	case OpEq:
		return boolToWord(a == b)
	case OpNe:
		return boolToWord(a != b)
	case OpLt:
		return boolToWord(a < b)
	case OpGt:
		return boolToWord(a > b)
	case OpLe:
		return boolToWord(a <= b)
	case OpGe:
		return boolToWord(a >= b)
	case OpLtSigned:
		return boolToWord(signExtend(a, e.A.Width) < signExtend(b, e.B.Width))
	case OpGtSigned:
		return boolToWord(signExtend(a, e.A.Width) > signExtend(b, e.B.Width))
	case OpLeSigned:
		return boolToWord(signExtend(a, e.A.Width) <= signExtend(b, e.B.Width))
	case OpGeSigned:
		return boolToWord(signExtend(a, e.A.Width) >= signExtend(b, e.B.Width))
	default:
		panic("bir: unknown binary operator")
	}
}

func rotate(v uint64, width uint, amount uint, left bool) uint64 {
	if width == 0 {
		return 0
	}
	amount %= width
	m := signal.Mask(width)
	v &= m
	if !left {
		amount = width - amount
		if amount == width {
			amount = 0
		}
	}
	return ((v << amount) | (v >> (width - amount))) & m
}

func boolToWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
