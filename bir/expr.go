// Package bir is the Behavioral IR: a language-neutral, serializable
// description of a component's ports, internal signals, continuous
// assignments, clocked processes, memory arrays and sub-module
// instances (spec §2.6, §3, §4.3). It is pure data — nothing here holds
// a reference back to a live component.Component — so the same tree is
// reused both by the behavioral interpreter (component package) and by
// the structural lowering pass (lower package).
package bir

import "github.com/sarchlab/rhdl/signal"

// ExprKind discriminates the variants of an expression node. Every node
// carries an explicit Width, computed once at construction time
// following the two's-complement RTL rules in spec §4.3.
type ExprKind int

const (
	KindLit ExprKind = iota
	KindNetRef
	KindSlice
	KindConcat
	KindReplicate
	KindUnary
	KindBinary
	KindMux
	KindCase
)

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpReduceAnd
	OpReduceOr
	OpReduceXor
)

// BinaryOp enumerates the binary operators, grouped the way spec §4.3
// groups them for width-inference purposes.
type BinaryOp int

const (
	// Arithmetic: result width max(a,b)+1 for Add/Sub, a+b for Mul, a
	// for Div/Mod.
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod

	// Bitwise/shift: result width equals the left operand's width.
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr // logical right shift
	OpSar // arithmetic right shift, sign-extends from the left operand's MSB
	OpRol // rotate left
	OpRor // rotate right

	// Compare: result width always 1.
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpLtSigned
	OpGtSigned
	OpLeSigned
	OpGeSigned
)

// CaseEntry is one `key -> expr` arm of a case-select, kept in
// declaration order: the first matching key wins ties (spec §4.4.8).
type CaseEntry struct {
	Key   uint64
	Value *Expr
}

// Expr is an expression-tree node. Only the fields relevant to Kind are
// populated; see the constructors below for the well-formed shapes.
type Expr struct {
	Kind  ExprKind
	Width uint

	// KindLit
	LitValue uint64

	// KindNetRef
	Net string

	// KindSlice / KindUnary / KindReplicate(base)
	Operand *Expr
	Hi, Lo  uint // KindSlice: inclusive bit range

	// KindConcat
	Operands []*Expr

	// KindReplicate
	Count uint

	// KindUnary
	UOp UnaryOp

	// KindBinary
	BOp  BinaryOp
	A, B *Expr

	// KindMux: sel ? IfOne : IfZero (spec §9(i) fixes this ordering)
	Cond, IfZero, IfOne *Expr

	// KindCase
	Selector *Expr
	Cases    []CaseEntry
	Default  *Expr // nil means "no default supplied"
}

// Lit constructs a width-annotated integer literal.
func Lit(width uint, value uint64) *Expr {
	return &Expr{Kind: KindLit, Width: width, LitValue: value & signal.Mask(width)}
}

// MinLit constructs a literal whose width is the minimum number of bits
// that fit the value (spec §4.3: "inferred as the minimum fitting power
// of bits").
func MinLit(value uint64) *Expr {
	w := uint(1)
	for (uint64(1)<<w)-1 < value && w < 64 {
		w++
	}
	return Lit(w, value)
}

// NetRef references a net/reg/port by name with the given width.
func NetRef(name string, width uint) *Expr {
	return &Expr{Kind: KindNetRef, Width: width, Net: name}
}

// Slice extracts bits [hi:lo] (inclusive, hi >= lo) from operand.
// Bit-select is the hi==lo special case.
func Slice(operand *Expr, hi, lo uint) *Expr {
	if hi < lo {
		panic("bir: Slice requires hi >= lo")
	}
	return &Expr{Kind: KindSlice, Width: hi - lo + 1, Operand: operand, Hi: hi, Lo: lo}
}

// BitSelect extracts a single bit.
func BitSelect(operand *Expr, bit uint) *Expr {
	return Slice(operand, bit, bit)
}

// Concat concatenates operands MSB-first (the first operand in parts
// occupies the highest bits); result width is their sum.
func Concat(parts ...*Expr) *Expr {
	var w uint
	for _, p := range parts {
		w += p.Width
	}
	return &Expr{Kind: KindConcat, Width: w, Operands: parts}
}

// Replicate tiles base n times; result width is base.Width * n.
func Replicate(base *Expr, n uint) *Expr {
	return &Expr{Kind: KindReplicate, Width: base.Width * n, Operand: base, Count: n}
}

// Not applies bitwise NOT; result width equals the operand's width.
func Not(a *Expr) *Expr {
	return &Expr{Kind: KindUnary, Width: a.Width, UOp: OpNot, Operand: a}
}

// ReduceAnd, ReduceOr and ReduceXor fold all bits of a into a single
// bit (spec §4.4.4).
func ReduceAnd(a *Expr) *Expr { return reduce(OpReduceAnd, a) }
func ReduceOr(a *Expr) *Expr  { return reduce(OpReduceOr, a) }
func ReduceXor(a *Expr) *Expr { return reduce(OpReduceXor, a) }

func reduce(op UnaryOp, a *Expr) *Expr {
	return &Expr{Kind: KindUnary, Width: 1, UOp: op, Operand: a}
}

// Binary constructs a binary-operator node, inferring width per spec
// §4.3's three operator classes.
func Binary(op BinaryOp, a, b *Expr) *Expr {
	return &Expr{Kind: KindBinary, Width: binaryWidth(op, a, b), BOp: op, A: a, B: b}
}

func binaryWidth(op BinaryOp, a, b *Expr) uint {
	switch op {
	case OpAdd, OpSub:
		return max(a.Width, b.Width) + 1
	case OpMul:
		return a.Width + b.Width
	case OpDiv, OpMod:
		return a.Width
	case OpAnd, OpOr, OpXor, OpShl, OpShr, OpSar, OpRol, OpRor:
		return a.Width
	default: // all compare operators
		return 1
	}
}

func max(a, b uint) uint {
	if a > b {
		return a
	}
	return b
}

// Mux builds a 2:1 multiplexer: sel ? ifOne : ifZero. Result width is
// max(ifZero.Width, ifOne.Width).
func Mux(sel, ifZero, ifOne *Expr) *Expr {
	return &Expr{
		Kind: KindMux, Width: max(ifZero.Width, ifOne.Width),
		Cond: sel, IfZero: ifZero, IfOne: ifOne,
	}
}

// CaseSelect builds a case-select keyed on equality with selector,
// first matching entry in declaration order wins, falling back to
// def (nil if none was supplied — the lowering pass reports
// NonExhaustiveCase when def is nil and cases do not cover every
// selector value).
func CaseSelect(selector *Expr, cases []CaseEntry, def *Expr) *Expr {
	w := uint(0)
	for _, c := range cases {
		w = max(w, c.Value.Width)
	}
	if def != nil {
		w = max(w, def.Width)
	}
	return &Expr{Kind: KindCase, Width: w, Selector: selector, Cases: cases, Default: def}
}
