// Package lower implements structural lowering: compiling a flattened
// bir.Component into a gateir.GateIR of single-bit primitive gates and
// flip-flops (spec §4.4). Lower assumes its input has already passed
// through bir.Flatten — sub-instances are a bir-level concern, not a
// lowering-level one, the same division component relies on.
package lower

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/gateir"
	"github.com/sarchlab/rhdl/rtlerr"
)

type lowerer struct {
	name  string
	g     *gateir.GateIR
	nets  map[string][]gateir.NetIndex
	cache map[*bir.Expr][]gateir.NetIndex
}

// Lower compiles c into a gate-level netlist. c must be flat (no
// Instances); callers run bir.Flatten first.
func Lower(c *bir.Component) (*gateir.GateIR, error) {
	if len(c.Instances) > 0 {
		return nil, fmt.Errorf("lower: %s still has sub-instances, flatten first", c.Name)
	}

	for _, a := range c.Assigns {
		if err := validateExpr(c.Name, a.Expr); err != nil {
			return nil, err
		}
	}
	for _, p := range c.Processes {
		for _, a := range p.Body {
			if err := validateExpr(c.Name, a.Expr); err != nil {
				return nil, err
			}
		}
	}

	lw := &lowerer{
		name:  c.Name,
		g:     &gateir.GateIR{},
		nets:  map[string][]gateir.NetIndex{},
		cache: map[*bir.Expr][]gateir.NetIndex{},
	}

	for _, p := range c.Ports {
		bits := lw.allocNamed(p.Name, p.Width)
		group := gateir.NamedGroup{Name: p.Name, Nets: bits}
		if p.Dir == bir.DirIn {
			lw.g.Inputs = append(lw.g.Inputs, group)
		} else {
			lw.g.Outputs = append(lw.g.Outputs, group)
		}
	}
	for _, n := range c.Nets {
		lw.allocNamed(n.Name, n.Width)
	}
	for _, r := range c.Regs {
		lw.allocNamed(r.Name, r.Width)
	}
	for _, m := range c.Memories {
		for _, w := range m.Writes {
			if _, ok := lw.nets[w.DataNet]; !ok {
				lw.allocNamed(w.DataNet, m.Width)
			}
		}
		for _, r := range m.Reads {
			if _, ok := lw.nets[r.DataNet]; !ok {
				lw.allocNamed(r.DataNet, m.Width)
			}
		}
	}

	for _, a := range c.Assigns {
		lw.bindAssign(a)
	}

	for _, p := range c.Processes {
		if err := lw.lowerProcess(p); err != nil {
			return nil, err
		}
	}

	for _, m := range c.Memories {
		if err := lw.lowerMemory(m); err != nil {
			return nil, err
		}
	}

	if _, err := gateir.Compile(lw.g); err != nil {
		if loop, ok := err.(*rtlerr.CombinationalLoop); ok {
			loop.Path = lw.name
			loop.Nets = lw.declaredNetNames(loop.Nets)
		}
		return nil, err
	}

	return lw.g, nil
}

// declaredNetNames rewrites gateir.Compile's synthetic "netN" cycle report
// into the declared names lw.nets knows for those indices, falling back to
// the synthetic form for any index with no declared name (an internal
// expression temporary, not a net/port/reg).
func (lw *lowerer) declaredNetNames(synthetic []string) []string {
	byIndex := make(map[gateir.NetIndex]string, len(lw.nets))
	for name, bits := range lw.nets {
		for _, b := range bits {
			byIndex[b] = name
		}
	}

	out := make([]string, len(synthetic))
	for i, s := range synthetic {
		out[i] = s
		n, err := strconv.Atoi(strings.TrimPrefix(s, "net"))
		if err != nil {
			continue
		}
		if name, ok := byIndex[gateir.NetIndex(n)]; ok {
			out[i] = name
		}
	}
	return out
}

// validateExpr walks e looking for a case-select without a default
// that does not provably cover every selector value (spec §4.4.8).
func validateExpr(path string, e *bir.Expr) error {
	switch e.Kind {
	case bir.KindCase:
		if e.Default == nil {
			total := ^uint64(0) // cap at max uint64 for 64+ bit selectors rather than overflow 1<<64
			if e.Selector.Width < 64 {
				total = uint64(1) << e.Selector.Width
			}
			covered := map[uint64]bool{}
			for _, c := range e.Cases {
				covered[c.Key] = true
			}
			if uint64(len(covered)) < total {
				return &rtlerr.NonExhaustiveCase{Path: path, SelectorWidth: e.Selector.Width, Covered: len(covered)}
			}
		}
		for _, c := range e.Cases {
			if err := validateExpr(path, c.Value); err != nil {
				return err
			}
		}
		if e.Default != nil {
			if err := validateExpr(path, e.Default); err != nil {
				return err
			}
		}
		return validateExpr(path, e.Selector)
	case bir.KindSlice, bir.KindReplicate, bir.KindUnary:
		return validateExpr(path, e.Operand)
	case bir.KindConcat:
		for _, o := range e.Operands {
			if err := validateExpr(path, o); err != nil {
				return err
			}
		}
		return nil
	case bir.KindBinary:
		if err := validateExpr(path, e.A); err != nil {
			return err
		}
		return validateExpr(path, e.B)
	case bir.KindMux:
		if err := validateExpr(path, e.Cond); err != nil {
			return err
		}
		if err := validateExpr(path, e.IfZero); err != nil {
			return err
		}
		return validateExpr(path, e.IfOne)
	default:
		return nil
	}
}

func (lw *lowerer) allocSingle() gateir.NetIndex {
	idx := gateir.NetIndex(lw.g.NetCount)
	lw.g.NetCount++
	return idx
}

func (lw *lowerer) alloc(width uint) []gateir.NetIndex {
	bits := make([]gateir.NetIndex, width)
	for i := range bits {
		bits[i] = lw.allocSingle()
	}
	return bits
}

func (lw *lowerer) allocNamed(name string, width uint) []gateir.NetIndex {
	bits := lw.alloc(width)
	lw.nets[name] = bits
	return bits
}

func (lw *lowerer) unaryGate(t gateir.GateType, in gateir.NetIndex) gateir.NetIndex {
	out := lw.allocSingle()
	lw.g.Gates = append(lw.g.Gates, gateir.Gate{Type: t, Inputs: []gateir.NetIndex{in}, Output: out})
	return out
}

func (lw *lowerer) binGate(t gateir.GateType, a, b gateir.NetIndex) gateir.NetIndex {
	out := lw.allocSingle()
	lw.g.Gates = append(lw.g.Gates, gateir.Gate{Type: t, Inputs: []gateir.NetIndex{a, b}, Output: out})
	return out
}

// muxGate returns sel ? ifOne : ifZero, matching bir.Mux's ordering.
func (lw *lowerer) muxGate(sel, ifZero, ifOne gateir.NetIndex) gateir.NetIndex {
	out := lw.allocSingle()
	lw.g.Gates = append(lw.g.Gates, gateir.Gate{
		Type: gateir.GateMux, Inputs: []gateir.NetIndex{ifZero, ifOne, sel}, Output: out,
	})
	return out
}

func (lw *lowerer) constBit(v uint8) gateir.NetIndex {
	out := lw.allocSingle()
	lw.g.Gates = append(lw.g.Gates, gateir.Gate{Type: gateir.GateConst, Output: out, Value: v})
	return out
}

func (lw *lowerer) bufInto(src, dst gateir.NetIndex) {
	lw.g.Gates = append(lw.g.Gates, gateir.Gate{Type: gateir.GateBuf, Inputs: []gateir.NetIndex{src}, Output: dst})
}

func (lw *lowerer) addDFF(d, q, clock, resetNet gateir.NetIndex, async bool) {
	lw.g.DFFs = append(lw.g.DFFs, gateir.DFF{
		D: d, Q: q, ClockNet: clock, ResetNet: resetNet, EnableNet: gateir.NoNet, AsyncReset: async,
	})
}

// widen zero-extends bits to width, or truncates it, matching the
// bitwise-operator width rule (result width = left operand's width).
func (lw *lowerer) widen(bits []gateir.NetIndex, width uint) []gateir.NetIndex {
	if uint(len(bits)) >= width {
		return bits[:width]
	}
	out := append([]gateir.NetIndex{}, bits...)
	zero := lw.constBit(0)
	for uint(len(out)) < width {
		out = append(out, zero)
	}
	return out
}

func (lw *lowerer) reduceFold(t gateir.GateType, bits []gateir.NetIndex) gateir.NetIndex {
	acc := bits[0]
	for _, b := range bits[1:] {
		acc = lw.binGate(t, acc, b)
	}
	return acc
}

// equalBits computes NOR of the per-bit XOR of a and b (spec §4.4.7:
// "equality is XOR-per-bit then reduce-NOR").
func (lw *lowerer) equalBits(a, b []gateir.NetIndex) gateir.NetIndex {
	xors := make([]gateir.NetIndex, len(a))
	for i := range a {
		xors[i] = lw.binGate(gateir.GateXor, a[i], b[i])
	}
	return lw.unaryGate(gateir.GateNot, lw.reduceFold(gateir.GateOr, xors))
}

func (lw *lowerer) equalsConst(bits []gateir.NetIndex, value uint64) gateir.NetIndex {
	consts := make([]gateir.NetIndex, len(bits))
	for i := range consts {
		consts[i] = lw.constBit(uint8((value >> uint(i)) & 1))
	}
	return lw.equalBits(bits, consts)
}

func (lw *lowerer) bindAssign(a bir.Assign) {
	result := lw.compile(a.Expr)
	lw.bindNamed(a.LHS, result)
}

// bindNamed drives the already-allocated net group for name with bits,
// via one buffer gate per bit.
func (lw *lowerer) bindNamed(name string, bits []gateir.NetIndex) {
	target := lw.nets[name]
	for i := range target {
		lw.bufInto(bits[i], target[i])
	}
}

// compile lowers e into one net per bit, LSB first. Results are cached
// by node identity, so an expression referenced from more than one
// place in a tree (a shared local/intermediate net, spec §4.4.9) is
// only lowered once.
func (lw *lowerer) compile(e *bir.Expr) []gateir.NetIndex {
	if cached, ok := lw.cache[e]; ok {
		return cached
	}
	bits := lw.compileUncached(e)
	lw.cache[e] = bits
	return bits
}

func (lw *lowerer) compileUncached(e *bir.Expr) []gateir.NetIndex {
	switch e.Kind {
	case bir.KindLit:
		bits := make([]gateir.NetIndex, e.Width)
		for i := range bits {
			bits[i] = lw.constBit(uint8((e.LitValue >> uint(i)) & 1))
		}
		return bits

	case bir.KindNetRef:
		bits, ok := lw.nets[e.Net]
		if !ok {
			panic(fmt.Sprintf("lower: %s references unknown net %q", lw.name, e.Net))
		}
		if uint(len(bits)) > e.Width {
			return bits[:e.Width]
		}
		return bits

	case bir.KindSlice:
		operand := lw.compile(e.Operand)
		return operand[e.Lo : e.Hi+1]

	case bir.KindConcat:
		var bits []gateir.NetIndex
		for i := len(e.Operands) - 1; i >= 0; i-- {
			bits = append(bits, lw.compile(e.Operands[i])...)
		}
		return bits

	case bir.KindReplicate:
		base := lw.compile(e.Operand)
		bits := make([]gateir.NetIndex, 0, e.Width)
		for i := uint(0); i < e.Count; i++ {
			bits = append(bits, base...)
		}
		return bits

	case bir.KindUnary:
		return lw.compileUnary(e)

	case bir.KindBinary:
		return lw.compileBinary(e)

	case bir.KindMux:
		cond := lw.compile(e.Cond)[0]
		ifZero := lw.widen(lw.compile(e.IfZero), e.Width)
		ifOne := lw.widen(lw.compile(e.IfOne), e.Width)
		out := make([]gateir.NetIndex, e.Width)
		for i := range out {
			out[i] = lw.muxGate(cond, ifZero[i], ifOne[i])
		}
		return out

	case bir.KindCase:
		return lw.compileCase(e)

	default:
		panic("lower: unknown expression kind")
	}
}

func (lw *lowerer) compileUnary(e *bir.Expr) []gateir.NetIndex {
	operand := lw.compile(e.Operand)
	switch e.UOp {
	case bir.OpNot:
		out := make([]gateir.NetIndex, len(operand))
		for i, b := range operand {
			out[i] = lw.unaryGate(gateir.GateNot, b)
		}
		return out
	case bir.OpReduceAnd:
		return []gateir.NetIndex{lw.reduceFold(gateir.GateAnd, operand)}
	case bir.OpReduceOr:
		return []gateir.NetIndex{lw.reduceFold(gateir.GateOr, operand)}
	case bir.OpReduceXor:
		return []gateir.NetIndex{lw.reduceFold(gateir.GateXor, operand)}
	default:
		panic("lower: unknown unary operator")
	}
}

// compileCase folds cases in reverse declaration order so the first
// match wins (spec §4.4.8).
func (lw *lowerer) compileCase(e *bir.Expr) []gateir.NetIndex {
	sel := lw.compile(e.Selector)

	var result []gateir.NetIndex
	if e.Default != nil {
		result = lw.widen(lw.compile(e.Default), e.Width)
	} else {
		result = make([]gateir.NetIndex, e.Width)
		zero := lw.constBit(0)
		for i := range result {
			result[i] = zero
		}
	}

	for i := len(e.Cases) - 1; i >= 0; i-- {
		c := e.Cases[i]
		match := lw.equalsConst(sel, c.Key)
		val := lw.widen(lw.compile(c.Value), e.Width)
		next := make([]gateir.NetIndex, e.Width)
		for b := range next {
			next[b] = lw.muxGate(match, result[b], val[b])
		}
		result = next
	}

	return result
}

func (lw *lowerer) lowerProcess(proc bir.Process) error {
	clockBits, ok := lw.nets[proc.ClockNet]
	if !ok {
		return &rtlerr.UnknownPort{Path: lw.name + "." + proc.ClockNet}
	}
	clock := clockBits[0]

	var resetBit gateir.NetIndex = gateir.NoNet
	if proc.ResetNet != "" {
		resetBits, ok := lw.nets[proc.ResetNet]
		if !ok {
			return &rtlerr.UnknownPort{Path: lw.name + "." + proc.ResetNet}
		}
		resetBit = resetBits[0]
	}

	for _, a := range proc.Body {
		bodyD := lw.compile(a.Expr)
		qBits := lw.nets[a.LHS]
		resetVal, hasReset := proc.ResetValues[a.LHS]

		switch {
		case proc.ResetNet == "":
			for i := range qBits {
				lw.addDFF(bodyD[i], qBits[i], clock, gateir.NoNet, false)
			}

		case !proc.AsyncReset:
			for i := range qBits {
				var vBit gateir.NetIndex
				if hasReset {
					vBit = lw.constBit(uint8((resetVal >> uint(i)) & 1))
				} else {
					vBit = lw.constBit(0)
				}
				d := lw.muxGate(resetBit, bodyD[i], vBit)
				lw.addDFF(d, qBits[i], clock, gateir.NoNet, false)
			}

		default: // asynchronous reset
			// A gate-level DFF's async reset always clears Q to zero
			// (spec §4.5). To land on an arbitrary reset value v, the
			// true value is stored XORed against a per-bit v constant:
			// resetting the raw flop to zero then unmasks to v.
			for i := range qBits {
				var vBit gateir.NetIndex
				if hasReset {
					vBit = lw.constBit(uint8((resetVal >> uint(i)) & 1))
				} else {
					vBit = lw.constBit(0)
				}
				dPrime := lw.binGate(gateir.GateXor, bodyD[i], vBit)
				qPrime := lw.allocSingle()
				lw.addDFF(dPrime, qPrime, clock, resetBit, true)
				lw.g.Gates = append(lw.g.Gates, gateir.Gate{
					Type: gateir.GateXor, Inputs: []gateir.NetIndex{qPrime, vBit}, Output: qBits[i],
				})
			}
		}
	}

	return nil
}
