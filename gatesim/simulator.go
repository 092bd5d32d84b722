// Package gatesim is the gate-level simulator: SIMD lane-parallel
// evaluation of a gateir.GateIR (spec §4.5). One machine word is
// allocated per net; each of its L least-significant bits holds that
// net's value on one independent lane, so L parallel simulations run
// as one bit-parallel sweep over the same netlist.
package gatesim

import (
	"fmt"

	"github.com/sarchlab/rhdl/gateir"
	"github.com/sarchlab/rhdl/rtlerr"
)

// DefaultLanes is the lane count used when a caller has no reason to
// pick another: one machine word's full bit width.
const DefaultLanes = 64

// Simulator is a single-threaded, non-suspending gate-level machine.
// It holds the one large net-value allocation (spec §4.5's "resource
// policy"); Evaluate allocates nothing, and Tick allocates only a
// per-call D-input snapshot.
type Simulator struct {
	ir       *gateir.GateIR
	sched    *gateir.Schedule
	lanes    int
	laneMask uint64

	values    []uint64 // indexed by gateir.NetIndex
	prevClock map[gateir.NetIndex]uint64
}

// New builds a Simulator over ir with the given lane count (1..64).
// The evaluation order is fixed once here by gateir.Compile and never
// recomputed.
func New(ir *gateir.GateIR, lanes int) (*Simulator, error) {
	if lanes <= 0 || lanes > 64 {
		return nil, fmt.Errorf("gatesim: lanes must be in [1, 64], got %d", lanes)
	}

	sched, err := gateir.Compile(ir)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		ir:        ir,
		sched:     sched,
		lanes:     lanes,
		laneMask:  laneMask(lanes),
		values:    make([]uint64, ir.NetCount),
		prevClock: make(map[gateir.NetIndex]uint64, len(ir.DFFs)),
	}
	return s, nil
}

func laneMask(lanes int) uint64 {
	if lanes >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(lanes)) - 1
}

func (s *Simulator) Lanes() int { return s.lanes }

// Poke writes to a named input group. value is either a uint64 (the
// same integer broadcast to every lane) or a []uint64 of length
// Lanes() (one integer per lane), per spec §4.5.
func (s *Simulator) Poke(name string, value any) error {
	group, ok := s.ir.InputByName(name)
	if !ok {
		group, ok = s.ir.OutputByName(name)
	}
	if !ok {
		return &rtlerr.UnknownPort{Path: name}
	}

	switch v := value.(type) {
	case uint64:
		for i, n := range group.Nets {
			if (v>>uint(i))&1 == 1 {
				s.values[n] = s.laneMask
			} else {
				s.values[n] = 0
			}
		}
	case int:
		return s.Poke(name, uint64(v))
	case []uint64:
		if len(v) != s.lanes {
			return &rtlerr.WidthViolation{Path: name, Declared: uint(s.lanes), Observed: uint(len(v))}
		}
		for i, n := range group.Nets {
			var word uint64
			for lane, lv := range v {
				if (lv>>uint(i))&1 == 1 {
					word |= uint64(1) << uint(lane)
				}
			}
			s.values[n] = word
		}
	default:
		return fmt.Errorf("gatesim: poke %q: unsupported value type %T", name, value)
	}
	return nil
}

// Peek reads a named group. A single-bit port returns its raw lane-
// mask word; a multi-bit port returns one lane-mask word per bit, LSB
// first (spec §4.5) — the same packed representation Poke writes, not
// decoded per-lane integers.
func (s *Simulator) Peek(name string) (any, error) {
	group, ok := s.ir.OutputByName(name)
	if !ok {
		group, ok = s.ir.InputByName(name)
	}
	if !ok {
		return nil, &rtlerr.UnknownPort{Path: name}
	}

	if len(group.Nets) == 1 {
		return s.values[group.Nets[0]], nil
	}
	bits := make([]uint64, len(group.Nets))
	for i, n := range group.Nets {
		bits[i] = s.values[n]
	}
	return bits, nil
}

// PeekLane decodes lane's integer value from a named group's packed
// lane-mask words, a convenience built on top of Peek for tests and
// debug tooling that think in per-lane values rather than raw words.
func (s *Simulator) PeekLane(name string, lane int) (uint64, error) {
	group, ok := s.ir.OutputByName(name)
	if !ok {
		group, ok = s.ir.InputByName(name)
	}
	if !ok {
		return 0, &rtlerr.UnknownPort{Path: name}
	}
	var v uint64
	for i, n := range group.Nets {
		if (s.values[n]>>uint(lane))&1 == 1 {
			v |= uint64(1) << uint(i)
		}
	}
	return v, nil
}

// Evaluate recomputes every gate's output once, in the fixed
// dependency-respecting order gateir.Compile established at load time
// (spec §4.5: "every gate fires exactly once per evaluate").
func (s *Simulator) Evaluate() {
	for _, gi := range s.sched.Order {
		g := s.ir.Gates[gi]
		switch g.Type {
		case gateir.GateConst:
			if g.Value == 1 {
				s.values[g.Output] = s.laneMask
			} else {
				s.values[g.Output] = 0
			}
		case gateir.GateNot:
			s.values[g.Output] = ^s.values[g.Inputs[0]] & s.laneMask
		case gateir.GateBuf:
			s.values[g.Output] = s.values[g.Inputs[0]]
		case gateir.GateAnd:
			s.values[g.Output] = s.values[g.Inputs[0]] & s.values[g.Inputs[1]]
		case gateir.GateOr:
			s.values[g.Output] = s.values[g.Inputs[0]] | s.values[g.Inputs[1]]
		case gateir.GateXor:
			s.values[g.Output] = s.values[g.Inputs[0]] ^ s.values[g.Inputs[1]]
		case gateir.GateNand:
			s.values[g.Output] = ^(s.values[g.Inputs[0]] & s.values[g.Inputs[1]]) & s.laneMask
		case gateir.GateNor:
			s.values[g.Output] = ^(s.values[g.Inputs[0]] | s.values[g.Inputs[1]]) & s.laneMask
		case gateir.GateXnor:
			s.values[g.Output] = ^(s.values[g.Inputs[0]] ^ s.values[g.Inputs[1]]) & s.laneMask
		case gateir.GateMux:
			a, b, sel := s.values[g.Inputs[0]], s.values[g.Inputs[1]], s.values[g.Inputs[2]]
			s.values[g.Output] = (a &^ sel) | (b & sel)
		}
	}
}

// Tick runs one clock cycle: evaluate combinational logic, snapshot
// every flop's D input, apply flop update rules honoring enable and
// reset, then swap Q (spec §4.5) and evaluate once more so outputs
// reflect the new Q. A flop updates only on a lane where its clock net
// sampled a 0→1 transition since the previous Tick; a synchronous reset
// applies only on such a lane, an asynchronous one on every Tick.
func (s *Simulator) Tick() {
	s.Evaluate()

	dSnapshot := make([]uint64, len(s.ir.DFFs))
	for i, d := range s.ir.DFFs {
		dSnapshot[i] = s.values[d.D]
	}

	for i, d := range s.ir.DFFs {
		rising := s.values[d.ClockNet] &^ s.prevClock[d.ClockNet] & s.laneMask

		enable := s.laneMask
		if d.EnableNet != gateir.NoNet {
			enable = s.values[d.EnableNet]
		}
		updateMask := rising & enable

		q := s.values[d.Q]
		newQ := (q &^ updateMask) | (dSnapshot[i] & updateMask)

		if d.AsyncReset && d.ResetNet != gateir.NoNet {
			newQ &^= s.values[d.ResetNet]
		} else if d.ResetNet != gateir.NoNet {
			newQ &^= rising & s.values[d.ResetNet]
		}

		s.values[d.Q] = newQ
	}

	for _, d := range s.ir.DFFs {
		s.prevClock[d.ClockNet] = s.values[d.ClockNet]
	}

	s.Evaluate()
}

// Reset clears every net to zero and forgets clock-edge history. The
// one large net-value allocation is never reallocated, only zeroed
// (spec §4.5's resource policy).
func (s *Simulator) Reset() {
	for i := range s.values {
		s.values[i] = 0
	}
	for k := range s.prevClock {
		delete(s.prevClock, k)
	}
}
