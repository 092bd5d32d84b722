package gateir

import (
	"strconv"

	"github.com/sarchlab/rhdl/rtlerr"
)

// Schedule is the fixed evaluation order gatesim.Evaluate walks every
// tick: an index into GateIR.Gates, computed once at load time (spec
// §5: "data-dependency-respecting topological order fixed at IR
// load"). DFF outputs (Q nets) are treated as already-available roots,
// since a flip-flop's Q only changes at tick() boundaries, never
// within an evaluate() pass.
type Schedule struct {
	Order []int // indices into GateIR.Gates, a valid topological order
}

// Compile computes Schedule for g, detecting any combinational cycle
// (spec §3's invariant: "the combinational subgraph has no cycle; all
// cycles pass through at least one flip-flop").
func Compile(g *GateIR) (*Schedule, error) {
	producedBy := make(map[NetIndex]int, len(g.Gates))
	for i, gate := range g.Gates {
		producedBy[gate.Output] = i
	}

	qNets := make(map[NetIndex]bool, len(g.DFFs))
	for _, d := range g.DFFs {
		qNets[d.Q] = true
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int, len(g.Gates))
	var order []int
	var stack []NetIndex

	var visit func(gi int) error
	visit = func(gi int) error {
		switch state[gi] {
		case done:
			return nil
		case visiting:
			nets := make([]string, len(stack))
			for i, n := range stack {
				nets[i] = netName(n)
			}
			return &rtlerr.CombinationalLoop{Nets: nets}
		}
		state[gi] = visiting
		stack = append(stack, g.Gates[gi].Output)

		for _, in := range g.Gates[gi].Inputs {
			if qNets[in] {
				continue // a DFF's Q is a fixed root within one evaluate() pass
			}
			if dep, ok := producedBy[in]; ok {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[gi] = done
		order = append(order, gi)
		return nil
	}

	for gi := range g.Gates {
		if err := visit(gi); err != nil {
			return nil, err
		}
	}

	return &Schedule{Order: order}, nil
}

func netName(n NetIndex) string {
	return "net" + strconv.Itoa(int(n))
}
