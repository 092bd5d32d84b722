package gateir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhdl/gateir"
)

// halfAdderGates is S1 (spec §8) lowered by hand: sum = a^b, cout = a&b.
func halfAdderGates() *gateir.GateIR {
	const a, b, sum, cout gateir.NetIndex = 0, 1, 2, 3
	return &gateir.GateIR{
		NetCount: 4,
		Inputs:   []gateir.NamedGroup{{Name: "a", Nets: []gateir.NetIndex{a}}, {Name: "b", Nets: []gateir.NetIndex{b}}},
		Outputs:  []gateir.NamedGroup{{Name: "sum", Nets: []gateir.NetIndex{sum}}, {Name: "cout", Nets: []gateir.NetIndex{cout}}},
		Gates: []gateir.Gate{
			{Type: gateir.GateXor, Inputs: []gateir.NetIndex{a, b}, Output: sum},
			{Type: gateir.GateAnd, Inputs: []gateir.NetIndex{a, b}, Output: cout},
		},
	}
}

var _ = Describe("Compile", func() {
	It("finds a valid topological order for an acyclic netlist", func() {
		sched, err := gateir.Compile(halfAdderGates())
		Expect(err).NotTo(HaveOccurred())
		Expect(sched.Order).To(ConsistOf(0, 1))
	})

	It("treats a DFF's Q as a fixed root, breaking an apparent cycle", func() {
		const d, q, clk gateir.NetIndex = 0, 1, 2
		g := &gateir.GateIR{
			NetCount: 3,
			Gates: []gateir.Gate{
				{Type: gateir.GateNot, Inputs: []gateir.NetIndex{q}, Output: d},
			},
			DFFs: []gateir.DFF{{D: d, Q: q, ClockNet: clk, ResetNet: gateir.NoNet, EnableNet: gateir.NoNet}},
		}
		_, err := gateir.Compile(g)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports a CombinationalLoop for a gate-only cycle", func() {
		const x, y gateir.NetIndex = 0, 1
		g := &gateir.GateIR{
			NetCount: 2,
			Gates: []gateir.Gate{
				{Type: gateir.GateNot, Inputs: []gateir.NetIndex{y}, Output: x},
				{Type: gateir.GateNot, Inputs: []gateir.NetIndex{x}, Output: y},
			},
		}
		_, err := gateir.Compile(g)
		Expect(err).To(HaveOccurred())
	})
})
