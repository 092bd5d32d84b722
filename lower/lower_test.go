package lower_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/gateir"
	"github.com/sarchlab/rhdl/lower"
	"github.com/sarchlab/rhdl/rtlerr"
)

// evalGates runs one combinational pass of g in sched's order, given a
// full set of input bit assignments. It is a minimal stand-in for
// gatesim.Evaluate, just enough to check lowered netlists are correct
// without depending on the gatesim package.
func evalGates(g *gateir.GateIR, sched *gateir.Schedule, inputs map[string][]uint8) map[string][]uint8 {
	values := make(map[gateir.NetIndex]uint8, g.NetCount)
	for _, group := range g.Inputs {
		bits := inputs[group.Name]
		for i, n := range group.Nets {
			if i < len(bits) {
				values[n] = bits[i]
			}
		}
	}

	for _, gi := range sched.Order {
		gate := g.Gates[gi]
		switch gate.Type {
		case gateir.GateConst:
			values[gate.Output] = gate.Value
		case gateir.GateNot:
			values[gate.Output] = values[gate.Inputs[0]] ^ 1
		case gateir.GateBuf:
			values[gate.Output] = values[gate.Inputs[0]]
		case gateir.GateAnd:
			values[gate.Output] = values[gate.Inputs[0]] & values[gate.Inputs[1]]
		case gateir.GateOr:
			values[gate.Output] = values[gate.Inputs[0]] | values[gate.Inputs[1]]
		case gateir.GateXor:
			values[gate.Output] = values[gate.Inputs[0]] ^ values[gate.Inputs[1]]
		case gateir.GateNand:
			values[gate.Output] = 1 ^ (values[gate.Inputs[0]] & values[gate.Inputs[1]])
		case gateir.GateNor:
			values[gate.Output] = 1 ^ (values[gate.Inputs[0]] | values[gate.Inputs[1]])
		case gateir.GateXnor:
			values[gate.Output] = 1 ^ (values[gate.Inputs[0]] ^ values[gate.Inputs[1]])
		case gateir.GateMux:
			a, b, sel := values[gate.Inputs[0]], values[gate.Inputs[1]], values[gate.Inputs[2]]
			if sel == 1 {
				values[gate.Output] = b
			} else {
				values[gate.Output] = a
			}
		}
	}

	out := make(map[string][]uint8)
	for _, group := range g.Outputs {
		bits := make([]uint8, len(group.Nets))
		for i, n := range group.Nets {
			bits[i] = values[n]
		}
		out[group.Name] = bits
	}
	return out
}

func bitsOf(v uint64, width int) []uint8 {
	bits := make([]uint8, width)
	for i := range bits {
		bits[i] = uint8((v >> uint(i)) & 1)
	}
	return bits
}

func valueOf(bits []uint8) uint64 {
	var v uint64
	for i, b := range bits {
		v |= uint64(b) << uint(i)
	}
	return v
}

func lowerAndSchedule(c *bir.Component) (*gateir.GateIR, *gateir.Schedule) {
	g, err := lower.Lower(c)
	Expect(err).NotTo(HaveOccurred())
	sched, err := gateir.Compile(g)
	Expect(err).NotTo(HaveOccurred())
	return g, sched
}

func halfAdderIR() *bir.Component {
	a := bir.NetRef("a", 1)
	b := bir.NetRef("b", 1)
	return &bir.Component{
		Name: "half_adder",
		Ports: []bir.Port{
			{Name: "a", Dir: bir.DirIn, Width: 1},
			{Name: "b", Dir: bir.DirIn, Width: 1},
			{Name: "sum", Dir: bir.DirOut, Width: 1},
			{Name: "cout", Dir: bir.DirOut, Width: 1},
		},
		Assigns: []bir.Assign{
			{LHS: "sum", Expr: bir.Binary(bir.OpXor, a, b)},
			{LHS: "cout", Expr: bir.Binary(bir.OpAnd, a, b)},
		},
	}
}

// adder8IR is an 8-bit ripple adder (spec §8 scenario S2).
func adder8IR() *bir.Component {
	a := bir.NetRef("a", 8)
	b := bir.NetRef("b", 8)
	return &bir.Component{
		Name: "adder8",
		Ports: []bir.Port{
			{Name: "a", Dir: bir.DirIn, Width: 8},
			{Name: "b", Dir: bir.DirIn, Width: 8},
			{Name: "sum", Dir: bir.DirOut, Width: 9},
		},
		Assigns: []bir.Assign{
			{LHS: "sum", Expr: bir.Binary(bir.OpAdd, a, b)},
		},
	}
}

func mul4IR() *bir.Component {
	a := bir.NetRef("a", 4)
	b := bir.NetRef("b", 4)
	return &bir.Component{
		Name: "mul4",
		Ports: []bir.Port{
			{Name: "a", Dir: bir.DirIn, Width: 4},
			{Name: "b", Dir: bir.DirIn, Width: 4},
			{Name: "product", Dir: bir.DirOut, Width: 8},
		},
		Assigns: []bir.Assign{
			{LHS: "product", Expr: bir.Binary(bir.OpMul, a, b)},
		},
	}
}

func divmod8IR() *bir.Component {
	a := bir.NetRef("a", 8)
	b := bir.NetRef("b", 8)
	return &bir.Component{
		Name: "divmod8",
		Ports: []bir.Port{
			{Name: "a", Dir: bir.DirIn, Width: 8},
			{Name: "b", Dir: bir.DirIn, Width: 8},
			{Name: "quotient", Dir: bir.DirOut, Width: 8},
			{Name: "remainder", Dir: bir.DirOut, Width: 8},
		},
		Assigns: []bir.Assign{
			{LHS: "quotient", Expr: bir.Binary(bir.OpDiv, a, b)},
			{LHS: "remainder", Expr: bir.Binary(bir.OpMod, a, b)},
		},
	}
}

func barrelShiftIR() *bir.Component {
	a := bir.NetRef("a", 8)
	amount := bir.NetRef("amount", 3)
	return &bir.Component{
		Name: "dynamic_shifter",
		Ports: []bir.Port{
			{Name: "a", Dir: bir.DirIn, Width: 8},
			{Name: "amount", Dir: bir.DirIn, Width: 3},
			{Name: "out", Dir: bir.DirOut, Width: 8},
		},
		Assigns: []bir.Assign{
			{LHS: "out", Expr: bir.Binary(bir.OpShl, a, amount)},
		},
	}
}

func caseSelectIR() *bir.Component {
	sel := bir.NetRef("sel", 2)
	return &bir.Component{
		Name: "case_select",
		Ports: []bir.Port{
			{Name: "sel", Dir: bir.DirIn, Width: 2},
			{Name: "out", Dir: bir.DirOut, Width: 4},
		},
		Assigns: []bir.Assign{
			{LHS: "out", Expr: bir.CaseSelect(sel, []bir.CaseEntry{
				{Key: 0, Value: bir.Lit(4, 1)},
				{Key: 1, Value: bir.Lit(4, 2)},
				{Key: 2, Value: bir.Lit(4, 4)},
				{Key: 3, Value: bir.Lit(4, 8)},
			}, nil)},
		},
	}
}

// syncRegister8IR mirrors component_test.go's syncRegister: spec §8
// scenario S3, an 8-bit register with synchronous reset and enable.
func syncRegister8IR() *bir.Component {
	state := bir.NetRef("state", 8)
	d := bir.NetRef("d", 8)
	en := bir.NetRef("en", 1)
	return &bir.Component{
		Name: "sync_register",
		Ports: []bir.Port{
			{Name: "clk", Dir: bir.DirIn, Width: 1},
			{Name: "rst", Dir: bir.DirIn, Width: 1},
			{Name: "en", Dir: bir.DirIn, Width: 1},
			{Name: "d", Dir: bir.DirIn, Width: 8},
			{Name: "q", Dir: bir.DirOut, Width: 8},
		},
		Regs: []bir.Reg{{Name: "state", Width: 8, InitialValue: 0}},
		Assigns: []bir.Assign{
			{LHS: "q", Expr: bir.NetRef("state", 8)},
		},
		Processes: []bir.Process{{
			ClockNet:    "clk",
			ResetNet:    "rst",
			AsyncReset:  false,
			ResetValues: map[string]uint64{"state": 0},
			Body:        []bir.Assign{{LHS: "state", Expr: bir.Mux(en, state, d)}},
		}},
	}
}

// asyncRegister8IR is the same register with an asynchronous reset to
// a nonzero value, exercising the Q-XOR-v technique for async reset.
func asyncRegister8IR() *bir.Component {
	d := bir.NetRef("d", 8)
	return &bir.Component{
		Name: "async_register",
		Ports: []bir.Port{
			{Name: "clk", Dir: bir.DirIn, Width: 1},
			{Name: "rst", Dir: bir.DirIn, Width: 1},
			{Name: "d", Dir: bir.DirIn, Width: 8},
			{Name: "q", Dir: bir.DirOut, Width: 8},
		},
		Regs: []bir.Reg{{Name: "state", Width: 8, InitialValue: 0xAA}},
		Assigns: []bir.Assign{
			{LHS: "q", Expr: bir.NetRef("state", 8)},
		},
		Processes: []bir.Process{{
			ClockNet:    "clk",
			ResetNet:    "rst",
			AsyncReset:  true,
			ResetValues: map[string]uint64{"state": 0xAA},
			Body:        []bir.Assign{{LHS: "state", Expr: d}},
		}},
	}
}

// ram4x8IR is a 4-deep, 8-wide RAM with one write port and one
// asynchronous read port (spec §8 scenario S4, scaled down).
func ram4x8IR() *bir.Component {
	return &bir.Component{
		Name: "ram4x8",
		Ports: []bir.Port{
			{Name: "clk", Dir: bir.DirIn, Width: 1},
			{Name: "waddr", Dir: bir.DirIn, Width: 2},
			{Name: "wdata", Dir: bir.DirIn, Width: 8},
			{Name: "wen", Dir: bir.DirIn, Width: 1},
			{Name: "raddr", Dir: bir.DirIn, Width: 2},
			{Name: "rdata", Dir: bir.DirOut, Width: 8},
		},
		Memories: []bir.Memory{{
			Name:  "mem",
			Depth: 4,
			Width: 8,
			Writes: []bir.MemoryWritePort{
				{AddrNet: "waddr", DataNet: "wdata", EnableNet: "wen", ClockNet: "clk"},
			},
			Reads: []bir.MemoryReadPort{
				{AddrNet: "raddr", DataNet: "rdata", Sync: false},
			},
		}},
	}
}

// oscillatorIR has two nets each assigned from the other with no
// register breaking the loop: a genuine combinational cycle (spec §8
// scenario S6, naming x and y).
func oscillatorIR() *bir.Component {
	x := bir.NetRef("x", 1)
	y := bir.NetRef("y", 1)
	return &bir.Component{
		Name: "oscillator",
		Nets: []bir.Net{{Name: "x", Width: 1}, {Name: "y", Width: 1}},
		Assigns: []bir.Assign{
			{LHS: "x", Expr: bir.Binary(bir.OpAnd, y, bir.Lit(1, 1))},
			{LHS: "y", Expr: bir.Binary(bir.OpOr, x, bir.Lit(1, 1))},
		},
	}
}

// nonExhaustiveIR is a 2-bit case-select covering only 3 of 4 values
// with no default.
func nonExhaustiveIR() *bir.Component {
	sel := bir.NetRef("sel", 2)
	return &bir.Component{
		Name: "nonexhaustive",
		Ports: []bir.Port{
			{Name: "sel", Dir: bir.DirIn, Width: 2},
			{Name: "out", Dir: bir.DirOut, Width: 1},
		},
		Assigns: []bir.Assign{
			{LHS: "out", Expr: bir.CaseSelect(sel, []bir.CaseEntry{
				{Key: 0, Value: bir.Lit(1, 1)},
				{Key: 1, Value: bir.Lit(1, 0)},
				{Key: 2, Value: bir.Lit(1, 1)},
			}, nil)},
		},
	}
}

var _ = Describe("Lower", func() {
	It("lowers a half adder to sum/carry gates (S1)", func() {
		g, sched := lowerAndSchedule(halfAdderIR())
		out := evalGates(g, sched, map[string][]uint8{"a": {1}, "b": {1}})
		Expect(out["sum"]).To(Equal([]uint8{0}))
		Expect(out["cout"]).To(Equal([]uint8{1}))
	})

	It("lowers an 8-bit add to a ripple adder (S2)", func() {
		g, sched := lowerAndSchedule(adder8IR())
		out := evalGates(g, sched, map[string][]uint8{
			"a": bitsOf(200, 8), "b": bitsOf(100, 8),
		})
		Expect(valueOf(out["sum"])).To(BeEquivalentTo(300))
	})

	It("lowers multiply to an array multiplier", func() {
		g, sched := lowerAndSchedule(mul4IR())
		out := evalGates(g, sched, map[string][]uint8{
			"a": bitsOf(13, 4), "b": bitsOf(11, 4),
		})
		Expect(valueOf(out["product"])).To(BeEquivalentTo(143))
	})

	It("lowers divide and modulo to a restoring divider", func() {
		g, sched := lowerAndSchedule(divmod8IR())
		out := evalGates(g, sched, map[string][]uint8{
			"a": bitsOf(200, 8), "b": bitsOf(7, 8),
		})
		Expect(valueOf(out["quotient"])).To(BeEquivalentTo(200 / 7))
		Expect(valueOf(out["remainder"])).To(BeEquivalentTo(200 % 7))
	})

	It("lowers a dynamic shift to a barrel shifter", func() {
		g, sched := lowerAndSchedule(barrelShiftIR())
		out := evalGates(g, sched, map[string][]uint8{
			"a": bitsOf(3, 8), "amount": bitsOf(4, 3),
		})
		Expect(valueOf(out["out"])).To(BeEquivalentTo((3 << 4) & 0xFF))
	})

	It("lowers a case-select to a tree of muxes", func() {
		g, sched := lowerAndSchedule(caseSelectIR())
		out := evalGates(g, sched, map[string][]uint8{"sel": bitsOf(2, 2)})
		Expect(valueOf(out["out"])).To(BeEquivalentTo(4))
	})

	It("lowers a synchronously-reset register to one DFF per bit", func() {
		g, err := lower.Lower(syncRegister8IR())
		Expect(err).NotTo(HaveOccurred())
		Expect(g.DFFs).To(HaveLen(8))
		for _, d := range g.DFFs {
			Expect(d.AsyncReset).To(BeFalse())
			Expect(d.ResetNet).To(Equal(gateir.NoNet))
		}
	})

	It("lowers an asynchronously-reset register with a hardware reset line", func() {
		g, err := lower.Lower(asyncRegister8IR())
		Expect(err).NotTo(HaveOccurred())
		Expect(g.DFFs).To(HaveLen(8))
		for _, d := range g.DFFs {
			Expect(d.AsyncReset).To(BeTrue())
			Expect(d.ResetNet).NotTo(Equal(gateir.NoNet))
		}
	})

	It("lowers a small RAM to flops, a write mux chain and a read mux tree", func() {
		g, err := lower.Lower(ram4x8IR())
		Expect(err).NotTo(HaveOccurred())
		Expect(g.DFFs).To(HaveLen(4 * 8))
		_, err = gateir.Compile(g)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports CombinationalLoop naming the participating nets", func() {
		_, err := lower.Lower(oscillatorIR())
		Expect(err).To(HaveOccurred())
		loop, ok := err.(*rtlerr.CombinationalLoop)
		Expect(ok).To(BeTrue())
		Expect(loop.Path).To(Equal("oscillator"))
		Expect(loop.Nets).To(ContainElements("x", "y"))
	})

	It("reports NonExhaustiveCase for a case-select missing a default", func() {
		_, err := lower.Lower(nonExhaustiveIR())
		Expect(err).To(HaveOccurred())
	})
})
