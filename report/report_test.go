package report_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhdl/behavsim"
	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/component"
	"github.com/sarchlab/rhdl/report"
)

func counterIR() *bir.Component {
	state := bir.NetRef("count", 8)
	return &bir.Component{
		Name: "counter",
		Ports: []bir.Port{
			{Name: "clk", Dir: bir.DirIn, Width: 1},
			{Name: "count", Dir: bir.DirOut, Width: 8},
		},
		Regs: []bir.Reg{{Name: "state", Width: 8, InitialValue: 0}},
		Assigns: []bir.Assign{
			{LHS: "count", Expr: bir.NetRef("state", 8)},
		},
		Processes: []bir.Process{{
			ClockNet: "clk",
			Body:     []bir.Assign{{LHS: "state", Expr: bir.Binary(bir.OpAdd, state, bir.Lit(8, 1))}},
		}},
	}
}

func newCounterSim() *behavsim.Simulator {
	c := component.New(counterIR())
	clk := behavsim.NewClockGen("clk", 1)
	c.Port("clk").Connect(clk.Wire())

	return behavsim.NewBuilder().
		WithComponent(c).
		WithClock(clk).
		Build("counter_tb")
}

var _ = Describe("GenerateReport", func() {
	It("records cycles, duration and a resource-usage sample for a successful run", func() {
		r := report.GenerateReport("counter_tb", newCounterSim(), 4)

		Expect(r.OK()).To(BeTrue())
		Expect(r.Cycles).To(Equal(4))
		Expect(r.Duration).To(BeNumerically(">=", 0))
		Expect(r.Resources.RSSBytes).To(BeNumerically(">", 0))
	})

	It("captures a failed run's error instead of propagating it", func() {
		c := component.New(counterIR())
		sim := behavsim.NewBuilder().
			WithComponent(c).
			WithSettleBound(0).
			Build("unclocked")

		r := report.GenerateReport("unclocked", sim, 1)

		Expect(r.OK()).To(BeFalse())
		Expect(r.RunErr).To(HaveOccurred())
	})
})

var _ = Describe("RunReport.WriteReport", func() {
	It("renders cycle count, duration, resource usage and outcome", func() {
		r := report.GenerateReport("counter_tb", newCounterSim(), 2)

		var buf strings.Builder
		r.WriteReport(&buf)

		out := buf.String()
		Expect(out).To(ContainSubstring("counter_tb"))
		Expect(out).To(ContainSubstring("Cycles requested: 2"))
		Expect(out).To(ContainSubstring("RESOURCE USAGE"))
		Expect(out).To(ContainSubstring("Run completed successfully"))
	})
})
