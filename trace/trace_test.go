package trace_test

import (
	"database/sql"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhdl/behavsim"
	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/component"
	"github.com/sarchlab/rhdl/trace"
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

var _ = Describe("MemorySink", func() {
	It("accumulates one row per captured tick", func() {
		sink := &trace.MemorySink{}
		Expect(sink.Capture(0, map[string]uint64{"a": 1})).To(Succeed())
		Expect(sink.Capture(1, map[string]uint64{"a": 2})).To(Succeed())
		Expect(sink.Close()).To(Succeed())

		Expect(sink.Ticks).To(Equal([]uint64{0, 1}))
		Expect(sink.Rows).To(HaveLen(2))
		Expect(sink.Rows[1]["a"]).To(BeEquivalentTo(2))
	})
})

var _ = Describe("SQLiteSink", func() {
	It("persists one row per net per captured tick, tagged with a run ID", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace.db")
		sink, err := trace.NewSQLiteSink(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.RunID()).NotTo(BeEmpty())

		Expect(sink.Capture(0, map[string]uint64{"a": 1, "b": 2})).To(Succeed())
		Expect(sink.Close()).To(Succeed())

		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var count int
		Expect(db.QueryRow(`SELECT COUNT(*) FROM trace WHERE run_id = ?`, sink.RunID()).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(2))
	})
})

var _ = Describe("behavsim integration", func() {
	It("captures one settled snapshot per Step", func() {
		sink := &trace.MemorySink{}
		c := component.New(counterIR())
		clk := behavsim.NewClockGen("clk", 1)
		c.Port("clk").Connect(clk.Wire())

		sim := behavsim.NewBuilder().
			WithComponent(c).
			WithClock(clk).
			WithTraceSink(sink).
			Build("counter_tb")

		Expect(sim.Run(3)).To(Succeed())
		Expect(sink.Ticks).To(Equal([]uint64{0, 1, 2}))

		last := sink.Rows[len(sink.Rows)-1]
		found := false
		for k, v := range last {
			if k == "counter#0.count" {
				found = true
				Expect(v).To(BeEquivalentTo(2))
			}
		}
		Expect(found).To(BeTrue())
	})

	It("resets the tick counter alongside components and clocks", func() {
		sink := &trace.MemorySink{}
		c := component.New(counterIR())
		clk := behavsim.NewClockGen("clk", 1)
		c.Port("clk").Connect(clk.Wire())

		sim := behavsim.NewBuilder().
			WithComponent(c).
			WithClock(clk).
			WithTraceSink(sink).
			Build("counter_tb")

		Expect(sim.Run(2)).To(Succeed())
		sim.Reset()
		Expect(sim.Step()).NotTo(HaveOccurred())

		Expect(sink.Ticks).To(Equal([]uint64{0, 1, 0}))
	})
})
