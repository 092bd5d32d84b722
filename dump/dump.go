// Package dump renders simulator state as ASCII tables, the way
// core/util.go's PrintState tables a PE's registers and buffer status
// for human inspection, generalized to any component or netlist.
package dump

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/rhdl/component"
	"github.com/sarchlab/rhdl/gateir"
)

// gateTypeOrder fixes a display order for GateCounts so the rendered
// table is deterministic regardless of map iteration order.
var gateTypeOrder = []gateir.GateType{
	gateir.GateConst, gateir.GateBuf, gateir.GateNot,
	gateir.GateAnd, gateir.GateOr, gateir.GateXor,
	gateir.GateNand, gateir.GateNor, gateir.GateXnor,
	gateir.GateMux,
}

// Ports renders c's ports, in declaration order, as a table of
// name/direction/width/current value.
func Ports(c *component.Component) string {
	t := table.NewWriter()
	t.SetTitle(c.Name() + " ports")
	t.AppendHeader(table.Row{"Name", "Dir", "Width", "Value"})

	for _, p := range c.IR().Ports {
		port := c.Port(p.Name)
		t.AppendRow(table.Row{p.Name, port.Direction(), port.Width(), port.Read()})
	}
	return t.Render()
}

// State renders an arbitrary net/register/port snapshot — the shape
// component.Component.Snapshot returns — as a table sorted by name for
// deterministic output across runs.
func State(title string, snapshot map[string]uint64) string {
	names := make([]string, 0, len(snapshot))
	for n := range snapshot {
		names = append(names, n)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Net", "Value"})
	for _, n := range names {
		t.AppendRow(table.Row{n, snapshot[n]})
	}
	return t.Render()
}

// GateCounts renders a per-gate-type tally plus the flip-flop count for
// a lowered netlist, a structural summary of what lower.Lower produced
// (gate type breakdown and register count).
func GateCounts(g *gateir.GateIR) string {
	counts := make(map[gateir.GateType]int, len(gateTypeOrder))
	for _, gate := range g.Gates {
		counts[gate.Type]++
	}

	t := table.NewWriter()
	t.SetTitle("gate counts")
	t.AppendHeader(table.Row{"Type", "Count"})
	for _, gt := range gateTypeOrder {
		if n := counts[gt]; n > 0 {
			t.AppendRow(table.Row{gt.String(), n})
		}
	}
	t.AppendRow(table.Row{"DFF", len(g.DFFs)})
	t.AppendRow(table.Row{"total nets", g.NetCount})
	return t.Render()
}
