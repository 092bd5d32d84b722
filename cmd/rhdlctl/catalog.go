package main

import (
	"fmt"

	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/memprim"
)

// catalog names the built-in components rhdlctl's subcommands can act
// on without a bespoke IR-loading format, the way the teacher's sample
// programs each named a fixed kernel rather than reading one from an
// arbitrary path.
var catalog = map[string]func() *bir.Component{
	"half_adder": halfAdderIR,
	"counter8":   counter8IR,
	"ram4x8":     ram4x8IR,
	"regfile32":  regfile32IR,
}

func lookupComponent(name string) (*bir.Component, error) {
	build, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("rhdlctl: unknown component %q (known: %v)", name, catalogNames())
	}
	return build(), nil
}

func catalogNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
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

func counter8IR() *bir.Component {
	state := bir.NetRef("state", 8)
	return &bir.Component{
		Name: "counter8",
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

func ram4x8IR() *bir.Component {
	return memprim.RAM(memprim.RAMConfig{Name: "ram4x8", Depth: 4, Width: 8})
}

func regfile32IR() *bir.Component {
	return memprim.RegisterFile(memprim.RegisterFileConfig{Name: "regfile32", Depth: 32, Width: 32})
}
