// Command rhdlctl is the project's CLI surface: lower a named
// component to a gate netlist, dump its ports or gate counts, or run
// it (behaviorally or at the gate level) against a YAML fixture and
// print a verification report. Grounded on the teacher's
// cmd/z80opt/main.go: one cobra root command, one subcommand per
// pipeline stage, flags bound to local vars, RunE returning the error
// cobra reports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/rhdl/behavsim"
	"github.com/sarchlab/rhdl/component"
	"github.com/sarchlab/rhdl/dump"
	"github.com/sarchlab/rhdl/gatesim"
	"github.com/sarchlab/rhdl/lower"
	"github.com/sarchlab/rhdl/report"
	"github.com/sarchlab/rhdl/trace"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rhdlctl",
		Short: "Lower, simulate and verify behavioral hardware components",
	}
	root.AddCommand(newLowerCmd(), newDumpCmd(), newSimCmd(), newVerifyCmd())
	return root
}

func newLowerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lower <component>",
		Short: "Lower a named component to a gate netlist and print gate counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupComponent(args[0])
			if err != nil {
				return err
			}
			ir, err := lower.Lower(c)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dump.GateCounts(ir))
			return nil
		},
	}
}

func newDumpCmd() *cobra.Command {
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "dump <component>",
		Short: "Propagate a named component's behavioral model and print its ports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupComponent(args[0])
			if err != nil {
				return err
			}
			comp := component.New(c)

			if fixturePath != "" {
				f, err := LoadFixture(fixturePath)
				if err != nil {
					return err
				}
				if err := pokeInputs(comp, f.Inputs); err != nil {
					return err
				}
			}

			if err := comp.Propagate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dump.Ports(comp))
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture naming input values to poke before propagating")
	return cmd
}

func newSimCmd() *cobra.Command {
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "sim <component>",
		Short: "Run a named component through the gate-level simulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupComponent(args[0])
			if err != nil {
				return err
			}
			f, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			ir, err := lower.Lower(c)
			if err != nil {
				return err
			}
			sim, err := gatesim.New(ir, f.Lanes)
			if err != nil {
				return err
			}
			for name, v := range f.Inputs {
				if err := sim.Poke(name, v); err != nil {
					return err
				}
			}

			_, hasClock := ir.InputByName("clk")
			for i := 0; i < f.Cycles; i++ {
				if hasClock {
					if err := sim.Poke("clk", uint64(0)); err != nil {
						return err
					}
					sim.Tick()
					if err := sim.Poke("clk", uint64(1)); err != nil {
						return err
					}
				}
				sim.Tick()
			}

			for _, out := range ir.Outputs {
				v, err := sim.Peek(out.Name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", out.Name, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture naming cycle count, lane count and input values")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var fixturePath string
	var tracePath string
	cmd := &cobra.Command{
		Use:   "verify <component>",
		Short: "Run a named component behaviorally and print a run report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupComponent(args[0])
			if err != nil {
				return err
			}
			f, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			comp := component.New(c)
			if err := pokeInputs(comp, f.Inputs); err != nil {
				return err
			}

			builder := behavsim.NewBuilder().WithComponent(comp)
			if clk := comp.Port("clk"); clk != nil {
				gen := behavsim.NewClockGen("clk", 1)
				clk.Connect(gen.Wire())
				builder = builder.WithClock(gen)
			}

			if tracePath != "" {
				sink, err := trace.NewSQLiteSink(tracePath)
				if err != nil {
					return err
				}
				atexit.Register(func() { _ = sink.Close() })
				builder = builder.WithTraceSink(sink)
			}

			sim := builder.Build(args[0])
			r := report.GenerateReport(args[0], sim, f.Cycles)
			r.WriteReport(cmd.OutOrStdout())
			if !r.OK() {
				return r.RunErr
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture naming cycle count and input values")
	cmd.Flags().StringVar(&tracePath, "trace", "", "optional SQLite file to capture a per-tick trace into")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

func pokeInputs(c *component.Component, inputs map[string]uint64) error {
	for name, v := range inputs {
		p := c.Port(name)
		if p == nil {
			return fmt.Errorf("rhdlctl: unknown input port %q", name)
		}
		if err := p.SetOverride(v); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
