// Package behavsim is the behavioral simulator (spec §4.2): a
// collection of component.Component instances plus clock generators,
// driven by a time-stepped evaluation loop with a fixed-point settle
// pass resolving combinational fan-out each tick.
package behavsim

import (
	"fmt"
	"sort"

	"github.com/sarchlab/rhdl/component"
	"github.com/sarchlab/rhdl/rtlerr"
	"github.com/sarchlab/rhdl/rtllog"
	"github.com/sarchlab/rhdl/trace"
)

// defaultSettleBound is the iteration cap step() enforces before
// reporting Unsettled (spec §4.2's "iteration bound").
const defaultSettleBound = 16

// Simulator holds components in insertion order and a list of clock
// generators, and runs the settle loop across all of them each tick.
type Simulator struct {
	name        string
	components  []*component.Component
	clocks      []*ClockGen
	settleBound int
	sinks       []trace.Sink
	tick        uint64
}

// SimulatorBuilder assembles a Simulator with a fluent WithX(...)
// chain terminated by Build(name), matching the construction style
// used throughout this codebase's other builders.
type SimulatorBuilder struct {
	components  []*component.Component
	clocks      []*ClockGen
	settleBound int
	sinks       []trace.Sink
}

// NewBuilder starts a SimulatorBuilder with the default settle bound.
func NewBuilder() SimulatorBuilder {
	return SimulatorBuilder{settleBound: defaultSettleBound}
}

// WithComponent registers c to be propagated every tick, in the order
// WithComponent calls are made (spec §4.2's "insertion order").
func (b SimulatorBuilder) WithComponent(c *component.Component) SimulatorBuilder {
	b.components = append(b.components, c)
	return b
}

// WithClock registers a clock generator to be toggled every step().
func (b SimulatorBuilder) WithClock(g *ClockGen) SimulatorBuilder {
	b.clocks = append(b.clocks, g)
	return b
}

// WithSettleBound overrides the default settling iteration bound.
func (b SimulatorBuilder) WithSettleBound(n int) SimulatorBuilder {
	b.settleBound = n
	return b
}

// WithTraceSink registers a trace sink: the simulator's optional
// trace_capture() extension point (spec §6). Every sink receives one
// snapshot per successful Step, keyed the same way Snapshot/
// snapshotAll key multi-component traces.
func (b SimulatorBuilder) WithTraceSink(s trace.Sink) SimulatorBuilder {
	b.sinks = append(b.sinks, s)
	return b
}

// Build finalizes the Simulator.
func (b SimulatorBuilder) Build(name string) *Simulator {
	return &Simulator{
		name:        name,
		components:  b.components,
		clocks:      b.clocks,
		settleBound: b.settleBound,
		sinks:       b.sinks,
	}
}

// Components returns the registered components in insertion order.
func (s *Simulator) Components() []*component.Component { return s.components }

// Step runs one simulation tick: toggle every clock generator per its
// period, then repeatedly propagate every component in insertion order
// until no tracked wire changes between passes, or the settle bound is
// exceeded (spec §4.2's step() contract; Unsettled on exceedance).
func (s *Simulator) Step() error {
	for _, g := range s.clocks {
		g.tick()
	}
	rtllog.Tick("behavsim: tick", "name", s.name)

	prev := s.snapshotAll()
	var changed []string
	for i := 0; i < s.settleBound; i++ {
		for _, c := range s.components {
			if err := c.Propagate(); err != nil {
				return err
			}
		}

		cur := s.snapshotAll()
		changed = diff(prev, cur)
		rtllog.Settle("behavsim: settle pass", "name", s.name, "iteration", i, "changed", len(changed))
		if len(changed) == 0 {
			return s.capture(cur)
		}
		prev = cur
	}

	return &rtlerr.Unsettled{Path: s.name, Bound: s.settleBound, Changed: changed}
}

// capture feeds a settled snapshot to every registered trace sink and
// advances the tick counter, regardless of how many sinks (if any) are
// registered.
func (s *Simulator) capture(settled map[string]uint64) error {
	for _, sink := range s.sinks {
		if err := sink.Capture(s.tick, settled); err != nil {
			return err
		}
	}
	s.tick++
	return nil
}

// Run invokes Step cycles times, stopping at the first error.
func (s *Simulator) Run(cycles int) error {
	for i := 0; i < cycles; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset re-initializes every component's latched state and every clock
// generator to its construction default (spec §4.2's reset()).
func (s *Simulator) Reset() {
	for _, c := range s.components {
		c.Reset()
	}
	for _, g := range s.clocks {
		g.reset()
	}
	s.tick = 0
}

func (s *Simulator) snapshotAll() map[string]uint64 {
	out := make(map[string]uint64)
	for i, c := range s.components {
		prefix := c.Name()
		for name, v := range c.Snapshot() {
			out[componentKey(i, prefix, name)] = v
		}
	}
	return out
}

// componentKey disambiguates same-named nets across components sharing
// a class name by folding in the component's slot index.
func componentKey(index int, componentName, netName string) string {
	return fmt.Sprintf("%s#%d.%s", componentName, index, netName)
}

func diff(prev, cur map[string]uint64) []string {
	var changed []string
	for k, v := range cur {
		if pv, ok := prev[k]; !ok || pv != v {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
