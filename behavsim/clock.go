package behavsim

import "github.com/sarchlab/rhdl/signal"

// ClockGen is a named clock source: a one-bit wire that toggles every
// Period calls to the owning Simulator's step() (spec §4.2: "a list of
// clock generators (each has a name, a current value, and a period)").
type ClockGen struct {
	name   string
	period uint64
	wire   *signal.Wire

	elapsed uint64
	initial uint64
}

// NewClockGen creates a clock generator driving a fresh one-bit wire,
// starting at value 0. A period of 1 toggles every step; a period of 0
// is not a generator at all and panics (it would never toggle).
func NewClockGen(name string, period uint64) *ClockGen {
	if period == 0 {
		panic("behavsim: clock generator period must be nonzero")
	}
	return &ClockGen{name: name, period: period, wire: signal.NewWire(name, 1)}
}

// Name returns the generator's name.
func (g *ClockGen) Name() string { return g.name }

// Wire returns the wire this generator drives; connect component clock
// inputs to it via signal.Port.Connect.
func (g *ClockGen) Wire() *signal.Wire { return g.wire }

// Value returns the generator's current value (0 or 1).
func (g *ClockGen) Value() uint64 { return g.wire.Get() }

func (g *ClockGen) tick() {
	g.elapsed++
	if g.elapsed >= g.period {
		g.elapsed = 0
		g.wire.Set(g.wire.Get() ^ 1)
	}
}

func (g *ClockGen) reset() {
	g.elapsed = 0
	g.wire.Set(g.initial)
}
