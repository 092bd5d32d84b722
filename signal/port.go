package signal

import (
	"github.com/sarchlab/rhdl/rtlerr"
)

// Direction is the directionality of a Port.
type Direction int

const (
	// In marks an input port: it observes a source Wire by reference,
	// or falls back to its default value when unconnected.
	In Direction = iota
	// Out marks an output port: it exclusively owns and drives a Wire.
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Port is a named, directioned endpoint of a Component (spec §3/§4.1).
type Port struct {
	name         string
	dir          Direction
	width        uint
	defaultValue uint64

	owned  *Wire // non-nil only for Out ports: the wire this port drives
	source *Wire // non-nil only for In ports once connected

	// override holds a value poked directly onto an otherwise
	// unconnected input (the external set_input/poke entry point for
	// top-level or testbench-driven ports). Connecting a source later
	// takes priority over any override.
	override    uint64
	hasOverride bool
}

// NewOutput creates an output port that owns a fresh wire of the given
// width.
func NewOutput(name string, width uint) *Port {
	return &Port{
		name:  name,
		dir:   Out,
		width: width,
		owned: NewWire(name, width),
	}
}

// NewInput creates an input port with the given width and default
// value (truncated to width; zero if unspecified).
func NewInput(name string, width uint, defaultValue uint64) *Port {
	return &Port{
		name:         name,
		dir:          In,
		width:        width,
		defaultValue: defaultValue & Mask(width),
	}
}

// Name returns the port's name.
func (p *Port) Name() string { return p.name }

// Direction returns the port's direction.
func (p *Port) Direction() Direction { return p.dir }

// Width returns the port's bit width.
func (p *Port) Width() uint { return p.width }

// Wire returns the wire this port owns. Only meaningful for output
// ports; input ports return nil (they observe a Wire by reference, see
// Source).
func (p *Port) Wire() *Wire { return p.owned }

// Source returns the wire this input port currently observes, or nil if
// unconnected. Only meaningful for input ports.
func (p *Port) Source() *Wire { return p.source }

// Read returns the port's current value: for an output, its own wire;
// for a connected input, the source wire's value; for an unconnected
// input, any poked override, else the default value.
func (p *Port) Read() uint64 {
	switch p.dir {
	case Out:
		return p.owned.Get()
	default:
		if p.source != nil {
			return p.source.Get()
		}
		if p.hasOverride {
			return p.override
		}
		return p.defaultValue
	}
}

// Write drives this output port's wire, truncating to width. Writing an
// input port through this method is undefined behavior per spec §4.1;
// use SetOverride for the testbench-facing poke path instead.
func (p *Port) Write(v uint64) {
	if p.dir != Out {
		panic("signal: Write called on an input port; use SetOverride")
	}
	p.owned.Set(v)
}

// SetOverride pokes a value directly onto an input port, used when no
// upstream component drives it (top-level testbench inputs). Returns
// WidthViolation if v does not fit in the port's width. Has no effect
// on Read once the port is Connect-ed to a source wire, though the
// override is preserved and resumes applying if Disconnect is called.
func (p *Port) SetOverride(v uint64) error {
	if p.dir != In {
		panic("signal: SetOverride called on an output port")
	}
	if v > Mask(p.width) {
		return &rtlerr.WidthViolation{Path: p.name, Declared: p.width, Observed: bitLength(v)}
	}
	p.override = v
	p.hasOverride = true
	return nil
}

// Connect binds this input port to observe src by reference. Fan-out
// (many input ports observing the same source) is permitted; fan-in is
// structurally impossible since each input holds at most one source,
// and reassigning the source simply replaces it (spec §3).
func (p *Port) Connect(src *Wire) {
	if p.dir != In {
		panic("signal: Connect called on an output port")
	}
	if src.Width() != p.width {
		panic(&rtlerr.WidthViolation{Path: p.name, Declared: p.width, Observed: src.Width()})
	}
	p.source = src
}

// Disconnect removes this input's source wire, reverting reads to its
// override (if any) or default value.
func (p *Port) Disconnect() {
	p.source = nil
}

func bitLength(v uint64) uint {
	n := uint(0)
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}
