// Package signal implements the Wire/Port substrate (spec §4.1): a
// single typed signal carrying an unsigned integer of a declared bit
// width, and the named, directioned endpoints that read and drive it.
package signal

import "fmt"

// MaxWidth is the widest a single net or wire may be (spec §1
// Non-goals: no semantic width beyond 64 bits in a single net).
const MaxWidth = 64

// Mask returns the bitmask for a value of the given width. Width 64
// is the one case `1<<64 - 1` cannot express with a shift, so it is
// special-cased to all-ones.
func Mask(width uint) uint64 {
	if width >= MaxWidth {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Wire is a multi-bit signal. It is owned exclusively by the output
// Port that drives it; any number of input Ports may observe it by
// holding a pointer to it. Width is fixed at construction; value is
// always truncated to width on assignment (spec §3 invariant).
type Wire struct {
	name  string
	width uint
	value uint64
}

// NewWire allocates a zero-valued wire of the given width.
func NewWire(name string, width uint) *Wire {
	if width == 0 || width > MaxWidth {
		panic(fmt.Sprintf("signal: wire %q has invalid width %d", name, width))
	}
	return &Wire{name: name, width: width}
}

// Name returns the wire's declared name.
func (w *Wire) Name() string { return w.name }

// Width returns the wire's bit width.
func (w *Wire) Width() uint { return w.width }

// Get returns the wire's current value.
func (w *Wire) Get() uint64 { return w.value }

// Set assigns a new value, truncating to the wire's width.
func (w *Wire) Set(v uint64) { w.value = v & Mask(w.width) }

// Equal compares width first, then value, the order spec §4.1
// prescribes for wire equality.
func (w *Wire) Equal(other *Wire) bool {
	if other == nil {
		return false
	}
	return w.width == other.width && w.value == other.value
}
