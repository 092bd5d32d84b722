// Package rtlerr defines the closed error taxonomy shared by every stage
// of the pipeline, from component construction through gate-level
// simulation. Every exported type here wraps a sentinel so callers can
// use errors.Is/errors.As instead of string matching, and every type
// carries the hierarchical dotted path to the offending component, port
// or net the way verify.Issue carries PE coordinates in the teacher
// repository.
package rtlerr

import "fmt"

// Sentinel errors. Wrapping types below satisfy errors.Is against these.
var (
	ErrUnknownPort             = fmt.Errorf("unknown port")
	ErrWidthViolation          = fmt.Errorf("width violation")
	ErrMissingConnection       = fmt.Errorf("missing connection")
	ErrParameterResolution     = fmt.Errorf("parameter resolution error")
	ErrNonExhaustiveCase       = fmt.Errorf("non-exhaustive case-select")
	ErrCombinationalLoop       = fmt.Errorf("combinational loop")
	ErrUnsettled               = fmt.Errorf("settling loop did not converge")
	ErrInvalidMemoryAccess     = fmt.Errorf("invalid memory access")
)

// UnknownPort reports a read/write naming a port absent from a
// component or simulator.
type UnknownPort struct {
	Path string // hierarchical path, e.g. "cpu.alu.a"
}

func (e *UnknownPort) Error() string {
	return fmt.Sprintf("unknown port: %s", e.Path)
}

func (e *UnknownPort) Unwrap() error { return ErrUnknownPort }

// WidthViolation reports a poke/write value exceeding a declared width,
// or two operands whose widths were required to match but did not.
type WidthViolation struct {
	Path     string
	Declared uint
	Observed uint
}

func (e *WidthViolation) Error() string {
	return fmt.Sprintf("width violation at %s: declared %d bits, observed %d bits",
		e.Path, e.Declared, e.Observed)
}

func (e *WidthViolation) Unwrap() error { return ErrWidthViolation }

// MissingConnection reports a required sub-instance input left
// unconnected after elaboration.
type MissingConnection struct {
	Path string // "<instance>.<port>"
}

func (e *MissingConnection) Error() string {
	return fmt.Sprintf("missing connection: %s", e.Path)
}

func (e *MissingConnection) Unwrap() error { return ErrMissingConnection }

// ParameterResolutionError reports a cycle or unresolved symbol among
// derived parameters.
type ParameterResolutionError struct {
	Path  string
	Cycle []string // participating parameter names, declaration order
}

func (e *ParameterResolutionError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("parameter resolution error at %s: cycle through %v", e.Path, e.Cycle)
	}
	return fmt.Sprintf("parameter resolution error at %s", e.Path)
}

func (e *ParameterResolutionError) Unwrap() error { return ErrParameterResolution }

// NonExhaustiveCase reports a case-select without a default whose cases
// do not provably cover every selector value.
type NonExhaustiveCase struct {
	Path          string
	SelectorWidth uint
	Covered       int // number of distinct case keys present
}

func (e *NonExhaustiveCase) Error() string {
	return fmt.Sprintf("non-exhaustive case-select at %s: %d of %d selector values covered, no default",
		e.Path, e.Covered, uint64(1)<<e.SelectorWidth)
}

func (e *NonExhaustiveCase) Unwrap() error { return ErrNonExhaustiveCase }

// CombinationalLoop reports a cycle found in the gate-only subgraph
// (flip-flops excluded) during lowering or at gate-IR load time.
type CombinationalLoop struct {
	Path string   // component path the cycle was found in
	Nets []string // participating nets, in cycle order
}

func (e *CombinationalLoop) Error() string {
	return fmt.Sprintf("combinational loop at %s through nets %v", e.Path, e.Nets)
}

func (e *CombinationalLoop) Unwrap() error { return ErrCombinationalLoop }

// Unsettled reports that the behavioral settling loop exceeded its
// iteration bound without reaching a fixed point.
type Unsettled struct {
	Path     string
	Bound    int
	Changed  []string // wires still changing on the final iteration
}

func (e *Unsettled) Error() string {
	return fmt.Sprintf("unsettled after %d iterations at %s (still changing: %v)",
		e.Bound, e.Path, e.Changed)
}

func (e *Unsettled) Unwrap() error { return ErrUnsettled }

// InvalidMemoryAccess reports an address whose high bits (beyond
// log2(depth)) are nonzero.
type InvalidMemoryAccess struct {
	Path    string
	Address uint64
	Depth   uint64
}

func (e *InvalidMemoryAccess) Error() string {
	return fmt.Sprintf("invalid memory access at %s: address 0x%x exceeds depth %d",
		e.Path, e.Address, e.Depth)
}

func (e *InvalidMemoryAccess) Unwrap() error { return ErrInvalidMemoryAccess }
