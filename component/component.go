// Package component is the behavioral interpreter: a live,
// Wire/Port-backed instantiation of a bir.Component that evaluates the
// very same Expr trees the lower package later compiles to gates
// (spec §3, §4.1). It expects flattened IR — produced by
// bir.Flatten — with no remaining sub-instances of its own; hierarchy
// is a construction-time concern, not a propagation-time one.
package component

import (
	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/rtlerr"
	"github.com/sarchlab/rhdl/signal"
)

// Component is one live instance of a flattened bir.Component.
type Component struct {
	ir   *bir.Component
	name string

	ports map[string]*signal.Port
	nets  map[string]*signal.Wire
	regs  map[string]*signal.Wire

	mem map[string][]uint64

	lastClock map[string]uint64
}

// New builds a live Component from a flattened IR. Panics if ir still
// carries sub-instances: run bir.Flatten first.
func New(ir *bir.Component) *Component {
	if len(ir.Instances) > 0 {
		panic("component: New requires a flattened IR (bir.Flatten it first)")
	}

	c := &Component{
		ir:        ir,
		name:      ir.Name,
		ports:     make(map[string]*signal.Port),
		nets:      make(map[string]*signal.Wire),
		regs:      make(map[string]*signal.Wire),
		mem:       make(map[string][]uint64),
		lastClock: make(map[string]uint64),
	}

	for _, p := range ir.Ports {
		if p.Dir == bir.DirOut {
			c.ports[p.Name] = signal.NewOutput(p.Name, p.Width)
			continue
		}
		var def uint64
		if p.HasDefault {
			def = p.DefaultValue
		}
		c.ports[p.Name] = signal.NewInput(p.Name, p.Width, def)
		c.nets[p.Name] = signal.NewWire(p.Name, p.Width)
	}

	for _, n := range ir.Nets {
		c.nets[n.Name] = signal.NewWire(n.Name, n.Width)
	}

	for _, r := range ir.Regs {
		w := signal.NewWire(r.Name, r.Width)
		w.Set(r.InitialValue)
		c.regs[r.Name] = w
	}

	for _, m := range ir.Memories {
		words := make([]uint64, m.Depth)
		for i, v := range m.InitialContents {
			if uint64(i) >= m.Depth {
				break
			}
			words[i] = v & signal.Mask(m.Width)
		}
		c.mem[m.Name] = words

		for _, r := range m.Reads {
			// An output port already owns the wire wireFor resolves its
			// name to; a separate net would shadow it.
			if _, isPort := c.ports[r.DataNet]; isPort {
				continue
			}
			if _, ok := c.nets[r.DataNet]; !ok {
				c.nets[r.DataNet] = signal.NewWire(r.DataNet, m.Width)
			}
		}
		for _, w := range m.Writes {
			if _, ok := c.nets[w.DataNet]; !ok {
				c.nets[w.DataNet] = signal.NewWire(w.DataNet, m.Width)
			}
		}
	}

	return c
}

// Name returns the component's declared name.
func (c *Component) Name() string { return c.name }

// IR returns the flattened IR this Component interprets.
func (c *Component) IR() *bir.Component { return c.ir }

// Port returns the named port, or nil if absent.
func (c *Component) Port(name string) *signal.Port { return c.ports[name] }

type namedEnv struct{ c *Component }

func (e namedEnv) Net(name string) uint64 { return e.c.wireFor(name).Get() }

func (c *Component) wireFor(name string) *signal.Wire {
	if w, ok := c.nets[name]; ok {
		return w
	}
	if w, ok := c.regs[name]; ok {
		return w
	}
	if p, ok := c.ports[name]; ok && p.Direction() == signal.Out {
		return p.Wire()
	}
	panic(&rtlerr.UnknownPort{Path: c.name + "." + name})
}

// Propagate runs one fixed-order evaluation sweep: sample inputs,
// evaluate continuous assigns, service asynchronous memory reads,
// advance clocked processes, and service synchronous memory ports
// (spec §4.1's single-sweep-per-invocation contract; the repeated
// settle loop lives one level up, in behavsim).
func (c *Component) Propagate() error {
	c.sampleInputs()
	e := namedEnv{c}

	for _, a := range c.ir.Assigns {
		c.wireFor(a.LHS).Set(a.Expr.Eval(e))
	}

	for _, m := range c.ir.Memories {
		if err := c.evalAsyncReads(m, e); err != nil {
			return err
		}
	}

	// Every clocked net's edge is sampled exactly once per sweep, before
	// any process or memory port consults it — sharing one clock net
	// across several processes or write ports must not make later
	// consumers see a stale "already consumed" edge.
	edges := c.sampleClockEdges()

	for _, proc := range c.ir.Processes {
		c.stepProcess(proc, e, edges)
	}

	for _, m := range c.ir.Memories {
		if err := c.stepMemory(m, e, edges); err != nil {
			return err
		}
	}

	return nil
}

func (c *Component) sampleClockEdges() map[string]bool {
	nets := make(map[string]struct{})
	for _, proc := range c.ir.Processes {
		nets[proc.ClockNet] = struct{}{}
	}
	for _, m := range c.ir.Memories {
		for _, w := range m.Writes {
			nets[w.ClockNet] = struct{}{}
		}
		for _, r := range m.Reads {
			if r.Sync {
				nets[r.ClockNet] = struct{}{}
			}
		}
	}

	edges := make(map[string]bool, len(nets))
	for n := range nets {
		cur := c.wireFor(n).Get()
		edges[n] = cur == 1 && c.lastClock[n] == 0
		c.lastClock[n] = cur
	}
	return edges
}

// Reset restores every register and memory word to its declared
// initial value and clears clock-edge history, without touching port
// overrides (spec §4.1's reset() contract).
func (c *Component) Reset() {
	for _, r := range c.ir.Regs {
		c.regs[r.Name].Set(r.InitialValue)
	}
	for name := range c.lastClock {
		c.lastClock[name] = 0
	}
	for _, m := range c.ir.Memories {
		words := c.mem[m.Name]
		for i := range words {
			words[i] = 0
		}
		for i, v := range m.InitialContents {
			if uint64(i) >= m.Depth {
				break
			}
			words[i] = v & signal.Mask(m.Width)
		}
	}
}

// Snapshot returns the current value of every net, register and output
// port, keyed by name. behavsim's settle loop diffs consecutive
// snapshots to detect the fixed point spec §4.2 defines stability by.
func (c *Component) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(c.nets)+len(c.regs)+len(c.ports))
	for name, w := range c.nets {
		out[name] = w.Get()
	}
	for name, w := range c.regs {
		out[name] = w.Get()
	}
	for name, p := range c.ports {
		if p.Direction() == signal.Out {
			out[name] = p.Read()
		}
	}
	return out
}

func (c *Component) sampleInputs() {
	for name, p := range c.ports {
		if p.Direction() == signal.In {
			c.nets[name].Set(p.Read())
		}
	}
}

func (c *Component) evalAsyncReads(m bir.Memory, e namedEnv) error {
	words := c.mem[m.Name]
	for _, r := range m.Reads {
		if r.Sync {
			continue
		}
		addr := c.wireFor(r.AddrNet).Get()
		if addr >= m.Depth {
			return &rtlerr.InvalidMemoryAccess{Path: m.Name, Address: addr, Depth: m.Depth}
		}
		c.wireFor(r.DataNet).Set(words[addr])
	}
	return nil
}

// stepProcess advances one clocked process by at most one edge,
// honoring asynchronous reset (applies on any propagate while
// asserted, clock edge or not) ahead of the ordinary synchronous body
// (spec §3's Process semantics). The body's right-hand sides are all
// evaluated against the pre-edge environment before any left-hand side
// is written, giving the non-blocking assignment semantics every
// clocked process in the IR assumes.
func (c *Component) stepProcess(proc bir.Process, e namedEnv, edges map[string]bool) {
	rising := edges[proc.ClockNet]

	resetAsserted := proc.ResetNet != "" && c.wireFor(proc.ResetNet).Get() != 0

	if proc.AsyncReset && resetAsserted {
		c.applyReset(proc)
		return
	}
	if !rising {
		return
	}
	if resetAsserted {
		c.applyReset(proc)
		return
	}

	staged := make([]uint64, len(proc.Body))
	for i, a := range proc.Body {
		staged[i] = a.Expr.Eval(e)
	}
	for i, a := range proc.Body {
		c.wireFor(a.LHS).Set(staged[i])
	}
}

func (c *Component) applyReset(proc bir.Process) {
	for name, v := range proc.ResetValues {
		c.wireFor(name).Set(v)
	}
}

func (c *Component) stepMemory(m bir.Memory, e namedEnv, edges map[string]bool) error {
	words := c.mem[m.Name]

	type write struct {
		addr, val uint64
	}
	var pending []write
	for _, w := range m.Writes {
		if !edges[w.ClockNet] {
			continue
		}
		if c.wireFor(w.EnableNet).Get() == 0 {
			continue
		}
		addr := c.wireFor(w.AddrNet).Get()
		if addr >= m.Depth {
			return &rtlerr.InvalidMemoryAccess{Path: m.Name, Address: addr, Depth: m.Depth}
		}
		pending = append(pending, write{addr, c.wireFor(w.DataNet).Get()})
	}
	for _, wr := range pending {
		words[wr.addr] = wr.val & signal.Mask(m.Width)
	}

	for _, r := range m.Reads {
		if !r.Sync {
			continue
		}
		if !edges[r.ClockNet] {
			continue
		}
		addr := c.wireFor(r.AddrNet).Get()
		if addr >= m.Depth {
			return &rtlerr.InvalidMemoryAccess{Path: m.Name, Address: addr, Depth: m.Depth}
		}
		c.wireFor(r.DataNet).Set(words[addr])
	}
	return nil
}
