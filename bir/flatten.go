package bir

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/rhdl/rtlerr"
)

// InstanceCycle reports that a component class transitively
// instantiates itself (Design Notes §9: "Hierarchical components must
// form a DAG of instance classes; instance-tree cycles are rejected at
// construction").
type InstanceCycle struct {
	Classes []string // module names, in instantiation order, repeating the first at the end
}

func (e *InstanceCycle) Error() string {
	return fmt.Sprintf("instance-tree cycle through classes %v", e.Classes)
}

// flattener carries the accumulating flat component plus bookkeeping
// needed to keep a depth-first, declaration-order walk deterministic
// (spec §4.4.14: "net indices follow the fixed allocation order
// dictated by a depth-first walk of the IR in declared order").
type flattener struct {
	prog   *Program
	flat   *Component
	stack  []string // module names currently being expanded, cycle detection
}

// Flatten recursively inlines every sub-instance of prog's component
// named rootName into a single flat Component with unique,
// parent-qualified net names (spec §4.3's to_flat_ir). The result is
// pure data with no instances of its own, ready for the lowering pass.
func Flatten(prog *Program, rootName string) (*Component, error) {
	root, ok := prog.Components[rootName]
	if !ok {
		return nil, &rtlerr.UnknownPort{Path: rootName}
	}

	fl := &flattener{prog: prog, flat: &Component{Name: root.Name, Ports: root.Ports}}
	subst := identitySubst(root)

	if err := fl.inline(root, "", subst); err != nil {
		return nil, err
	}

	return fl.flat, nil
}

// identitySubst maps every port/net/reg name of c to a NetRef of
// itself, the starting point before any instance substitution is
// applied.
func identitySubst(c *Component) map[string]*Expr {
	m := make(map[string]*Expr)
	for _, p := range c.Ports {
		m[p.Name] = NetRef(p.Name, p.Width)
	}
	for _, n := range c.Nets {
		m[n.Name] = NetRef(n.Name, n.Width)
	}
	for _, r := range c.Regs {
		m[r.Name] = NetRef(r.Name, r.Width)
	}
	for _, mem := range c.Memories {
		for _, w := range mem.Writes {
			m[w.DataNet] = NetRef(w.DataNet, mem.Width)
		}
		for _, r := range mem.Reads {
			m[r.DataNet] = NetRef(r.DataNet, mem.Width)
		}
	}
	return m
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// inline walks c (with substitution subst already resolving every name
// c's own IR can reference to its qualified form in the parent scope),
// appending nets/regs/assigns/processes/memories to fl.flat, then
// recurses into c's own sub-instances.
func (fl *flattener) inline(c *Component, prefix string, subst map[string]*Expr) error {
	for _, cls := range fl.stack {
		if cls == c.Name {
			return &InstanceCycle{Classes: append(append([]string{}, fl.stack...), c.Name)}
		}
	}
	fl.stack = append(fl.stack, c.Name)
	defer func() { fl.stack = fl.stack[:len(fl.stack)-1] }()

	for _, n := range c.Nets {
		fl.flat.Nets = append(fl.flat.Nets, Net{Name: qualify(prefix, n.Name), Width: n.Width})
	}
	for _, p := range c.Ports {
		if prefix != "" {
			// A sub-component's own ports become ordinary internal
			// nets of the flattened parent; the parent-level wiring
			// is handled by the instance loop in inlineInstance.
			fl.flat.Nets = append(fl.flat.Nets, Net{Name: qualify(prefix, p.Name), Width: p.Width})
		}
	}
	for _, r := range c.Regs {
		fl.flat.Regs = append(fl.flat.Regs, Reg{
			Name: qualify(prefix, r.Name), Width: r.Width, InitialValue: r.InitialValue,
		})
	}

	for _, a := range c.Assigns {
		fl.flat.Assigns = append(fl.flat.Assigns, Assign{
			LHS:  fl.resolveLHS(qualify(prefix, a.LHS), a.LHS, subst),
			Expr: substitute(a.Expr, subst),
		})
	}

	for _, proc := range c.Processes {
		fl.flat.Processes = append(fl.flat.Processes, Process{
			ClockNet:    fl.resolveNetName(prefix, proc.ClockNet, subst),
			ResetNet:    fl.resolveOptionalNetName(prefix, proc.ResetNet, subst),
			AsyncReset:  proc.AsyncReset,
			ResetValues: qualifyResetValues(prefix, proc.ResetValues),
			Body: mapAssigns(proc.Body, func(a Assign) Assign {
				return Assign{LHS: qualify(prefix, a.LHS), Expr: substitute(a.Expr, subst)}
			}),
		})
	}

	for _, mem := range c.Memories {
		fl.flat.Memories = append(fl.flat.Memories, Memory{
			Name:            qualify(prefix, mem.Name),
			Depth:           mem.Depth,
			Width:           mem.Width,
			InitialContents: mem.InitialContents,
			ReadOnly:        mem.ReadOnly,
			Writes: mapWrites(mem.Writes, func(w MemoryWritePort) MemoryWritePort {
				return MemoryWritePort{
					AddrNet:   fl.resolveNetName(prefix, w.AddrNet, subst),
					DataNet:   qualify(prefix, w.DataNet),
					EnableNet: fl.resolveNetName(prefix, w.EnableNet, subst),
					ClockNet:  fl.resolveNetName(prefix, w.ClockNet, subst),
				}
			}),
			Reads: mapReads(mem.Reads, func(r MemoryReadPort) MemoryReadPort {
				return MemoryReadPort{
					AddrNet:  fl.resolveNetName(prefix, r.AddrNet, subst),
					DataNet:  qualify(prefix, r.DataNet),
					Sync:     r.Sync,
					ClockNet: fl.resolveNetName(prefix, r.ClockNet, subst),
				}
			}),
		})
	}

	for _, inst := range c.Instances {
		if err := fl.inlineInstance(c, inst, prefix, subst); err != nil {
			return err
		}
	}

	return nil
}

func (fl *flattener) inlineInstance(parent *Component, inst Instance, prefix string, parentSubst map[string]*Expr) error {
	child, ok := fl.prog.Components[inst.ModuleName]
	if !ok {
		return &rtlerr.UnknownPort{Path: inst.ModuleName}
	}

	childPrefix := qualify(prefix, inst.InstanceName)
	childSubst := make(map[string]*Expr, len(child.Ports)+len(child.Nets)+len(child.Regs))

	for _, p := range child.Ports {
		conn, connected := inst.PortConnections[p.Name]
		switch {
		case p.Dir == DirIn && connected && conn.IsLiteral:
			childSubst[p.Name] = Lit(p.Width, conn.Literal)
		case p.Dir == DirIn && connected:
			childSubst[p.Name] = substitute(NetRef(conn.NetName, p.Width), parentSubst)
		case p.Dir == DirIn && p.HasDefault:
			childSubst[p.Name] = Lit(p.Width, p.DefaultValue)
		case p.Dir == DirIn:
			return &rtlerr.MissingConnection{Path: childPrefix + "." + p.Name}
		default: // output port: it behaves like an internal net of the child
			childSubst[p.Name] = NetRef(qualify(childPrefix, p.Name), p.Width)
		}
	}
	for _, n := range child.Nets {
		childSubst[n.Name] = NetRef(qualify(childPrefix, n.Name), n.Width)
	}
	for _, r := range child.Regs {
		childSubst[r.Name] = NetRef(qualify(childPrefix, r.Name), r.Width)
	}
	for _, mem := range child.Memories {
		for _, w := range mem.Writes {
			childSubst[w.DataNet] = NetRef(qualify(childPrefix, w.DataNet), mem.Width)
		}
		for _, r := range mem.Reads {
			childSubst[r.DataNet] = NetRef(qualify(childPrefix, r.DataNet), mem.Width)
		}
	}

	if err := fl.inline(child, childPrefix, childSubst); err != nil {
		return err
	}

	// Bridge each connected output port back to the parent net that
	// observes it.
	for _, p := range child.Ports {
		if p.Dir != DirOut {
			continue
		}
		conn, connected := inst.PortConnections[p.Name]
		if !connected || conn.IsLiteral {
			continue
		}
		parentNet := fl.resolveNetName(prefix, conn.NetName, parentSubst)
		fl.flat.Assigns = append(fl.flat.Assigns, Assign{
			LHS:  parentNet,
			Expr: NetRef(qualify(childPrefix, p.Name), p.Width),
		})
	}

	return nil
}

// resolveNetName resolves name (as seen by c's own IR) through subst
// down to a plain net name usable as an LHS or a Process/Memory net
// field. When substitution yields something other than a bare NetRef
// (a literal tied directly to a clock/reset/address line, for
// instance), a fresh bridging net and assignment are synthesized so
// the net-name-only invariant of Process/Memory fields holds.
func (fl *flattener) resolveNetName(prefix, name string, subst map[string]*Expr) string {
	resolved := substitute(NetRef(name, 0), subst)
	if resolved.Kind == KindNetRef {
		return resolved.Net
	}
	bridge := qualify(prefix, name) + "$" + xid.New().String()
	fl.flat.Nets = append(fl.flat.Nets, Net{Name: bridge, Width: resolved.Width})
	fl.flat.Assigns = append(fl.flat.Assigns, Assign{LHS: bridge, Expr: resolved})
	return bridge
}

func (fl *flattener) resolveOptionalNetName(prefix, name string, subst map[string]*Expr) string {
	if name == "" {
		return ""
	}
	return fl.resolveNetName(prefix, name, subst)
}

func (fl *flattener) resolveLHS(qualifiedDefault, name string, subst map[string]*Expr) string {
	if e, ok := subst[name]; ok && e.Kind == KindNetRef {
		return e.Net
	}
	return qualifiedDefault
}

func qualifyResetValues(prefix string, values map[string]uint64) map[string]uint64 {
	if values == nil {
		return nil
	}
	out := make(map[string]uint64, len(values))
	for k, v := range values {
		out[qualify(prefix, k)] = v
	}
	return out
}

func mapAssigns(in []Assign, f func(Assign) Assign) []Assign {
	out := make([]Assign, len(in))
	for i, a := range in {
		out[i] = f(a)
	}
	return out
}

func mapWrites(in []MemoryWritePort, f func(MemoryWritePort) MemoryWritePort) []MemoryWritePort {
	out := make([]MemoryWritePort, len(in))
	for i, w := range in {
		out[i] = f(w)
	}
	return out
}

func mapReads(in []MemoryReadPort, f func(MemoryReadPort) MemoryReadPort) []MemoryReadPort {
	out := make([]MemoryReadPort, len(in))
	for i, r := range in {
		out[i] = f(r)
	}
	return out
}

// substitute rebuilds e, replacing every NetRef whose name is a key of
// subst with the mapped expression. Unmapped references are returned
// unchanged (the caller is responsible for having populated subst with
// every name e might mention).
func substitute(e *Expr, subst map[string]*Expr) *Expr {
	switch e.Kind {
	case KindLit:
		return e
	case KindNetRef:
		if mapped, ok := subst[e.Net]; ok {
			return mapped
		}
		return e
	case KindSlice:
		return &Expr{Kind: KindSlice, Width: e.Width, Operand: substitute(e.Operand, subst), Hi: e.Hi, Lo: e.Lo}
	case KindConcat:
		parts := make([]*Expr, len(e.Operands))
		for i, p := range e.Operands {
			parts[i] = substitute(p, subst)
		}
		return &Expr{Kind: KindConcat, Width: e.Width, Operands: parts}
	case KindReplicate:
		return &Expr{Kind: KindReplicate, Width: e.Width, Operand: substitute(e.Operand, subst), Count: e.Count}
	case KindUnary:
		return &Expr{Kind: KindUnary, Width: e.Width, UOp: e.UOp, Operand: substitute(e.Operand, subst)}
	case KindBinary:
		return &Expr{Kind: KindBinary, Width: e.Width, BOp: e.BOp, A: substitute(e.A, subst), B: substitute(e.B, subst)}
	case KindMux:
		return &Expr{
			Kind: KindMux, Width: e.Width,
			Cond: substitute(e.Cond, subst), IfZero: substitute(e.IfZero, subst), IfOne: substitute(e.IfOne, subst),
		}
	case KindCase:
		cases := make([]CaseEntry, len(e.Cases))
		for i, c := range e.Cases {
			cases[i] = CaseEntry{Key: c.Key, Value: substitute(c.Value, subst)}
		}
		var def *Expr
		if e.Default != nil {
			def = substitute(e.Default, subst)
		}
		return &Expr{Kind: KindCase, Width: e.Width, Selector: substitute(e.Selector, subst), Cases: cases, Default: def}
	default:
		panic("bir: unknown expression kind")
	}
}
