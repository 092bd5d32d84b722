package bir

import "encoding/json"

// exprJSON is the tagged-tree JSON shape spec §6 requires ("each node
// carries a discriminator naming its variant... round-trippable to a
// canonical JSON form for diagnostic dumping").
type exprJSON struct {
	Kind  string `json:"kind"`
	Width uint   `json:"width"`

	Value *uint64 `json:"value,omitempty"`
	Net   string  `json:"net,omitempty"`

	Operand *exprJSON `json:"operand,omitempty"`
	Hi      *uint     `json:"hi,omitempty"`
	Lo      *uint     `json:"lo,omitempty"`

	Operands []*exprJSON `json:"operands,omitempty"`
	Count    *uint       `json:"count,omitempty"`

	Op string    `json:"op,omitempty"`
	A  *exprJSON `json:"a,omitempty"`
	B  *exprJSON `json:"b,omitempty"`

	Cond   *exprJSON `json:"cond,omitempty"`
	IfZero *exprJSON `json:"if_zero,omitempty"`
	IfOne  *exprJSON `json:"if_one,omitempty"`

	Selector *exprJSON    `json:"selector,omitempty"`
	Cases    []caseJSON   `json:"cases,omitempty"`
	Default  *exprJSON    `json:"default,omitempty"`
}

type caseJSON struct {
	Key   uint64    `json:"key"`
	Value *exprJSON `json:"value"`
}

var unaryOpNames = map[UnaryOp]string{
	OpNot: "not", OpReduceAnd: "reduce_and", OpReduceOr: "reduce_or", OpReduceXor: "reduce_xor",
}

var binaryOpNames = map[BinaryOp]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpShl: "shl", OpShr: "shr", OpSar: "sar",
	OpRol: "rol", OpRor: "ror", OpEq: "eq", OpNe: "ne", OpLt: "lt", OpGt: "gt", OpLe: "le", OpGe: "ge",
	OpLtSigned: "lt_s", OpGtSigned: "gt_s", OpLeSigned: "le_s", OpGeSigned: "ge_s",
}

func toExprJSON(e *Expr) *exprJSON {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindLit:
		v := e.LitValue
		return &exprJSON{Kind: "lit", Width: e.Width, Value: &v}
	case KindNetRef:
		return &exprJSON{Kind: "net", Width: e.Width, Net: e.Net}
	case KindSlice:
		hi, lo := e.Hi, e.Lo
		return &exprJSON{Kind: "slice", Width: e.Width, Operand: toExprJSON(e.Operand), Hi: &hi, Lo: &lo}
	case KindConcat:
		ops := make([]*exprJSON, len(e.Operands))
		for i, o := range e.Operands {
			ops[i] = toExprJSON(o)
		}
		return &exprJSON{Kind: "concat", Width: e.Width, Operands: ops}
	case KindReplicate:
		c := e.Count
		return &exprJSON{Kind: "replicate", Width: e.Width, Operand: toExprJSON(e.Operand), Count: &c}
	case KindUnary:
		return &exprJSON{Kind: "unary", Width: e.Width, Op: unaryOpNames[e.UOp], Operand: toExprJSON(e.Operand)}
	case KindBinary:
		return &exprJSON{Kind: "binary", Width: e.Width, Op: binaryOpNames[e.BOp], A: toExprJSON(e.A), B: toExprJSON(e.B)}
	case KindMux:
		return &exprJSON{Kind: "mux", Width: e.Width, Cond: toExprJSON(e.Cond), IfZero: toExprJSON(e.IfZero), IfOne: toExprJSON(e.IfOne)}
	case KindCase:
		cases := make([]caseJSON, len(e.Cases))
		for i, c := range e.Cases {
			cases[i] = caseJSON{Key: c.Key, Value: toExprJSON(c.Value)}
		}
		return &exprJSON{Kind: "case", Width: e.Width, Selector: toExprJSON(e.Selector), Cases: cases, Default: toExprJSON(e.Default)}
	default:
		panic("bir: unknown expression kind")
	}
}

// MarshalJSON renders the expression as the canonical tagged tree.
func (e *Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(toExprJSON(e))
}

type componentJSON struct {
	Name      string     `json:"name"`
	Ports     []Port     `json:"ports"`
	Nets      []Net      `json:"nets"`
	Regs      []Reg      `json:"regs"`
	Assigns   []assignJSON `json:"assigns"`
	Processes []Process  `json:"processes"`
	Memories  []Memory   `json:"memories"`
	Instances []Instance `json:"instances"`
}

type assignJSON struct {
	LHS  string `json:"lhs"`
	Expr *Expr  `json:"expr"`
}

// ToJSON renders c as the canonical diagnostic JSON document (spec §6).
func (c *Component) ToJSON() ([]byte, error) {
	doc := componentJSON{
		Name: c.Name, Ports: c.Ports, Nets: c.Nets, Regs: c.Regs,
		Processes: c.Processes, Memories: c.Memories, Instances: c.Instances,
	}
	for _, a := range c.Assigns {
		doc.Assigns = append(doc.Assigns, assignJSON{LHS: a.LHS, Expr: a.Expr})
	}
	return json.MarshalIndent(doc, "", "  ")
}
