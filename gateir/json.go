package gateir

import "encoding/json"

// gateJSON and dffJSON mirror bir/json.go's discriminator-tagged
// approach, giving the Gate IR the same canonical diagnostic-dump
// shape spec §6 asks of the Behavioral IR.
type gateJSON struct {
	Type   string `json:"type"`
	Inputs []int  `json:"inputs,omitempty"`
	Output int    `json:"output"`
	Value  *uint8 `json:"value,omitempty"`
}

type dffJSON struct {
	D          int    `json:"d"`
	Q          int    `json:"q"`
	Clock      int    `json:"clock"`
	Reset      *int   `json:"reset,omitempty"`
	Enable     *int   `json:"enable,omitempty"`
	AsyncReset bool   `json:"async_reset"`
}

type namedGroupJSON struct {
	Name string `json:"name"`
	Nets []int  `json:"nets"`
}

type gateIRJSON struct {
	NetCount int              `json:"net_count"`
	Inputs   []namedGroupJSON `json:"inputs"`
	Outputs  []namedGroupJSON `json:"outputs"`
	Gates    []gateJSON       `json:"gates"`
	DFFs     []dffJSON        `json:"dffs"`
}

func toNamedGroupJSON(groups []NamedGroup) []namedGroupJSON {
	out := make([]namedGroupJSON, len(groups))
	for i, g := range groups {
		nets := make([]int, len(g.Nets))
		for j, n := range g.Nets {
			nets[j] = int(n)
		}
		out[i] = namedGroupJSON{Name: g.Name, Nets: nets}
	}
	return out
}

// MarshalJSON renders g as the canonical diagnostic document.
func (g *GateIR) MarshalJSON() ([]byte, error) {
	doc := gateIRJSON{
		NetCount: g.NetCount,
		Inputs:   toNamedGroupJSON(g.Inputs),
		Outputs:  toNamedGroupJSON(g.Outputs),
	}

	for _, gate := range g.Gates {
		inputs := make([]int, len(gate.Inputs))
		for i, n := range gate.Inputs {
			inputs[i] = int(n)
		}
		gj := gateJSON{Type: gate.Type.String(), Inputs: inputs, Output: int(gate.Output)}
		if gate.Type == GateConst {
			v := gate.Value
			gj.Value = &v
		}
		doc.Gates = append(doc.Gates, gj)
	}

	for _, d := range g.DFFs {
		dj := dffJSON{D: int(d.D), Q: int(d.Q), Clock: int(d.ClockNet), AsyncReset: d.AsyncReset}
		if d.ResetNet != NoNet {
			v := int(d.ResetNet)
			dj.Reset = &v
		}
		if d.EnableNet != NoNet {
			v := int(d.EnableNet)
			dj.Enable = &v
		}
		doc.DFFs = append(doc.DFFs, dj)
	}

	return json.Marshal(doc)
}
