package lower

import (
	"github.com/sarchlab/rhdl/bir"
	"github.com/sarchlab/rhdl/gateir"
	"github.com/sarchlab/rhdl/rtlerr"
)

// lowerMemory allocates depth*width flip-flops (or, for a read-only
// memory with constant contents, depth*width CONST gates), a write-
// port mux chain per address, and either an address-indexed mux chain
// (async read) or that chain feeding a pipeline register (sync read)
// (spec §4.4.10).
func (lw *lowerer) lowerMemory(m bir.Memory) error {
	width := int(m.Width)
	qNets := make([][]gateir.NetIndex, m.Depth)

	if len(m.Writes) == 0 {
		for a := uint64(0); a < m.Depth; a++ {
			var v uint64
			if a < uint64(len(m.InitialContents)) {
				v = m.InitialContents[a]
			}
			bits := make([]gateir.NetIndex, width)
			for b := 0; b < width; b++ {
				bits[b] = lw.constBit(uint8((v >> uint(b)) & 1))
			}
			qNets[a] = bits
		}
	} else {
		clockBits, ok := lw.nets[m.Writes[0].ClockNet]
		if !ok {
			return &rtlerr.UnknownPort{Path: lw.name + "." + m.Writes[0].ClockNet}
		}
		clock := clockBits[0]

		for _, w := range m.Writes {
			if n := len(lw.nets[w.EnableNet]); n != 1 {
				return &rtlerr.WidthViolation{Path: lw.name + "." + w.EnableNet, Declared: 1, Observed: uint(n)}
			}
		}

		for a := uint64(0); a < m.Depth; a++ {
			qBits := lw.alloc(uint(width))
			qNets[a] = qBits

			d := append([]gateir.NetIndex{}, qBits...) // default: hold current value
			for _, w := range m.Writes {
				addrBits := lw.nets[w.AddrNet]
				match := lw.equalsConst(addrBits, a)
				enable := lw.nets[w.EnableNet][0]
				cond := lw.binGate(gateir.GateAnd, match, enable)
				dataBits := lw.nets[w.DataNet]
				for b := 0; b < width; b++ {
					d[b] = lw.muxGate(cond, d[b], dataBits[b])
				}
			}

			for b := 0; b < width; b++ {
				lw.addDFF(d[b], qBits[b], clock, gateir.NoNet, false)
			}
		}
	}

	for _, r := range m.Reads {
		addrBits := lw.nets[r.AddrNet]
		result := lw.selectByAddress(qNets, addrBits, width)

		if r.Sync {
			clockBits, ok := lw.nets[r.ClockNet]
			if !ok {
				return &rtlerr.UnknownPort{Path: lw.name + "." + r.ClockNet}
			}
			regQ := lw.alloc(uint(width))
			for b := 0; b < width; b++ {
				lw.addDFF(result[b], regQ[b], clockBits[0], gateir.NoNet, false)
			}
			lw.bindNamed(r.DataNet, regQ)
		} else {
			lw.bindNamed(r.DataNet, result)
		}
	}

	return nil
}

// selectByAddress folds qNets into one width-bit result via a chain of
// address-equality-gated 2:1 muxes (spec §4.4.10's "address-indexed
// multiplexer tree").
func (lw *lowerer) selectByAddress(qNets [][]gateir.NetIndex, addrBits []gateir.NetIndex, width int) []gateir.NetIndex {
	result := qNets[0]
	for a := 1; a < len(qNets); a++ {
		match := lw.equalsConst(addrBits, uint64(a))
		next := make([]gateir.NetIndex, width)
		for b := 0; b < width; b++ {
			next[b] = lw.muxGate(match, result[b], qNets[a][b])
		}
		result = next
	}
	return result
}
