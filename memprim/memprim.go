// Package memprim builds ready-to-use bir.Component memory arrays: RAM,
// ROM and register files. It generalizes the flat register array a core
// keeps inline (sarchlab/zeonica's coreState.Registers) into a reusable
// primitive alongside RAM/ROM, in the shape of a component that
// component.New and lower.Lower both accept directly, with no
// Instances to flatten.
package memprim

import (
	"fmt"

	"github.com/sarchlab/rhdl/bir"
)

// addrWidth returns the number of address bits needed to index depth
// distinct words, minimum 1.
func addrWidth(depth uint64) uint {
	if depth <= 1 {
		return 1
	}
	w := uint(0)
	for (uint64(1) << w) < depth {
		w++
	}
	return w
}

// RAMConfig configures a RAM generated by RAM.
type RAMConfig struct {
	Name     string
	Depth    uint64
	Width    uint
	SyncRead bool // registered read output vs. combinational mux tree

	ReadPorts  int // default 1
	WritePorts int // default 1

	InitialContents []uint64
}

// RAM builds a single bir.Memory wrapped in its own component, with one
// clock port shared by every write port and every synchronous read
// port. Port names follow the teacher's "w"/"r" operand prefixing
// (writeOperand/readOperand in core/core.go): waddrN/wdataN/wenN for
// write port N, raddrN/rdataN for read port N, with the numeric suffix
// dropped when there is exactly one of that kind.
func RAM(cfg RAMConfig) *bir.Component {
	reads := cfg.ReadPorts
	if reads == 0 {
		reads = 1
	}
	writes := cfg.WritePorts
	if writes == 0 {
		writes = 1
	}
	aw := addrWidth(cfg.Depth)

	c := &bir.Component{
		Name: cfg.Name,
		Ports: []bir.Port{
			{Name: "clk", Dir: bir.DirIn, Width: 1},
		},
	}

	mem := bir.Memory{
		Name:            "mem",
		Depth:           cfg.Depth,
		Width:           cfg.Width,
		InitialContents: cfg.InitialContents,
	}

	for i := 0; i < writes; i++ {
		addrName, dataName, enName := portTriple("waddr", "wdata", "wen", i, writes)
		c.Ports = append(c.Ports,
			bir.Port{Name: addrName, Dir: bir.DirIn, Width: aw},
			bir.Port{Name: dataName, Dir: bir.DirIn, Width: cfg.Width},
			bir.Port{Name: enName, Dir: bir.DirIn, Width: 1},
		)
		mem.Writes = append(mem.Writes, bir.MemoryWritePort{
			AddrNet: addrName, DataNet: dataName, EnableNet: enName, ClockNet: "clk",
		})
	}

	for i := 0; i < reads; i++ {
		addrName, dataName := portPair("raddr", "rdata", i, reads)
		c.Ports = append(c.Ports,
			bir.Port{Name: addrName, Dir: bir.DirIn, Width: aw},
			bir.Port{Name: dataName, Dir: bir.DirOut, Width: cfg.Width},
		)
		mem.Reads = append(mem.Reads, bir.MemoryReadPort{
			AddrNet: addrName, DataNet: dataName, Sync: cfg.SyncRead, ClockNet: "clk",
		})
	}

	c.Memories = []bir.Memory{mem}
	return c
}

// ROM builds a read-only memory: contents fixed at construction,
// exposed through one or more asynchronous read ports and no clock.
func ROM(name string, width uint, contents []uint64, readPorts int) *bir.Component {
	if readPorts == 0 {
		readPorts = 1
	}
	aw := addrWidth(uint64(len(contents)))

	c := &bir.Component{Name: name}
	mem := bir.Memory{
		Name:            "mem",
		Depth:           uint64(len(contents)),
		Width:           width,
		InitialContents: contents,
		ReadOnly:        true,
	}

	for i := 0; i < readPorts; i++ {
		addrName, dataName := portPair("addr", "data", i, readPorts)
		c.Ports = append(c.Ports,
			bir.Port{Name: addrName, Dir: bir.DirIn, Width: aw},
			bir.Port{Name: dataName, Dir: bir.DirOut, Width: width},
		)
		mem.Reads = append(mem.Reads, bir.MemoryReadPort{AddrNet: addrName, DataNet: dataName, Sync: false})
	}

	c.Memories = []bir.Memory{mem}
	return c
}

// RegisterFileConfig configures a RegisterFile.
type RegisterFileConfig struct {
	Name       string
	Depth      uint64 // register count, e.g. 64 the way core/builder.go sizes Registers
	Width      uint
	ReadPorts  int // default 2, the usual two-source-operand shape
	WritePorts int // default 1
}

// RegisterFile builds a multi-ported register array: combinational
// (asynchronous) reads, one synchronous write port per requested
// writer, gated by its own write-enable net. This is the general
// primitive coreState.Registers was a fixed, single-core instance of.
func RegisterFile(cfg RegisterFileConfig) *bir.Component {
	rc := cfg
	if rc.ReadPorts == 0 {
		rc.ReadPorts = 2
	}
	if rc.WritePorts == 0 {
		rc.WritePorts = 1
	}
	ram := RAM(RAMConfig{
		Name:       rc.Name,
		Depth:      rc.Depth,
		Width:      rc.Width,
		SyncRead:   false,
		ReadPorts:  rc.ReadPorts,
		WritePorts: rc.WritePorts,
	})
	return ram
}

// portPair names a read-style (or ROM) address/data port pair, dropping
// the numeric suffix when there is only one such port.
func portPair(addrPrefix, dataPrefix string, i, total int) (addrName, dataName string) {
	if total == 1 {
		return addrPrefix, dataPrefix
	}
	return fmt.Sprintf("%s%d", addrPrefix, i), fmt.Sprintf("%s%d", dataPrefix, i)
}

// portTriple names a write-port addr/data/enable group, dropping the
// numeric suffix when there is only one write port.
func portTriple(addrPrefix, dataPrefix, enPrefix string, i, total int) (addrName, dataName, enName string) {
	if total == 1 {
		return addrPrefix, dataPrefix, enPrefix
	}
	return fmt.Sprintf("%s%d", addrPrefix, i), fmt.Sprintf("%s%d", dataPrefix, i), fmt.Sprintf("%s%d", enPrefix, i)
}
