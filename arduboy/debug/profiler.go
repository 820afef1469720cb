package debug

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valerio/arduboy-emu/arduboy/cpu"
	"github.com/valerio/arduboy-emu/arduboy/disasm"
)

const callStackCap = 128

// callKey identifies one call-site edge in the call graph: the address of
// the CALL/RCALL/ICALL/EICALL instruction and the address it jumped to.
type callKey struct {
	from, to uint16
}

// Profiler samples executed program counters and call/return events to build
// a hotspot and call-graph report, the way a sampling profiler would, except
// here every instruction is recorded rather than sampled since the emulator
// already executes them one at a time.
type Profiler struct {
	Enabled         bool
	startTick       uint64
	stopTick        uint64
	PcHits          map[uint16]uint64
	TotalInstr      uint64
	TotalCycles     uint64
	callGraph       map[callKey]uint64
	callStack       []uint16
}

// NewProfiler constructs a disabled Profiler ready to Start.
func NewProfiler() *Profiler {
	return &Profiler{
		PcHits:    make(map[uint16]uint64),
		callGraph: make(map[callKey]uint64),
	}
}

// Start begins a profiling session at the given tick, resetting all counters.
func (p *Profiler) Start(tick uint64) {
	p.Enabled = true
	p.startTick = tick
	p.PcHits = make(map[uint16]uint64)
	p.callGraph = make(map[callKey]uint64)
	p.callStack = p.callStack[:0]
	p.TotalInstr = 0
	p.TotalCycles = 0
}

// Stop ends the session, recording the final tick for cycle accounting.
func (p *Profiler) Stop(tick uint64) {
	p.Enabled = false
	p.stopTick = tick
	p.TotalCycles = p.stopTick - p.startTick
}

// Record logs one instruction's execution at pc. No-op when disabled, so
// callers can unconditionally call it on every step without a branch at the
// call site mattering for correctness.
func (p *Profiler) Record(pc uint16) {
	if !p.Enabled {
		return
	}
	p.PcHits[pc]++
	p.TotalInstr++
}

// RecordCall logs a CALL/RCALL/ICALL/EICALL from pc to target, pushing the
// call site (pc) onto a capped call stack. The cap guards against runaway
// recursion or a misidentified return blowing up memory use indefinitely.
func (p *Profiler) RecordCall(pc, target uint16) {
	if !p.Enabled {
		return
	}
	p.callGraph[callKey{from: pc, to: target}]++
	if len(p.callStack) < callStackCap {
		p.callStack = append(p.callStack, pc)
	}
}

// RecordRet logs a RET/RETI, popping the call stack.
func (p *Profiler) RecordRet() {
	if !p.Enabled {
		return
	}
	if len(p.callStack) > 0 {
		p.callStack = p.callStack[:len(p.callStack)-1]
	}
}

// UniqueAddresses returns the count of distinct program counters hit during
// the session, a rough proxy for code coverage.
func (p *Profiler) UniqueAddresses() int {
	return len(p.PcHits)
}

type hotspot struct {
	pc    uint16
	count uint64
}

// TopHits returns the n most frequently executed program counters, most hit
// first.
func (p *Profiler) TopHits(n int) []hotspot {
	hits := make([]hotspot, 0, len(p.PcHits))
	for pc, count := range p.PcHits {
		hits = append(hits, hotspot{pc: pc, count: count})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].pc < hits[j].pc
	})
	if n < len(hits) {
		hits = hits[:n]
	}
	return hits
}

type callEdge struct {
	from, to uint16
	count    uint64
}

// TopCalls returns the n most frequently taken call edges, most taken first.
func (p *Profiler) TopCalls(n int) []callEdge {
	edges := make([]callEdge, 0, len(p.callGraph))
	for k, count := range p.callGraph {
		edges = append(edges, callEdge{from: k.from, to: k.to, count: count})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].count != edges[j].count {
			return edges[i].count > edges[j].count
		}
		return edges[i].from < edges[j].from
	})
	if n < len(edges) {
		edges = edges[:n]
	}
	return edges
}

// block is a contiguous-or-near-contiguous run of hit program counters,
// treated as one basic block for the flat profile.
type block struct {
	Start, End uint16
	Hits       uint64
}

// FlatProfile groups PcHits into basic-block ranges: consecutive addresses
// (or addresses separated by a gap of at most 2 words, covering a typical
// single skipped instruction) are merged into one block, sorted by address.
func (p *Profiler) FlatProfile() []block {
	if len(p.PcHits) == 0 {
		return nil
	}
	pcs := make([]uint16, 0, len(p.PcHits))
	for pc := range p.PcHits {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })

	var blocks []block
	cur := block{Start: pcs[0], End: pcs[0], Hits: p.PcHits[pcs[0]]}
	for _, pc := range pcs[1:] {
		if pc-cur.End <= 2 {
			cur.End = pc
			cur.Hits += p.PcHits[pc]
			continue
		}
		blocks = append(blocks, cur)
		cur = block{Start: pc, End: pc, Hits: p.PcHits[pc]}
	}
	blocks = append(blocks, cur)
	return blocks
}

// Report renders a full text profiling report: hotspot disassembly, call
// graph, and basic-block breakdown, for printing from a CLI profile command.
func (p *Profiler) Report(flash []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "profiled %d instructions over %d cycles across %d unique addresses\n",
		p.TotalInstr, p.TotalCycles, p.UniqueAddresses())

	b.WriteString("\ntop hotspots:\n")
	for _, h := range p.TopHits(20) {
		text := disassembleAt(flash, h.pc)
		fmt.Fprintf(&b, "  0x%04X  %-28s %d hits\n", h.pc*2, text, h.count)
	}

	b.WriteString("\ntop call edges:\n")
	for _, e := range p.TopCalls(20) {
		fmt.Fprintf(&b, "  0x%04X -> 0x%04X  %d calls\n", e.from*2, e.to*2, e.count)
	}

	b.WriteString("\nbasic blocks:\n")
	for _, blk := range p.FlatProfile() {
		fmt.Fprintf(&b, "  0x%04X-0x%04X  %d hits\n", blk.Start*2, blk.End*2, blk.Hits)
	}

	return strings.TrimRight(b.String(), "\n")
}

// disassembleAt decodes and disassembles the single instruction at word
// address pc within flash, for hotspot display in the text report.
func disassembleAt(flash []byte, pc uint16) string {
	byteAddr := int(pc) * 2
	if byteAddr+3 >= len(flash) {
		return "???"
	}
	word := uint16(flash[byteAddr]) | uint16(flash[byteAddr+1])<<8
	next := uint16(flash[byteAddr+2]) | uint16(flash[byteAddr+3])<<8
	inst := cpu.Decode(word, next)
	return disasm.Disassemble(inst, uint32(pc))
}
