package debug

// CPUState is a point-in-time view of the CPU's register file, for debug
// overlays that don't need a full system.System reference.
type CPUState struct {
	PC       uint32
	SP       uint16
	SREG     uint8
	Tick     uint64
	Sleeping bool
}

// MemorySnapshot is a window of data-space bytes for disassembly display.
type MemorySnapshot struct {
	StartAddr uint16
	Bytes     []uint8
}

// RunState mirrors the debugger's current run mode for display.
type RunState int

const (
	RunStateRunning RunState = iota
	RunStatePaused
	RunStateStepInstruction
	RunStateStepFrame
)

// Snapshot bundles the debug information a backend's overlay needs.
type Snapshot struct {
	CPU      CPUState
	Memory   *MemorySnapshot
	RunState RunState
}
