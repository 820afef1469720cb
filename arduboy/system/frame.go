package system

import (
	"fmt"

	"github.com/valerio/arduboy-emu/arduboy/cpu"
	"github.com/valerio/arduboy-emu/arduboy/disasm"
)

// RunFrame advances the machine by one display frame's worth of cycles
// (CyclesPerFrame, 216000 cycles, about 74Hz at 16MHz), stopping
// early if a breakpoint is hit. Returns true if it ran to completion, false
// if a breakpoint stopped it partway through.
func (s *System) RunFrame() bool {
	s.BreakpointHit = false
	startTick := s.CPU.Tick
	lastPeripheralTick := startTick

	for s.CPU.Tick-startTick < CyclesPerFrame {
		if s.Breakpoints[s.CPU.PC] {
			s.BreakpointHit = true
			return false
		}

		if s.CPU.Sleeping {
			s.CPU.Tick += 4
		} else {
			s.step()
			if s.BreakpointHit {
				return false
			}
		}

		if s.CPU.Tick-lastPeripheralTick >= 128 {
			s.flushSPI()
			s.updatePeripherals()
			lastPeripheralTick = s.CPU.Tick
		}
	}

	s.flushSPI()
	s.updatePeripherals()
	s.FrameCount++
	return true
}

// step fetches, decodes, profiles, and executes exactly one instruction.
func (s *System) step() {
	pc := s.CPU.PC
	word := s.Mem.ReadProgramWord(pc)
	var nextWord uint16
	if pc+1 < uint32(len(s.Mem.Flash))/2 {
		nextWord = s.Mem.ReadProgramWord(pc + 1)
	}
	inst := cpu.Decode(word, nextWord)

	if s.Profiler.Enabled {
		s.Profiler.Record(uint16(pc))
		switch inst.Op {
		case cpu.OpCall, cpu.OpRcall, cpu.OpIcall, cpu.OpEicall:
			s.Profiler.RecordCall(uint16(pc), uint16(s.callTarget(inst, pc)))
		case cpu.OpRet, cpu.OpReti:
			s.Profiler.RecordRet()
		}
	}

	cycles := s.Execute(inst, pc)
	s.CPU.Tick += uint64(cycles)
}

// callTarget resolves the destination word address of a call instruction,
// purely for call-graph bookkeeping (RCALL's target depends on the
// instruction's own address, which Execute already has but the profiler
// hook here needs independently before Execute mutates PC).
func (s *System) callTarget(inst cpu.Instruction, pc uint32) uint32 {
	switch inst.Op {
	case cpu.OpCall:
		return inst.K22
	case cpu.OpRcall:
		return uint32(int32(pc+uint32(inst.Size)) + inst.Off)
	case cpu.OpIcall, cpu.OpEicall:
		return uint32(s.Mem.Z())
	}
	return 0
}

// StepOne single-steps exactly one instruction (ignoring the sleep/interrupt
// machinery RunFrame drives) and returns its disassembly, for the debugger's
// single-step command.
func (s *System) StepOne() string {
	pc := s.CPU.PC
	word := s.Mem.ReadProgramWord(pc)
	nextWord := s.Mem.ReadProgramWord(pc + 1)
	inst := cpu.Decode(word, nextWord)
	text := disasm.Disassemble(inst, pc)

	if s.Profiler.Enabled {
		s.Profiler.Record(uint16(pc))
	}
	cycles := s.Execute(inst, pc)
	s.CPU.Tick += uint64(cycles)

	return fmt.Sprintf("%04X: %s", pc*2, text)
}
