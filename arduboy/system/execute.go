package system

import (
	"github.com/valerio/arduboy-emu/arduboy/cpu"
	"github.com/valerio/arduboy-emu/arduboy/memory"
)

// Execute runs one decoded instruction fetched from instrPC, leaving
// s.CPU.PC pointing at whatever word address should execute next (either
// instrPC+inst.Size, or a jump/branch/call/return target) and returns the
// instruction's cycle cost. Memory-mapped I/O goes through ReadData/
// WriteData so peripheral side effects fire exactly as they would for a
// real bus access; PUSH/POP/CALL/RET touch the stack directly via
// Mem.ReadRaw/WriteRaw, matching how the stack is plain SRAM with no
// peripheral behind it.
func (s *System) Execute(inst cpu.Instruction, instrPC uint32) uint8 {
	next := instrPC + uint32(inst.Size)
	s.CPU.PC = next // default fallthrough; branches/jumps overwrite below
	mem := s.Mem

	switch inst.Op {
	case cpu.OpNop, cpu.Unknown:
		return 1

	case cpu.OpAdd:
		rd, rr := mem.Reg(inst.Rd), mem.Reg(inst.Rr)
		r := rd + rr
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsAdd(rd, rr, r)
		return 1

	case cpu.OpAdc:
		rd, rr := mem.Reg(inst.Rd), mem.Reg(inst.Rr)
		r := rd + rr + b2u8(s.CPU.Flag(cpu.FlagC))
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsAdd(rd, rr, r)
		return 1

	case cpu.OpAdiw:
		before := mem.RegPair(inst.Pair)
		after := before + uint16(inst.K)
		mem.SetRegPair(inst.Pair, after)
		s.CPU.FlagsAdiw(before, after)
		return 2

	case cpu.OpSub:
		rd, rr := mem.Reg(inst.Rd), mem.Reg(inst.Rr)
		r := rd - rr
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsSub(rd, rr, r, true)
		return 1

	case cpu.OpSubi:
		rd := mem.Reg(inst.Rd)
		r := rd - inst.K
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsSub(rd, inst.K, r, true)
		return 1

	case cpu.OpSbc:
		rd, rr := mem.Reg(inst.Rd), mem.Reg(inst.Rr)
		r := rd - rr - b2u8(s.CPU.Flag(cpu.FlagC))
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsSub(rd, rr, r, false)
		return 1

	case cpu.OpSbci:
		rd := mem.Reg(inst.Rd)
		r := rd - inst.K - b2u8(s.CPU.Flag(cpu.FlagC))
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsSub(rd, inst.K, r, false)
		return 1

	case cpu.OpSbiw:
		before := mem.RegPair(inst.Pair)
		after := before - uint16(inst.K)
		mem.SetRegPair(inst.Pair, after)
		s.CPU.FlagsSbiw(before, after)
		return 2

	case cpu.OpAnd, cpu.OpTst:
		rr := inst.Rr
		if inst.Op == cpu.OpTst {
			rr = inst.Rd
		}
		r := mem.Reg(inst.Rd) & mem.Reg(rr)
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsLogic(r)
		return 1

	case cpu.OpAndi:
		r := mem.Reg(inst.Rd) & inst.K
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsLogic(r)
		return 1

	case cpu.OpOr:
		r := mem.Reg(inst.Rd) | mem.Reg(inst.Rr)
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsLogic(r)
		return 1

	case cpu.OpOri:
		r := mem.Reg(inst.Rd) | inst.K
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsLogic(r)
		return 1

	case cpu.OpEor:
		r := mem.Reg(inst.Rd) ^ mem.Reg(inst.Rr)
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsLogic(r)
		return 1

	case cpu.OpCom:
		r := 0xFF - mem.Reg(inst.Rd)
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsLogic(r)
		s.CPU.SetFlag(cpu.FlagC, true)
		return 1

	case cpu.OpNeg:
		rd := mem.Reg(inst.Rd)
		r := 0 - rd
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsSub(0, rd, r, true)
		s.CPU.SetFlag(cpu.FlagC, r != 0)
		return 1

	case cpu.OpInc:
		r := mem.Reg(inst.Rd) + 1
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsIncDec(r, true)
		return 1

	case cpu.OpDec:
		r := mem.Reg(inst.Rd) - 1
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsIncDec(r, false)
		return 1

	case cpu.OpMul:
		r := uint16(mem.Reg(inst.Rd)) * uint16(mem.Reg(inst.Rr))
		setRegPairRaw(mem, 0, r)
		s.CPU.SetFlag(cpu.FlagC, r&0x8000 != 0)
		s.CPU.SetFlag(cpu.FlagZ, r == 0)
		return 2

	case cpu.OpMuls:
		r := int16(int8(mem.Reg(inst.Rd))) * int16(int8(mem.Reg(inst.Rr)))
		setRegPairRaw(mem, 0, uint16(r))
		s.CPU.SetFlag(cpu.FlagC, uint16(r)&0x8000 != 0)
		s.CPU.SetFlag(cpu.FlagZ, r == 0)
		return 2

	case cpu.OpMulsu:
		r := int16(int8(mem.Reg(inst.Rd))) * int16(mem.Reg(inst.Rr))
		setRegPairRaw(mem, 0, uint16(r))
		s.CPU.SetFlag(cpu.FlagC, uint16(r)&0x8000 != 0)
		s.CPU.SetFlag(cpu.FlagZ, r == 0)
		return 2

	case cpu.OpFmul:
		r := uint16(mem.Reg(inst.Rd)) * uint16(mem.Reg(inst.Rr))
		s.CPU.SetFlag(cpu.FlagC, r&0x8000 != 0)
		r <<= 1
		setRegPairRaw(mem, 0, r)
		s.CPU.SetFlag(cpu.FlagZ, r == 0)
		return 2

	case cpu.OpFmuls:
		r := int16(int8(mem.Reg(inst.Rd))) * int16(int8(mem.Reg(inst.Rr)))
		s.CPU.SetFlag(cpu.FlagC, uint16(r)&0x8000 != 0)
		r <<= 1
		setRegPairRaw(mem, 0, uint16(r))
		s.CPU.SetFlag(cpu.FlagZ, r == 0)
		return 2

	case cpu.OpCp:
		rd, rr := mem.Reg(inst.Rd), mem.Reg(inst.Rr)
		s.CPU.FlagsSub(rd, rr, rd-rr, true)
		return 1

	case cpu.OpCpc:
		rd, rr := mem.Reg(inst.Rd), mem.Reg(inst.Rr)
		r := rd - rr - b2u8(s.CPU.Flag(cpu.FlagC))
		s.CPU.FlagsSub(rd, rr, r, false)
		return 1

	case cpu.OpCpi:
		rd := mem.Reg(inst.Rd)
		s.CPU.FlagsSub(rd, inst.K, rd-inst.K, true)
		return 1

	case cpu.OpMov:
		mem.SetReg(inst.Rd, mem.Reg(inst.Rr))
		return 1

	case cpu.OpMovw:
		mem.SetReg(inst.Rd, mem.Reg(inst.Rr))
		mem.SetReg(inst.Rd+1, mem.Reg(inst.Rr+1))
		return 1

	case cpu.OpLdi:
		mem.SetReg(inst.Rd, inst.K)
		return 1

	case cpu.OpLds:
		mem.SetReg(inst.Rd, s.ReadData(inst.A))
		return 2

	case cpu.OpSts:
		s.WriteData(inst.A, mem.Reg(inst.Rr))
		return 2

	case cpu.OpLd:
		addr := s.resolvePtr(inst.Ptr, inst.Mode, inst.K)
		mem.SetReg(inst.Rd, s.ReadData(addr))
		return 2

	case cpu.OpSt:
		addr := s.resolvePtr(inst.Ptr, inst.Mode, inst.K)
		s.WriteData(addr, mem.Reg(inst.Rr))
		return 2

	case cpu.OpLpm:
		addr := mem.Z()
		mem.SetReg(inst.Rd, mem.ReadFlashByte(uint32(addr)))
		if inst.Mode == cpu.AddrPostInc {
			mem.SetZ(addr + 1)
		}
		return 3

	case cpu.OpElpm:
		addr := uint32(s.CPU.RAMPZ)<<16 | uint32(mem.Z())
		mem.SetReg(inst.Rd, mem.ReadFlashByte(addr))
		if inst.Mode == cpu.AddrPostInc {
			z := mem.Z() + 1
			mem.SetZ(z)
			if z == 0 {
				s.CPU.RAMPZ++
			}
		}
		return 3

	case cpu.OpIn:
		mem.SetReg(inst.Rd, s.ReadData(inst.A))
		return 1

	case cpu.OpOut:
		s.WriteData(inst.A, mem.Reg(inst.Rr))
		return 1

	case cpu.OpPush:
		mem.WriteRaw(s.CPU.SP, mem.Reg(inst.Rr))
		s.CPU.SP--
		s.syncSP()
		return 2

	case cpu.OpPop:
		s.CPU.SP++
		mem.SetReg(inst.Rd, mem.ReadRaw(s.CPU.SP))
		s.syncSP()
		return 2

	case cpu.OpRjmp:
		s.CPU.PC = uint32(int32(next) + inst.Off)
		return 2

	case cpu.OpJmp:
		s.CPU.PC = inst.K22
		return 3

	case cpu.OpRcall:
		s.pushPC(next)
		s.CPU.PC = uint32(int32(next) + inst.Off)
		return 3

	case cpu.OpCall:
		s.pushPC(next)
		s.CPU.PC = inst.K22
		return 4

	case cpu.OpRet:
		s.CPU.PC = s.popPC()
		return 4

	case cpu.OpReti:
		s.CPU.PC = s.popPC()
		s.CPU.SetFlag(cpu.FlagI, true)
		mem.Data[cpu.SREGAddr] = s.CPU.SREG
		return 4

	case cpu.OpIjmp:
		s.CPU.PC = uint32(mem.Z())
		return 2

	case cpu.OpEijmp:
		s.CPU.PC = uint32(s.CPU.EIND)<<16 | uint32(mem.Z())
		return 2

	case cpu.OpIcall:
		s.pushPC(next)
		s.CPU.PC = uint32(mem.Z())
		return 3

	case cpu.OpEicall:
		s.pushPC(next)
		if s.CpuType == ATmega328p {
			// The 328P has no EIND; EICALL degrades to plain ICALL semantics.
			s.CPU.PC = uint32(mem.Z())
		} else {
			s.CPU.PC = uint32(s.CPU.EIND)<<16 | uint32(mem.Z())
		}
		return 3

	case cpu.OpBrbs:
		if s.CPU.Flag(uint(inst.Bit)) {
			s.CPU.PC = uint32(int32(next) + inst.Off)
			return 2
		}
		return 1

	case cpu.OpBrbc:
		if !s.CPU.Flag(uint(inst.Bit)) {
			s.CPU.PC = uint32(int32(next) + inst.Off)
			return 2
		}
		return 1

	case cpu.OpCpse:
		if mem.Reg(inst.Rd) == mem.Reg(inst.Rr) {
			return s.skip(next)
		}
		return 1

	case cpu.OpSbrc:
		if mem.Reg(inst.Rd)&(1<<inst.Bit) == 0 {
			return s.skip(next)
		}
		return 1

	case cpu.OpSbrs:
		if mem.Reg(inst.Rd)&(1<<inst.Bit) != 0 {
			return s.skip(next)
		}
		return 1

	case cpu.OpSbic:
		if s.ReadData(inst.A)&(1<<inst.Bit) == 0 {
			return s.skip(next)
		}
		return 1

	case cpu.OpSbis:
		if s.ReadData(inst.A)&(1<<inst.Bit) != 0 {
			return s.skip(next)
		}
		return 1

	case cpu.OpSbi:
		s.WriteBit(inst.A, inst.Bit, true)
		return 2

	case cpu.OpCbi:
		s.WriteBit(inst.A, inst.Bit, false)
		return 2

	case cpu.OpBld:
		r := mem.Reg(inst.Rd)
		if s.CPU.Flag(cpu.FlagT) {
			r |= 1 << inst.Bit
		} else {
			r &^= 1 << inst.Bit
		}
		mem.SetReg(inst.Rd, r)
		return 1

	case cpu.OpBst:
		s.CPU.SetFlag(cpu.FlagT, mem.Reg(inst.Rd)&(1<<inst.Bit) != 0)
		return 1

	case cpu.OpBset:
		s.CPU.SetFlag(uint(inst.Bit), true)
		mem.Data[cpu.SREGAddr] = s.CPU.SREG
		return 1

	case cpu.OpBclr:
		s.CPU.SetFlag(uint(inst.Bit), false)
		mem.Data[cpu.SREGAddr] = s.CPU.SREG
		return 1

	case cpu.OpLsr:
		rd := mem.Reg(inst.Rd)
		carry := rd&1 != 0
		r := rd >> 1
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsShift(r, carry)
		return 1

	case cpu.OpRor:
		rd := mem.Reg(inst.Rd)
		carry := rd&1 != 0
		r := rd >> 1
		if s.CPU.Flag(cpu.FlagC) {
			r |= 0x80
		}
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsShift(r, carry)
		return 1

	case cpu.OpAsr:
		rd := mem.Reg(inst.Rd)
		carry := rd&1 != 0
		r := rd>>1 | rd&0x80
		mem.SetReg(inst.Rd, r)
		s.CPU.FlagsShift(r, carry)
		return 1

	case cpu.OpSwap:
		rd := mem.Reg(inst.Rd)
		mem.SetReg(inst.Rd, rd<<4|rd>>4)
		return 1

	case cpu.OpSleep:
		s.CPU.Sleeping = true
		return 1

	case cpu.OpWdr:
		return 1

	case cpu.OpBreak:
		s.BreakpointHit = true
		return 1
	}

	return 1
}

// resolvePtr computes the data-space address an LD/ST accesses and advances
// the backing X/Y/Z register pair for post-increment/pre-decrement modes,
// exactly as the datasheet orders it: pre-decrement happens before the
// access, post-increment after.
func (s *System) resolvePtr(ptr uint8, mode uint8, q uint8) uint16 {
	mem := s.Mem
	var get func() uint16
	var set func(uint16)
	switch ptr {
	case cpu.PtrX:
		get, set = mem.X, mem.SetX
	case cpu.PtrY:
		get, set = mem.Y, mem.SetY
	default:
		get, set = mem.Z, mem.SetZ
	}

	switch mode {
	case cpu.AddrPreDec:
		v := get() - 1
		set(v)
		return v
	case cpu.AddrPostInc:
		v := get()
		set(v + 1)
		return v
	case cpu.AddrDisp:
		return get() + uint16(q)
	default:
		return get()
	}
}

// pushPC pushes a return address onto the stack, high byte first, matching
// the datasheet's PC push order for RCALL/CALL/ICALL/EICALL.
func (s *System) pushPC(pc uint32) {
	mem := s.Mem
	mem.WriteRaw(s.CPU.SP, uint8(pc>>8))
	mem.WriteRaw(s.CPU.SP-1, uint8(pc))
	s.CPU.SP -= 2
	s.syncSP()
}

// popPC pops a return address pushed by pushPC.
func (s *System) popPC() uint32 {
	mem := s.Mem
	s.CPU.SP++
	lo := mem.ReadRaw(s.CPU.SP)
	s.CPU.SP++
	hi := mem.ReadRaw(s.CPU.SP)
	s.syncSP()
	return uint32(hi)<<8 | uint32(lo)
}

// syncSP mirrors CPU.SP into the memory-mapped SPL/SPH registers, which
// games read directly (e.g. to reserve stack space on entry).
func (s *System) syncSP() {
	s.Mem.Data[cpu.SPLAddr] = uint8(s.CPU.SP & 0xFF)
	s.Mem.Data[cpu.SPHAddr] = uint8(s.CPU.SP >> 8)
}

// skip advances past the instruction at fallthroughPC, accounting for 2-word
// forms (LDS/STS/JMP/CALL) so CPSE/SBRC/SBRS/SBIC/SBIS skip the whole next
// instruction rather than landing mid-opcode.
func (s *System) skip(fallthroughPC uint32) uint8 {
	word := s.Mem.ReadProgramWord(fallthroughPC)
	next := s.Mem.ReadProgramWord(fallthroughPC + 1)
	inst := cpu.Decode(word, next)
	s.CPU.PC = fallthroughPC + uint32(inst.Size)
	if inst.Size == 2 {
		return 3
	}
	return 2
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// setRegPairRaw writes a 16-bit value across two consecutive raw register
// numbers, low byte first — used for MUL/MULS/MULSU/FMUL/FMULS's R1:R0
// result, which isn't one of memory.Memory's named pairs (those start at
// R24).
func setRegPairRaw(mem *memory.Memory, lowReg uint8, v uint16) {
	mem.SetReg(lowReg, uint8(v&0xFF))
	mem.SetReg(lowReg+1, uint8(v>>8))
}
