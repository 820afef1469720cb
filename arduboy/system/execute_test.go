package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/arduboy-emu/arduboy/cpu"
)

func TestExecuteLdiAndAdd(t *testing.T) {
	s := NewSystem(ATmega32u4)

	cycles := s.Execute(cpu.Instruction{Op: cpu.OpLdi, Size: 1, Rd: 16, K: 10}, 0)
	assert.Equal(t, uint8(1), cycles)
	assert.Equal(t, uint8(10), s.Mem.Reg(16))
	assert.Equal(t, uint32(1), s.CPU.PC)

	s.Execute(cpu.Instruction{Op: cpu.OpLdi, Size: 1, Rd: 17, K: 5}, 1)
	s.Execute(cpu.Instruction{Op: cpu.OpAdd, Size: 1, Rd: 16, Rr: 17}, 2)

	assert.Equal(t, uint8(15), s.Mem.Reg(16))
	assert.False(t, s.CPU.Flag(cpu.FlagZ))
	assert.False(t, s.CPU.Flag(cpu.FlagC))
}

func TestExecuteSubiSetsZeroFlag(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Mem.SetReg(16, 5)
	s.Execute(cpu.Instruction{Op: cpu.OpSubi, Size: 1, Rd: 16, K: 5}, 0)
	assert.Equal(t, uint8(0), s.Mem.Reg(16))
	assert.True(t, s.CPU.Flag(cpu.FlagZ))
}

func TestExecuteRjmpSetsPC(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Execute(cpu.Instruction{Op: cpu.OpRjmp, Size: 1, Off: 10}, 100)
	assert.Equal(t, uint32(111), s.CPU.PC)
}

func TestExecutePushPopRoundTrips(t *testing.T) {
	s := NewSystem(ATmega32u4)
	spBefore := s.CPU.SP
	s.Mem.SetReg(5, 0x77)

	s.Execute(cpu.Instruction{Op: cpu.OpPush, Size: 1, Rr: 5}, 0)
	assert.Equal(t, spBefore-1, s.CPU.SP)

	s.Execute(cpu.Instruction{Op: cpu.OpPop, Size: 1, Rd: 6}, 1)
	assert.Equal(t, spBefore, s.CPU.SP)
	assert.Equal(t, uint8(0x77), s.Mem.Reg(6))
}

func TestExecuteCallAndRet(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Execute(cpu.Instruction{Op: cpu.OpCall, Size: 2, K22: 0x200}, 50)
	assert.Equal(t, uint32(0x200), s.CPU.PC)

	s.Execute(cpu.Instruction{Op: cpu.OpRet, Size: 1}, 0x200)
	assert.Equal(t, uint32(52), s.CPU.PC) // 50 + call's own 2-word size
}

func TestExecuteInOutRoutesThroughBus(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Mem.SetReg(0, 0xFF)
	s.Execute(cpu.Instruction{Op: cpu.OpOut, Size: 1, Rr: 0, A: AddrDDRB}, 0)
	assert.Equal(t, uint8(0xFF), s.Mem.Data[AddrDDRB])

	s.Execute(cpu.Instruction{Op: cpu.OpIn, Size: 1, Rd: 1, A: AddrDDRB}, 1)
	assert.Equal(t, uint8(0xFF), s.Mem.Reg(1))
}

func TestExecuteBrbsBranchesWhenFlagSet(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.CPU.SetFlag(cpu.FlagZ, true)
	cycles := s.Execute(cpu.Instruction{Op: cpu.OpBrbs, Size: 1, Bit: uint8(cpu.FlagZ), Off: 5}, 10)
	assert.Equal(t, uint8(2), cycles)
	assert.Equal(t, uint32(16), s.CPU.PC)
}

func TestExecuteSbrcSkipsTwoWordInstruction(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Mem.SetReg(16, 0) // bit 0 clear, so SBRC skips
	// Program a JMP (2-word) at the fallthrough address so the skip must
	// account for its size.
	s.Mem.Flash[2], s.Mem.Flash[3] = 0x0C, 0x94
	s.Mem.Flash[4], s.Mem.Flash[5] = 0x00, 0x00

	cycles := s.Execute(cpu.Instruction{Op: cpu.OpSbrc, Size: 1, Rd: 16, Bit: 0}, 0)
	assert.Equal(t, uint8(3), cycles)
	assert.Equal(t, uint32(3), s.CPU.PC)
}

func TestExecuteMulWritesR1R0(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Mem.SetReg(2, 10)
	s.Mem.SetReg(3, 20)
	s.Execute(cpu.Instruction{Op: cpu.OpMul, Size: 1, Rd: 2, Rr: 3}, 0)
	assert.Equal(t, uint8(200), s.Mem.Reg(0))
	assert.Equal(t, uint8(0), s.Mem.Reg(1))
}
