package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/arduboy-emu/arduboy/cpu"
)

func TestDisassembleArithmetic(t *testing.T) {
	assert.Equal(t, "ADD R1, R18", Disassemble(cpu.Instruction{Op: cpu.OpAdd, Rd: 1, Rr: 18}, 0))
	assert.Equal(t, "LDI R16, 0xFF", Disassemble(cpu.Instruction{Op: cpu.OpLdi, Rd: 16, K: 0xFF}, 0))
	assert.Equal(t, "ADIW R25:R24, 1", Disassemble(cpu.Instruction{Op: cpu.OpAdiw, Pair: 0, K: 1}, 0))
	assert.Equal(t, "SBIW R29:R28, 1", Disassemble(cpu.Instruction{Op: cpu.OpSbiw, Pair: 2, K: 1}, 0))
	assert.Equal(t, "MOVW R17:R16, R3:R2", Disassemble(cpu.Instruction{Op: cpu.OpMovw, Rd: 16, Rr: 2}, 0))
}

func TestDisassembleMemory(t *testing.T) {
	assert.Equal(t, "LD R1, X+", Disassemble(cpu.Instruction{Op: cpu.OpLd, Rd: 1, Ptr: cpu.PtrX, Mode: cpu.AddrPostInc}, 0))
	assert.Equal(t, "LD R1, -Y", Disassemble(cpu.Instruction{Op: cpu.OpLd, Rd: 1, Ptr: cpu.PtrY, Mode: cpu.AddrPreDec}, 0))
	assert.Equal(t, "LDD R1, Z+5", Disassemble(cpu.Instruction{Op: cpu.OpLd, Rd: 1, Ptr: cpu.PtrZ, Mode: cpu.AddrDisp, K: 5}, 0))
	assert.Equal(t, "ST X, R3", Disassemble(cpu.Instruction{Op: cpu.OpSt, Rr: 3, Ptr: cpu.PtrX, Mode: cpu.AddrPlain}, 0))
	assert.Equal(t, "STD Y+2, R3", Disassemble(cpu.Instruction{Op: cpu.OpSt, Rr: 3, Ptr: cpu.PtrY, Mode: cpu.AddrDisp, K: 2}, 0))
	assert.Equal(t, "LDS R1, 0x0150", Disassemble(cpu.Instruction{Op: cpu.OpLds, Rd: 1, A: 0x150}, 0))
	assert.Equal(t, "LPM R0, Z+", Disassemble(cpu.Instruction{Op: cpu.OpLpm, Rd: 0, Mode: cpu.AddrPostInc}, 0))
}

func TestDisassembleBranchesUseByteAddresses(t *testing.T) {
	// RJMP -2 (word offset) from pc=10 targets word 9, byte address 18.
	assert.Equal(t, "RJMP 0x0012", Disassemble(cpu.Instruction{Op: cpu.OpRjmp, Off: -2}, 10))
	assert.Equal(t, "JMP 0x0200", Disassemble(cpu.Instruction{Op: cpu.OpJmp, K22: 0x100}, 0))
	assert.Equal(t, "BRBS 1, 0x0018", Disassemble(cpu.Instruction{Op: cpu.OpBrbs, Bit: 1, Off: 1}, 10))
}

func TestDisassembleIO(t *testing.T) {
	assert.Equal(t, "IN R0, 0x3F", Disassemble(cpu.Instruction{Op: cpu.OpIn, Rd: 0, A: 0x5F}, 0))
	assert.Equal(t, "OUT 0x3F, R0", Disassemble(cpu.Instruction{Op: cpu.OpOut, Rr: 0, A: 0x5F}, 0))
	assert.Equal(t, "SBI 0x18, 2", Disassemble(cpu.Instruction{Op: cpu.OpSbi, A: 0x38, Bit: 2}, 0))
}

func TestDisassembleMisc(t *testing.T) {
	assert.Equal(t, "NOP", Disassemble(cpu.Instruction{Op: cpu.OpNop}, 0))
	assert.Equal(t, "RET", Disassemble(cpu.Instruction{Op: cpu.OpRet}, 0))
	assert.Equal(t, "UNKNOWN", Disassemble(cpu.Instruction{Op: cpu.Unknown}, 0))
}
