// Package disasm converts decoded instructions back into AVR assembly text,
// for the debugger's step/breakpoint views and the profiler's hotspot report.
// It is grounded directly in arduboy/cpu's Instruction shape, so it can never
// drift from what Execute actually does with a given opcode.
package disasm

import (
	"fmt"

	"github.com/valerio/arduboy-emu/arduboy/cpu"
)

// pairLowReg returns the low register number of an ADIW/SBIW register pair
// (0=R25:24, 1=R27:26, 2=R29:28, 3=R31:30).
func pairLowReg(pair uint8) uint8 {
	return 24 + pair*2
}

func ptrName(ptr uint8) string {
	switch ptr {
	case cpu.PtrX:
		return "X"
	case cpu.PtrY:
		return "Y"
	default:
		return "Z"
	}
}

// Disassemble formats a decoded instruction as assembly text. pc is the
// instruction's word address, used to resolve relative branch/call targets.
func Disassemble(inst cpu.Instruction, pc uint32) string {
	switch inst.Op {
	case cpu.OpAdd:
		return fmt.Sprintf("ADD R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpAdc:
		return fmt.Sprintf("ADC R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpAdiw:
		r := pairLowReg(inst.Pair)
		return fmt.Sprintf("ADIW R%d:R%d, %d", r+1, r, inst.K)
	case cpu.OpSub:
		return fmt.Sprintf("SUB R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpSubi:
		return fmt.Sprintf("SUBI R%d, 0x%02X", inst.Rd, inst.K)
	case cpu.OpSbc:
		return fmt.Sprintf("SBC R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpSbci:
		return fmt.Sprintf("SBCI R%d, 0x%02X", inst.Rd, inst.K)
	case cpu.OpSbiw:
		r := pairLowReg(inst.Pair)
		return fmt.Sprintf("SBIW R%d:R%d, %d", r+1, r, inst.K)
	case cpu.OpAnd:
		return fmt.Sprintf("AND R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpAndi:
		return fmt.Sprintf("ANDI R%d, 0x%02X", inst.Rd, inst.K)
	case cpu.OpOr:
		return fmt.Sprintf("OR R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpOri:
		return fmt.Sprintf("ORI R%d, 0x%02X", inst.Rd, inst.K)
	case cpu.OpEor:
		return fmt.Sprintf("EOR R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpCom:
		return fmt.Sprintf("COM R%d", inst.Rd)
	case cpu.OpNeg:
		return fmt.Sprintf("NEG R%d", inst.Rd)
	case cpu.OpInc:
		return fmt.Sprintf("INC R%d", inst.Rd)
	case cpu.OpDec:
		return fmt.Sprintf("DEC R%d", inst.Rd)
	case cpu.OpMul:
		return fmt.Sprintf("MUL R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpMuls:
		return fmt.Sprintf("MULS R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpMulsu:
		return fmt.Sprintf("MULSU R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpFmul:
		return fmt.Sprintf("FMUL R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpFmuls:
		return fmt.Sprintf("FMULS R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpCp:
		return fmt.Sprintf("CP R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpCpc:
		return fmt.Sprintf("CPC R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpCpi:
		return fmt.Sprintf("CPI R%d, 0x%02X", inst.Rd, inst.K)
	case cpu.OpTst:
		return fmt.Sprintf("TST R%d", inst.Rd)
	case cpu.OpMov:
		return fmt.Sprintf("MOV R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpMovw:
		return fmt.Sprintf("MOVW R%d:R%d, R%d:R%d", inst.Rd+1, inst.Rd, inst.Rr+1, inst.Rr)
	case cpu.OpLdi:
		return fmt.Sprintf("LDI R%d, 0x%02X", inst.Rd, inst.K)
	case cpu.OpLds:
		return fmt.Sprintf("LDS R%d, 0x%04X", inst.Rd, inst.A)
	case cpu.OpSts:
		return fmt.Sprintf("STS 0x%04X, R%d", inst.A, inst.Rr)
	case cpu.OpLd:
		return disasmLd(inst)
	case cpu.OpSt:
		return disasmSt(inst)
	case cpu.OpLpm:
		if inst.Mode == cpu.AddrPostInc {
			return fmt.Sprintf("LPM R%d, Z+", inst.Rd)
		}
		return fmt.Sprintf("LPM R%d, Z", inst.Rd)
	case cpu.OpElpm:
		if inst.Mode == cpu.AddrPostInc {
			return fmt.Sprintf("ELPM R%d, Z+", inst.Rd)
		}
		return fmt.Sprintf("ELPM R%d, Z", inst.Rd)
	case cpu.OpIn:
		return fmt.Sprintf("IN R%d, 0x%02X", inst.Rd, inst.A-0x20)
	case cpu.OpOut:
		return fmt.Sprintf("OUT 0x%02X, R%d", inst.A-0x20, inst.Rr)
	case cpu.OpPush:
		return fmt.Sprintf("PUSH R%d", inst.Rr)
	case cpu.OpPop:
		return fmt.Sprintf("POP R%d", inst.Rd)
	case cpu.OpRjmp:
		return fmt.Sprintf("RJMP 0x%04X", (pc+1+uint32(inst.Off))*2)
	case cpu.OpJmp:
		return fmt.Sprintf("JMP 0x%04X", inst.K22*2)
	case cpu.OpRcall:
		return fmt.Sprintf("RCALL 0x%04X", (pc+1+uint32(inst.Off))*2)
	case cpu.OpCall:
		return fmt.Sprintf("CALL 0x%04X", inst.K22*2)
	case cpu.OpRet:
		return "RET"
	case cpu.OpReti:
		return "RETI"
	case cpu.OpIjmp:
		return "IJMP"
	case cpu.OpEijmp:
		return "EIJMP"
	case cpu.OpIcall:
		return "ICALL"
	case cpu.OpEicall:
		return "EICALL"
	case cpu.OpBrbs:
		return fmt.Sprintf("BRBS %d, 0x%04X", inst.Bit, (pc+1+uint32(inst.Off))*2)
	case cpu.OpBrbc:
		return fmt.Sprintf("BRBC %d, 0x%04X", inst.Bit, (pc+1+uint32(inst.Off))*2)
	case cpu.OpCpse:
		return fmt.Sprintf("CPSE R%d, R%d", inst.Rd, inst.Rr)
	case cpu.OpSbrc:
		return fmt.Sprintf("SBRC R%d, %d", inst.Rd, inst.Bit)
	case cpu.OpSbrs:
		return fmt.Sprintf("SBRS R%d, %d", inst.Rd, inst.Bit)
	case cpu.OpSbic:
		return fmt.Sprintf("SBIC 0x%02X, %d", inst.A-0x20, inst.Bit)
	case cpu.OpSbis:
		return fmt.Sprintf("SBIS 0x%02X, %d", inst.A-0x20, inst.Bit)
	case cpu.OpSbi:
		return fmt.Sprintf("SBI 0x%02X, %d", inst.A-0x20, inst.Bit)
	case cpu.OpCbi:
		return fmt.Sprintf("CBI 0x%02X, %d", inst.A-0x20, inst.Bit)
	case cpu.OpBld:
		return fmt.Sprintf("BLD R%d, %d", inst.Rd, inst.Bit)
	case cpu.OpBst:
		return fmt.Sprintf("BST R%d, %d", inst.Rd, inst.Bit)
	case cpu.OpBset:
		return fmt.Sprintf("BSET %d", inst.Bit)
	case cpu.OpBclr:
		return fmt.Sprintf("BCLR %d", inst.Bit)
	case cpu.OpLsr:
		return fmt.Sprintf("LSR R%d", inst.Rd)
	case cpu.OpRor:
		return fmt.Sprintf("ROR R%d", inst.Rd)
	case cpu.OpAsr:
		return fmt.Sprintf("ASR R%d", inst.Rd)
	case cpu.OpSwap:
		return fmt.Sprintf("SWAP R%d", inst.Rd)
	case cpu.OpNop:
		return "NOP"
	case cpu.OpSleep:
		return "SLEEP"
	case cpu.OpWdr:
		return "WDR"
	case cpu.OpBreak:
		return "BREAK"
	default:
		return "UNKNOWN"
	}
}

func disasmLd(inst cpu.Instruction) string {
	p := ptrName(inst.Ptr)
	switch inst.Mode {
	case cpu.AddrPostInc:
		return fmt.Sprintf("LD R%d, %s+", inst.Rd, p)
	case cpu.AddrPreDec:
		return fmt.Sprintf("LD R%d, -%s", inst.Rd, p)
	case cpu.AddrDisp:
		return fmt.Sprintf("LDD R%d, %s+%d", inst.Rd, p, inst.K)
	default:
		return fmt.Sprintf("LD R%d, %s", inst.Rd, p)
	}
}

func disasmSt(inst cpu.Instruction) string {
	p := ptrName(inst.Ptr)
	switch inst.Mode {
	case cpu.AddrPostInc:
		return fmt.Sprintf("ST %s+, R%d", p, inst.Rr)
	case cpu.AddrPreDec:
		return fmt.Sprintf("ST -%s, R%d", p, inst.Rr)
	case cpu.AddrDisp:
		return fmt.Sprintf("STD %s+%d, R%d", p, inst.K, inst.Rr)
	default:
		return fmt.Sprintf("ST %s, R%d", p, inst.Rr)
	}
}
