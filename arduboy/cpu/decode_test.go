package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeArithmetic(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		next uint16
		want Instruction
	}{
		{"ADD", 0x0E12, 0, Instruction{Op: OpAdd, Size: 1, Rd: 1, Rr: 18}},
		{"ADC", 0x1E12, 0, Instruction{Op: OpAdc, Size: 1, Rd: 1, Rr: 18}},
		{"SUB", 0x1A12, 0, Instruction{Op: OpSub, Size: 1, Rd: 1, Rr: 18}},
		{"SBC", 0x0A12, 0, Instruction{Op: OpSbc, Size: 1, Rd: 1, Rr: 18}},
		{"CPC", 0x0612, 0, Instruction{Op: OpCpc, Size: 1, Rd: 1, Rr: 18}},
		{"CP", 0x1612, 0, Instruction{Op: OpCp, Size: 1, Rd: 1, Rr: 18}},
		{"AND", 0x2212, 0, Instruction{Op: OpAnd, Size: 1, Rd: 1, Rr: 18}},
		{"EOR", 0x2612, 0, Instruction{Op: OpEor, Size: 1, Rd: 1, Rr: 18}},
		{"OR", 0x2A12, 0, Instruction{Op: OpOr, Size: 1, Rd: 1, Rr: 18}},
		{"MOV", 0x2E12, 0, Instruction{Op: OpMov, Size: 1, Rd: 1, Rr: 18}},
		{"LDI R16,0xFF", 0xEF0F, 0, Instruction{Op: OpLdi, Size: 1, Rd: 16, K: 0xFF}},
		{"SUBI R16,1", 0x5001, 0, Instruction{Op: OpSubi, Size: 1, Rd: 16, K: 1}},
		{"SBIW R28,1", 0x9721, 0, Instruction{Op: OpSbiw, Size: 1, Pair: 2, K: 1}},
		{"ADIW R24,1", 0x9601, 0, Instruction{Op: OpAdiw, Size: 1, Pair: 0, K: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.word, tt.next)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJumpsAndCalls(t *testing.T) {
	t.Run("JMP", func(t *testing.T) {
		inst := Decode(0x940C, 0x0010)
		assert.Equal(t, OpJmp, inst.Op)
		assert.Equal(t, uint8(2), inst.Size)
		assert.Equal(t, uint32(0x0010), inst.K22)
	})
	t.Run("CALL", func(t *testing.T) {
		inst := Decode(0x940E, 0x1234)
		assert.Equal(t, OpCall, inst.Op)
		assert.Equal(t, uint32(0x1234), inst.K22)
	})
	t.Run("LDS", func(t *testing.T) {
		inst := Decode(0x9000, 0x0150) // LDS R0, 0x0150
		assert.Equal(t, OpLds, inst.Op)
		assert.Equal(t, uint8(2), inst.Size)
		assert.Equal(t, uint8(0), inst.Rd)
		assert.Equal(t, uint16(0x0150), inst.A)
	})
	t.Run("STS", func(t *testing.T) {
		inst := Decode(0x9210, 0x0200) // STS 0x0200, R1
		assert.Equal(t, OpSts, inst.Op)
		assert.Equal(t, uint8(1), inst.Rr)
		assert.Equal(t, uint16(0x0200), inst.A)
	})
	t.Run("RJMP forward", func(t *testing.T) {
		inst := Decode(0xC005, 0)
		assert.Equal(t, OpRjmp, inst.Op)
		assert.Equal(t, int32(5), inst.Off)
	})
	t.Run("RJMP backward", func(t *testing.T) {
		inst := Decode(0xCFFF, 0) // offset -1
		assert.Equal(t, OpRjmp, inst.Op)
		assert.Equal(t, int32(-1), inst.Off)
	})
	t.Run("RCALL", func(t *testing.T) {
		inst := Decode(0xD001, 0)
		assert.Equal(t, OpRcall, inst.Op)
		assert.Equal(t, int32(1), inst.Off)
	})
}

func TestDecodeBranches(t *testing.T) {
	t.Run("BRBS forward", func(t *testing.T) {
		// BRBS 1 (Z), +4 words: 1111 00kk kkkk kbbb, k=4, bit=1
		word := uint16(0xF000) | uint16(4)<<3 | 1
		inst := Decode(word, 0)
		assert.Equal(t, OpBrbs, inst.Op)
		assert.Equal(t, int32(4), inst.Off)
		assert.Equal(t, uint8(1), inst.Bit)
	})
	t.Run("BRBC backward", func(t *testing.T) {
		// 7-bit signed offset -2 = 0x7E
		word := uint16(0xF400) | uint16(0x7E)<<3 | 2
		inst := Decode(word, 0)
		assert.Equal(t, OpBrbc, inst.Op)
		assert.Equal(t, int32(-2), inst.Off)
		assert.Equal(t, uint8(2), inst.Bit)
	})
}

func TestDecodeLoadStoreAddressing(t *testing.T) {
	t.Run("LD Rd,Z+", func(t *testing.T) {
		inst := Decode(0x9011, 0) // LD R1, Z+
		assert.Equal(t, OpLd, inst.Op)
		assert.Equal(t, uint8(1), inst.Rd)
		assert.Equal(t, PtrZ, inst.Ptr)
		assert.Equal(t, AddrPostInc, inst.Mode)
	})
	t.Run("ST X,Rr", func(t *testing.T) {
		inst := Decode(0x931C, 0) // ST X, R17
		assert.Equal(t, OpSt, inst.Op)
		assert.Equal(t, uint8(17), inst.Rr)
		assert.Equal(t, PtrX, inst.Ptr)
		assert.Equal(t, AddrPlain, inst.Mode)
	})
	t.Run("LDD Rd,Y+q plain (q=0) is LD Rd,Y", func(t *testing.T) {
		inst := Decode(0x8008, 0) // 1000 000d dddd 1000, d=0
		assert.Equal(t, OpLd, inst.Op)
		assert.Equal(t, PtrY, inst.Ptr)
		assert.Equal(t, AddrDisp, inst.Mode)
		assert.Equal(t, uint8(0), inst.K)
	})
	t.Run("LDD Rd,Z+q", func(t *testing.T) {
		// q=5 (0b00101): q5=0,q4q3=00,q2q1q0=101 -> word bits: bit13=0,bit11:10=00,bit2:0=101
		word := uint16(0x8000) | uint16(5) // bit2:0 = 5
		inst := Decode(word, 0)
		assert.Equal(t, OpLd, inst.Op)
		assert.Equal(t, PtrZ, inst.Ptr)
		assert.Equal(t, AddrDisp, inst.Mode)
		assert.Equal(t, uint8(5), inst.K)
	})
	t.Run("PUSH/POP", func(t *testing.T) {
		push := Decode(0x920F, 0) // PUSH R0
		assert.Equal(t, OpPush, push.Op)
		pop := Decode(0x900F, 0) // POP R0
		assert.Equal(t, OpPop, pop.Op)
	})
}

func TestDecodeIOAndBits(t *testing.T) {
	t.Run("IN", func(t *testing.T) {
		// IN R16, 0x3F (SREG): 1011 0AAd dddd AAAA
		word := uint16(0xB000) | uint16(16)<<4 | uint16(0x3F&0xF) | uint16(0x3F>>4&0x3)<<9
		inst := Decode(word, 0)
		assert.Equal(t, OpIn, inst.Op)
		assert.Equal(t, uint8(16), inst.Rd)
		assert.Equal(t, uint16(0x3F+0x20), inst.A)
	})
	t.Run("OUT", func(t *testing.T) {
		word := uint16(0xB800) | uint16(16)<<4 | uint16(0x3F&0xF) | uint16(0x3F>>4&0x3)<<9
		inst := Decode(word, 0)
		assert.Equal(t, OpOut, inst.Op)
		assert.Equal(t, uint8(16), inst.Rr)
		assert.Equal(t, uint16(0x3F+0x20), inst.A)
	})
	t.Run("SBI", func(t *testing.T) {
		// SBI 0x05,3 -> data-space addr 0x25
		word := uint16(0x9A00) | uint16(5)<<3 | 3
		inst := Decode(word, 0)
		assert.Equal(t, OpSbi, inst.Op)
		assert.Equal(t, uint16(0x25), inst.A)
		assert.Equal(t, uint8(3), inst.Bit)
	})
	t.Run("CBI", func(t *testing.T) {
		word := uint16(0x9800) | uint16(5)<<3 | 3
		inst := Decode(word, 0)
		assert.Equal(t, OpCbi, inst.Op)
		assert.Equal(t, uint16(0x25), inst.A)
	})
	t.Run("SBRC", func(t *testing.T) {
		inst := Decode(0xFC12, 0) // SBRC R1, 2
		assert.Equal(t, OpSbrc, inst.Op)
		assert.Equal(t, uint8(1), inst.Rd)
		assert.Equal(t, uint8(2), inst.Bit)
	})
	t.Run("BST/BLD", func(t *testing.T) {
		bst := Decode(0xFA12, 0)
		assert.Equal(t, OpBst, bst.Op)
		bld := Decode(0xF812, 0)
		assert.Equal(t, OpBld, bld.Op)
	})
}

func TestDecodeMiscAndReserved(t *testing.T) {
	t.Run("RET/RETI/SLEEP/WDR/BREAK", func(t *testing.T) {
		assert.Equal(t, OpRet, Decode(0x9508, 0).Op)
		assert.Equal(t, OpReti, Decode(0x9518, 0).Op)
		assert.Equal(t, OpSleep, Decode(0x9588, 0).Op)
		assert.Equal(t, OpWdr, Decode(0x95A8, 0).Op)
		assert.Equal(t, OpBreak, Decode(0x9598, 0).Op)
	})
	t.Run("EICALL/EIJMP", func(t *testing.T) {
		assert.Equal(t, OpEicall, Decode(0x9519, 0).Op)
		assert.Equal(t, OpEijmp, Decode(0x9419, 0).Op)
	})
	t.Run("BSET/BCLR", func(t *testing.T) {
		sei := Decode(0x9478, 0) // BSET 7 == SEI
		assert.Equal(t, OpBset, sei.Op)
		assert.Equal(t, uint8(7), sei.Bit)
		cli := Decode(0x94F8, 0) // BCLR 7 == CLI
		assert.Equal(t, OpBclr, cli.Op)
		assert.Equal(t, uint8(7), cli.Bit)
	})
	t.Run("reserved slot decodes Unknown", func(t *testing.T) {
		inst := Decode(0x9083, 0) // hi8=0x90, low=0x3, reserved
		assert.Equal(t, Unknown, inst.Op)
		assert.Equal(t, uint8(1), inst.Size)
	})
}
