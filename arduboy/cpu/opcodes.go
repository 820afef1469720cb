package cpu

// Op identifies a decoded AVR instruction shape. Operand fields on
// Instruction are populated per-Op; see Decode for which fields each Op uses.
type Op int

const (
	Unknown Op = iota

	// Arithmetic / logic
	OpAdd
	OpAdc
	OpAdiw
	OpSub
	OpSubi
	OpSbc
	OpSbci
	OpSbiw
	OpAnd
	OpAndi
	OpOr
	OpOri
	OpEor
	OpCom
	OpNeg
	OpInc
	OpDec
	OpMul
	OpMuls
	OpMulsu
	OpFmul
	OpFmuls
	OpCp
	OpCpc
	OpCpi
	OpTst // decodes as AND Rd,Rd in hardware but kept distinct for clarity

	// Data transfer
	OpMov
	OpMovw
	OpLdi
	OpLds
	OpSts
	OpLd  // LD Rd, Ptr (with addressing Mode)
	OpSt  // ST Ptr, Rr (with addressing Mode)
	OpLpm
	OpElpm
	OpIn
	OpOut
	OpPush
	OpPop

	// Branch / jump / call
	OpRjmp
	OpJmp
	OpRcall
	OpCall
	OpRet
	OpReti
	OpIjmp
	OpEijmp
	OpIcall
	OpEicall
	OpBrbs
	OpBrbc
	OpCpse
	OpSbrc
	OpSbrs
	OpSbic
	OpSbis

	// Bit and bit-test
	OpSbi
	OpCbi
	OpBld
	OpBst
	OpBset
	OpBclr
	OpLsr
	OpRor
	OpAsr
	OpSwap

	// Misc
	OpNop
	OpSleep
	OpWdr
	OpBreak
)

// Addressing modes for LD/ST with X/Y/Z.
const (
	AddrPlain   uint8 = iota // LD Rd, X / ST X, Rr  (no pointer change)
	AddrPostInc              // X+ / Y+ / Z+
	AddrPreDec               // -X / -Y / -Z
	AddrDisp                 // Y+q / Z+q (q in Instruction.K)
)

// Pointer register selects for LD/ST/LPM/ELPM.
const (
	PtrX uint8 = iota
	PtrY
	PtrZ
)

// Instruction is a decoded AVR instruction: one Op tag plus whichever operand
// fields that Op uses. Size is the instruction length in words (1 or 2).
type Instruction struct {
	Op   Op
	Size uint8

	Rd, Rr uint8  // register operands (0..31)
	K      uint8  // 8-bit immediate (LDI/SUBI/SBCI/ANDI/ORI/CPI)
	A      uint16 // data-space I/O address, already offset by +0x20 where applicable
	K22    uint32 // 22-bit word address for JMP/CALL
	Off    int32  // signed branch/relative-call offset, in words
	Bit    uint8  // bit index (0..7) for BRBS/BRBC/SBI/CBI/SBIC/SBIS/BLD/BST/BSET/BCLR
	Pair   uint8  // register-pair index for ADIW/SBIW
	Mode   uint8  // addressing mode for LD/ST (AddrPlain/AddrPostInc/AddrPreDec/AddrDisp)
	Ptr    uint8  // pointer register for LD/ST/LPM/ELPM (PtrX/PtrY/PtrZ)
}
