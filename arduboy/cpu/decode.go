package cpu

import "github.com/valerio/arduboy-emu/arduboy/bit"

// Decode turns one opcode word (plus the next word, needed only for the
// 32-bit forms JMP/CALL/LDS/STS) into a typed Instruction. Decoding proceeds
// in priority order: 32-bit forms first, then a dispatch on the upper
// nibble, then sub-patterns within each nibble — matching
// original_source/opcodes.rs's decode().
//
// Words that don't match any known pattern decode to {Op: Unknown, Size: 1}:
// the executor treats this as a one-cycle NOP plus a debug diagnostic.
func Decode(word, next uint16) Instruction {
	// --- 32-bit forms (JMP, CALL, LDS, STS) ---
	if word&0xFE0E == 0x940C { // JMP
		return Instruction{Op: OpJmp, Size: 2, K22: jmpCallAddr(word, next)}
	}
	if word&0xFE0E == 0x940E { // CALL
		return Instruction{Op: OpCall, Size: 2, K22: jmpCallAddr(word, next)}
	}
	if word&0xFE0F == 0x9000 { // LDS Rd, k
		return Instruction{Op: OpLds, Size: 2, Rd: regD5(word), A: next}
	}
	if word&0xFE0F == 0x9200 { // STS k, Rr
		return Instruction{Op: OpSts, Size: 2, Rr: regD5(word), A: next}
	}

	switch word >> 12 {
	case 0x0:
		return decode0(word)
	case 0x1:
		return decode1(word)
	case 0x2:
		return decode2(word)
	case 0x3:
		return Instruction{Op: OpCpi, Size: 1, Rd: 16 + regD4(word), K: immK8(word)}
	case 0x4:
		return Instruction{Op: OpSbci, Size: 1, Rd: 16 + regD4(word), K: immK8(word)}
	case 0x5:
		return Instruction{Op: OpSubi, Size: 1, Rd: 16 + regD4(word), K: immK8(word)}
	case 0x6:
		return Instruction{Op: OpOri, Size: 1, Rd: 16 + regD4(word), K: immK8(word)}
	case 0x7:
		return Instruction{Op: OpAndi, Size: 1, Rd: 16 + regD4(word), K: immK8(word)}
	case 0x8:
		return decode8(word)
	case 0x9:
		return decode9(word)
	case 0xA:
		return decode8(word) // LDD/STD Y+q,Z+q share the 10xx pattern with 0x8
	case 0xB:
		return decodeB(word)
	case 0xC:
		return Instruction{Op: OpRjmp, Size: 1, Off: bit.SignExtend(uint32(word&0x0FFF), 12)}
	case 0xD:
		return Instruction{Op: OpRcall, Size: 1, Off: bit.SignExtend(uint32(word&0x0FFF), 12)}
	case 0xE:
		return Instruction{Op: OpLdi, Size: 1, Rd: 16 + regD4(word), K: immK8(word)}
	case 0xF:
		return decodeF(word)
	}
	return Instruction{Op: Unknown, Size: 1}
}

func jmpCallAddr(word, next uint16) uint32 {
	hi := uint32(word>>4&0x1F)<<17 | uint32(word&0x1)<<16
	return hi | uint32(next)
}

func regD5(word uint16) uint8  { return uint8(word >> 4 & 0x1F) }
func regR5(word uint16) uint8  { return uint8(word&0xF | (word>>5&0x10)) }
func regD4(word uint16) uint8  { return uint8(word >> 4 & 0xF) }
func immK8(word uint16) uint8  { return uint8(word&0xF | (word>>4&0xF0)) }

func decode0(word uint16) Instruction {
	switch word >> 8 {
	case 0x00: // 0000 0000 0000 0000 = NOP
		if word == 0 {
			return Instruction{Op: OpNop, Size: 1}
		}
	case 0x01: // MOVW: register pairs, d/r are pair indices *2
		d := uint8(word >> 4 & 0xF)
		r := uint8(word & 0xF)
		return Instruction{Op: OpMovw, Size: 1, Rd: d * 2, Rr: r * 2}
	case 0x02: // MULS Rd(16-31),Rr(16-31)
		return Instruction{Op: OpMuls, Size: 1, Rd: 16 + regD4(word), Rr: 16 + uint8(word&0xF)}
	case 0x03: // MULSU/FMUL/FMULS family, Rd/Rr 16-23 (FMULSU is unimplemented
		// hardware on these parts and decodes Unknown like real silicon gaps)
		d := 16 + uint8(word>>4&0x7)
		r := 16 + uint8(word&0x7)
		switch {
		case word&0xFF88 == 0x0300:
			return Instruction{Op: OpMulsu, Size: 1, Rd: d, Rr: r}
		case word&0xFF88 == 0x0308:
			return Instruction{Op: OpFmul, Size: 1, Rd: d, Rr: r}
		case word&0xFF88 == 0x0380:
			return Instruction{Op: OpFmuls, Size: 1, Rd: d, Rr: r}
		}
	}

	switch (word >> 10) & 0x3 {
	case 0x1: // 0000 01rd dddd rrrr = CPC
		return Instruction{Op: OpCpc, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x2: // 0000 10rd dddd rrrr = SBC
		return Instruction{Op: OpSbc, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x3: // 0000 11rd dddd rrrr = ADD (LSL when Rd==Rr)
		return Instruction{Op: OpAdd, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	}
	return Instruction{Op: Unknown, Size: 1}
}

func decode1(word uint16) Instruction {
	switch (word >> 10) & 0x3 {
	case 0x0: // 0001 00rd dddd rrrr = CPSE
		return Instruction{Op: OpCpse, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x1: // 0001 01rd dddd rrrr = CP
		return Instruction{Op: OpCp, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x2: // 0001 10rd dddd rrrr = SUB
		return Instruction{Op: OpSub, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x3: // 0001 11rd dddd rrrr = ADC (ROL when Rd==Rr)
		return Instruction{Op: OpAdc, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	}
	return Instruction{Op: Unknown, Size: 1}
}

func decode2(word uint16) Instruction {
	switch (word >> 10) & 0x3 {
	case 0x0: // 0010 00rd dddd rrrr = AND (TST when Rd==Rr)
		return Instruction{Op: OpAnd, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x1: // EOR
		return Instruction{Op: OpEor, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x2: // OR
		return Instruction{Op: OpOr, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	case 0x3: // MOV
		return Instruction{Op: OpMov, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	}
	return Instruction{Op: Unknown, Size: 1}
}

// decode8 covers the 0x8/0xA nibble space: LD/ST Y/Z (no displacement,
// word&0xD208==0x8000/0x8200 forms) and LDD/STD Y+q/Z+q (the general
// 10q0qqxr rrrr?qqq pattern spanning both 0x8 and 0xA nibbles).
func decode8(word uint16) Instruction {
	// LDD/STD: 10q0 qq0d dddd 1qqq (Y+q) / 10q0 qq0d dddd 0qqq (Z+q) for LD
	// and the store forms with bit9=1 (STD) instead of bit9=0 (LDD).
	q5 := bit.ExtractBits(word, 13, 13)
	q4q3 := bit.ExtractBits(word, 11, 10)
	q2q1q0 := bit.ExtractBits(word, 2, 0)
	q := uint8(q5<<5 | q4q3<<3 | q2q1q0)
	isStore := word&0x0200 != 0
	isY := word&0x0008 != 0
	reg := regD5(word)

	ptr := PtrZ
	if isY {
		ptr = PtrY
	}

	if isStore {
		return Instruction{Op: OpSt, Size: 1, Rr: reg, Ptr: ptr, Mode: AddrDisp, K: q}
	}
	return Instruction{Op: OpLd, Size: 1, Rd: reg, Ptr: ptr, Mode: AddrDisp, K: q}
}

func decode9(word uint16) Instruction {
	low := word & 0x000F
	hi8 := word >> 8

	// Single-register ALU ops in the 1001 010d dddd xxxx space.
	if hi8 == 0x94 || hi8 == 0x95 {
		d := regD5(word)
		switch low {
		case 0x0:
			if hi8 == 0x94 {
				return Instruction{Op: OpCom, Size: 1, Rd: d}
			}
		case 0x1:
			if hi8 == 0x94 {
				return Instruction{Op: OpNeg, Size: 1, Rd: d}
			}
		case 0x2:
			if hi8 == 0x94 {
				return Instruction{Op: OpSwap, Size: 1, Rd: d}
			}
		case 0x3:
			if hi8 == 0x94 {
				return Instruction{Op: OpInc, Size: 1, Rd: d}
			}
		case 0x5:
			if hi8 == 0x94 {
				return Instruction{Op: OpAsr, Size: 1, Rd: d}
			}
		case 0x6:
			if hi8 == 0x94 {
				return Instruction{Op: OpLsr, Size: 1, Rd: d}
			}
		case 0x7:
			if hi8 == 0x94 {
				return Instruction{Op: OpRor, Size: 1, Rd: d}
			}
		case 0xA:
			if hi8 == 0x94 {
				return Instruction{Op: OpDec, Size: 1, Rd: d}
			}
		case 0x8:
			return decodeFixed9408(word, d)
		case 0x9:
			return decodeFixed9409(word, d)
		case 0xC, 0xD, 0xE:
			// LD Rd, Z / Z+ / -Z (0x94) — unusual encoding quirk, real HW uses
			// 1001 000d space below for these; not reached via hi8==0x94/95.
		}
	}

	// LD/ST via X/Y/Z plain/post-inc/pre-dec and LPM/ELPM Rd,Z / Z+, and
	// PUSH/POP: all in the 1001 000d dddd xxxx / 1001 001d dddd xxxx space.
	// Note: low==0x0 here (LDS/STS) is already intercepted by the 32-bit-form
	// check at the top of Decode; low==0x8 is a reserved slot in this row
	// (plain, no-offset Y/Z loads live in the 0x8/0xA nibble row instead,
	// handled by decode8 as the q=0 case of LDD/STD).
	if hi8 == 0x90 || hi8 == 0x91 {
		d := regD5(word)
		switch low {
		case 0x1:
			return Instruction{Op: OpLd, Size: 1, Rd: d, Ptr: PtrZ, Mode: AddrPostInc}
		case 0x2:
			return Instruction{Op: OpLd, Size: 1, Rd: d, Ptr: PtrZ, Mode: AddrPreDec}
		case 0x4:
			return Instruction{Op: OpLpm, Size: 1, Rd: d, Mode: AddrPlain}
		case 0x5:
			return Instruction{Op: OpLpm, Size: 1, Rd: d, Mode: AddrPostInc}
		case 0x6:
			return Instruction{Op: OpElpm, Size: 1, Rd: d, Mode: AddrPlain}
		case 0x7:
			return Instruction{Op: OpElpm, Size: 1, Rd: d, Mode: AddrPostInc}
		case 0x9:
			return Instruction{Op: OpLd, Size: 1, Rd: d, Ptr: PtrY, Mode: AddrPostInc}
		case 0xA:
			return Instruction{Op: OpLd, Size: 1, Rd: d, Ptr: PtrY, Mode: AddrPreDec}
		case 0xC:
			return Instruction{Op: OpLd, Size: 1, Rd: d, Ptr: PtrX, Mode: AddrPlain}
		case 0xD:
			return Instruction{Op: OpLd, Size: 1, Rd: d, Ptr: PtrX, Mode: AddrPostInc}
		case 0xE:
			return Instruction{Op: OpLd, Size: 1, Rd: d, Ptr: PtrX, Mode: AddrPreDec}
		case 0xF:
			return Instruction{Op: OpPop, Size: 1, Rd: d}
		}
	}
	if hi8 == 0x92 || hi8 == 0x93 {
		r := regD5(word)
		switch low {
		case 0x1:
			return Instruction{Op: OpSt, Size: 1, Rr: r, Ptr: PtrZ, Mode: AddrPostInc}
		case 0x2:
			return Instruction{Op: OpSt, Size: 1, Rr: r, Ptr: PtrZ, Mode: AddrPreDec}
		case 0x9:
			return Instruction{Op: OpSt, Size: 1, Rr: r, Ptr: PtrY, Mode: AddrPostInc}
		case 0xA:
			return Instruction{Op: OpSt, Size: 1, Rr: r, Ptr: PtrY, Mode: AddrPreDec}
		case 0xC:
			return Instruction{Op: OpSt, Size: 1, Rr: r, Ptr: PtrX, Mode: AddrPlain}
		case 0xD:
			return Instruction{Op: OpSt, Size: 1, Rr: r, Ptr: PtrX, Mode: AddrPostInc}
		case 0xE:
			return Instruction{Op: OpSt, Size: 1, Rr: r, Ptr: PtrX, Mode: AddrPreDec}
		case 0xF:
			return Instruction{Op: OpPush, Size: 1, Rr: r}
		}
	}

	// ADIW/SBIW: 1001 0110/0111 KKdd KKKK. The two pair-select bits map
	// directly onto memory.PairW/PairX/PairY/PairZ (0=R25:24, 1=R27:26,
	// 2=R29:28, 3=R31:30).
	if word&0xFF00 == 0x9600 || word&0xFF00 == 0x9700 {
		k := uint8(word&0xF | (word>>2&0x30))
		pair := uint8(word >> 4 & 0x3)
		op := OpAdiw
		if word&0xFF00 == 0x9700 {
			op = OpSbiw
		}
		return Instruction{Op: op, Size: 1, Pair: pair, K: k}
	}

	// CBI/SBIC/SBI/SBIS: 1001 10xx AAAA Abbb
	if word&0xFF00 == 0x9800 {
		return Instruction{Op: OpCbi, Size: 1, A: ioAddr5(word), Bit: uint8(word & 0x7)}
	}
	if word&0xFF00 == 0x9900 {
		return Instruction{Op: OpSbic, Size: 1, A: ioAddr5(word), Bit: uint8(word & 0x7)}
	}
	if word&0xFF00 == 0x9A00 {
		return Instruction{Op: OpSbi, Size: 1, A: ioAddr5(word), Bit: uint8(word & 0x7)}
	}
	if word&0xFF00 == 0x9B00 {
		return Instruction{Op: OpSbis, Size: 1, A: ioAddr5(word), Bit: uint8(word & 0x7)}
	}

	// MUL: 1001 11rd dddd rrrr
	if word>>10&0x3F == 0x27 { // bits15:10 = 100111
		return Instruction{Op: OpMul, Size: 1, Rd: regD5(word), Rr: regR5(word)}
	}

	return Instruction{Op: Unknown, Size: 1}
}

func decodeFixed9408(word uint16, d uint8) Instruction {
	switch word {
	case 0x9408:
		return Instruction{Op: OpBset, Size: 1, Bit: 0}
	case 0x9418:
		return Instruction{Op: OpBset, Size: 1, Bit: 1}
	case 0x9428:
		return Instruction{Op: OpBset, Size: 1, Bit: 2}
	case 0x9438:
		return Instruction{Op: OpBset, Size: 1, Bit: 3}
	case 0x9448:
		return Instruction{Op: OpBset, Size: 1, Bit: 4}
	case 0x9458:
		return Instruction{Op: OpBset, Size: 1, Bit: 5}
	case 0x9468:
		return Instruction{Op: OpBset, Size: 1, Bit: 6}
	case 0x9478:
		return Instruction{Op: OpBset, Size: 1, Bit: 7}
	case 0x9488:
		return Instruction{Op: OpBclr, Size: 1, Bit: 0}
	case 0x9498:
		return Instruction{Op: OpBclr, Size: 1, Bit: 1}
	case 0x94A8:
		return Instruction{Op: OpBclr, Size: 1, Bit: 2}
	case 0x94B8:
		return Instruction{Op: OpBclr, Size: 1, Bit: 3}
	case 0x94C8:
		return Instruction{Op: OpBclr, Size: 1, Bit: 4}
	case 0x94D8:
		return Instruction{Op: OpBclr, Size: 1, Bit: 5}
	case 0x94E8:
		return Instruction{Op: OpBclr, Size: 1, Bit: 6}
	case 0x94F8:
		return Instruction{Op: OpBclr, Size: 1, Bit: 7}
	case 0x9508:
		return Instruction{Op: OpRet, Size: 1}
	case 0x9518:
		return Instruction{Op: OpReti, Size: 1}
	case 0x9588:
		return Instruction{Op: OpSleep, Size: 1}
	case 0x9598:
		return Instruction{Op: OpBreak, Size: 1}
	case 0x95A8:
		return Instruction{Op: OpWdr, Size: 1}
	case 0x95C8:
		return Instruction{Op: OpLpm, Size: 1, Rd: 0, Ptr: PtrZ, Mode: AddrPlain}
	case 0x95D8:
		return Instruction{Op: OpElpm, Size: 1, Rd: 0, Ptr: PtrZ, Mode: AddrPlain}
	}
	return Instruction{Op: Unknown, Size: 1}
}

func decodeFixed9409(word uint16, d uint8) Instruction {
	switch word {
	case 0x9409:
		return Instruction{Op: OpIjmp, Size: 1}
	case 0x9419:
		return Instruction{Op: OpEijmp, Size: 1}
	case 0x9509:
		return Instruction{Op: OpIcall, Size: 1}
	case 0x9519:
		return Instruction{Op: OpEicall, Size: 1}
	}
	return Instruction{Op: Unknown, Size: 1}
}

func ioAddr5(word uint16) uint16 {
	return uint16(word>>3&0x1F) + 0x20
}

func decodeB(word uint16) Instruction {
	isOut := word&0x0800 != 0
	d := regD5(word)
	a := uint16(word>>9&0x3)<<4 | uint16(word&0xF)
	a += 0x20
	if isOut {
		return Instruction{Op: OpOut, Size: 1, Rr: d, A: a}
	}
	return Instruction{Op: OpIn, Size: 1, Rd: d, A: a}
}

func decodeF(word uint16) Instruction {
	switch (word >> 10) & 0x3 {
	case 0x0: // BRBS
		off := bit.SignExtend(uint32(word>>3&0x7F), 7)
		return Instruction{Op: OpBrbs, Size: 1, Off: off, Bit: uint8(word & 0x7)}
	case 0x1: // BRBC
		off := bit.SignExtend(uint32(word>>3&0x7F), 7)
		return Instruction{Op: OpBrbc, Size: 1, Off: off, Bit: uint8(word & 0x7)}
	case 0x2: // BLD / BST
		d := regD5(word)
		bitIdx := uint8(word & 0x7)
		if word&0x0200 == 0 {
			return Instruction{Op: OpBld, Size: 1, Rd: d, Bit: bitIdx}
		}
		return Instruction{Op: OpBst, Size: 1, Rd: d, Bit: bitIdx}
	case 0x3: // SBRC / SBRS
		d := regD5(word)
		bitIdx := uint8(word & 0x7)
		if word&0x0200 == 0 {
			return Instruction{Op: OpSbrc, Size: 1, Rd: d, Bit: bitIdx}
		}
		return Instruction{Op: OpSbrs, Size: 1, Rd: d, Bit: bitIdx}
	}
	return Instruction{Op: Unknown, Size: 1}
}
