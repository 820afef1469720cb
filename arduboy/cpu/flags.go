package cpu

// The three flag-setting formulas below are pure functions of the operands
// and the result, grounded directly in original_source/cpu.rs's
// flags_add/flags_sub/flags_logic (themselves transcriptions of the
// ATmega32u4 instruction-set datasheet). They mutate only the flag bits named;
// FlagsAdd/FlagsSub/FlagsLogic never touch the top bits (T, I) of SREG.

// FlagsAdd sets H, V, N, Z, C, S on s after computing r = rd + rr (8-bit).
func (s *State) FlagsAdd(rd, rr, r uint8) {
	rd7, rr7, r7 := rd>>7&1, rr>>7&1, r>>7&1
	rd3, rr3, r3 := rd>>3&1, rr>>3&1, r>>3&1

	h := (rd3&rr3 | rr3&^r3 | rd3&^r3) != 0
	v := (rd7&rr7&^r7 | ^rd7&^rr7&r7) != 0
	n := r7 != 0
	z := r == 0
	c := (rd7&rr7 | rr7&^r7 | rd7&^r7) != 0

	s.SetFlag(FlagH, h)
	s.SetFlag(FlagV, v)
	s.SetFlag(FlagN, n)
	s.SetFlag(FlagZ, z)
	s.SetFlag(FlagC, c)
	s.SetFlag(FlagS, n != v)
}

// FlagsSub sets H, V, N, Z, C, S on s after computing r = rd - rr (8-bit).
// When setZ is false (SBC/SBCI/CPC), Z is cleared if r != 0 but otherwise
// left untouched — the property multi-byte compare chains depend on.
func (s *State) FlagsSub(rd, rr, r uint8, setZ bool) {
	rd7, rr7, r7 := rd>>7&1, rr>>7&1, r>>7&1
	rd3, rr3, r3 := rd>>3&1, rr>>3&1, r>>3&1

	h := (^rd3&rr3 | rr3&r3 | r3&^rd3) != 0
	v := (rd7&^rr7&^r7 | ^rd7&rr7&r7) != 0
	n := r7 != 0
	c := (^rd7&rr7 | rr7&r7 | r7&^rd7) != 0

	s.SetFlag(FlagH, h)
	s.SetFlag(FlagV, v)
	s.SetFlag(FlagN, n)
	s.SetFlag(FlagC, c)
	s.SetFlag(FlagS, n != v)

	if setZ || r != 0 {
		s.SetFlag(FlagZ, r == 0)
	}
}

// FlagsLogic sets N, Z, S and clears V after a logic op (AND/OR/EOR/COM/TST).
func (s *State) FlagsLogic(r uint8) {
	n := r>>7&1 != 0
	s.SetFlag(FlagN, n)
	s.SetFlag(FlagZ, r == 0)
	s.SetFlag(FlagV, false)
	s.SetFlag(FlagS, n)
}

// FlagsIncDec sets N, Z, S, V for INC/DEC. V is set only on the single wrap
// case named by the datasheet: 0x7F->0x80 for INC, 0x80->0x7F for DEC. C is
// untouched (INC/DEC never affect carry).
func (s *State) FlagsIncDec(r uint8, isInc bool) {
	var v bool
	if isInc {
		v = r == 0x80
	} else {
		v = r == 0x7F
	}
	n := r>>7&1 != 0
	s.SetFlag(FlagV, v)
	s.SetFlag(FlagN, n)
	s.SetFlag(FlagZ, r == 0)
	s.SetFlag(FlagS, n != v)
}

// FlagsShift sets N, Z, C, V, S for the LSR/ROR/ASR family: C is the bit
// shifted out (passed in by the caller, since ROR also folds in the old
// carry), V = N^C, S = N^V.
func (s *State) FlagsShift(r uint8, carryOut bool) {
	n := r>>7&1 != 0
	s.SetFlag(FlagN, n)
	s.SetFlag(FlagZ, r == 0)
	s.SetFlag(FlagC, carryOut)
	v := n != carryOut
	s.SetFlag(FlagV, v)
	s.SetFlag(FlagS, n != v)
}

// FlagsAdiw sets N, Z, C, V, S for ADIW's 16-bit result, operating on the
// high byte of the pair per the datasheet's 16-bit overflow/carry rule.
func (s *State) FlagsAdiw(before, after uint16) {
	rdh7 := before >> 15 & 1
	r15 := after >> 15 & 1
	v := (^rdh7 & r15) != 0
	c := (^r15 & rdh7) != 0
	n := r15 != 0
	s.SetFlag(FlagV, v)
	s.SetFlag(FlagN, n)
	s.SetFlag(FlagZ, after == 0)
	s.SetFlag(FlagC, c)
	s.SetFlag(FlagS, n != v)
}

// FlagsSbiw is the SBIW counterpart of FlagsAdiw.
func (s *State) FlagsSbiw(before, after uint16) {
	rdh7 := before >> 15 & 1
	r15 := after >> 15 & 1
	v := (rdh7 & ^r15) != 0
	c := (r15 & ^rdh7) != 0
	n := r15 != 0
	s.SetFlag(FlagV, v)
	s.SetFlag(FlagN, n)
	s.SetFlag(FlagZ, after == 0)
	s.SetFlag(FlagC, c)
	s.SetFlag(FlagS, n != v)
}
