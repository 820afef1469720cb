package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagsAddOverflow(t *testing.T) {
	s := &State{}
	// 0x7F + 0x01 = 0x80: signed overflow, half-carry, negative
	r := uint8(0x7F) + uint8(0x01)
	s.FlagsAdd(0x7F, 0x01, r)
	assert.True(t, s.Flag(FlagV))
	assert.True(t, s.Flag(FlagN))
	assert.True(t, s.Flag(FlagH))
	assert.False(t, s.Flag(FlagZ))
	assert.False(t, s.Flag(FlagC))
}

func TestFlagsAddCarry(t *testing.T) {
	s := &State{}
	r := uint8(0xFF) + uint8(0x01) // wraps to 0, carry out
	s.FlagsAdd(0xFF, 0x01, r)
	assert.True(t, s.Flag(FlagC))
	assert.True(t, s.Flag(FlagZ))
	assert.False(t, s.Flag(FlagV))
}

// TestFlagsSubZeroPreservation exercises the property multi-byte compare
// chains depend on: a zero-result SBC/CPC must not clear a Z flag already
// set by a prior byte's comparison.
func TestFlagsSubZeroPreservation(t *testing.T) {
	s := &State{}
	s.SetFlag(FlagZ, true) // low byte of a 16-bit compare was equal

	// high byte also equal: rd=5, rr=5, r=0, setZ=false (SBC/CPC)
	s.FlagsSub(5, 5, 0, false)
	assert.True(t, s.Flag(FlagZ), "Z must stay set when this byte is also zero")

	// now a nonzero high byte: Z must clear even though setZ is false
	s.FlagsSub(5, 3, 2, false)
	assert.False(t, s.Flag(FlagZ))
}

func TestFlagsSubSetZAlwaysWrites(t *testing.T) {
	s := &State{}
	s.SetFlag(FlagZ, true)
	// CP/SUB/SUBI/CPI pass setZ=true: Z must reflect this byte only
	s.FlagsSub(5, 5, 0, true)
	assert.True(t, s.Flag(FlagZ))
	s.FlagsSub(5, 4, 1, true)
	assert.False(t, s.Flag(FlagZ))
}

func TestFlagsLogicClearsV(t *testing.T) {
	s := &State{}
	s.SetFlag(FlagV, true)
	s.FlagsLogic(0x80)
	assert.False(t, s.Flag(FlagV))
	assert.True(t, s.Flag(FlagN))
	assert.False(t, s.Flag(FlagZ))

	s.FlagsLogic(0)
	assert.True(t, s.Flag(FlagZ))
}

func TestFlagsIncDecOverflow(t *testing.T) {
	s := &State{}
	s.FlagsIncDec(0x80, true) // INC wrapped from 0x7F -> 0x80: V set
	assert.True(t, s.Flag(FlagV))

	s.FlagsIncDec(0x7F, false) // DEC wrapped from 0x80 -> 0x7F: V set
	assert.True(t, s.Flag(FlagV))

	s.FlagsIncDec(0x01, true) // ordinary increment: no overflow
	assert.False(t, s.Flag(FlagV))
}

func TestFlagsShiftCarryAndOverflow(t *testing.T) {
	s := &State{}
	// LSR on 0x01: result 0, carry out 1, N=0 so V = N^C = 1
	s.FlagsShift(0x00, true)
	assert.True(t, s.Flag(FlagC))
	assert.True(t, s.Flag(FlagV))
	assert.True(t, s.Flag(FlagZ))
}

func TestFlagsAdiwSbiw(t *testing.T) {
	s := &State{}
	s.FlagsAdiw(0x7FFF, 0x8000) // 16-bit overflow into negative
	assert.True(t, s.Flag(FlagV))
	assert.True(t, s.Flag(FlagN))
	assert.False(t, s.Flag(FlagC))

	s.FlagsSbiw(0x0000, 0xFFFF) // borrow from zero
	assert.True(t, s.Flag(FlagC))
	assert.True(t, s.Flag(FlagN))
}

func TestSetFlagAndFlag(t *testing.T) {
	s := &State{}
	s.SetFlag(FlagI, true)
	assert.Equal(t, uint8(0x80), s.SREG)
	assert.True(t, s.Flag(FlagI))
	s.SetFlag(FlagI, false)
	assert.Equal(t, uint8(0), s.SREG)
}
