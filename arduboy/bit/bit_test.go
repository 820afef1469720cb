package bit_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valerio/arduboy-emu/arduboy/bit"
)

func TestCombineAndSplit(t *testing.T) {
	v := bit.Combine(0x12, 0x34)
	require.Equal(t, uint16(0x1234), v)
	require.Equal(t, uint8(0x34), bit.Low(v))
	require.Equal(t, uint8(0x12), bit.High(v))
}

func TestSetClearIsSet(t *testing.T) {
	var v uint8 = 0
	v = bit.Set(3, v)
	require.True(t, bit.IsSet(3, v))
	v = bit.Clear(3, v)
	require.False(t, bit.IsSet(3, v))
}

func TestExtractBits(t *testing.T) {
	// q5<<5 | q4q3<<3 | q2q1q0, taken from opcode bits 13, 11:10, 2:0
	word := uint16(0b0010_1100_0000_0111) // bit13=1, bits11:10=11, bits2:0=111
	q5 := bit.ExtractBits(word, 13, 13)
	q4q3 := bit.ExtractBits(word, 11, 10)
	q2q1q0 := bit.ExtractBits(word, 2, 0)
	q := uint8(q5<<5 | q4q3<<3 | q2q1q0)
	require.Equal(t, uint8(0b1_11_111), q)
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, int32(-1), bit.SignExtend(0x7F, 7))
	require.Equal(t, int32(63), bit.SignExtend(0x3F, 7))
}
