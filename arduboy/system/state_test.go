package system

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureApplyStateRoundTrip(t *testing.T) {
	for _, cpuType := range []CpuType{ATmega32u4, ATmega328p} {
		s := NewSystem(cpuType)
		s.CPU.PC = 0x1234
		s.CPU.SREG = 0x80
		s.Mem.Data[100] = 0xAB
		s.Mem.EEPROM[0] = 0xCD
		s.Rng = 0xDEADBEEF
		s.FrameCount = 7

		saved := s.CaptureState()

		fresh := NewSystem(cpuType)
		fresh.ApplyState(saved)

		assert.Equal(t, s.CPU.PC, fresh.CPU.PC)
		assert.Equal(t, s.CPU.SREG, fresh.CPU.SREG)
		assert.Equal(t, s.Mem.Data[100], fresh.Mem.Data[100])
		assert.Equal(t, s.Mem.EEPROM[0], fresh.Mem.EEPROM[0])
		assert.Equal(t, s.Rng, fresh.Rng)
		assert.Equal(t, s.FrameCount, fresh.FrameCount)
	}
}

func TestSaveLoadStateFileRoundTrip(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.CPU.PC = 0x55
	s.Mem.Data[200] = 0x7F

	path := filepath.Join(t.TempDir(), "game.state")
	require.NoError(t, s.SaveStateToFile(path))

	fresh := NewSystem(ATmega32u4)
	require.NoError(t, fresh.LoadStateFromFile(path))

	assert.Equal(t, s.CPU.PC, fresh.CPU.PC)
	assert.Equal(t, s.Mem.Data[200], fresh.Mem.Data[200])
}

func TestLoadStateFileRejectsCpuTypeMismatch(t *testing.T) {
	s := NewSystem(ATmega32u4)
	path := filepath.Join(t.TempDir(), "game.state")
	require.NoError(t, s.SaveStateToFile(path))

	other := NewSystem(ATmega328p)
	assert.Error(t, other.LoadStateFromFile(path))
}
