package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSystemWiresPerCpuTypePeripherals(t *testing.T) {
	s32u4 := NewSystem(ATmega32u4)
	assert.NotNil(t, s32u4.Timer3)
	assert.NotNil(t, s32u4.Timer4)
	assert.NotNil(t, s32u4.Pll)
	assert.NotNil(t, s32u4.Ssd1306)
	assert.Nil(t, s32u4.Timer2)
	assert.Nil(t, s32u4.Pcd8544)

	s328p := NewSystem(ATmega328p)
	assert.NotNil(t, s328p.Timer2)
	assert.NotNil(t, s328p.Pcd8544)
	assert.Nil(t, s328p.Timer3)
	assert.Nil(t, s328p.Timer4)
	assert.Nil(t, s328p.Pll)
	assert.Nil(t, s328p.Ssd1306)
}

func TestResetClearsStateAndSetsStackPointer(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Mem.Data[100] = 0xAA
	s.CPU.PC = 500
	s.Reset()

	assert.Equal(t, uint8(0), s.Mem.Data[100])
	assert.Equal(t, uint32(0), s.CPU.PC)
	assert.Equal(t, uint16(len(s.Mem.Data)-1), s.CPU.SP)
	assert.Equal(t, uint8(s.CPU.SP&0xFF), s.Mem.Data[0x5D])
	assert.Equal(t, uint8(s.CPU.SP>>8), s.Mem.Data[0x5E])
}

func TestDetectCPUTypeFromResetVector(t *testing.T) {
	jmpImage := []byte{0x0C, 0x94, 0x00, 0x00}
	assert.Equal(t, ATmega32u4, DetectCPUType(jmpImage))

	rjmpImage := []byte{0x01, 0xC0, 0x00, 0x00}
	assert.Equal(t, ATmega328p, DetectCPUType(rjmpImage))
}

func TestSaveAndLoadEEPROMRoundTrips(t *testing.T) {
	s := NewSystem(ATmega32u4)
	s.Mem.EEPROM[0] = 0x42
	s.Mem.EEPROM[1023] = 0x99

	saved := s.SaveEEPROM()
	s.LoadEEPROM(make([]byte, 10))
	assert.Equal(t, uint8(0), s.Mem.EEPROM[0])
	assert.Equal(t, uint8(0xFF), s.Mem.EEPROM[20])

	s.LoadEEPROM(saved)
	assert.Equal(t, uint8(0x42), s.Mem.EEPROM[0])
	assert.Equal(t, uint8(0x99), s.Mem.EEPROM[1023])
}
