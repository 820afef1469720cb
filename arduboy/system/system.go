// Package system wires the CPU, memory, and peripherals together into a
// runnable machine: the memory-mapped I/O bus router, the per-frame driver
// loop, interrupt dispatch, and instruction execution — the place where
// "decode" becomes "do".
package system

import (
	"github.com/valerio/arduboy-emu/arduboy/audio"
	"github.com/valerio/arduboy-emu/arduboy/cpu"
	"github.com/valerio/arduboy-emu/arduboy/debug"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/memory"
	"github.com/valerio/arduboy-emu/arduboy/peripherals"
)

// CpuType selects which AVR part a System emulates: the ATmega32u4 (Arduboy,
// and original Gamebuino running the bootstrap firmware) or the ATmega328P
// (Gamebuino Classic).
type CpuType int

const (
	ATmega32u4 CpuType = iota
	ATmega328p
)

// DisplayType selects which controller is wired to the SPI bus. Unknown is
// the reset state: the first SPI byte sent determines which controller the
// game is actually talking to, matching real hardware's auto-sensed wiring.
type DisplayType int

const (
	DisplayUnknown DisplayType = iota
	DisplaySSD1306
	DisplayPCD8544
)

// Button names one of the six physical buttons common to both handhelds.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
)

// CyclesPerFrame is the fixed per-frame cycle budget: 16MHz CPU clock at a
// 135/10000 duty cycle, i.e. 216000 cycles per frame, about 74Hz.
const CyclesPerFrame = 16_000_000 * 135 / 10000

// GPIO data-space addresses shared by both CPU types.
const (
	AddrPINB, AddrDDRB, AddrPORTB uint16 = 0x23, 0x24, 0x25
	AddrPINC, AddrDDRC, AddrPORTC uint16 = 0x26, 0x27, 0x28
	AddrPIND, AddrDDRD, AddrPORTD uint16 = 0x29, 0x2A, 0x2B
	// 32u4-only ports.
	AddrPINE, AddrDDRE, AddrPORTE uint16 = 0x2C, 0x2D, 0x2E
	AddrPINF, AddrDDRF, AddrPORTF uint16 = 0x2F, 0x30, 0x31
)

// USART0 addresses (328P only) and the 32u4's USB-serial stand-in register.
const (
	Addr328pUCSR0A, Addr328pUCSR0B, Addr328pUCSR0C uint16 = 0xC0, 0xC1, 0xC2
	Addr328pUBRR0L, Addr328pUBRR0H                uint16 = 0xC4, 0xC5
	Addr328pUDR0                                   uint16 = 0xC6

	Addr32u4USBSerialData uint16 = 0xCE
)

// spiOutEntry is one byte queued by an SPDR write for later dispatch by
// flushSPI, tagged with the GPIO port snapshot at the moment of the write so
// chip-select/DC decoding reflects the pin state at transfer time, not
// whatever it is by the time the queue drains.
type spiOutEntry struct {
	b                  uint8
	portB, portC, portD, portF uint8
}

// System is a fully wired AVR machine: CPU state, the three address spaces,
// every peripheral, both display controllers (only one active per CpuType),
// and the debug/profiling hooks the GDB server and CLI drive.
type System struct {
	CPU cpu.State
	Mem *memory.Memory

	CpuType     CpuType
	DisplayType DisplayType
	board       BoardKind

	Ssd1306 *display.Ssd1306
	Pcd8544 *display.Pcd8544

	Timer0 *peripherals.Timer8  // Timer/Counter0, both chips
	Timer1 *peripherals.Timer16 // Timer/Counter1, both chips
	Timer2 *peripherals.Timer8  // Timer/Counter2, 328P only
	Timer3 *peripherals.Timer16 // Timer/Counter3, 32u4 only
	Timer4 *peripherals.Timer4  // Timer/Counter4, 32u4 only

	Spi         *peripherals.Spi
	Adc         *peripherals.Adc
	Pll         *peripherals.Pll // 32u4 only
	EepromCtrl  *peripherals.EepromCtrl
	FxFlash     *peripherals.FxFlash

	AudioBuf *audio.Buffer

	Debugger *debug.Debugger
	Profiler *debug.Profiler

	Rng           uint32
	FrameCount    uint64
	Breakpoints   map[uint32]bool
	BreakpointHit bool

	serialOut []byte

	spiOut []spiOutEntry

	speaker1Level, speaker2Level bool

	ledRX, ledTX          bool
	ledRGBR, ledRGBG, ledRGBB bool

	eepromDirty bool

	fxCSWasLow bool

	// pcdCSBit/pcdDCBit are the PORTC bit indices auto-detected for a 328P's
	// PCD8544 chip-select/data-command pins on the first command byte seen.
	pcdCSBit, pcdDCBit uint8
}

// NewSystem constructs a System for the given CPU type, with all peripherals
// wired to the correct register addresses and interrupt vectors for that
// chip, and resets it to power-on state.
func NewSystem(cpuType CpuType) *System {
	s := &System{CpuType: cpuType}

	dataSize := memory.DataSize32u4
	if cpuType == ATmega328p {
		dataSize = memory.DataSize328p
	}
	s.Mem = memory.New(dataSize)

	s.Spi = peripherals.NewSpi()
	s.Adc = peripherals.NewAdc()
	s.EepromCtrl = peripherals.NewEepromCtrl()
	s.FxFlash = peripherals.NewFxFlash()
	s.AudioBuf = audio.NewBuffer()
	s.Debugger = debug.NewDebugger()
	s.Profiler = debug.NewProfiler()
	s.Breakpoints = make(map[uint32]bool)
	s.Rng = 0xACE1ACE1

	s.Timer0 = peripherals.NewTimer8(peripherals.Timer8Addrs{
		TIFR: 0x35, TCCRA: 0x44, TCCRB: 0x45, OCRA: 0x47, OCRB: 0x48, TIMSK: 0x6E, TCNT: 0x46,
	}, timer0OVFVector(cpuType), timer0COMPAVector(cpuType), timer0COMPBVector(cpuType))

	s.Timer1 = peripherals.NewTimer16(peripherals.Timer16Addrs{
		TIFR: 0x36, TCCRA: 0x80, TCCRB: 0x81, TCCRC: 0x82,
		OCRAH: 0x89, OCRAL: 0x88, OCRBH: 0x8B, OCRBL: 0x8A, OCRCH: 0x8D, OCRCL: 0x8C,
		TIMSK: 0x6F, TCNTH: 0x85, TCNTL: 0x84,
	}, timer1OVFVector(cpuType), timer1COMPAVector(cpuType), timer1COMPBVector(cpuType), timer1COMPCVector(cpuType))

	switch cpuType {
	case ATmega32u4:
		s.Timer3 = peripherals.NewTimer16(peripherals.Timer16Addrs{
			TIFR: 0x38, TCCRA: 0x90, TCCRB: 0x91, TCCRC: 0x92,
			OCRAH: 0x99, OCRAL: 0x98, OCRBH: 0x9B, OCRBL: 0x9A, OCRCH: 0x9D, OCRCL: 0x9C,
			TIMSK: 0x71, TCNTH: 0x95, TCNTL: 0x94,
		}, peripherals.IntTimer3OVF, peripherals.IntTimer3COMPA, peripherals.IntTimer3COMPB, peripherals.IntTimer3COMPC)
		s.Timer4 = peripherals.NewTimer4()
		s.Pll = peripherals.NewPll()
		s.Ssd1306 = display.NewSsd1306()
	case ATmega328p:
		s.Timer2 = peripherals.NewTimer8(peripherals.Timer8Addrs{
			TIFR: 0x37, TCCRA: 0xB0, TCCRB: 0xB1, OCRA: 0xB3, OCRB: 0xB4, TIMSK: 0x70, TCNT: 0xB2,
		}, peripherals.Int328pTimer2OVF, peripherals.Int328pTimer2COMPA, peripherals.Int328pTimer2COMPB)
		s.Pcd8544 = display.NewPcd8544()
	}

	s.Reset()
	return s
}

func timer0OVFVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pTimer0OVF
	}
	return peripherals.IntTimer0OVF
}

func timer0COMPAVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pTimer0COMPA
	}
	return peripherals.IntTimer0COMPA
}

func timer0COMPBVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pTimer0COMPB
	}
	return peripherals.IntTimer0COMPB
}

func timer1OVFVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pTimer1OVF
	}
	return peripherals.IntTimer1OVF
}

func timer1COMPAVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pTimer1COMPA
	}
	return peripherals.IntTimer1COMPA
}

func timer1COMPBVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pTimer1COMPB
	}
	return peripherals.IntTimer1COMPB
}

// timer1COMPCVector returns 0 on the 328P, which has no OCR1C/COMPC; Timer16
// simply never raises that vector's condition in that configuration since
// nothing ever writes a match against an always-zero OCRC compare enable.
func timer1COMPCVector(t CpuType) uint16 {
	if t == ATmega328p {
		return 0
	}
	return peripherals.IntTimer1COMPC
}

func spiVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pSPI
	}
	return peripherals.IntSPI
}

func adcVector(t CpuType) uint16 {
	if t == ATmega328p {
		return peripherals.Int328pADC
	}
	return peripherals.IntADC
}

// DetectCPUType inspects a flash image's reset vector to guess which chip it
// targets: a 328P image's reset vector is a 1-word RJMP, a 32u4 image's is a
// 2-word JMP (opcode 0x940C high nibble), matching how avr-gcc's toolchain
// output differs between the two parts' linker scripts.
func DetectCPUType(flash []byte) CpuType {
	if len(flash) < 4 {
		return ATmega32u4
	}
	word0 := uint16(flash[0]) | uint16(flash[1])<<8
	if word0&0xFE0E == 0x940C {
		return ATmega32u4
	}
	return ATmega328p
}

// Reset returns the machine to power-on state: zeroed CPU registers and data
// space, PC at the reset vector, every peripheral at its own reset default.
func (s *System) Reset() {
	s.CPU = cpu.State{SP: uint16(len(s.Mem.Data) - 1)}
	for i := range s.Mem.Data {
		s.Mem.Data[i] = 0
	}
	s.Mem.Data[0x5D] = uint8(s.CPU.SP & 0xFF)
	s.Mem.Data[0x5E] = uint8(s.CPU.SP >> 8)

	s.Timer0.Reset()
	s.Timer1.Reset()
	if s.Timer2 != nil {
		s.Timer2.Reset()
	}
	if s.Timer3 != nil {
		s.Timer3.Reset()
	}
	if s.Timer4 != nil {
		s.Timer4.Reset()
	}
	s.Spi.Reset()
	s.Adc.Reset()
	if s.Pll != nil {
		s.Pll.Reset()
	}
	s.EepromCtrl.Reset()

	s.spiOut = s.spiOut[:0]
	s.serialOut = s.serialOut[:0]
	s.speaker1Level, s.speaker2Level = false, false
	s.ledRX, s.ledTX = false, false
	s.ledRGBR, s.ledRGBG, s.ledRGBB = false, false, false
	s.DisplayType = DisplayUnknown
	s.eepromDirty = false
	s.FrameCount = 0
	s.BreakpointHit = false
}

// SetButton sets or clears a button's backing GPIO pin, active-low per the
// physical wiring (pressed pulls the pin low). The pin mapping differs by
// handheld and CPU type since each board wires its buttons to whatever pins
// were convenient.
func (s *System) SetButton(btn Button, pressed bool) {
	addr, bit := s.buttonPin(btn)
	if addr == 0 {
		return
	}
	// Buttons are read back through PINx, which mirrors PORTx for
	// output-configured pins and the driven input level otherwise; since no
	// game drives these pins as outputs, writing PINx's backing byte
	// directly is equivalent and avoids modeling a phantom driver.
	v := s.Mem.Data[addr]
	if pressed {
		v &^= 1 << bit
	} else {
		v |= 1 << bit
	}
	s.Mem.Data[addr] = v
}

// FramebufferU32 returns the active display's framebuffer as packed 0xRRGGBB
// words, or an all-black buffer if no display has been selected yet.
func (s *System) FramebufferU32() []uint32 {
	switch s.DisplayType {
	case DisplaySSD1306:
		return s.Ssd1306.AsPixelBuffer()
	case DisplayPCD8544:
		out := make([]uint32, display.Width*display.Height)
		for i, p := range s.Pcd8544.FB.ToSlice() {
			out[i] = (p >> 8) & 0xFFFFFF
		}
		return out
	default:
		return make([]uint32, display.Width*display.Height)
	}
}

// FramebufferRGBA returns the active display's framebuffer as packed
// 0xRRGGBBAA words, suitable for feeding directly to an image.RGBA buffer.
func (s *System) FramebufferRGBA() []uint32 {
	switch s.DisplayType {
	case DisplaySSD1306:
		return s.Ssd1306.FB.ToSlice()
	case DisplayPCD8544:
		return s.Pcd8544.FB.ToSlice()
	default:
		return make([]uint32, display.Width*display.Height)
	}
}

// NextRandom advances and returns one byte from the shared xorshift32 stream
// backing the ADC noise source and anything else that wants a deterministic
// pseudo-random byte tied to the same reproducible seed.
func (s *System) NextRandom() uint8 {
	return peripherals.Xorshift32(&s.Rng)
}

// GetAudioTone returns the dominant tone frequency currently being generated
// via PWM on Timer3/Timer4 (32u4) or Timer1 (328P's Arduino tone() target),
// 0 if none. This is separate from the edge-capture audio pipeline and
// exists for UI visualizations that want "the note being played" as a
// single number.
func (s *System) GetAudioTone() float32 {
	const clockHz = 16_000_000
	if s.Timer3 != nil {
		if hz := s.Timer3.GetToneHz(clockHz); hz != 0 {
			return hz
		}
	}
	if s.Timer4 != nil {
		if hz := s.Timer4.GetToneHz(clockHz); hz != 0 {
			return hz
		}
	}
	if hz := s.Timer1.GetToneHz(clockHz); hz != 0 {
		return hz
	}
	return 0
}

// TakeSerialOutput returns and clears everything written to the emulated
// serial port since the last call.
func (s *System) TakeSerialOutput() []byte {
	out := s.serialOut
	s.serialOut = nil
	return out
}

// SaveEEPROM returns a copy of the EEPROM contents, for persisting a game's
// save data to disk.
func (s *System) SaveEEPROM() []byte {
	out := make([]byte, len(s.Mem.EEPROM))
	copy(out, s.Mem.EEPROM)
	return out
}

// LoadEEPROM replaces the EEPROM contents with data, clipping or
// 0xFF-padding to the fixed 1KB size.
func (s *System) LoadEEPROM(data []byte) {
	n := copy(s.Mem.EEPROM, data)
	for i := n; i < len(s.Mem.EEPROM); i++ {
		s.Mem.EEPROM[i] = 0xFF
	}
}

// LEDState reports the state of the RX/TX status LEDs and the RGB LED, read
// back from their GPIO pins' active sense.
type LEDState struct {
	RX, TX          bool
	Red, Green, Blue bool
}

// GetLEDState returns the current LED state for a backend to render.
func (s *System) GetLEDState() LEDState {
	return LEDState{RX: s.ledRX, TX: s.ledTX, Red: s.ledRGBR, Green: s.ledRGBG, Blue: s.ledRGBB}
}
