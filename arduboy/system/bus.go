package system

import (
	"github.com/valerio/arduboy-emu/arduboy/cpu"
	"github.com/valerio/arduboy-emu/arduboy/peripherals"
)

// ReadData reads one byte from the unified data space, dispatching to
// whichever peripheral owns addr (if any) ahead of a plain memory read, and
// notifying the debugger's read watchpoints either way.
func (s *System) ReadData(addr uint16) uint8 {
	if v, ok := s.Timer0.Read(addr, s.CPU.Tick, s.Mem.Data); ok {
		s.Debugger.CheckRead(addr, v)
		return v
	}
	if v, ok := s.Timer1.Read(addr, s.CPU.Tick); ok {
		s.Debugger.CheckRead(addr, v)
		return v
	}
	if s.Timer2 != nil {
		if v, ok := s.Timer2.Read(addr, s.CPU.Tick, s.Mem.Data); ok {
			s.Debugger.CheckRead(addr, v)
			return v
		}
	}
	if s.Timer3 != nil {
		if v, ok := s.Timer3.Read(addr, s.CPU.Tick); ok {
			s.Debugger.CheckRead(addr, v)
			return v
		}
	}
	if s.Timer4 != nil {
		if v, ok := s.Timer4.Read(addr); ok {
			s.Debugger.CheckRead(addr, v)
			return v
		}
	}
	if v, ok := s.Spi.Read(addr); ok {
		s.Debugger.CheckRead(addr, v)
		return v
	}
	if v, ok := s.Adc.Read(addr); ok {
		s.Debugger.CheckRead(addr, v)
		return v
	}
	if s.Pll != nil && addr == peripherals.AddrPLLCSR {
		v := s.Pll.Read()
		s.Debugger.CheckRead(addr, v)
		return v
	}

	// PINx reads blend output-configured bits (reflecting the driven PORTx
	// level) with input-configured bits (reflecting whatever was last
	// written straight into PINx's own backing byte — SetButton's job).
	switch addr {
	case AddrPINB:
		ddr := s.Mem.Data[AddrDDRB]
		v := s.Mem.Data[AddrPORTB]&ddr | s.Mem.Data[AddrPINB]&^ddr
		s.Debugger.CheckRead(addr, v)
		return v
	case AddrPINC:
		ddr := s.Mem.Data[AddrDDRC]
		v := s.Mem.Data[AddrPORTC]&ddr | s.Mem.Data[AddrPINC]&^ddr
		s.Debugger.CheckRead(addr, v)
		return v
	case AddrPIND:
		ddr := s.Mem.Data[AddrDDRD]
		v := s.Mem.Data[AddrPORTD]&ddr | s.Mem.Data[AddrPIND]&^ddr
		s.Debugger.CheckRead(addr, v)
		return v
	case AddrPINE:
		if s.CpuType == ATmega32u4 {
			ddr := s.Mem.Data[AddrDDRE]
			v := s.Mem.Data[AddrPORTE]&ddr | s.Mem.Data[AddrPINE]&^ddr
			s.Debugger.CheckRead(addr, v)
			return v
		}
	case AddrPINF:
		if s.CpuType == ATmega32u4 {
			ddr := s.Mem.Data[AddrDDRF]
			v := s.Mem.Data[AddrPORTF]&ddr | s.Mem.Data[AddrPINF]&^ddr
			s.Debugger.CheckRead(addr, v)
			return v
		}
	case Addr328pUCSR0A:
		if s.CpuType == ATmega328p {
			// UDRE0 and TXC0 always read ready: nothing blocks on real UART
			// timing in this emulation.
			const v = 1<<5 | 1<<6
			s.Debugger.CheckRead(addr, v)
			return v
		}
	case peripherals.AddrEECR:
		v := s.Mem.Data[addr]
		s.Debugger.CheckRead(addr, v)
		return v
	}

	v := s.Mem.ReadRaw(addr)
	s.Debugger.CheckRead(addr, v)
	return v
}

// WriteData writes one byte to the unified data space. Most peripheral
// registers are handled by dispatching to the owning peripheral; the GPIO
// ports and a handful of special registers (SREG, SP, SPDR, EECR, the serial
// register blocks) carry side effects baked directly into this router,
// mirroring how the original bus router folds pin-edge detection and LED
// tracking into the plain register write path rather than treating it as a
// separate peripheral.
func (s *System) WriteData(addr uint16, value uint8) {
	old := s.Mem.ReadRaw(addr)
	s.Debugger.CheckWrite(addr, old, value)

	if s.Timer0.Write(addr, value, s.Mem.Data) {
		return
	}
	if s.Timer1.Write(addr, value, s.Mem.Data) {
		return
	}
	if s.Timer2 != nil && s.Timer2.Write(addr, value, s.Mem.Data) {
		return
	}
	if s.Timer3 != nil && s.Timer3.Write(addr, value, s.Mem.Data) {
		return
	}
	if s.Timer4 != nil && s.Timer4.Write(addr, value) {
		return
	}
	if addr == peripherals.AddrSPDR {
		s.Mem.Data[addr] = value
		s.dispatchSPDR(value)
		return
	}
	if s.Spi.Write(addr, value) {
		return
	}
	if s.Adc.Write(addr, value, &s.Rng) {
		return
	}
	if s.Pll != nil && addr == peripherals.AddrPLLCSR {
		s.Pll.Write(value)
		return
	}

	switch addr {
	case AddrDDRB, AddrPORTB:
		s.Mem.Data[addr] = value
		s.onPortBWrite()
		return
	case AddrDDRC, AddrPORTC:
		s.Mem.Data[addr] = value
		s.onPortCWrite()
		return
	case AddrDDRD, AddrPORTD:
		s.Mem.Data[addr] = value
		s.onPortDWrite()
		return
	case AddrDDRE, AddrPORTE:
		if s.CpuType == ATmega32u4 {
			s.Mem.Data[addr] = value
			return
		}
	case AddrDDRF, AddrPORTF:
		if s.CpuType == ATmega32u4 {
			s.Mem.Data[addr] = value
			s.onPortFWrite()
			return
		}
	case AddrPINB:
		// Writing PINx toggles the corresponding PORTx bits (a documented
		// AVR quirk used by some games to flip pins without a read-modify-
		// write), so re-enter through the PORTB write path for its side
		// effects rather than writing PINB's own (unbacked) storage.
		s.WriteData(AddrPORTB, s.Mem.Data[AddrPORTB]^value)
		return
	case AddrPINC:
		s.WriteData(AddrPORTC, s.Mem.Data[AddrPORTC]^value)
		return
	case AddrPIND:
		s.WriteData(AddrPORTD, s.Mem.Data[AddrPORTD]^value)
		return
	case AddrPINE:
		if s.CpuType == ATmega32u4 {
			s.WriteData(AddrPORTE, s.Mem.Data[AddrPORTE]^value)
			return
		}
	case AddrPINF:
		if s.CpuType == ATmega32u4 {
			s.WriteData(AddrPORTF, s.Mem.Data[AddrPORTF]^value)
			return
		}
	case cpu.SREGAddr:
		s.Mem.Data[addr] = value
		s.CPU.SREG = value
		return
	case cpu.SPLAddr:
		s.Mem.Data[addr] = value
		s.CPU.SP = s.CPU.SP&0xFF00 | uint16(value)
		return
	case cpu.SPHAddr:
		s.Mem.Data[addr] = value
		s.CPU.SP = s.CPU.SP&0x00FF | uint16(value)<<8
		return
	case peripherals.AddrEECR:
		s.writeEECR(value)
		return
	case peripherals.AddrEEDR, peripherals.AddrEEARL, peripherals.AddrEEARH:
		s.Mem.Data[addr] = value
		return
	case Addr32u4USBSerialData:
		if s.CpuType == ATmega32u4 {
			s.serialOut = append(s.serialOut, value)
			return
		}
	case Addr328pUDR0:
		if s.CpuType == ATmega328p {
			s.serialOut = append(s.serialOut, value)
			return
		}
	case Addr328pUCSR0A, Addr328pUCSR0B, Addr328pUCSR0C, Addr328pUBRR0L, Addr328pUBRR0H:
		if s.CpuType == ATmega328p {
			s.Mem.Data[addr] = value
			return
		}
	}

	s.Mem.WriteRaw(addr, value)
}

// writeEECR runs the actual EEPROM byte write when both EEMPE and EEPE are
// set (the real part's two-step write-enable sequence, collapsed here into
// one check since the emulator has no instruction-timing window to miss),
// then clears EEPE to signal completion. Setting EERE loads EEDR from the
// EEPROM byte at EEAR and clears EERE.
func (s *System) writeEECR(value uint8) {
	if value&(1<<peripherals.EECR_EERE) != 0 {
		addr := uint16(s.Mem.Data[peripherals.AddrEEARL]) | uint16(s.Mem.Data[peripherals.AddrEEARH])<<8
		if int(addr) < len(s.Mem.EEPROM) {
			s.Mem.Data[peripherals.AddrEEDR] = s.Mem.EEPROM[addr]
		}
		value &^= 1 << peripherals.EECR_EERE
	}
	if value&(1<<peripherals.EECR_EEMPE) != 0 && value&(1<<peripherals.EECR_EEPE) != 0 {
		addr := uint16(s.Mem.Data[peripherals.AddrEEARL]) | uint16(s.Mem.Data[peripherals.AddrEEARH])<<8
		if int(addr) < len(s.Mem.EEPROM) {
			s.Mem.EEPROM[addr] = s.Mem.Data[peripherals.AddrEEDR]
			s.eepromDirty = true
		}
		value &^= 1 << peripherals.EECR_EEPE
	}
	s.Mem.Data[peripherals.AddrEECR] = value
}

// WriteBit sets or clears a single bit of a data-space byte through the full
// WriteData path, used by SBI/CBI/BSET/BCLR so their side effects (pin-edge
// detection, SREG mirroring, ...) fire exactly like a full-byte OUT would.
func (s *System) WriteBit(addr uint16, bit uint8, value bool) {
	cur := s.ReadData(addr)
	if value {
		cur |= 1 << bit
	} else {
		cur &^= 1 << bit
	}
	s.WriteData(addr, cur)
}

// onPortBWrite re-derives PB5/6/7 (RGB LED, active-high) and the Speaker2
// edge (PB5, active pin on some Gamebuino wiring) from the just-written
// DDR/PORT pair.
func (s *System) onPortBWrite() {
	ddr, port := s.Mem.Data[AddrDDRB], s.Mem.Data[AddrPORTB]
	if ddr&(1<<5) != 0 {
		s.ledRGBR = port&(1<<5) != 0
		level := port&(1<<5) != 0
		s.pushSpeaker2(level)
	}
	if ddr&(1<<6) != 0 {
		s.ledRGBG = port&(1<<6) != 0
	}
	if ddr&(1<<7) != 0 {
		s.ledRGBB = port&(1<<7) != 0
	}
	if ddr&(1<<0) != 0 {
		s.ledRX = port&(1<<0) == 0 // active-low
	}
	if ddr&(1<<4) != 0 {
		// PB4 also used as a button/display-select pin on some boards; no
		// LED or speaker side effect to derive.
	}
}

func (s *System) onPortCWrite() {
	// PC6 carries Speaker1 on the Arduboy's own wiring.
	ddr, port := s.Mem.Data[AddrDDRC], s.Mem.Data[AddrPORTC]
	if ddr&(1<<6) != 0 {
		s.pushSpeaker1(port&(1<<6) != 0)
	}
}

func (s *System) onPortDWrite() {
	ddr, port := s.Mem.Data[AddrDDRD], s.Mem.Data[AddrPORTD]
	if ddr&(1<<3) != 0 {
		s.pushSpeaker1(port&(1<<3) != 0)
	}
	if ddr&(1<<5) != 0 {
		s.ledTX = port&(1<<5) == 0 // active-low
	}

	// FX flash chip-select is PD1. A rising edge (CS deasserted) resets the
	// flash's command state machine, matching real SPI CS semantics.
	csNowLow := ddr&(1<<1) != 0 && port&(1<<1) == 0
	if s.fxCSWasLow && !csNowLow {
		s.FxFlash.Deselect()
	}
	s.fxCSWasLow = csNowLow
}

func (s *System) onPortFWrite() {
	ddr, port := s.Mem.Data[AddrDDRF], s.Mem.Data[AddrPORTF]
	if ddr&(1<<5) != 0 {
		s.pushSpeaker1(port&(1<<5) != 0)
	}
}

func (s *System) pushSpeaker1(level bool) {
	if level != s.speaker1Level {
		s.speaker1Level = level
		s.AudioBuf.Left.Push(s.CPU.Tick, level)
	}
}

func (s *System) pushSpeaker2(level bool) {
	if level != s.speaker2Level {
		s.speaker2Level = level
		s.AudioBuf.Right.Push(s.CPU.Tick, level)
	}
}

// dispatchSPDR fans an SPDR write out to the FX flash (if its chip-select is
// currently asserted) and always enqueues it for the display-bound SPI
// output queue flushSPI later drains, since a single transfer can matter to
// both consumers depending on which device the board wires to which CS pin.
func (s *System) dispatchSPDR(b uint8) {
	if s.fxCSWasLow {
		resp := s.FxFlash.Transfer(b)
		s.Mem.Data[peripherals.AddrSPDR] = resp
	}
	s.spiOut = append(s.spiOut, spiOutEntry{
		b:     b,
		portB: s.Mem.Data[AddrPORTB],
		portC: s.Mem.Data[AddrPORTC],
		portD: s.Mem.Data[AddrPORTD],
		portF: s.Mem.Data[AddrPORTF],
	})
	s.Spi.Write(peripherals.AddrSPDR, b)
}

// flushSPI drains the queued SPI output bytes, deciding per-byte whether it
// targets the SSD1306 or PCD8544 based on the DC/CS pin state captured at
// write time, auto-detecting which display is actually attached on the
// first command byte seen (mirroring how the real board only learns which
// panel it's talking to once the game issues its first recognizable
// command).
func (s *System) flushSPI() {
	for _, e := range s.spiOut {
		switch s.CpuType {
		case ATmega32u4:
			s.flushSPIByte32u4(e)
		case ATmega328p:
			s.flushSPIByte328p(e)
		}
	}
	s.spiOut = s.spiOut[:0]
	if s.DisplayType == DisplayPCD8544 {
		s.Pcd8544.RenderToFrameBuffer()
	}
}

// flushSPIByte32u4 decodes DC/CS for the Arduboy's fixed wiring: PD4 is CS,
// PD6 is DC for the SSD1306; a Gamebuino running on 32u4 hardware instead
// wires DC/CS on PORTF (PF5/PF6), so both are checked and whichever CS is
// actually driven low selects the active path.
func (s *System) flushSPIByte32u4(e spiOutEntry) {
	ssd1306CSLow := e.portD&(1<<4) == 0
	ssd1306DCHigh := e.portD&(1<<6) != 0
	pcdCSLow := e.portF&(1<<6) == 0
	pcdDCHigh := e.portF&(1<<5) != 0

	if s.DisplayType == DisplayUnknown {
		if ssd1306CSLow {
			s.DisplayType = DisplaySSD1306
		} else if pcdCSLow {
			s.DisplayType = DisplayPCD8544
		}
	}

	switch s.DisplayType {
	case DisplaySSD1306:
		if ssd1306CSLow {
			if ssd1306DCHigh {
				s.Ssd1306.ReceiveData(e.b)
			} else {
				s.Ssd1306.ReceiveCommand(e.b)
			}
		}
	case DisplayPCD8544:
		if pcdCSLow {
			if pcdDCHigh {
				s.Pcd8544.ReceiveData(e.b)
			} else {
				s.Pcd8544.ReceiveCommand(e.b)
			}
		}
	}
}

// flushSPIByte328p decodes DC/CS for the Gamebuino Classic's PCD8544 wiring
// by auto-detecting them from the first queued byte whose PORTC snapshot has
// exactly two low bits: the lower of the two is taken as CS and the higher as
// DC. Neither the byte's value nor DDRC is examined. This avoids assuming
// fixed pins, matching boards that wire CS/DC to different PORTC bits across
// hardware revisions.
func (s *System) flushSPIByte328p(e spiOutEntry) {
	if s.DisplayType == DisplayUnknown {
		lowBits := ^e.portC & 0xFF
		if countBits(lowBits) == 2 {
			s.DisplayType = DisplayPCD8544
			s.pcdCSBit, s.pcdDCBit = lowOutputBits(lowBits)
		} else {
			return
		}
	}
	if s.DisplayType != DisplayPCD8544 {
		return
	}
	csLow := e.portC&(1<<s.pcdCSBit) == 0
	dcHigh := e.portC&(1<<s.pcdDCBit) != 0
	if !csLow {
		return
	}
	if dcHigh {
		s.Pcd8544.ReceiveData(e.b)
	} else {
		s.Pcd8544.ReceiveCommand(e.b)
	}
}

func countBits(b uint8) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

func lowOutputBits(lowBits uint8) (first, second uint8) {
	found := []uint8{}
	for i := uint8(0); i < 8; i++ {
		if lowBits&(1<<i) != 0 {
			found = append(found, i)
		}
	}
	if len(found) >= 2 {
		return found[0], found[1]
	}
	return 0, 1
}

// updatePeripherals advances every peripheral's free-running state and
// services at most one pending interrupt, in fixed hardware priority order:
// Timer0, Timer1, Timer3 (32u4), Timer4 (32u4), Timer2 (328P), SPI, USART0
// (328P), ADC. Each Update runs unconditionally; CheckInterrupt is only
// consulted when the global interrupt-enable flag is set, and the first hit
// found ends the scan for this call.
func (s *System) updatePeripherals() {
	s.Timer0.Update(s.CPU.Tick, s.Mem.Data)
	s.Timer1.Update(s.CPU.Tick, s.Mem.Data)
	if s.Timer3 != nil {
		s.Timer3.Update(s.CPU.Tick, s.Mem.Data)
	}
	if s.Timer4 != nil {
		s.Timer4.Update(s.CPU.Tick, s.Mem.Data)
	}
	if s.Timer2 != nil {
		s.Timer2.Update(s.CPU.Tick, s.Mem.Data)
	}
	s.Adc.Update(&s.Rng)

	if !s.CPU.Flag(cpu.FlagI) {
		return
	}

	if v, ok := s.Timer0.CheckInterrupt(); ok {
		s.doInterrupt(v)
		return
	}
	if v, ok := s.Timer1.CheckInterrupt(); ok {
		s.doInterrupt(v)
		return
	}
	if s.Timer3 != nil {
		if v, ok := s.Timer3.CheckInterrupt(); ok {
			s.doInterrupt(v)
			return
		}
	}
	if s.Timer4 != nil {
		if v, ok := s.Timer4.CheckInterrupt(); ok {
			s.doInterrupt(v)
			return
		}
	}
	if s.Timer2 != nil {
		if v, ok := s.Timer2.CheckInterrupt(); ok {
			s.doInterrupt(v)
			return
		}
	}
	if v, ok := s.Spi.CheckInterrupt(spiVector(s.CpuType)); ok {
		s.doInterrupt(v)
		return
	}
	if s.CpuType == ATmega328p {
		ucsr0a, ucsr0b := s.Mem.Data[Addr328pUCSR0A], s.Mem.Data[Addr328pUCSR0B]
		if ucsr0a&(1<<5) != 0 && ucsr0b&(1<<5) != 0 { // UDRE0 + UDRIE0
			s.doInterrupt(peripherals.Int328pUSARTUDRE)
			return
		}
		if ucsr0a&(1<<6) != 0 && ucsr0b&(1<<6) != 0 { // TXC0 + TXCIE0
			s.doInterrupt(peripherals.Int328pUSARTTX)
			return
		}
	}
	if v, ok := s.Adc.CheckInterrupt(adcVector(s.CpuType)); ok {
		s.doInterrupt(v)
		return
	}
}

// doInterrupt pushes the return address directly into the data space
// (bypassing WriteData, since a hardware interrupt entry isn't a bus write
// the debugger or peripherals should observe), clears the global interrupt
// flag, and jumps to vector.
func (s *System) doInterrupt(vector uint16) {
	ret := s.CPU.PC
	s.Mem.Data[s.CPU.SP] = uint8(ret >> 8)
	s.Mem.Data[s.CPU.SP-1] = uint8(ret & 0xFF)
	s.CPU.SP -= 2
	s.Mem.Data[cpu.SPLAddr] = uint8(s.CPU.SP & 0xFF)
	s.Mem.Data[cpu.SPHAddr] = uint8(s.CPU.SP >> 8)

	s.CPU.SetFlag(cpu.FlagI, false)
	s.Mem.Data[cpu.SREGAddr] = s.CPU.SREG

	s.CPU.PC = uint32(vector)
	s.CPU.Tick += 5
}
