package system

import (
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/peripherals"
	"github.com/valerio/arduboy-emu/arduboy/savestate"
)

// SavedState is a System's full quick-save payload: everything needed to
// resume execution exactly where it left off. Transient derived state
// (serialOut, spiOut, Breakpoints, the Debugger/Profiler) is not part of
// it — those belong to the current debugging session, not the emulated
// machine.
type SavedState struct {
	PC       uint32
	SP       uint16
	SREG     uint8
	Tick     uint64
	Sleeping bool
	EIND     uint8
	RAMPZ    uint8

	Flash  []byte
	Data   []byte
	EEPROM []byte

	CpuType     CpuType
	DisplayType DisplayType
	Board       BoardKind

	Timer0 peripherals.Timer8State
	Timer1 peripherals.Timer16State
	Timer2 *peripherals.Timer8State
	Timer3 *peripherals.Timer16State
	Timer4 *peripherals.Timer4State

	Spi peripherals.Spi
	Adc peripherals.Adc
	Pll *peripherals.Pll

	FxFlash peripherals.FxFlashState

	Ssd1306 *display.Ssd1306State
	Pcd8544 *display.Pcd8544State

	Rng        uint32
	FrameCount uint64

	Speaker1Level, Speaker2Level bool
	LedRX, LedTX                 bool
	LedRGBR, LedRGBG, LedRGBB    bool
	EepromDirty                  bool
	FxCSWasLow                   bool
	PcdCSBit, PcdDCBit           uint8
}

// CaptureState snapshots s's entire machine state for a quick-save.
func (s *System) CaptureState() SavedState {
	saved := SavedState{
		PC: s.CPU.PC, SP: s.CPU.SP, SREG: s.CPU.SREG, Tick: s.CPU.Tick,
		Sleeping: s.CPU.Sleeping, EIND: s.CPU.EIND, RAMPZ: s.CPU.RAMPZ,

		Flash:  append([]byte(nil), s.Mem.Flash...),
		Data:   append([]byte(nil), s.Mem.Data...),
		EEPROM: append([]byte(nil), s.Mem.EEPROM...),

		CpuType:     s.CpuType,
		DisplayType: s.DisplayType,
		Board:       s.board,

		Timer0: s.Timer0.State(),
		Timer1: s.Timer1.State(),

		Spi: *s.Spi,
		Adc: *s.Adc,

		FxFlash: s.FxFlash.State(),

		Rng:        s.Rng,
		FrameCount: s.FrameCount,

		Speaker1Level: s.speaker1Level, Speaker2Level: s.speaker2Level,
		LedRX: s.ledRX, LedTX: s.ledTX,
		LedRGBR: s.ledRGBR, LedRGBG: s.ledRGBG, LedRGBB: s.ledRGBB,
		EepromDirty: s.eepromDirty,
		FxCSWasLow:  s.fxCSWasLow,
		PcdCSBit:    s.pcdCSBit, PcdDCBit: s.pcdDCBit,
	}

	if s.Timer2 != nil {
		t := s.Timer2.State()
		saved.Timer2 = &t
	}
	if s.Timer3 != nil {
		t := s.Timer3.State()
		saved.Timer3 = &t
	}
	if s.Timer4 != nil {
		t := s.Timer4.State()
		saved.Timer4 = &t
	}
	if s.Pll != nil {
		p := *s.Pll
		saved.Pll = &p
	}
	if s.Ssd1306 != nil {
		d := s.Ssd1306.State()
		saved.Ssd1306 = &d
	}
	if s.Pcd8544 != nil {
		d := s.Pcd8544.State()
		saved.Pcd8544 = &d
	}

	return saved
}

// ApplyState restores s's entire machine state from a previously captured
// SavedState. The System must already be the same CpuType the state was
// captured from (checked by the caller/file format, not here).
func (s *System) ApplyState(saved SavedState) {
	s.CPU.PC, s.CPU.SP, s.CPU.SREG, s.CPU.Tick = saved.PC, saved.SP, saved.SREG, saved.Tick
	s.CPU.Sleeping, s.CPU.EIND, s.CPU.RAMPZ = saved.Sleeping, saved.EIND, saved.RAMPZ

	copy(s.Mem.Flash, saved.Flash)
	copy(s.Mem.Data, saved.Data)
	copy(s.Mem.EEPROM, saved.EEPROM)

	s.DisplayType = saved.DisplayType
	s.board = saved.Board

	s.Timer0.Restore(saved.Timer0)
	s.Timer1.Restore(saved.Timer1)
	if s.Timer2 != nil && saved.Timer2 != nil {
		s.Timer2.Restore(*saved.Timer2)
	}
	if s.Timer3 != nil && saved.Timer3 != nil {
		s.Timer3.Restore(*saved.Timer3)
	}
	if s.Timer4 != nil && saved.Timer4 != nil {
		s.Timer4.Restore(*saved.Timer4)
	}

	*s.Spi = saved.Spi
	*s.Adc = saved.Adc
	if s.Pll != nil && saved.Pll != nil {
		*s.Pll = *saved.Pll
	}

	s.FxFlash.Restore(saved.FxFlash)

	if s.Ssd1306 != nil && saved.Ssd1306 != nil {
		s.Ssd1306.Restore(*saved.Ssd1306)
	}
	if s.Pcd8544 != nil && saved.Pcd8544 != nil {
		s.Pcd8544.Restore(*saved.Pcd8544)
	}

	s.Rng, s.FrameCount = saved.Rng, saved.FrameCount
	s.speaker1Level, s.speaker2Level = saved.Speaker1Level, saved.Speaker2Level
	s.ledRX, s.ledTX = saved.LedRX, saved.LedTX
	s.ledRGBR, s.ledRGBG, s.ledRGBB = saved.LedRGBR, saved.LedRGBG, saved.LedRGBB
	s.eepromDirty = saved.EepromDirty
	s.fxCSWasLow = saved.FxCSWasLow
	s.pcdCSBit, s.pcdDCBit = saved.PcdCSBit, saved.PcdDCBit
}

// SaveStateToFile writes the current machine state to path.
func (s *System) SaveStateToFile(path string) error {
	return savestate.Save(path, uint8(s.CpuType), s.CaptureState())
}

// LoadStateFromFile replaces the current machine state with the one stored
// at path. Returns an error (leaving s untouched) if the file was saved for
// a different CPU type.
func (s *System) LoadStateFromFile(path string) error {
	var saved SavedState
	if err := savestate.Load(path, uint8(s.CpuType), &saved); err != nil {
		return err
	}
	s.ApplyState(saved)
	return nil
}
