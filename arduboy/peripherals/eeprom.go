package peripherals

// EEPROM control register addresses. The 1KB of actual EEPROM data lives in
// arduboy/memory.Memory.EEPROM; EepromCtrl exists only so System's register
// dispatch table has a named peripheral to route EECR/EEDR/EEAR through —
// the read/write/erase sequencing itself is handled by System.WriteData,
// which intercepts EECR writes directly (mirroring the original, where
// EepromCtrl is an empty marker type and the real logic lives in
// Arduboy::read_data/write_data).
const (
	AddrEECR  uint16 = 0x3F
	AddrEEDR  uint16 = 0x40
	AddrEEARL uint16 = 0x41
	AddrEEARH uint16 = 0x42
)

// EECR bit positions.
const (
	EECR_EERE = 0 // EEPROM Read Enable
	EECR_EEPE = 1 // EEPROM Write Enable
	EECR_EEMPE = 2 // EEPROM Master Write Enable
	EECR_EERIE = 3 // EEPROM Ready Interrupt Enable
)

// EepromCtrl is a placeholder peripheral: it carries no state of its own.
type EepromCtrl struct{}

// NewEepromCtrl constructs an EepromCtrl.
func NewEepromCtrl() *EepromCtrl { return &EepromCtrl{} }

// Reset is a no-op; EepromCtrl has no state to reset.
func (e *EepromCtrl) Reset() {}
