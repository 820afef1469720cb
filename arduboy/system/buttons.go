package system

// BoardKind selects which handheld's button wiring SetButton uses, since
// the Arduboy, the 32u4-based Gamebuino, and the 328P Gamebuino Classic
// each tie the same six logical buttons to different physical pins.
type BoardKind int

const (
	BoardArduboy BoardKind = iota
	BoardGamebuino32u4
	BoardGamebuinoClassic
)

// Board is the handheld whose pin mapping SetButton consults; defaults to
// BoardArduboy, overridable by whatever loads the cartridge once it knows
// which board the binary targets.
func (s *System) SetBoard(b BoardKind) { s.board = b }

type buttonPinEntry struct {
	addr uint16
	bit  uint8
}

// arduboyPins is the Arduboy's own wiring: UP/DOWN/LEFT/RIGHT on PORTF,
// A/B split across PORTE and PORTB.
var arduboyPins = map[Button]buttonPinEntry{
	ButtonUp:    {AddrPINF, 7},
	ButtonDown:  {AddrPINF, 4},
	ButtonLeft:  {AddrPINF, 5},
	ButtonRight: {AddrPINF, 6},
	ButtonA:     {AddrPINE, 6},
	ButtonB:     {AddrPINB, 4},
}

// gamebuino32u4Pins is the original Gamebuino's wiring when running on
// 32u4 hardware: everything lives on PORTB/PORTD except RIGHT, on PORTE.
var gamebuino32u4Pins = map[Button]buttonPinEntry{
	ButtonUp:    {AddrPINB, 5},
	ButtonDown:  {AddrPIND, 7},
	ButtonLeft:  {AddrPINB, 4},
	ButtonRight: {AddrPINE, 6},
	ButtonA:     {AddrPIND, 4},
	ButtonB:     {AddrPIND, 1},
}

// gamebuinoClassicPins is the Gamebuino Classic's 328P wiring.
var gamebuinoClassicPins = map[Button]buttonPinEntry{
	ButtonUp:    {AddrPINB, 1},
	ButtonDown:  {AddrPIND, 6},
	ButtonLeft:  {AddrPINB, 0},
	ButtonRight: {AddrPIND, 7},
	ButtonA:     {AddrPIND, 4},
	ButtonB:     {AddrPIND, 2},
}

// buttonPin resolves a logical button to its backing GPIO address and bit
// for the system's current board, returning addr 0 if the board/button
// combination isn't wired (which SetButton treats as a no-op).
func (s *System) buttonPin(btn Button) (addr uint16, bit uint8) {
	var table map[Button]buttonPinEntry
	switch s.board {
	case BoardGamebuino32u4:
		table = gamebuino32u4Pins
	case BoardGamebuinoClassic:
		table = gamebuinoClassicPins
	default:
		table = arduboyPins
	}
	e, ok := table[btn]
	if !ok {
		return 0, 0
	}
	return e.addr, e.bit
}
