// Package input names the logical actions a backend can report, decoupling
// host key/button codes from the six physical Arduboy/Gamebuino buttons and
// the emulator-level controls (snapshot, pause, quit, debug toggles).
package input

// Action represents an input action that can be performed in the emulator.
type Action int

const (
	ButtonUp Action = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB

	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorStepInstruction
	EmulatorSnapshot
	EmulatorDebugToggle
	EmulatorQuit
)

// Category groups actions for routing purposes.
type Category int

const (
	CategoryGameInput Category = iota
	CategoryEmulator
	CategoryDebug
)

// Info carries metadata about an action.
type Info struct {
	Action      Action
	Category    Category
	Debounce    bool // true if the action should only fire once per key press
	Description string
}

// Registry is the canonical list of known actions and their metadata.
var Registry = []Info{
	{ButtonUp, CategoryGameInput, false, "D-pad up"},
	{ButtonDown, CategoryGameInput, false, "D-pad down"},
	{ButtonLeft, CategoryGameInput, false, "D-pad left"},
	{ButtonRight, CategoryGameInput, false, "D-pad right"},
	{ButtonA, CategoryGameInput, false, "A button"},
	{ButtonB, CategoryGameInput, false, "B button"},

	{EmulatorPauseToggle, CategoryEmulator, true, "Pause/resume emulation"},
	{EmulatorStepFrame, CategoryEmulator, true, "Step one frame"},
	{EmulatorStepInstruction, CategoryEmulator, true, "Step one instruction"},
	{EmulatorSnapshot, CategoryEmulator, true, "Save a PNG screenshot"},
	{EmulatorDebugToggle, CategoryDebug, true, "Toggle debug overlay"},
	{EmulatorQuit, CategoryEmulator, true, "Quit the emulator"},
}
