package terminal

import (
	"testing"

	"github.com/valerio/arduboy-emu/arduboy/backend"
	"github.com/valerio/arduboy-emu/arduboy/input"
)

func TestTerminalImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*Backend)(nil)
}

func TestIsGameInputClassifiesButtonsOnly(t *testing.T) {
	for _, act := range []input.Action{input.ButtonUp, input.ButtonDown, input.ButtonLeft, input.ButtonRight, input.ButtonA, input.ButtonB} {
		if !isGameInput(act) {
			t.Errorf("expected %v to be a game input", act)
		}
	}
	for _, act := range []input.Action{input.EmulatorPauseToggle, input.EmulatorQuit, input.EmulatorSnapshot} {
		if isGameInput(act) {
			t.Errorf("expected %v not to be a game input", act)
		}
	}
}

func TestRuneMappingCoversDpadAndFaceButtons(t *testing.T) {
	want := map[rune]input.Action{
		'w': input.ButtonUp,
		's': input.ButtonDown,
		'a': input.ButtonLeft,
		'd': input.ButtonRight,
		'z': input.ButtonA,
		'x': input.ButtonB,
	}
	for r, act := range want {
		if runeMapping[r] != act {
			t.Errorf("rune %q: got %v, want %v", r, runeMapping[r], act)
		}
	}
}
