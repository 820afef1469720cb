//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/valerio/arduboy-emu/arduboy/backend"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/input"
)

// Backend is a stub standing in for the real SDL2 backend when built without
// the sdl2 tag (and therefore without a dependency on SDL2 development
// libraries).
type Backend struct{}

// New creates a stub SDL2 backend that errors on Init.
func New() *Backend {
	return &Backend{}
}

func (s *Backend) Init(config backend.Config) error {
	return fmt.Errorf("sdl2 backend not available: build with -tags sdl2 and install SDL2 development libraries")
}

func (s *Backend) Update(frame *display.FrameBuffer) ([]input.Event, error) {
	return nil, fmt.Errorf("sdl2 backend not available")
}

func (s *Backend) Cleanup() error { return nil }
