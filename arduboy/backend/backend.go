// Package backend defines the platform abstraction emulator frontends
// implement: render a frame, collect input, and handle platform-specific
// features (debug overlays, snapshots).
package backend

import (
	"github.com/valerio/arduboy-emu/arduboy/debug"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/input"
)

// Backend represents a complete emulator platform (rendering + input +
// audio). Backends are responsible for:
//   - Rendering frames to their specific output (terminal, SDL window, etc.)
//   - Capturing platform-specific input events and returning them as
//     input.Events
//   - Handling backend-specific features (snapshots, debug overlays)
type Backend interface {
	// Init configures the backend with the provided configuration. Must be
	// called before Update.
	Init(config Config) error

	// Update renders frame (or a held-state placeholder) and polls for
	// platform input, returning whatever input.Events occurred.
	Update(frame *display.FrameBuffer) ([]input.Event, error)

	// Cleanup releases platform resources on shutdown.
	Cleanup() error
}

// DebugDataProvider is a minimal interface for backends that display debug
// information, avoiding exposing the full system.System to backends.
type DebugDataProvider interface {
	ExtractDebugData() *debug.Snapshot
}

// Config holds configuration shared across backend implementations.
type Config struct {
	Title         string
	Scale         int
	VSync         bool
	Fullscreen    bool
	ShowDebug     bool // backends may ignore unsupported features
	Mute          bool
	Smoothing     bool // linear texture filtering instead of crisp nearest-neighbor
	DebugProvider DebugDataProvider // optional: for backends with debug overlays
}
