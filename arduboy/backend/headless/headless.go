// Package headless implements a Backend for automated testing and batch
// runs: no window, no input, just frame counting and optional PNG
// snapshots at a fixed interval.
package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/arduboy-emu/arduboy/backend"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/input"
	"github.com/valerio/arduboy-emu/arduboy/render"
)

// Backend implements backend.Backend for headless batch runs.
type Backend struct {
	config         backend.Config
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
}

// SnapshotConfig configures periodic PNG snapshots during a headless run.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int // save a snapshot every N frames
	Directory string
	GameName  string
}

// New creates a headless backend that runs for maxFrames frames.
func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{maxFrames: maxFrames, snapshotConfig: snapshotConfig}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	slog.Info("running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

// Update advances the frame counter, saves a snapshot if due, and signals
// EmulatorQuit once maxFrames has been reached.
func (h *Backend) Update(frame *display.FrameBuffer) ([]input.Event, error) {
	h.frameCount++

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%60 == 0 {
		slog.Info("frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.maxFrames > 0 && h.frameCount >= h.maxFrames {
		if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
			h.saveSnapshot(frame)
		}
		slog.Info("headless run completed", "frames", h.frameCount)
		return []input.Event{{Action: input.EmulatorQuit, Type: input.Press}}, nil
	}

	return nil, nil
}

func (h *Backend) Cleanup() error { return nil }

// NewSnapshotConfig builds a SnapshotConfig from CLI parameters, creating
// directory if it doesn't exist (a temp dir if directory is empty).
func NewSnapshotConfig(interval int, directory, gamePath string) (SnapshotConfig, error) {
	config := SnapshotConfig{Enabled: interval > 0, Interval: interval}
	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "arduboy-emu-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	base := filepath.Base(gamePath)
	config.GameName = strings.TrimSuffix(base, filepath.Ext(base))
	return config, nil
}

func (h *Backend) saveSnapshot(frame *display.FrameBuffer) {
	name := fmt.Sprintf("%s_frame_%d.png", h.snapshotConfig.GameName, h.frameCount)
	path := filepath.Join(h.snapshotConfig.Directory, name)
	if err := render.SaveScreenshot(frame, path, 1); err != nil {
		slog.Error("failed to save snapshot", "frame", h.frameCount, "error", err)
	}
}
