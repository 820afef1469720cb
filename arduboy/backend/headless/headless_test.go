package headless_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/arduboy-emu/arduboy/backend"
	"github.com/valerio/arduboy-emu/arduboy/backend/headless"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/input"
)

func TestHeadlessBackendQuitsAfterMaxFrames(t *testing.T) {
	h := headless.New(3, headless.SnapshotConfig{})
	require.NoError(t, h.Init(backend.Config{Title: "Test"}))

	frame := display.NewFrameBuffer()
	for i := 0; i < 3; i++ {
		events, err := h.Update(frame)
		require.NoError(t, err)

		if i < 2 {
			assert.Empty(t, events)
		} else {
			require.Len(t, events, 1)
			assert.Equal(t, input.EmulatorQuit, events[0].Action)
			assert.Equal(t, input.Press, events[0].Type)
		}
	}

	assert.NoError(t, h.Cleanup())
}

func TestHeadlessBackendSavesSnapshotsAtInterval(t *testing.T) {
	dir := t.TempDir()
	cfg, err := headless.NewSnapshotConfig(1, dir, "mygame.hex")
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "mygame", cfg.GameName)

	h := headless.New(2, cfg)
	require.NoError(t, h.Init(backend.Config{}))

	frame := display.NewFrameBuffer()
	_, err = h.Update(frame)
	require.NoError(t, err)
	_, err = h.Update(frame)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "mygame_frame_*.png"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestHeadlessImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*headless.Backend)(nil)
}
