package savestate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type examplePayload struct {
	A int
	B string
	C []byte
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.state")
	in := examplePayload{A: 42, B: "hello", C: []byte{1, 2, 3, 4}}

	require.NoError(t, Save(path, 0, in))

	var out examplePayload
	require.NoError(t, Load(path, 0, &out))
	assert.Equal(t, in, out)
}

func TestLoadRejectsCPUTypeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.state")
	require.NoError(t, Save(path, 0, examplePayload{A: 1}))

	var out examplePayload
	err := Load(path, 1, &out)
	assert.Error(t, err)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.state")
	require.NoError(t, Save(path, 0, examplePayload{A: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] = 'X'
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var out examplePayload
	err = Load(path, 0, &out)
	assert.Error(t, err)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.state")
	require.NoError(t, Save(path, 0, examplePayload{A: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(Magic)] = 99
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var out examplePayload
	err = Load(path, 0, &out)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	var out examplePayload
	err := Load(filepath.Join(t.TempDir(), "missing.state"), 0, &out)
	assert.Error(t, err)
}

func TestStatePathDerivesFromGameFile(t *testing.T) {
	assert.Equal(t, filepath.Join("games", "pong.state"), StatePath(filepath.Join("games", "pong.hex")))
	assert.Equal(t, filepath.Join("games", "pong.state"), StatePath(filepath.Join("games", "pong.arduboy")))
}
