// Package savestate implements the on-disk quick-save/quick-load format and
// an in-memory rewind ring buffer. A save file is a small fixed header
// (magic, format version, CPU-type discriminant) followed by a
// gob-encoded, deflate-compressed state payload; the caller supplies and
// receives that payload as a plain Go value, so this package never needs
// to know the shape of a System's state.
package savestate

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic identifies an arduboy-emu save state file.
const Magic = "ABES"

// FormatVersion is the current save state format. Bump it whenever the
// payload's Go type changes shape in a way gob can't decode across.
const FormatVersion uint32 = 1

const headerSize = len(Magic) + 4 + 1 // magic + version + cpu type byte

// Save gob-encodes payload, deflate-compresses it, and writes it to path
// behind the fixed header. cpuType is an opaque discriminant (the caller's
// CPU-type enum, as a byte) checked by Load to refuse loading a save made
// for a different chip.
func Save(path string, cpuType uint8, payload any) error {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(payload); err != nil {
		return fmt.Errorf("encode save state: %w", err)
	}

	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	if err != nil {
		return fmt.Errorf("init compressor: %w", err)
	}
	if _, err := fw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("compress save state: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("flush save state: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(Magic)
	binary.Write(&out, binary.LittleEndian, FormatVersion)
	out.WriteByte(cpuType)
	out.Write(compressed.Bytes())

	return os.WriteFile(path, out.Bytes(), 0o644)
}

// Load reads path, verifies its magic/version/CPU type against
// expectedCPUType, and gob-decodes the decompressed payload into out (a
// pointer to the same type Save was called with).
func Load(path string, expectedCPUType uint8, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read save state: %w", err)
	}
	if len(data) < headerSize {
		return fmt.Errorf("save state file too small")
	}
	if string(data[:len(Magic)]) != Magic {
		return fmt.Errorf("not an arduboy-emu save state (bad magic)")
	}
	version := binary.LittleEndian.Uint32(data[len(Magic):])
	if version != FormatVersion {
		return fmt.Errorf("unsupported save state version %d (expected %d)", version, FormatVersion)
	}
	cpuType := data[len(Magic)+4]
	if cpuType != expectedCPUType {
		return fmt.Errorf("CPU type mismatch: save state is for CPU type %d, current is %d", cpuType, expectedCPUType)
	}

	fr := flate.NewReader(bytes.NewReader(data[headerSize:]))
	defer fr.Close()
	decompressed, err := io.ReadAll(fr)
	if err != nil {
		return fmt.Errorf("decompress save state: %w", err)
	}

	if err := gob.NewDecoder(bytes.NewReader(decompressed)).Decode(out); err != nil {
		return fmt.Errorf("decode save state: %w", err)
	}
	return nil
}

// StatePath derives a save-state file path from a game file path:
// game.hex -> game.state, game.arduboy -> game.state.
func StatePath(gamePath string) string {
	dir := filepath.Dir(gamePath)
	base := filepath.Base(gamePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "game"
	}
	return filepath.Join(dir, stem+".state")
}
