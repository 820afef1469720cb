package loader

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ArduboyFile is the parsed contents of a .arduboy bundle: a ZIP archive
// carrying the game's Intel HEX image, optional FX flash data, and an
// info.json with title/author metadata.
type ArduboyFile struct {
	Title  string
	Author string

	// Hex is the game's Intel HEX text, always present in a valid bundle.
	Hex string
	// FxData is the optional FX flash image, nil if the bundle carries none.
	FxData []byte

	// Files holds every archive member by name, for callers that need
	// access beyond what this parser extracts by convention.
	Files map[string][]byte
}

type arduboyInfo struct {
	Title     string `json:"title"`
	Name      string `json:"name"`
	Author    string `json:"author"`
	Developer string `json:"developer"`
}

// ParseArduboyFile reads a .arduboy ZIP bundle from raw bytes.
func ParseArduboyFile(data []byte) (*ArduboyFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse .arduboy archive: %w", err)
	}

	result := &ArduboyFile{Files: make(map[string][]byte)}
	for _, entry := range zr.File {
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		content, err := readZipEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name, err)
		}
		result.Files[entry.Name] = content
		// Also index by base name, so lookups don't need to know the
		// bundle's internal directory layout.
		if base := baseName(entry.Name); base != entry.Name {
			result.Files[base] = content
		}
	}

	for name, content := range result.Files {
		lower := strings.ToLower(name)
		if strings.HasSuffix(lower, ".hex") {
			result.Hex = string(content)
		}
	}

	for name, content := range result.Files {
		if strings.HasSuffix(strings.ToLower(name), "-fx.bin") {
			result.FxData = content
			break
		}
	}
	if result.FxData == nil {
		for name, content := range result.Files {
			lower := strings.ToLower(name)
			if strings.HasSuffix(lower, ".bin") && !strings.Contains(lower, "info") {
				result.FxData = content
				break
			}
		}
	}

	if info, ok := result.Files["info.json"]; ok {
		var parsed arduboyInfo
		if err := json.Unmarshal(info, &parsed); err == nil {
			result.Title = firstNonEmpty(parsed.Title, parsed.Name)
			result.Author = firstNonEmpty(parsed.Author, parsed.Developer)
		}
	}

	if result.Hex == "" {
		return nil, fmt.Errorf("no .hex file found in .arduboy archive")
	}

	return result, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
