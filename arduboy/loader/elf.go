package loader

import (
	"bytes"
	"debug/dwarf"
	"debug/elf"
	"fmt"
	"sort"
)

// emAVR is the ELF e_machine value for Atmel AVR, as produced by avr-gcc.
const emAVR = 83

// ProgramImage is a parsed AVR program ready to load into flash, carrying
// whatever debug info was available for the debugger and disassembler to
// annotate addresses with.
type ProgramImage struct {
	Flash []byte

	Entry uint32

	// Symbols maps a byte address to the function/object name starting
	// there (STT_FUNC and STT_OBJECT entries only).
	Symbols map[uint32]string
	// symAddrs is Symbols' keys, sorted, for FindFunction's binary search.
	symAddrs []uint32

	// Lines maps a byte address to the source file/line that compiled to
	// it, taken from the DWARF line program.
	Lines map[uint32]SourceLine
	// lineAddrs is Lines' keys, sorted, for FindLine's binary search.
	lineAddrs []uint32
}

// SourceLine names a single source location.
type SourceLine struct {
	File string
	Line int
}

// LoadELF parses a little-endian 32-bit AVR ELF binary: PT_LOAD segments
// become the flash image, .symtab supplies function/object names, and
// .debug_line (when present) supplies a source line map. A binary built
// without -g still loads fine; Symbols/Lines are simply empty.
func LoadELF(data []byte) (*ProgramImage, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse elf: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("only 32-bit ELF is supported")
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("only little-endian ELF is supported")
	}
	if uint16(f.Machine) != emAVR {
		return nil, fmt.Errorf("not an AVR ELF (machine=%d)", f.Machine)
	}

	img := &ProgramImage{
		Flash:   make([]byte, 32768),
		Entry:   uint32(f.Entry),
		Symbols: make(map[uint32]string),
		Lines:   make(map[uint32]SourceLine),
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Vaddr >= 0x800000 {
			continue
		}
		end := int(prog.Vaddr + prog.Filesz)
		if end > len(img.Flash) {
			grown := make([]byte, end)
			copy(grown, img.Flash)
			for i := len(img.Flash); i < end; i++ {
				grown[i] = 0xFF
			}
			img.Flash = grown
		}
		seg := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(seg, 0); err != nil {
			return nil, fmt.Errorf("read PT_LOAD segment at 0x%x: %w", prog.Vaddr, err)
		}
		copy(img.Flash[prog.Vaddr:], seg)
	}

	if syms, err := f.Symbols(); err == nil {
		for _, sym := range syms {
			t := elf.ST_TYPE(sym.Info)
			if (t == elf.STT_FUNC || t == elf.STT_OBJECT) && sym.Name != "" {
				img.Symbols[uint32(sym.Value)] = sym.Name
			}
		}
	}

	if dw, err := f.DWARF(); err == nil {
		loadLineProgram(dw, img.Lines)
	}

	img.symAddrs = sortedKeys(img.Symbols)
	img.lineAddrs = sortedLineKeys(img.Lines)

	return img, nil
}

func loadLineProgram(dw *dwarf.Data, out map[uint32]SourceLine) {
	reader := dw.Reader()
	for {
		entry, err := reader.Next()
		if err != nil || entry == nil {
			return
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		lr, err := dw.LineReader(entry)
		if err != nil || lr == nil {
			continue
		}
		var le dwarf.LineEntry
		for {
			if err := lr.Next(&le); err != nil {
				break
			}
			if !le.EndSequence {
				out[uint32(le.Address)] = SourceLine{File: le.File.Name, Line: le.Line}
			}
		}
	}
}

// FindFunction returns the name of the function containing byteAddr and the
// offset into it, based on the nearest symbol at or below the address.
func (p *ProgramImage) FindFunction(byteAddr uint32) (name string, offset uint32, ok bool) {
	idx := sort.Search(len(p.symAddrs), func(i int) bool { return p.symAddrs[i] > byteAddr })
	if idx == 0 {
		return "", 0, false
	}
	addr := p.symAddrs[idx-1]
	return p.Symbols[addr], byteAddr - addr, true
}

// FindLine returns the source file/line compiled into byteAddr, based on
// the nearest line-table entry at or below the address.
func (p *ProgramImage) FindLine(byteAddr uint32) (SourceLine, bool) {
	idx := sort.Search(len(p.lineAddrs), func(i int) bool { return p.lineAddrs[i] > byteAddr })
	if idx == 0 {
		return SourceLine{}, false
	}
	return p.Lines[p.lineAddrs[idx-1]], true
}

// DescribePC formats symbol and source info for a word address, the form
// the debugger and disassembler annotate instruction dumps with.
func (p *ProgramImage) DescribePC(pcWord uint16) string {
	addr := uint32(pcWord) * 2
	var out string
	if name, offset, ok := p.FindFunction(addr); ok {
		if offset == 0 {
			out = fmt.Sprintf("<%s>", name)
		} else {
			out = fmt.Sprintf("<%s+%d>", name, offset)
		}
	}
	if line, ok := p.FindLine(addr); ok {
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s:%d", baseName(line.File), line.Line)
	}
	return out
}

func sortedKeys(m map[uint32]string) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedLineKeys(m map[uint32]SourceLine) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
