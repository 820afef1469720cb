package display

// cmdState names where Ssd1306 is in a multi-byte command sequence. Go has
// no tagged-union enum, so the parameter bytes a state is waiting for
// (col_start, page_start, ...) are written directly into the Ssd1306 struct
// fields they belong to rather than into the tag.
type cmdState int

const (
	cmdReady cmdState = iota
	cmdSetColStart
	cmdSetColEnd
	cmdSetPageStart
	cmdSetPageEnd
	cmdSetContrast
)

// Ssd1306 emulates the 128x64 monochrome OLED controller used by the
// Arduboy, driven one SPI byte at a time via ReceiveCommand/ReceiveData
// (selected by the DC pin).
type Ssd1306 struct {
	FB *FrameBuffer

	col, page                 uint8
	colStart, colEnd          uint8
	pageStart, pageEnd        uint8
	inverted, displayOn       bool
	Contrast                  uint8
	Dirty                     bool
	DbgCmdCount, DbgDataCount uint32

	cmdState cmdState
	cmdSkip  uint8
}

// NewSsd1306 constructs an Ssd1306 at its power-on defaults.
func NewSsd1306() *Ssd1306 {
	return &Ssd1306{
		FB:       NewFrameBuffer(),
		colEnd:   127,
		pageEnd:  7,
		Contrast: 0xCF,
		cmdState: cmdReady,
	}
}

// ReceiveCommand processes one command byte (DC pin low).
func (d *Ssd1306) ReceiveCommand(b uint8) {
	d.DbgCmdCount++
	if d.cmdSkip > 0 {
		d.cmdSkip--
		return
	}

	switch d.cmdState {
	case cmdSetColStart:
		d.colStart = minU8(b, 127)
		d.col = d.colStart
		d.cmdState = cmdSetColEnd
		return
	case cmdSetColEnd:
		d.colEnd = minU8(b, 127)
		d.cmdState = cmdReady
		return
	case cmdSetPageStart:
		d.pageStart = minU8(b, 7)
		d.page = d.pageStart
		d.cmdState = cmdSetPageEnd
		return
	case cmdSetPageEnd:
		d.pageEnd = minU8(b, 7)
		d.cmdState = cmdReady
		return
	case cmdSetContrast:
		d.Contrast = b
		d.cmdState = cmdReady
		return
	case cmdReady:
	}

	switch {
	case b == 0x21: // Set column address, 2 parameter bytes follow
		d.cmdState = cmdSetColStart
	case b == 0x22: // Set page address, 2 parameter bytes follow
		d.cmdState = cmdSetPageStart
	case b == 0xAE:
		d.displayOn = false
	case b == 0xAF:
		d.displayOn = true
	case b == 0xA6:
		d.inverted = false
		d.Dirty = true
	case b == 0xA7:
		d.inverted = true
		d.Dirty = true
	case b == 0x81: // Set contrast, 1 parameter byte follows
		d.cmdState = cmdSetContrast
	case b == 0x20, b == 0xA8, b == 0xD3, b == 0xD5, b == 0xD9, b == 0xDA, b == 0xDB, b == 0x8D:
		// Addressing mode / multiplex ratio / display offset / clock divide /
		// pre-charge / COM pins config / VCOMH level / charge pump: all take
		// exactly one parameter byte we don't otherwise model.
		d.cmdSkip = 1
	case b <= 0x0F: // Set lower column start address (page addressing mode)
	case b >= 0x10 && b <= 0x1F: // Set higher column start address
	case b >= 0x40 && b <= 0x7F: // Set display start line
	case b == 0xA0 || b == 0xA1: // Segment re-map
	case b == 0xA4 || b == 0xA5: // Resume to RAM content / entire display on
	case b == 0xC0 || b == 0xC8: // COM output scan direction
	case b == 0xE3: // NOP
	default:
		// Unknown command, ignored.
	}
}

// ReceiveData processes one data byte (DC pin high): eight vertical pixels
// in the current column, then advances the cursor within the addressed
// column/page window, wrapping at col_end/page_end back to col_start/
// page_start.
func (d *Ssd1306) ReceiveData(b uint8) {
	d.DbgDataCount++
	x := int(d.col)
	page := int(d.page)

	if x < Width && page < 8 {
		bright := d.Contrast
		for bit := uint(0); bit < 8; bit++ {
			on := (b>>bit)&1 != 0
			on = on != d.inverted
			y := page*8 + int(bit)
			if y < Height {
				if on {
					d.FB.SetPixel(x, y, monoPixel(true, bright))
				} else {
					d.FB.SetPixel(x, y, Off)
				}
			}
		}
		d.Dirty = true
	}

	d.col++
	if d.col > d.colEnd {
		d.col = d.colStart
		d.page++
		if d.page > d.pageEnd {
			d.page = d.pageStart
		}
	}
}

// DbgResetCounters zeroes the per-frame command/data byte counters.
func (d *Ssd1306) DbgResetCounters() {
	d.DbgCmdCount = 0
	d.DbgDataCount = 0
}

// AsPixelBuffer returns the framebuffer packed as 0xRRGGBB words, e.g. for a
// minifb-style backend.
func (d *Ssd1306) AsPixelBuffer() []uint32 {
	out := make([]uint32, Width*Height)
	for i := range out {
		p := d.FB.buffer[i]
		r := (p >> 24) & 0xFF
		g := (p >> 16) & 0xFF
		b := (p >> 8) & 0xFF
		out[i] = r<<16 | g<<8 | b
	}
	return out
}

func minU8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}
