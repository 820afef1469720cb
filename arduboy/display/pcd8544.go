package display

// PCD8544 geometry: 84x48, split into 6 pages of 8 rows each, centered
// within the shared 128x64 FrameBuffer.
const (
	pcdWidth  = 84
	pcdHeight = 48
	pcdPages  = 6

	pcdOffsetX = (Width - pcdWidth) / 2
	pcdOffsetY = (Height - pcdHeight) / 2
)

// Pcd8544 emulates the Nokia 5110 LCD controller used by the Gamebuino
// Classic, driven one SPI byte at a time via ReceiveCommand/ReceiveData
// (selected by the DC pin).
type Pcd8544 struct {
	FB *FrameBuffer

	vram [pcdWidth * pcdPages]uint8

	xAddr, yAddr       uint8
	extendedMode       bool
	displayMode        uint8 // 0=blank, 1=all-on, 4=normal, 5=inverse
	powerDown          bool
	verticalAddressing bool
	Dirty              bool
	DbgCmdCount        uint32
	DbgDataCount       uint32
}

// NewPcd8544 constructs a Pcd8544 at its power-on defaults.
func NewPcd8544() *Pcd8544 {
	return &Pcd8544{FB: NewFrameBuffer()}
}

// ReceiveCommand processes one command byte (DC pin low), dispatching
// through the basic or extended instruction set depending on the H bit
// last set via a function-set command.
func (p *Pcd8544) ReceiveCommand(b uint8) {
	p.DbgCmdCount++

	if p.extendedMode {
		switch {
		case b&0x80 != 0: // Set Vop (contrast): 0x80 | Vop[6:0] — not modeled
		case b&0x04 != 0: // Temperature control: 0x04 | TC[1:0] — not modeled
		case b&0x10 != 0: // LCD bias system: 0x10 | BS[2:0] — not modeled
		case b&0x20 != 0: // Function set (also reachable in extended mode)
			p.powerDown = b&0x04 != 0
			p.verticalAddressing = b&0x02 != 0
			p.extendedMode = b&0x01 != 0
		}
		return
	}

	switch {
	case b&0x80 != 0: // Set X address: 0x80 | X[6:0]
		p.xAddr = b & 0x7F
		if p.xAddr >= pcdWidth {
			p.xAddr = 0
		}
	case b&0x40 != 0: // Set Y address: 0x40 | Y[2:0]
		p.yAddr = b & 0x07
		if p.yAddr >= pcdPages {
			p.yAddr = 0
		}
	case b&0x20 != 0: // Function set: 0x20 | PD | V | H
		p.powerDown = b&0x04 != 0
		p.verticalAddressing = b&0x02 != 0
		p.extendedMode = b&0x01 != 0
	case b&0x08 != 0: // Display control: 0x08 | D | 0 | E
		d := (b >> 2) & 1
		e := b & 1
		p.displayMode = d<<2 | e // 0b000=blank, 0b001=all-on, 0b100=normal, 0b101=inverse
	}
	// Everything else is a NOP in the basic instruction set.
}

// ReceiveData writes one byte of VRAM (8 vertical pixels in the current
// column) and advances the cursor per the configured addressing mode.
func (p *Pcd8544) ReceiveData(b uint8) {
	p.DbgDataCount++

	x, y := int(p.xAddr), int(p.yAddr)
	if x < pcdWidth && y < pcdPages {
		p.vram[y*pcdWidth+x] = b
	}

	if p.verticalAddressing {
		p.yAddr++
		if p.yAddr >= pcdPages {
			p.yAddr = 0
			p.xAddr++
			if p.xAddr >= pcdWidth {
				p.xAddr = 0
			}
		}
	} else {
		p.xAddr++
		if p.xAddr >= pcdWidth {
			p.xAddr = 0
			p.yAddr++
			if p.yAddr >= pcdPages {
				p.yAddr = 0
			}
		}
	}

	p.Dirty = true
}

// RenderToFrameBuffer renders VRAM into FB, centered 1:1 within the shared
// 128x64 buffer. A no-op when nothing has changed since the last render.
func (p *Pcd8544) RenderToFrameBuffer() {
	if !p.Dirty {
		return
	}
	p.Dirty = false

	inverse := p.displayMode == 5
	p.FB.Clear()

	for page := 0; page < pcdPages; page++ {
		for col := 0; col < pcdWidth; col++ {
			vbyte := p.vram[page*pcdWidth+col]
			for bit := uint(0); bit < 8; bit++ {
				on := (vbyte>>bit)&1 != 0
				on = on != inverse
				sx := pcdOffsetX + col
				sy := pcdOffsetY + page*8 + int(bit)
				if on {
					p.FB.SetPixel(sx, sy, monoPixel(true, 0xFF))
				}
			}
		}
	}
}

// DbgResetCounters zeroes the per-frame command/data byte counters.
func (p *Pcd8544) DbgResetCounters() {
	p.DbgCmdCount = 0
	p.DbgDataCount = 0
}
