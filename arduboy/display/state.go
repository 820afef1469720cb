package display

// Ssd1306State is an Ssd1306's full internal state, including its pixel
// buffer — the controller keeps no separate VRAM, so the rendered
// framebuffer itself is the authoritative display memory to save.
type Ssd1306State struct {
	Framebuffer                       []uint32
	Col, Page                         uint8
	ColStart, ColEnd                  uint8
	PageStart, PageEnd                uint8
	Inverted, DisplayOn               bool
	Contrast                          uint8
	CmdState                          int
	CmdSkip                           uint8
}

// State captures d's full internal state.
func (d *Ssd1306) State() Ssd1306State {
	return Ssd1306State{
		Framebuffer: append([]uint32(nil), d.FB.ToSlice()...),
		Col:         d.col, Page: d.page,
		ColStart: d.colStart, ColEnd: d.colEnd,
		PageStart: d.pageStart, PageEnd: d.pageEnd,
		Inverted: d.inverted, DisplayOn: d.displayOn,
		Contrast: d.Contrast, CmdState: int(d.cmdState), CmdSkip: d.cmdSkip,
	}
}

// Restore replaces d's full internal state.
func (d *Ssd1306) Restore(s Ssd1306State) {
	d.FB.LoadSlice(s.Framebuffer)
	d.col, d.page = s.Col, s.Page
	d.colStart, d.colEnd = s.ColStart, s.ColEnd
	d.pageStart, d.pageEnd = s.PageStart, s.PageEnd
	d.inverted, d.displayOn = s.Inverted, s.DisplayOn
	d.Contrast, d.cmdState, d.cmdSkip = s.Contrast, cmdState(s.CmdState), s.CmdSkip
}

// Pcd8544State is a Pcd8544's full internal state, including its own VRAM
// (unlike Ssd1306, the PCD8544 keeps a separate vram array it renders into
// the shared FrameBuffer from, so both must be saved).
type Pcd8544State struct {
	Framebuffer        []uint32
	Vram               []uint8
	XAddr, YAddr       uint8
	ExtendedMode       bool
	DisplayMode        uint8
	PowerDown          bool
	VerticalAddressing bool
}

// State captures p's full internal state.
func (p *Pcd8544) State() Pcd8544State {
	return Pcd8544State{
		Framebuffer:        append([]uint32(nil), p.FB.ToSlice()...),
		Vram:               append([]uint8(nil), p.vram[:]...),
		XAddr:              p.xAddr,
		YAddr:              p.yAddr,
		ExtendedMode:       p.extendedMode,
		DisplayMode:        p.displayMode,
		PowerDown:          p.powerDown,
		VerticalAddressing: p.verticalAddressing,
	}
}

// Restore replaces p's full internal state.
func (p *Pcd8544) Restore(s Pcd8544State) {
	p.FB.LoadSlice(s.Framebuffer)
	copy(p.vram[:], s.Vram)
	p.xAddr, p.yAddr = s.XAddr, s.YAddr
	p.extendedMode = s.ExtendedMode
	p.displayMode = s.DisplayMode
	p.powerDown = s.PowerDown
	p.verticalAddressing = s.VerticalAddressing
}
