package peripherals

// Timer8State is a Timer8's full internal state, exported for save-state
// serialization since most of Timer8's own fields are unexported.
type Timer8State struct {
	Tick     uint64
	Prescale uint32
	Cs       uint8
	Mode     uint8
	Wgm0, Wgm1, Wgm2 bool
	OcrA, OcrB       uint8
	Tcnt             uint8
	Tov, OcfA, OcfB    uint32
	Toie, OcieA, OcieB bool
}

// State captures t's full internal state.
func (t *Timer8) State() Timer8State {
	return Timer8State{
		Tick: t.tick, Prescale: t.prescale, Cs: t.cs, Mode: t.mode,
		Wgm0: t.wgm0, Wgm1: t.wgm1, Wgm2: t.wgm2,
		OcrA: t.ocrA, OcrB: t.ocrB, Tcnt: t.tcnt,
		Tov: t.tov, OcfA: t.ocfA, OcfB: t.ocfB,
		Toie: t.toie, OcieA: t.ocieA, OcieB: t.ocieB,
	}
}

// Restore replaces t's internal state, leaving its address/vector binding
// (set at construction time) untouched.
func (t *Timer8) Restore(s Timer8State) {
	t.tick, t.prescale, t.cs, t.mode = s.Tick, s.Prescale, s.Cs, s.Mode
	t.wgm0, t.wgm1, t.wgm2 = s.Wgm0, s.Wgm1, s.Wgm2
	t.ocrA, t.ocrB, t.tcnt = s.OcrA, s.OcrB, s.Tcnt
	t.tov, t.ocfA, t.ocfB = s.Tov, s.OcfA, s.OcfB
	t.toie, t.ocieA, t.ocieB = s.Toie, s.OcieA, s.OcieB
}

// Timer16State is a Timer16's full internal state.
type Timer16State struct {
	Tick     uint64
	Prescale uint32
	Tcnt     uint16
	Top      uint16
	Ctc      bool
	Wgm      [4]bool
	OldWgm   uint8
	Cs       uint8
	ComA, ComB, ComC uint8
	OcrA, OcrB, OcrC uint16
	FocA, FocB, FocC bool
	Tov, OcfA, OcfB, OcfC     uint32
	Toie, OcieA, OcieB, OcieC bool
}

// State captures t's full internal state.
func (t *Timer16) State() Timer16State {
	return Timer16State{
		Tick: t.tick, Prescale: t.prescale, Tcnt: t.tcnt, Top: t.top, Ctc: t.ctc,
		Wgm: t.wgm, OldWgm: t.oldWgm, Cs: t.cs,
		ComA: t.comA, ComB: t.comB, ComC: t.comC,
		OcrA: t.ocrA, OcrB: t.ocrB, OcrC: t.ocrC,
		FocA: t.focA, FocB: t.focB, FocC: t.focC,
		Tov: t.tov, OcfA: t.ocfA, OcfB: t.ocfB, OcfC: t.ocfC,
		Toie: t.toie, OcieA: t.ocieA, OcieB: t.ocieB, OcieC: t.ocieC,
	}
}

// Restore replaces t's internal state, leaving its address/vector binding
// untouched.
func (t *Timer16) Restore(s Timer16State) {
	t.tick, t.prescale, t.tcnt, t.top, t.ctc = s.Tick, s.Prescale, s.Tcnt, s.Top, s.Ctc
	t.wgm, t.oldWgm, t.cs = s.Wgm, s.OldWgm, s.Cs
	t.comA, t.comB, t.comC = s.ComA, s.ComB, s.ComC
	t.ocrA, t.ocrB, t.ocrC = s.OcrA, s.OcrB, s.OcrC
	t.focA, t.focB, t.focC = s.FocA, s.FocB, s.FocC
	t.tov, t.ocfA, t.ocfB, t.ocfC = s.Tov, s.OcfA, s.OcfB, s.OcfC
	t.toie, t.ocieA, t.ocieB, t.ocieC = s.Toie, s.OcieA, s.OcieB, s.OcieC
}

// Timer4State is a Timer4's full internal state.
type Timer4State struct {
	Tcnt                   uint16
	Tc4h                   uint8
	OcrA, OcrB, OcrC, OcrD uint16
	TccrA, TccrB, TccrC, TccrD, TccrE uint8
	Dt4   uint8
	Timsk uint8
	Cs       uint8
	Prescale uint32
	Tick     uint64
	Wgm      uint8
	Tov, OcfA, OcfB, OcfD uint32
}

// State captures t's full internal state.
func (t *Timer4) State() Timer4State {
	return Timer4State{
		Tcnt: t.tcnt, Tc4h: t.tc4h,
		OcrA: t.ocrA, OcrB: t.ocrB, OcrC: t.ocrC, OcrD: t.ocrD,
		TccrA: t.tccrA, TccrB: t.tccrB, TccrC: t.tccrC, TccrD: t.tccrD, TccrE: t.tccrE,
		Dt4: t.dt4, Timsk: t.timsk, Cs: t.cs, Prescale: t.prescale, Tick: t.tick, Wgm: t.wgm,
		Tov: t.tov, OcfA: t.ocfA, OcfB: t.ocfB, OcfD: t.ocfD,
	}
}

// Restore replaces t's internal state.
func (t *Timer4) Restore(s Timer4State) {
	t.tcnt, t.tc4h = s.Tcnt, s.Tc4h
	t.ocrA, t.ocrB, t.ocrC, t.ocrD = s.OcrA, s.OcrB, s.OcrC, s.OcrD
	t.tccrA, t.tccrB, t.tccrC, t.tccrD, t.tccrE = s.TccrA, s.TccrB, s.TccrC, s.TccrD, s.TccrE
	t.dt4, t.timsk, t.cs, t.prescale, t.tick, t.wgm = s.Dt4, s.Timsk, s.Cs, s.Prescale, s.Tick, s.Wgm
	t.tov, t.ocfA, t.ocfB, t.ocfD = s.Tov, s.OcfA, s.OcfB, s.OcfD
}

// FxFlashState is an FxFlash's full internal state, including its 16MB data
// image when one has been loaded (nil/empty otherwise, matching how
// FxFlash itself lazily allocates only once data is actually attached).
type FxFlashState struct {
	Data         []byte
	Loaded       bool
	State        int
	Cmd          uint8
	AddrBytes    uint8
	Addr         uint32
	ByteIdx      uint8
	WriteEnabled bool
	PoweredDown  bool
}

// State captures f's full internal state.
func (f *FxFlash) State() FxFlashState {
	return FxFlashState{
		Data: f.data, Loaded: f.Loaded, State: int(f.state),
		Cmd: f.cmd, AddrBytes: f.addrBytes, Addr: f.addr, ByteIdx: f.byteIdx,
		WriteEnabled: f.writeEnabled, PoweredDown: f.poweredDown,
	}
}

// Restore replaces f's full internal state.
func (f *FxFlash) Restore(s FxFlashState) {
	f.data, f.Loaded, f.state = s.Data, s.Loaded, fxState(s.State)
	f.cmd, f.addrBytes, f.addr, f.byteIdx = s.Cmd, s.AddrBytes, s.Addr, s.ByteIdx
	f.writeEnabled, f.poweredDown = s.WriteEnabled, s.PoweredDown
}
