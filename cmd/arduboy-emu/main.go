// Command arduboy-emu runs AVR-based handheld games (Arduboy ATmega32u4,
// Gamebuino Classic ATmega328P) from an Intel HEX image, an ELF binary, or a
// .arduboy bundle.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/valerio/arduboy-emu/arduboy/backend"
	"github.com/valerio/arduboy-emu/arduboy/backend/headless"
	"github.com/valerio/arduboy-emu/arduboy/backend/sdl2"
	"github.com/valerio/arduboy-emu/arduboy/backend/terminal"
	"github.com/valerio/arduboy-emu/arduboy/debug"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/gdbserver"
	"github.com/valerio/arduboy-emu/arduboy/input"
	"github.com/valerio/arduboy-emu/arduboy/loader"
	"github.com/valerio/arduboy-emu/arduboy/render"
	"github.com/valerio/arduboy-emu/arduboy/savestate"
	"github.com/valerio/arduboy-emu/arduboy/serial"
	"github.com/valerio/arduboy-emu/arduboy/system"
)

func main() {
	app := cli.NewApp()
	app.Name = "arduboy-emu"
	app.Description = "A cycle-accurate Arduboy / Gamebuino Classic emulator"
	app.Usage = "arduboy-emu [options] <game file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "headless", Usage: "run without a window, for batch/test use"},
		cli.BoolFlag{Name: "step", Usage: "start paused, single-stepping with N/F"},
		cli.IntFlag{Name: "gdb", Usage: "listen for an avr-gdb client on this TCP port instead of running a frontend"},
		cli.IntFlag{Name: "frames", Usage: "stop after N frames (headless mode requires this to be >0)"},
		cli.IntFlag{Name: "press", Usage: "press and release button A once, N frames into the run (scripted smoke testing)"},
		cli.IntSliceFlag{Name: "snapshot", Usage: "save a PNG screenshot at frame F (repeatable)"},
		cli.BoolFlag{Name: "mute", Usage: "disable audio output"},
		cli.StringFlag{Name: "fx", Usage: "path to an FX flash image to attach"},
		cli.StringSliceFlag{Name: "break", Usage: "set a breakpoint at a hex flash byte address (repeatable)"},
		cli.StringSliceFlag{Name: "watch", Usage: "set a read/write watchpoint at a hex data address (repeatable)"},
		cli.StringFlag{Name: "cpu", Usage: "force the CPU type: 32u4 or 328p (default: auto-detect)"},
		cli.IntFlag{Name: "scale", Value: 4, Usage: "windowed display scale factor"},
		cli.BoolFlag{Name: "serial", Usage: "log bytes written to the serial/USB-CDC port"},
		cli.BoolFlag{Name: "no-save", Usage: "don't load or save the .state/.eeprom sidecar files"},
		cli.BoolFlag{Name: "profile", Usage: "print an execution hotspot report on exit"},
		cli.BoolFlag{Name: "lcd", Usage: "hint that the game targets a Gamebuino Classic LCD, not an OLED"},
		cli.BoolFlag{Name: "no-blur", Usage: "use crisp nearest-neighbor scaling instead of the default linear blur"},
		cli.BoolFlag{Name: "debug", Usage: "enable per-instruction debug logging and the debug overlay"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("arduboy-emu exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	gamePath := c.Args().Get(0)
	if gamePath == "" {
		cli.ShowAppHelp(c)
		return errors.New("no game file provided")
	}

	sys, err := loadGame(gamePath, c.String("cpu"))
	if err != nil {
		return fmt.Errorf("load %s: %w", gamePath, err)
	}

	if fxPath := c.String("fx"); fxPath != "" {
		data, err := os.ReadFile(fxPath)
		if err != nil {
			return fmt.Errorf("read fx image: %w", err)
		}
		sys.FxFlash.LoadData(data)
		slog.Info("attached fx flash image", "path", fxPath, "bytes", len(data))
	}

	if err := applyBreakpoints(sys, c.StringSlice("break")); err != nil {
		return err
	}
	if err := applyWatchpoints(sys, c.StringSlice("watch")); err != nil {
		return err
	}

	noSave := c.Bool("no-save")
	if !noSave {
		loadSidecars(sys, gamePath)
	}

	if c.Bool("profile") {
		sys.Profiler.Start(sys.CPU.Tick)
	}

	var sink *serial.LogSink
	if c.Bool("serial") {
		sink = serial.NewLogSink()
	}

	if port := c.Int("gdb"); port > 0 {
		err := runGDB(sys, port)
		finish(sys, gamePath, noSave, c.Bool("profile"), sink)
		return err
	}

	err = runFrontend(sys, c, gamePath)
	finish(sys, gamePath, noSave, c.Bool("profile"), sink)
	return err
}

// loadGame reads gamePath, dispatching on extension to the matching loader,
// and constructs a System of the requested (or auto-detected) CPU type.
func loadGame(gamePath, cpuFlag string) (*system.System, error) {
	data, err := os.ReadFile(gamePath)
	if err != nil {
		return nil, err
	}

	var flash []byte
	switch strings.ToLower(filepath.Ext(gamePath)) {
	case ".elf":
		image, err := loader.LoadELF(data)
		if err != nil {
			return nil, err
		}
		flash = image.Flash

	case ".arduboy":
		file, err := loader.ParseArduboyFile(data)
		if err != nil {
			return nil, err
		}
		flash = make([]byte, 32768)
		if _, err := loader.ParseHex(file.Hex, flash); err != nil {
			return nil, err
		}
		cpuType := cpuTypeFromFlag(cpuFlag, flash)
		sys := system.NewSystem(cpuType)
		copy(sys.Mem.Flash, flash)
		if file.FxData != nil {
			sys.FxFlash.LoadData(file.FxData)
		}
		return sys, nil

	default:
		flash = make([]byte, 32768)
		if _, err := loader.ParseHex(string(data), flash); err != nil {
			return nil, err
		}
	}

	cpuType := cpuTypeFromFlag(cpuFlag, flash)
	sys := system.NewSystem(cpuType)
	copy(sys.Mem.Flash, flash)
	return sys, nil
}

func cpuTypeFromFlag(flag string, flash []byte) system.CpuType {
	switch strings.ToLower(flag) {
	case "32u4":
		return system.ATmega32u4
	case "328p":
		return system.ATmega328p
	default:
		return system.DetectCPUType(flash)
	}
}

func applyBreakpoints(sys *system.System, addrs []string) error {
	for _, a := range addrs {
		byteAddr, err := strconv.ParseUint(a, 16, 32)
		if err != nil {
			return fmt.Errorf("invalid --break address %q: %w", a, err)
		}
		sys.Breakpoints[uint32(byteAddr)/2] = true
	}
	return nil
}

func applyWatchpoints(sys *system.System, addrs []string) error {
	for _, a := range addrs {
		addr, err := strconv.ParseUint(a, 16, 16)
		if err != nil {
			return fmt.Errorf("invalid --watch address %q: %w", a, err)
		}
		sys.Debugger.AddWatchpoint(uint16(addr), debug.WatchReadWrite, nil)
	}
	return nil
}

func eepromSidecarPath(gamePath string) string {
	dir := filepath.Dir(gamePath)
	base := filepath.Base(gamePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+".eeprom")
}

func loadSidecars(sys *system.System, gamePath string) {
	statePath := savestate.StatePath(gamePath)
	if _, err := os.Stat(statePath); err == nil {
		if err := sys.LoadStateFromFile(statePath); err != nil {
			slog.Warn("failed to load save state", "path", statePath, "error", err)
		} else {
			slog.Info("resumed from save state", "path", statePath)
		}
	}

	eepromPath := eepromSidecarPath(gamePath)
	if data, err := os.ReadFile(eepromPath); err == nil {
		sys.LoadEEPROM(data)
		slog.Info("loaded eeprom", "path", eepromPath)
	}
}

func finish(sys *system.System, gamePath string, noSave, profile bool, sink *serial.LogSink) {
	if sink != nil {
		sink.Flush()
	}

	if profile {
		sys.Profiler.Stop(sys.CPU.Tick)
		fmt.Println(sys.Profiler.Report(sys.Mem.Flash))
	}

	if noSave {
		return
	}

	if err := sys.SaveStateToFile(savestate.StatePath(gamePath)); err != nil {
		slog.Warn("failed to save state", "error", err)
	}
	if err := os.WriteFile(eepromSidecarPath(gamePath), sys.SaveEEPROM(), 0o644); err != nil {
		slog.Warn("failed to save eeprom", "error", err)
	}
}

// runGDB hands the System over to an attached GDB client for the lifetime
// of the connection; no frontend runs alongside it.
func runGDB(sys *system.System, port int) error {
	srv, err := gdbserver.Bind(port)
	if err != nil {
		return err
	}
	defer srv.Close()

	for {
		sess, err := srv.Accept()
		if err != nil {
			return err
		}

		for !sess.Done {
			action, err := sess.Process(sys)
			if err != nil {
				break
			}
			switch action {
			case gdbserver.ActionContinue:
				sess.RunUntilStop(sys)
				sess.SendStopReply()
			case gdbserver.ActionStep:
				sys.StepOne()
				sess.SendStopReply()
			}
		}
		sess.Close()
	}
}

// runFrontend drives the normal render+input loop: a window (SDL2, falling
// back to the terminal renderer if SDL2 isn't available) or the headless
// batch backend.
func runFrontend(sys *system.System, c *cli.Context, gamePath string) error {
	frames := c.Int("frames")
	press := c.Int("press")
	snapshotFrames := snapshotFrameSet(c.IntSlice("snapshot"))

	var be backend.Backend
	if c.Bool("headless") {
		snapshotConfig, err := headless.NewSnapshotConfig(0, "", gamePath)
		if err != nil {
			return err
		}
		be = headless.New(frames, snapshotConfig)
	} else {
		be = chooseWindowedBackend()
	}

	state := &runState{paused: c.Bool("step")}
	cfg := backend.Config{
		Title:      fmt.Sprintf("arduboy-emu - %s", filepath.Base(gamePath)),
		Scale:      c.Int("scale"),
		Mute:       c.Bool("mute"),
		ShowDebug:  c.Bool("debug"),
		Smoothing:  !c.Bool("no-blur"),
		DebugProvider: &debugAdapter{sys: sys, state: state},
	}
	if c.Bool("lcd") {
		cfg.Title += " (LCD)"
	}

	if err := be.Init(cfg); err != nil {
		return err
	}
	defer be.Cleanup()

	var sink *serial.LogSink
	if c.Bool("serial") {
		sink = serial.NewLogSink()
	}

	sdlBackend, hasAudio := be.(*sdl2.Backend)
	fb := display.NewFrameBuffer()

	frameCount := 0
	for {
		if press > 0 && frameCount == press {
			sys.SetButton(system.ButtonA, true)
		}
		if press > 0 && frameCount == press+1 {
			sys.SetButton(system.ButtonA, false)
		}

		if !state.paused {
			if !sys.RunFrame() {
				state.paused = true
				slog.Info("breakpoint hit", "pc", fmt.Sprintf("0x%06X", sys.CPU.PC*2))
			}
		} else if state.stepFrame {
			sys.RunFrame()
			state.stepFrame = false
		} else if state.stepInstruction {
			sys.StepOne()
			state.stepInstruction = false
		}

		if hit := sys.Debugger.TakeHit(); hit != nil {
			state.paused = true
			slog.Info("watchpoint hit", "addr", fmt.Sprintf("0x%04X", hit.Addr),
				"access", hit.Access, "old", hit.OldVal, "new", hit.NewVal)
		}

		if sink != nil {
			sink.Feed(sys.TakeSerialOutput())
		}

		fb.LoadSlice(sys.FramebufferRGBA())

		events, err := be.Update(fb)
		if err != nil {
			return err
		}
		if hasAudio {
			sdlBackend.QueueAudio(sys.AudioBuf)
		}

		frameCount++

		if snapshotFrames[frameCount] {
			path := filepath.Join(filepath.Dir(gamePath), fmt.Sprintf("%s_frame_%d.png",
				strings.TrimSuffix(filepath.Base(gamePath), filepath.Ext(gamePath)), frameCount))
			if err := render.SaveScreenshot(fb, path, 1); err != nil {
				slog.Error("failed to save snapshot", "frame", frameCount, "error", err)
			}
		}

		if quit := applyEvents(sys, state, events); quit {
			return nil
		}

		if frames > 0 && frameCount >= frames {
			return nil
		}
	}
}

func snapshotFrameSet(frames []int) map[int]bool {
	set := make(map[int]bool, len(frames))
	for _, f := range frames {
		set[f] = true
	}
	return set
}

// runState tracks the CLI's own run-mode (pause/step), which input events
// from any backend feed into.
type runState struct {
	paused          bool
	stepFrame       bool
	stepInstruction bool
}

// debugAdapter satisfies backend.DebugDataProvider, combining the System's
// register/memory state with the CLI's own pause/step bookkeeping.
type debugAdapter struct {
	sys   *system.System
	state *runState
}

func (d *debugAdapter) ExtractDebugData() *debug.Snapshot {
	const window = 16
	sp := d.sys.CPU.SP
	start := uint16(0)
	if sp > window {
		start = sp - window
	}
	end := int(start) + window*2
	if end > len(d.sys.Mem.Data) {
		end = len(d.sys.Mem.Data)
	}

	runState := debug.RunStateRunning
	switch {
	case d.state.stepInstruction:
		runState = debug.RunStateStepInstruction
	case d.state.stepFrame:
		runState = debug.RunStateStepFrame
	case d.state.paused:
		runState = debug.RunStatePaused
	}

	return &debug.Snapshot{
		CPU: debug.CPUState{
			PC: d.sys.CPU.PC, SP: d.sys.CPU.SP, SREG: d.sys.CPU.SREG,
			Tick: d.sys.CPU.Tick, Sleeping: d.sys.CPU.Sleeping,
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: start,
			Bytes:     append([]byte(nil), d.sys.Mem.Data[start:end]...),
		},
		RunState: runState,
	}
}

// applyEvents interprets backend-reported input events against the System
// and the CLI's own run state, returning true if the emulator should quit.
func applyEvents(sys *system.System, state *runState, events []input.Event) bool {
	for _, ev := range events {
		switch ev.Action {
		case input.ButtonUp:
			sys.SetButton(system.ButtonUp, ev.Type != input.Release)
		case input.ButtonDown:
			sys.SetButton(system.ButtonDown, ev.Type != input.Release)
		case input.ButtonLeft:
			sys.SetButton(system.ButtonLeft, ev.Type != input.Release)
		case input.ButtonRight:
			sys.SetButton(system.ButtonRight, ev.Type != input.Release)
		case input.ButtonA:
			sys.SetButton(system.ButtonA, ev.Type != input.Release)
		case input.ButtonB:
			sys.SetButton(system.ButtonB, ev.Type != input.Release)

		case input.EmulatorPauseToggle:
			if ev.Type == input.Press {
				state.paused = !state.paused
			}
		case input.EmulatorStepFrame:
			if ev.Type == input.Press {
				state.stepFrame = true
			}
		case input.EmulatorStepInstruction:
			if ev.Type == input.Press {
				state.stepInstruction = true
			}
		case input.EmulatorSnapshot:
			if ev.Type == input.Press {
				path := fmt.Sprintf("snapshot_%d.png", sys.FrameCount)
				fb := display.NewFrameBuffer()
				fb.LoadSlice(sys.FramebufferRGBA())
				if err := render.SaveScreenshot(fb, path, 1); err != nil {
					slog.Error("failed to save snapshot", "error", err)
				} else {
					slog.Info("saved snapshot", "path", path)
				}
			}
		case input.EmulatorDebugToggle:
			// Overlay visibility toggling is handled by the backend itself
			// via its own Config.ShowDebug; nothing to do at this level.

		case input.EmulatorQuit:
			if ev.Type == input.Press {
				return true
			}
		}
	}
	return false
}

// chooseWindowedBackend prefers the SDL2 backend, falling back to the
// terminal backend when SDL2 isn't available (built without the sdl2 tag,
// or no display to open a window on).
func chooseWindowedBackend() backend.Backend {
	probe := sdl2.New()
	if err := probe.Init(backend.Config{Title: "probe"}); err != nil {
		slog.Info("sdl2 backend unavailable, using terminal renderer", "reason", err)
		return terminal.New()
	}
	probe.Cleanup()
	return sdl2.New()
}
