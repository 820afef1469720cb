// Package terminal implements a Backend that renders to any ANSI terminal
// via tcell, using half-block characters to pack two monochrome pixel rows
// into one text row.
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/arduboy-emu/arduboy/backend"
	"github.com/valerio/arduboy-emu/arduboy/backend/terminal/render"
	"github.com/valerio/arduboy-emu/arduboy/debug"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/input"
)

const (
	width  = display.Width
	height = display.Height

	registerHeight = 9
	memoryHeight   = 10
	minTermWidth   = 80
	minTermHeight  = 24

	// keyTimeout is slightly longer than a typical key-repeat interval, so a
	// held key reads as a steady stream of Hold events rather than flickering
	// Press/Release pairs between OS repeats.
	keyTimeout = 100 * time.Millisecond
)

// Backend implements backend.Backend using tcell for terminal rendering.
type Backend struct {
	screen    tcell.Screen
	running   bool
	logBuffer *render.LogBuffer
	logLevel  slog.Level
	config    backend.Config

	eventQueue []input.Event
	keyStates  map[input.Action]time.Time
	activeKeys map[input.Action]bool

	debugProvider backend.DebugDataProvider
	currentFrame  *display.FrameBuffer
}

// New creates a terminal backend.
func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.debugProvider = config.DebugProvider
	t.keyStates = make(map[input.Action]time.Time)
	t.activeKeys = make(map[input.Action]bool)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialize terminal: %w", err)
	}
	t.screen = screen
	t.running = true

	t.logBuffer = render.NewLogBuffer(200)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))

	slog.Info("terminal backend initialized", "debug", config.ShowDebug)

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleSignals()

	return nil
}

func (t *Backend) Update(frame *display.FrameBuffer) ([]input.Event, error) {
	var events []input.Event
	now := time.Now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	currentlyActive := make(map[input.Action]bool)
	for act, lastPressed := range t.keyStates {
		if !isGameInput(act) {
			continue
		}
		if now.Sub(lastPressed) < keyTimeout {
			currentlyActive[act] = true
			if !t.activeKeys[act] {
				events = append(events, input.Event{Action: act, Type: input.Press})
			} else {
				events = append(events, input.Event{Action: act, Type: input.Hold})
			}
		} else {
			delete(t.keyStates, act)
		}
	}
	for act := range t.activeKeys {
		if !currentlyActive[act] {
			events = append(events, input.Event{Action: act, Type: input.Release})
		}
	}
	t.activeKeys = currentlyActive

	if len(t.eventQueue) > 0 {
		events = append(events, t.eventQueue...)
		t.eventQueue = nil
	}

	if !t.running {
		return events, nil
	}

	t.currentFrame = frame
	t.render(frame)
	t.screen.Show()

	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		slog.Info("cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

func isGameInput(act input.Action) bool {
	return act == input.ButtonUp || act == input.ButtonDown ||
		act == input.ButtonLeft || act == input.ButtonRight ||
		act == input.ButtonA || act == input.ButtonB
}

func (t *Backend) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	<-signals
	t.running = false
	t.eventQueue = append(t.eventQueue, input.Event{Action: input.EmulatorQuit, Type: input.Press})
}

// keyMapping maps special tcell keys directly to actions.
var keyMapping = map[tcell.Key]input.Action{
	tcell.KeyUp:     input.ButtonUp,
	tcell.KeyDown:   input.ButtonDown,
	tcell.KeyLeft:   input.ButtonLeft,
	tcell.KeyRight:  input.ButtonRight,
	tcell.KeyCtrlC:  input.EmulatorQuit,
	tcell.KeyEscape: input.EmulatorQuit,
	tcell.KeyF10:    input.EmulatorDebugToggle,
	tcell.KeyF12:    input.EmulatorSnapshot,
}

// runeMapping maps printable keys to actions (WASD-style d-pad plus the two
// face buttons on z/x).
var runeMapping = map[rune]input.Action{
	'w': input.ButtonUp,
	's': input.ButtonDown,
	'a': input.ButtonLeft,
	'd': input.ButtonRight,
	'z': input.ButtonA,
	'x': input.ButtonB,
	' ': input.EmulatorPauseToggle,
	'n': input.EmulatorStepInstruction,
	'f': input.EmulatorStepFrame,
	'q': input.EmulatorQuit,
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	if act, ok := keyMapping[ev.Key()]; ok {
		t.dispatchAction(act, now)
		return
	}
	if ev.Key() == tcell.KeyRune {
		if act, ok := runeMapping[ev.Rune()]; ok {
			t.dispatchAction(act, now)
		}
	}
}

func (t *Backend) dispatchAction(act input.Action, now time.Time) {
	if act == input.EmulatorQuit {
		t.running = false
	}

	if isGameInput(act) {
		if act == input.ButtonUp || act == input.ButtonDown || act == input.ButtonLeft || act == input.ButtonRight {
			delete(t.keyStates, input.ButtonUp)
			delete(t.keyStates, input.ButtonDown)
			delete(t.keyStates, input.ButtonLeft)
			delete(t.keyStates, input.ButtonRight)
		}
		t.keyStates[act] = now
		return
	}

	t.eventQueue = append(t.eventQueue, input.Event{Action: act, Type: input.Press})
}

func (t *Backend) render(frame *display.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		t.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("terminal too small, need at least %dx%d", minTermWidth, minTermHeight)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	t.screen.Clear()

	dividerX := width + 2
	rightPanelX := dividerX + 1
	rightPanelWidth := termWidth - rightPanelX
	if rightPanelWidth < 0 {
		rightPanelWidth = 0
	}

	t.drawBorders(termWidth, termHeight, dividerX)
	t.drawDisplay(frame)

	if t.config.ShowDebug && t.debugProvider != nil {
		t.drawRegisters(rightPanelX, 1, rightPanelWidth, termHeight)
		t.drawMemory(rightPanelX, registerHeight+2, rightPanelWidth, termHeight)
	}

	logsY := registerHeight + memoryHeight + 3
	if !t.config.ShowDebug {
		logsY = 1
	}
	t.drawLogs(rightPanelX, logsY, rightPanelWidth, termHeight)
}

func (t *Backend) drawBorders(termWidth, termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 0; y < termHeight; y++ {
		if dividerX < termWidth {
			t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
		}
	}

	title := " Display "
	for i, ch := range title {
		if i+1 < dividerX {
			t.screen.SetContent(1+i, 0, ch, nil, titleStyle)
		}
	}

	if t.config.ShowDebug {
		startX := dividerX + 2
		title = " CPU "
		for i, ch := range title {
			if startX+i < termWidth {
				t.screen.SetContent(startX+i, 0, ch, nil, titleStyle)
			}
		}
	}

	helpY := termHeight - 1
	helpText := " WASD/arrows=move Z/X=A/B SPACE=pause N=step-instr F=step-frame F10=debug F12=snapshot "
	for i, ch := range helpText {
		if i < termWidth {
			t.screen.SetContent(i, helpY, ch, nil, borderStyle)
		}
	}
}

func (t *Backend) drawDisplay(frame *display.FrameBuffer) {
	lines := render.RenderFrameToHalfBlocks(frame.ToSlice(), width, height)
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for row, line := range lines {
		for col, ch := range line {
			t.screen.SetContent(col, row+1, ch, nil, style)
		}
	}
}

func (t *Backend) drawRegisters(startX, startY, width, termHeight int) {
	if t.debugProvider == nil || width <= 0 || startY >= termHeight {
		return
	}

	snap := t.debugProvider.ExtractDebugData()
	if snap == nil {
		return
	}

	statusStr := "RUNNING"
	switch snap.RunState {
	case debug.RunStatePaused:
		statusStr = "PAUSED"
	case debug.RunStateStepInstruction:
		statusStr = "STEP"
	case debug.RunStateStepFrame:
		statusStr = "FRAME"
	}

	lines := []string{
		fmt.Sprintf("Status: %s", statusStr),
		fmt.Sprintf("PC:   0x%06X", snap.CPU.PC),
		fmt.Sprintf("SP:   0x%04X", snap.CPU.SP),
		fmt.Sprintf("SREG: 0x%02X", snap.CPU.SREG),
		fmt.Sprintf("Tick: %d", snap.CPU.Tick),
		fmt.Sprintf("Sleeping: %v", snap.CPU.Sleeping),
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	t.drawLines(startX, startY, width, termHeight, registerHeight, lines, style)
}

func (t *Backend) drawMemory(startX, startY, width, termHeight int) {
	if t.debugProvider == nil || width <= 0 || startY >= termHeight {
		return
	}

	snap := t.debugProvider.ExtractDebugData()
	if snap == nil || snap.Memory == nil {
		return
	}

	mem := snap.Memory
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	const bytesPerRow = 8
	displayed := 0
	for offset := 0; offset < len(mem.Bytes) && displayed < memoryHeight; offset += bytesPerRow {
		addr := mem.StartAddr + uint16(offset)
		end := offset + bytesPerRow
		if end > len(mem.Bytes) {
			end = len(mem.Bytes)
		}

		line := fmt.Sprintf(" %04X:", addr)
		useStyle := style
		for _, b := range mem.Bytes[offset:end] {
			line += fmt.Sprintf(" %02X", b)
		}
		if uint32(addr) <= snap.CPU.PC && snap.CPU.PC < uint32(addr)+bytesPerRow {
			useStyle = currentStyle
		}

		y := startY + displayed
		if y >= termHeight {
			break
		}
		for j, ch := range line {
			if j >= width {
				break
			}
			t.screen.SetContent(startX+j, y, ch, nil, useStyle)
		}
		displayed++
	}
}

func (t *Backend) drawLines(startX, startY, width, termHeight, maxLines int, lines []string, style tcell.Style) {
	for i, line := range lines {
		y := startY + i
		if y >= termHeight || i >= maxLines {
			break
		}
		if len(line) > width {
			line = line[:width]
		}
		for j, ch := range line {
			if j >= width {
				break
			}
			t.screen.SetContent(startX+j, y, ch, nil, style)
		}
	}
}

func (t *Backend) drawLogs(startX, startY, width, termHeight int) {
	if width <= 0 || startY >= termHeight {
		return
	}

	availableHeight := termHeight - startY - 1
	if availableHeight <= 0 {
		return
	}

	recent := t.logBuffer.GetRecent(availableHeight * 2)
	logs := make([]render.LogEntry, 0, availableHeight)
	for _, entry := range recent {
		if entry.Level >= t.logLevel {
			logs = append(logs, entry)
			if len(logs) >= availableHeight {
				break
			}
		}
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range logs {
		y := startY + i
		if y >= termHeight-1 {
			break
		}

		style := infoStyle
		switch entry.Level {
		case slog.LevelDebug:
			style = debugStyle
		case slog.LevelWarn:
			style = warnStyle
		case slog.LevelError:
			style = errStyle
		}

		text := render.FormatLogEntry(entry)
		if len(text) > width {
			if width > 3 {
				text = text[:width-3] + "..."
			} else if width > 0 {
				text = text[:width]
			}
		}

		for j, ch := range text {
			if j >= width {
				break
			}
			t.screen.SetContent(startX+j, y, ch, nil, style)
		}
	}
}
