//go:build sdl2

// Package sdl2 implements a windowed Backend using go-sdl2 bindings. Building
// it requires SDL2 development libraries; default builds use the stub in
// stub.go instead (see the sdl2 build tag).
package sdl2

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/arduboy-emu/arduboy/audio"
	"github.com/valerio/arduboy-emu/arduboy/backend"
	"github.com/valerio/arduboy-emu/arduboy/display"
	"github.com/valerio/arduboy-emu/arduboy/input"
)

const (
	sampleRate  = 44100
	cpuClockHz  = 16000000
	queueTarget = 2048 * 4 // bytes, ~2048 stereo frames
)

// Backend implements backend.Backend with an SDL2 window, renderer, and
// texture, plus audio queueing from a recorded audio.Buffer each frame.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
	config   backend.Config

	pixelBuffer []byte
	eventBuffer []input.Event

	audioDevice sdl.AudioDeviceID
	pipeline    *audio.Pipeline
	sampleBuf   []float32
	pcmBuf      []byte
}

// New creates an SDL2 backend.
func New() *Backend {
	return &Backend{}
}

func (s *Backend) Init(config backend.Config) error {
	s.config = config

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("initialize SDL2: %w", err)
	}

	scale := config.Scale
	if scale <= 0 {
		scale = 1
	}

	if config.Smoothing {
		sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, "1")
	} else {
		sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, "0")
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(display.Width*scale),
		int32(display.Height*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("create window: %w", err)
	}
	s.window = window

	rendererFlags := uint32(sdl.RENDERER_ACCELERATED)
	if config.VSync {
		rendererFlags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, rendererFlags)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("create renderer: %w", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGBA8888,
		sdl.TEXTUREACCESS_STREAMING,
		display.Width,
		display.Height,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("create texture: %w", err)
	}
	s.texture = texture

	s.window.Show()

	s.pixelBuffer = make([]byte, display.Width*display.Height*4)
	s.eventBuffer = make([]input.Event, 0, 8)
	s.running = true

	if !config.Mute {
		if err := s.initAudio(); err != nil {
			slog.Warn("failed to initialize audio", "error", err)
		}
	}

	slog.Info("sdl2 backend initialized", "scale", scale, "vsync", config.VSync)

	return nil
}

func (s *Backend) Update(frame *display.FrameBuffer) ([]input.Event, error) {
	s.eventBuffer = s.eventBuffer[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handleEvent(event)
	}

	if !s.running {
		return s.eventBuffer, nil
	}

	s.renderFrame(frame)

	return s.eventBuffer, nil
}

func (s *Backend) Cleanup() error {
	slog.Info("cleaning up sdl2 backend")

	if s.audioDevice != 0 {
		sdl.CloseAudioDevice(s.audioDevice)
	}
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()

	return nil
}

// QueueAudio renders buf through the SDL2 backend's DSP pipeline and queues
// the resulting samples for playback. Callers drive this once per frame
// alongside Update, since Buffer's contents are only valid until the next
// BeginFrame.
func (s *Backend) QueueAudio(buf *audio.Buffer) {
	if s.audioDevice == 0 || s.pipeline == nil || !buf.HasAudio() {
		return
	}

	queued := sdl.GetQueuedAudioSize(s.audioDevice)
	if queued >= queueTarget {
		return
	}

	n := s.pipeline.RenderSamples(buf, &s.sampleBuf)
	if n == 0 {
		return
	}

	samples := s.sampleBuf[:n*2]
	if cap(s.pcmBuf) < len(samples)*2 {
		s.pcmBuf = make([]byte, len(samples)*2)
	}
	pcm := s.pcmBuf[:len(samples)*2]
	for i, f := range samples {
		v := int16(clampSample(f) * 32767)
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}

	sdl.QueueAudio(s.audioDevice, pcm)
}

func clampSample(f float32) float32 {
	if f > 1 {
		return 1
	}
	if f < -1 {
		return -1
	}
	return f
}

func (s *Backend) initAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     sampleRate,
		Format:   sdl.AUDIO_S16LSB,
		Channels: 2,
		Samples:  512,
	}
	obtained := &sdl.AudioSpec{}
	device, err := sdl.OpenAudioDevice("", false, spec, obtained, 0)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}

	s.audioDevice = device
	s.pipeline = audio.NewPipeline(uint32(obtained.Freq), cpuClockHz, 1.0)
	sdl.PauseAudioDevice(s.audioDevice, false)

	slog.Info("audio initialized", "freq", obtained.Freq, "samples", obtained.Samples)
	return nil
}

func (s *Backend) handleEvent(evt sdl.Event) {
	switch e := evt.(type) {
	case *sdl.QuitEvent:
		s.running = false
		s.eventBuffer = append(s.eventBuffer, input.Event{Action: input.EmulatorQuit, Type: input.Press})
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			s.handleKeyDown(e.Keysym.Sym, e.Repeat)
		} else if e.Type == sdl.KEYUP {
			s.handleKeyUp(e.Keysym.Sym)
		}
	}
}

// keyMapping maps SDL2 keys to actions.
var keyMapping = map[sdl.Keycode]input.Action{
	sdl.K_UP:     input.ButtonUp,
	sdl.K_DOWN:   input.ButtonDown,
	sdl.K_LEFT:   input.ButtonLeft,
	sdl.K_RIGHT:  input.ButtonRight,
	sdl.K_z:      input.ButtonA,
	sdl.K_x:      input.ButtonB,
	sdl.K_SPACE:  input.EmulatorPauseToggle,
	sdl.K_n:      input.EmulatorStepInstruction,
	sdl.K_f:      input.EmulatorStepFrame,
	sdl.K_F12:    input.EmulatorSnapshot,
	sdl.K_F10:    input.EmulatorDebugToggle,
	sdl.K_ESCAPE: input.EmulatorQuit,
}

func (s *Backend) handleKeyDown(key sdl.Keycode, repeat uint8) {
	act, ok := keyMapping[key]
	if !ok {
		return
	}
	if act == input.EmulatorQuit {
		s.running = false
	}
	if repeat == 0 {
		s.eventBuffer = append(s.eventBuffer, input.Event{Action: act, Type: input.Press})
	} else {
		s.eventBuffer = append(s.eventBuffer, input.Event{Action: act, Type: input.Hold})
	}
}

func (s *Backend) handleKeyUp(key sdl.Keycode) {
	act, ok := keyMapping[key]
	if !ok {
		return
	}
	switch act {
	case input.ButtonUp, input.ButtonDown, input.ButtonLeft, input.ButtonRight, input.ButtonA, input.ButtonB:
		s.eventBuffer = append(s.eventBuffer, input.Event{Action: act, Type: input.Release})
	}
}

func (s *Backend) renderFrame(frame *display.FrameBuffer) {
	data := frame.ToSlice()

	for i, pixel := range data {
		dst := i * 4
		r, g, b, a := pixelRGBA(pixel)
		s.pixelBuffer[dst] = a
		s.pixelBuffer[dst+1] = b
		s.pixelBuffer[dst+2] = g
		s.pixelBuffer[dst+3] = r
	}

	s.texture.Update(nil, unsafe.Pointer(&s.pixelBuffer[0]), display.Width*4)

	s.renderer.SetDrawColor(0, 0, 0, 255)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}

// pixelRGBA unpacks a 0xRRGGBBAA display.Pixel.
func pixelRGBA(pixel uint32) (r, g, b, a uint8) {
	return uint8(pixel >> 24), uint8(pixel >> 16), uint8(pixel >> 8), uint8(pixel)
}
