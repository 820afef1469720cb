package render

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"

	"github.com/valerio/arduboy-emu/arduboy/display"
)

// frameDelayCentiseconds is GIF's 20ms-per-100ths-of-a-second delay unit for
// a 20ms per-frame interval.
const frameDelayCentiseconds = 2

var monoPalette = color.Palette{
	color.RGBA{0, 0, 0, 255},
	color.RGBA{255, 255, 255, 255},
}

// Recorder accumulates frames into an animated GIF: a 2-entry black/white
// global color table, an infinite NETSCAPE2.0 loop, and a fixed 20ms delay
// per frame.
type Recorder struct {
	frames []*image.Paletted
}

// NewRecorder creates an empty GIF recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// AddFrame appends fb's current contents as the next recorded frame.
func (r *Recorder) AddFrame(fb *display.FrameBuffer) {
	img := image.NewPaletted(image.Rect(0, 0, display.Width, display.Height), monoPalette)
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			idx := uint8(0)
			if fb.GetPixel(x, y) != display.Off {
				idx = 1
			}
			img.SetColorIndex(x, y, idx)
		}
	}
	r.frames = append(r.frames, img)
}

// Len reports how many frames have been recorded.
func (r *Recorder) Len() int { return len(r.frames) }

// Save writes the recording to path as an animated GIF89a.
func (r *Recorder) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gif file: %w", err)
	}
	defer file.Close()

	delays := make([]int, len(r.frames))
	for i := range delays {
		delays[i] = frameDelayCentiseconds
	}

	g := &gif.GIF{
		Image:     r.frames,
		Delay:     delays,
		LoopCount: 0, // 0 = loop forever, encoded as a NETSCAPE2.0 application extension
	}

	if err := gif.EncodeAll(file, g); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}
