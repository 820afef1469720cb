// Package render turns a display.FrameBuffer into PNG screenshots and GIF
// recordings for the CLI's --snapshot flag and interactive backends.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/valerio/arduboy-emu/arduboy/display"
)

// SaveScreenshot encodes fb as a PNG at path. scale=1 emits a monochrome
// grayscale image at native resolution; scale>=2 emits a nearest-neighbor
// upscaled RGB image, matching how real Arduboy capture tools present
// higher scales with visible pixel blocks rather than blurred output.
func SaveScreenshot(fb *display.FrameBuffer, path string, scale int) error {
	if scale < 1 {
		scale = 1
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot file: %w", err)
	}
	defer file.Close()

	var img image.Image
	if scale == 1 {
		img = monoImage(fb)
	} else {
		img = upscaleRGBA(fb, scale)
	}

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode screenshot PNG: %w", err)
	}
	return nil
}

func monoImage(fb *display.FrameBuffer) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, display.Width, display.Height))
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: grayLevel(fb.GetPixel(x, y))})
		}
	}
	return img
}

func upscaleRGBA(fb *display.FrameBuffer, scale int) *image.RGBA {
	w, h := display.Width*scale, display.Height*scale
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			c := rgbaColor(fb.GetPixel(x, y))
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func grayLevel(p display.Pixel) uint8 {
	if p == display.Off {
		return 0
	}
	return uint8(uint32(p) >> 24)
}

func rgbaColor(p display.Pixel) color.RGBA {
	v := uint32(p)
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
