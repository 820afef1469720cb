package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSsd1306Creation(t *testing.T) {
	d := NewSsd1306()
	assert.Equal(t, uint8(0), d.colStart)
	assert.Equal(t, uint8(127), d.colEnd)
	assert.Equal(t, uint8(7), d.pageEnd)
	assert.Equal(t, uint8(0xCF), d.Contrast)
}

func TestSsd1306SetColumnAddress(t *testing.T) {
	d := NewSsd1306()
	d.ReceiveCommand(0x21) // Set column address
	d.ReceiveCommand(10)   // start column
	d.ReceiveCommand(50)   // end column
	assert.Equal(t, uint8(10), d.colStart)
	assert.Equal(t, uint8(50), d.colEnd)
	assert.Equal(t, uint8(10), d.col)
}

func TestSsd1306WritePixelData(t *testing.T) {
	d := NewSsd1306()
	d.ReceiveCommand(0x21)
	d.ReceiveCommand(0)
	d.ReceiveCommand(127)
	d.ReceiveCommand(0x22)
	d.ReceiveCommand(0)
	d.ReceiveCommand(7)

	// All 8 pixels of column 0 on.
	d.ReceiveData(0xFF)
	assert.True(t, d.Dirty)

	for bit := 0; bit < 8; bit++ {
		px := d.FB.GetPixel(0, bit)
		assert.Equal(t, Pixel(0xCFCFCFFF), px, "pixel (0, %d) should be on", bit)
	}
}

func TestSsd1306Inversion(t *testing.T) {
	d := NewSsd1306()
	d.ReceiveCommand(0xA7) // invert
	d.ReceiveData(0x01)    // bit 0 set -> inverted means pixel off
	assert.Equal(t, Off, d.FB.GetPixel(0, 0))
	assert.Equal(t, Pixel(0xCFCFCFFF), d.FB.GetPixel(0, 1))
}

func TestSsd1306CursorWrapsWithinWindow(t *testing.T) {
	d := NewSsd1306()
	d.ReceiveCommand(0x21)
	d.ReceiveCommand(2)
	d.ReceiveCommand(3)
	d.ReceiveCommand(0x22)
	d.ReceiveCommand(0)
	d.ReceiveCommand(1)

	d.ReceiveData(0x00) // col 2 -> col 3
	assert.Equal(t, uint8(3), d.col)
	assert.Equal(t, uint8(0), d.page)
	d.ReceiveData(0x00) // col 3 -> wraps to col_start=2, page 1
	assert.Equal(t, uint8(2), d.col)
	assert.Equal(t, uint8(1), d.page)
}

func TestSsd1306SkipsSingleParameterCommands(t *testing.T) {
	d := NewSsd1306()
	d.ReceiveCommand(0xD5) // clock divide, expects 1 parameter byte
	assert.Equal(t, uint8(1), d.cmdSkip)
	d.ReceiveCommand(0x80) // consumed as the parameter, not dispatched
	assert.Equal(t, uint8(0), d.cmdSkip)
}

func TestSsd1306AsPixelBuffer(t *testing.T) {
	d := NewSsd1306()
	d.ReceiveCommand(0x21)
	d.ReceiveCommand(0)
	d.ReceiveCommand(127)
	d.ReceiveCommand(0x22)
	d.ReceiveCommand(0)
	d.ReceiveCommand(7)
	d.ReceiveData(0x01)

	buf := d.AsPixelBuffer()
	assert.Equal(t, uint32(0xCFCFCF), buf[0])
	assert.Equal(t, uint32(0), buf[Width])
}
