package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPcd8544SetAddressBasic(t *testing.T) {
	p := NewPcd8544()
	p.ReceiveCommand(0x80 | 10) // set X address = 10
	p.ReceiveCommand(0x40 | 3)  // set Y address = 3
	assert.Equal(t, uint8(10), p.xAddr)
	assert.Equal(t, uint8(3), p.yAddr)
}

func TestPcd8544OutOfRangeAddressClampsToZero(t *testing.T) {
	p := NewPcd8544()
	p.ReceiveCommand(0x80 | 100) // >= 84, clamps to 0
	assert.Equal(t, uint8(0), p.xAddr)
}

func TestPcd8544FunctionSetEntersExtendedMode(t *testing.T) {
	p := NewPcd8544()
	p.ReceiveCommand(0x20 | 0x01) // H=1
	assert.True(t, p.extendedMode)
	p.ReceiveCommand(0x20) // back to basic, H=0
	assert.False(t, p.extendedMode)
}

func TestPcd8544WriteDataHorizontalAdvance(t *testing.T) {
	p := NewPcd8544()
	p.ReceiveData(0xFF)
	assert.Equal(t, uint8(1), p.xAddr)
	assert.Equal(t, uint8(0), p.yAddr)
	assert.Equal(t, uint8(0xFF), p.vram[0])
}

func TestPcd8544WriteDataVerticalAdvance(t *testing.T) {
	p := NewPcd8544()
	p.ReceiveCommand(0x20 | 0x02) // V=1, vertical addressing
	p.ReceiveData(0x01)
	assert.Equal(t, uint8(0), p.xAddr)
	assert.Equal(t, uint8(1), p.yAddr)
}

func TestPcd8544RenderToFrameBufferCentersImage(t *testing.T) {
	p := NewPcd8544()
	p.ReceiveCommand(0x08 | 0x04) // display control: normal mode
	p.ReceiveData(0x01)          // column 0, page 0, bit 0 on
	p.RenderToFrameBuffer()

	on := p.FB.GetPixel(pcdOffsetX, pcdOffsetY)
	assert.Equal(t, Pixel(0xFFFFFFFF), on)
	assert.Equal(t, Off, p.FB.GetPixel(0, 0))
}

func TestPcd8544RenderInverseMode(t *testing.T) {
	p := NewPcd8544()
	p.ReceiveCommand(0x08 | 0x05) // display control: inverse mode
	p.ReceiveData(0x00)          // bit off, inverted on
	p.RenderToFrameBuffer()

	assert.Equal(t, Pixel(0xFFFFFFFF), p.FB.GetPixel(pcdOffsetX, pcdOffsetY))
}
