package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelBufferRecordsOnlyTransitions(t *testing.T) {
	c := NewChannelBuffer()
	c.Push(10, true)
	c.Push(20, true) // no change, not recorded
	c.Push(30, false)
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Level)
}

func TestChannelBufferClearPreservesLevel(t *testing.T) {
	c := NewChannelBuffer()
	c.Push(5, true)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Level)
}

func TestBufferBeginEndFrame(t *testing.T) {
	b := NewBuffer()
	b.Left.Push(1, true)
	b.BeginFrame(100)
	assert.Equal(t, uint64(100), b.FrameStart)
	assert.Equal(t, 0, b.Left.Len())
	assert.False(t, b.HasAudio())

	b.Left.Push(150, true)
	b.EndFrame(200)
	assert.Equal(t, uint64(200), b.FrameEnd)
	assert.True(t, b.HasAudio())
}
