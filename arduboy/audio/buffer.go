// Package audio records per-tick speaker pin transitions during a frame and
// renders them to PCM samples through a small DSP pipeline (duty-cycle
// interpolation, click envelope, biquad filtering, stereo cross-feed).
package audio

// Edge is a single pin-level transition event.
type Edge struct {
	Tick  uint64 // CPU tick when the transition occurred
	Level bool   // pin level after the transition (true = high)
}

// ChannelBuffer is a per-channel edge recording with the pin level carried
// across frame boundaries.
type ChannelBuffer struct {
	edges []Edge
	Level bool
}

// NewChannelBuffer constructs an empty ChannelBuffer.
func NewChannelBuffer() *ChannelBuffer {
	return &ChannelBuffer{edges: make([]Edge, 0, 4096)}
}

// Push records a pin transition if the level actually changed.
func (c *ChannelBuffer) Push(tick uint64, level bool) {
	if level != c.Level {
		c.edges = append(c.edges, Edge{Tick: tick, Level: level})
		c.Level = level
	}
}

// Clear drops this frame's recorded edges; the carried pin level survives.
func (c *ChannelBuffer) Clear() {
	c.edges = c.edges[:0]
}

// Len returns the number of edges recorded this frame.
func (c *ChannelBuffer) Len() int { return len(c.edges) }

// Edges returns the raw edge slice recorded this frame.
func (c *ChannelBuffer) Edges() []Edge { return c.edges }

// Buffer is the stereo edge recorder: left is Speaker1/PC6, right is
// Speaker2/PB5.
type Buffer struct {
	Left, Right          *ChannelBuffer
	FrameStart, FrameEnd uint64
}

// NewBuffer constructs an empty stereo Buffer.
func NewBuffer() *Buffer {
	return &Buffer{Left: NewChannelBuffer(), Right: NewChannelBuffer()}
}

// BeginFrame records the frame's start tick and clears both channels'
// recorded edges.
func (b *Buffer) BeginFrame(tick uint64) {
	b.FrameStart = tick
	b.Left.Clear()
	b.Right.Clear()
}

// EndFrame records the frame's end tick.
func (b *Buffer) EndFrame(tick uint64) {
	b.FrameEnd = tick
}

// HasAudio reports whether any edges were recorded this frame.
func (b *Buffer) HasAudio() bool {
	return b.Left.Len() > 0 || b.Right.Len() > 0
}
