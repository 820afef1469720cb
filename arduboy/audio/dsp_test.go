package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDutyTrackerSteadyHigh(t *testing.T) {
	d := newDutyTracker(nil, true)
	assert.Equal(t, 1.0, d.duty(0, 100))
}

func TestDutyTrackerSteadyLow(t *testing.T) {
	d := newDutyTracker(nil, false)
	assert.Equal(t, 0.0, d.duty(0, 100))
}

func TestDutyTrackerHalfDuty(t *testing.T) {
	// Low for ticks [0,50), high for [50,100).
	edges := []Edge{{Tick: 50, Level: true}}
	d := newDutyTracker(edges, false)
	assert.InDelta(t, 0.5, d.duty(0, 100), 1e-9)
}

func TestInitialLevelNoEdgesUsesCarried(t *testing.T) {
	assert.True(t, initialLevel(true, nil))
	assert.False(t, initialLevel(false, nil))
}

func TestInitialLevelWithEdgesIsOppositeOfFirst(t *testing.T) {
	edges := []Edge{{Tick: 10, Level: true}}
	assert.False(t, initialLevel(false, edges))
}

func TestLowpassButterworthPassesDC(t *testing.T) {
	bq := lowpassButterworth(lowpassCutoffHz, 44100)
	var y float64
	for i := 0; i < 2000; i++ {
		y = bq.process(1.0)
	}
	assert.InDelta(t, 1.0, y, 0.01)
}

func TestHighpassButterworthBlocksDC(t *testing.T) {
	bq := highpassButterworth(highpassCutoffHz, 44100)
	var y float64
	for i := 0; i < 20000; i++ {
		y = bq.process(1.0)
	}
	assert.InDelta(t, 0.0, y, 0.01)
}

func TestEnvelopeRisesOnActivityAndFallsOnSilence(t *testing.T) {
	env := newEnvelope(44100)
	var level float64
	for i := 0; i < 500; i++ {
		level = env.step(true)
	}
	assert.Greater(t, level, 0.9)

	for i := 0; i < 2000; i++ {
		level = env.step(false)
	}
	assert.Less(t, level, 0.05)
}

func TestRenderSamplesEmptyFrameProducesNothing(t *testing.T) {
	p := NewPipeline(44100, 16000000, 0.5)
	buf := NewBuffer()
	buf.BeginFrame(1000)
	buf.EndFrame(1000) // zero-length frame

	var out []float32
	n := p.RenderSamples(buf, &out)
	assert.Equal(t, 0, n)
	assert.Empty(t, out)
}

func TestRenderSamplesProducesExpectedSampleCount(t *testing.T) {
	p := NewPipeline(44100, 16000000, 0.5)
	buf := NewBuffer()
	buf.BeginFrame(0)
	buf.Left.Push(0, true)
	buf.Right.Push(0, true)
	buf.EndFrame(216000) // one emulated frame's worth of cycles

	var out []float32
	n := p.RenderSamples(buf, &out)
	assert.Greater(t, n, 0)
	assert.Len(t, out, n*2)
}

func TestRenderSamplesRebuildsOnSampleRateChange(t *testing.T) {
	p := NewPipeline(44100, 16000000, 0.5)
	p.SampleRate = 48000
	buf := NewBuffer()
	buf.BeginFrame(0)
	buf.EndFrame(216000)

	var out []float32
	p.RenderSamples(buf, &out)
	assert.Equal(t, uint32(48000), p.builtForSampleRate)
}
