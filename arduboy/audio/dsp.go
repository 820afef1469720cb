package audio

import "math"

// biquad is a direct-form-I second-order IIR section. No biquad/IIR filter
// implementation exists anywhere in the example pack (checked IntuitionEngine's
// synthesis engines too — they carry only a filter-type enum and a comb
// filter), so the RBJ cookbook coefficient formulas are implemented directly
// against stdlib math rather than adapted from a library.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func (bq *biquad) process(x float64) float64 {
	y := bq.b0*x + bq.b1*bq.x1 + bq.b2*bq.x2 - bq.a1*bq.y1 - bq.a2*bq.y2
	bq.x2, bq.x1 = bq.x1, x
	bq.y2, bq.y1 = bq.y1, y
	return y
}

// lowpassButterworth builds a 2nd-order Butterworth low-pass (Q=1/sqrt(2))
// at the given cutoff, per the RBJ audio cookbook formulas.
func lowpassButterworth(cutoff, sampleRate float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / math.Sqrt2
	cosw0 := math.Cos(w0)
	a0 := 1 + alpha
	b0 := (1 - cosw0) / 2 / a0
	b1 := (1 - cosw0) / a0
	b2 := b0
	a1 := -2 * cosw0 / a0
	a2 := (1 - alpha) / a0
	return biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// highpassButterworth builds a 2nd-order Butterworth high-pass (Q=1/sqrt(2))
// at the given cutoff, used to strip DC accumulation from the rendered
// waveform.
func highpassButterworth(cutoff, sampleRate float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / math.Sqrt2
	cosw0 := math.Cos(w0)
	a0 := 1 + alpha
	b0 := (1 + cosw0) / 2 / a0
	b1 := -(1 + cosw0) / a0
	b2 := b0
	a1 := -2 * cosw0 / a0
	a2 := (1 - alpha) / a0
	return biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

const (
	lowpassCutoffHz  = 8000.0
	highpassCutoffHz = 20.0
	attackSeconds    = 0.002
	releaseSeconds   = 0.005
)

// envelope is a simple one-pole attack/release follower that rides a
// channel's amplitude up when edge activity starts and back down when it
// stops, smoothing the otherwise-instant on/off of a bit-banged speaker
// pin into an audible click-free transition.
type envelope struct {
	level                   float64
	attackCoef, releaseCoef float64
}

func newEnvelope(sampleRate float64) envelope {
	return envelope{
		attackCoef:  math.Exp(-1.0 / (attackSeconds * sampleRate)),
		releaseCoef: math.Exp(-1.0 / (releaseSeconds * sampleRate)),
	}
}

func (e *envelope) step(active bool) float64 {
	target := 0.0
	coef := e.releaseCoef
	if active {
		target = 1.0
		coef = e.attackCoef
	}
	e.level = target + (e.level-target)*coef
	return e.level
}

// Pipeline is the persistent per-channel DSP state (envelope followers,
// biquad filter state) that survives across frames, per the requirement
// that filtering not introduce per-frame discontinuities.
type Pipeline struct {
	SampleRate uint32
	ClockHz    uint32
	Volume     float32
	CrossFeed  float32

	envL, envR         envelope
	lowL, lowR         biquad
	highL, highR       biquad
	builtForSampleRate uint32
}

// NewPipeline constructs a Pipeline with the given render parameters and the
// default 0.20 stereo cross-feed.
func NewPipeline(sampleRate, clockHz uint32, volume float32) *Pipeline {
	p := &Pipeline{SampleRate: sampleRate, ClockHz: clockHz, Volume: volume, CrossFeed: 0.20}
	p.rebuild()
	return p
}

func (p *Pipeline) rebuild() {
	sr := float64(p.SampleRate)
	p.lowL = lowpassButterworth(lowpassCutoffHz, sr)
	p.lowR = lowpassButterworth(lowpassCutoffHz, sr)
	p.highL = highpassButterworth(highpassCutoffHz, sr)
	p.highR = highpassButterworth(highpassCutoffHz, sr)
	p.envL = newEnvelope(sr)
	p.envR = newEnvelope(sr)
	p.builtForSampleRate = p.SampleRate
}

// dutyTracker computes, window by window, the fraction of ticks a channel
// spent at a high level by integrating its recorded edge train.
type dutyTracker struct {
	edges []Edge
	idx   int
	level bool
}

func newDutyTracker(edges []Edge, initialLevel bool) *dutyTracker {
	return &dutyTracker{edges: edges, level: initialLevel}
}

func (d *dutyTracker) duty(windowStart, windowEnd uint64) float64 {
	if windowEnd <= windowStart {
		if d.level {
			return 1
		}
		return 0
	}
	var highTicks uint64
	cur := windowStart
	for d.idx < len(d.edges) && d.edges[d.idx].Tick < windowEnd {
		e := d.edges[d.idx]
		if e.Tick > cur && d.level {
			highTicks += e.Tick - cur
		}
		if e.Tick > cur {
			cur = e.Tick
		}
		d.level = e.Level
		d.idx++
	}
	if windowEnd > cur && d.level {
		highTicks += windowEnd - cur
	}
	return float64(highTicks) / float64(windowEnd-windowStart)
}

// RenderSamples converts one frame's recorded edges into interleaved stereo
// PCM samples ([L, R, L, R, ...]) at Pipeline's configured sample rate,
// running the edge-interpolation, click-envelope, biquad, and cross-feed
// stages described for the audio pipeline. Returns the number of stereo
// sample pairs produced.
func (p *Pipeline) RenderSamples(buf *Buffer, out *[]float32) int {
	if p.SampleRate != p.builtForSampleRate {
		p.rebuild()
	}

	frameTicks := buf.FrameEnd - buf.FrameStart
	if buf.FrameEnd < buf.FrameStart {
		frameTicks = 0
	}
	if frameTicks == 0 {
		*out = (*out)[:0]
		return 0
	}

	numSamples := int(math.Ceil(float64(frameTicks) * float64(p.SampleRate) / float64(p.ClockHz)))
	ticksPerSample := float64(p.ClockHz) / float64(p.SampleRate)

	lEdges, rEdges := buf.Left.Edges(), buf.Right.Edges()
	lInit := initialLevel(buf.Left.Level, lEdges)
	rInit := initialLevel(buf.Right.Level, rEdges)
	lDuty := newDutyTracker(lEdges, lInit)
	rDuty := newDutyTracker(rEdges, rInit)

	*out = (*out)[:0]
	if cap(*out) < numSamples*2 {
		*out = make([]float32, 0, numSamples*2)
	}

	volume := float64(p.Volume)
	start := buf.FrameStart
	for i := 0; i < numSamples; i++ {
		winStart := start + uint64(float64(i)*ticksPerSample)
		winEnd := start + uint64(float64(i+1)*ticksPerSample)

		lDutyFrac := lDuty.duty(winStart, winEnd)
		rDutyFrac := rDuty.duty(winStart, winEnd)

		lAmp := volume * (2*lDutyFrac - 1)
		rAmp := volume * (2*rDutyFrac - 1)

		lActive := len(lEdges) > 0
		rActive := len(rEdges) > 0
		lAmp *= p.envL.step(lActive)
		rAmp *= p.envR.step(rActive)

		lAmp = p.lowL.process(lAmp)
		rAmp = p.lowR.process(rAmp)
		lAmp = p.highL.process(lAmp)
		rAmp = p.highR.process(rAmp)

		cf := float64(p.CrossFeed)
		outL := lAmp*(1-cf) + rAmp*cf
		outR := rAmp*(1-cf) + lAmp*cf

		*out = append(*out, float32(outL), float32(outR))
	}

	return numSamples
}

// initialLevel recovers the pin level at the start of a frame: if no edges
// occurred, the channel's carried level is steady-state; otherwise the
// level before the first edge is the opposite of what that edge
// transitioned to.
func initialLevel(carried bool, edges []Edge) bool {
	if len(edges) == 0 {
		return carried
	}
	return !edges[0].Level
}
