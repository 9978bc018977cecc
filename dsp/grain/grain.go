package grain

import (
	"math"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/delay"
	"github.com/cwbudde/algo-granular/dsp/window"
)

const (
	left  = 0
	right = 1
)

// Config holds the trigger-time parameters of one grain.
type Config struct {
	// DelayMs is the left-channel start offset behind the write head.
	DelayMs float64
	// DelayOffsetPercent shortens the right-channel delay by this percentage.
	DelayOffsetPercent float64
	// Pitch is the base playback ratio (1 = original speed).
	Pitch float64
	// PitchOffsetCents detunes left down and right up by this amount.
	PitchOffsetCents float64
	// SpliceMs is the left-channel grain length.
	SpliceMs float64
	// SpliceOffsetPercent shortens the right-channel length by this percentage.
	SpliceOffsetPercent float64
	// Reverse plays both channels backwards.
	Reverse bool
	// Pan is the constant-power position in [0, 1], 0.5 = centre.
	Pan float64
}

// Grain is one bounded-lifetime playback unit with independent left and
// right read cursors. The zero value is an inactive grain.
type Grain struct {
	readPos   [2]float64
	total     [2]int
	processed [2]int
	step      [2]float64
	gain      [2]float64
	reverse   bool
	active    bool

	startWritePos       int
	collided            bool
	collisionDistance   int
	writePosAtCollision int
}

// PitchRatios returns the per-channel playback ratios for a base ratio and
// a detune in cents: left = base*2^(-cents/1200), right = base*2^(+cents/1200).
func PitchRatios(base, cents float64) (l, r float64) {
	if cents == 0 {
		return base, base
	}

	m := math.Exp2(cents / 1200)

	return base / m, base * m
}

// PanGains returns the constant-power gains cos(pan*π/2), sin(pan*π/2).
// pan is clamped to [0, 1].
func PanGains(pan float64) (l, r float64) {
	rad := core.Clamp(pan, 0, 1) * math.Pi / 2

	return math.Cos(rad), math.Sin(rad)
}

// Trigger initialises the grain at the write head writePos and marks it
// active. The caller is responsible for choosing a delay that keeps the read
// cursors behind the write head. A cursor that reaches writePos without
// passing it, as a sub-sample delay with pitch above 1 does, interpolates
// toward the unwritten slot after it and is not reported as a collision.
func (g *Grain) Trigger(writePos int, sampleRate float64, cfg Config) {
	pitchL, pitchR := PitchRatios(cfg.Pitch, cfg.PitchOffsetCents)

	dir := 1.0
	if cfg.Reverse {
		dir = -1
	}

	g.step[left] = pitchL * dir
	g.step[right] = pitchR * dir

	durL := core.MillisecondsToSamples(cfg.SpliceMs, sampleRate)
	durR := durL * (1 - cfg.SpliceOffsetPercent/100)
	g.total[left] = ceilSamples(durL)
	g.total[right] = ceilSamples(durR)
	g.processed = [2]int{}

	delayL := core.MillisecondsToSamples(cfg.DelayMs, sampleRate)
	delayR := delayL * (1 - cfg.DelayOffsetPercent/100)
	g.readPos[left] = float64(writePos) - delayL
	g.readPos[right] = float64(writePos) - delayR

	g.gain[left], g.gain[right] = PanGains(cfg.Pan)

	g.reverse = cfg.Reverse
	g.startWritePos = writePos
	g.collided = false
	g.collisionDistance = 0
	g.writePosAtCollision = 0
	g.active = g.total[left] > 0 || g.total[right] > 0
}

// Process renders one output frame from r. writePos is the index most
// recently written this sample. When diag is non-nil the right cursor is
// checked against the write head and collisions are reported to it.
func (g *Grain) Process(r *delay.Ring, writePos int, diag *Diagnostics) (outL, outR float64) {
	if !g.active {
		return 0, 0
	}

	if g.processed[left] < g.total[left] {
		outL = g.advance(r, left) * g.gain[left]
	}

	if g.processed[right] < g.total[right] {
		if diag != nil {
			g.checkCollision(r.Mask(), writePos, diag)
		}
		outR = g.advance(r, right) * g.gain[right]
	}

	if g.processed[left] >= g.total[left] && g.processed[right] >= g.total[right] {
		g.active = false
	}

	return outL, outR
}

func (g *Grain) advance(r *delay.Ring, ch int) float64 {
	w := window.HannAt(g.processed[ch], g.total[ch])
	s := r.Read(ch, g.readPos[ch]) * w
	g.readPos[ch] += g.step[ch]
	g.processed[ch]++

	return s
}

func (g *Grain) checkCollision(mask, writePos int, diag *Diagnostics) {
	dist := WrappedDistance(int(math.Floor(g.readPos[right])), writePos, mask)
	if dist <= 0 {
		return
	}

	g.collided = true
	g.collisionDistance = dist
	g.writePosAtCollision = writePos
	diag.reportCollision(dist)
}

// WrappedDistance returns (read - write) & mask re-centred to
// [-(mask+1)/2, (mask+1)/2). Positive values mean read is ahead of write.
func WrappedDistance(read, write, mask int) int {
	size := mask + 1
	d := (read - write) & mask
	if d >= size/2 {
		d -= size
	}

	return d
}

// Active reports whether the grain still produces output.
func (g *Grain) Active() bool { return g.active }

// Reverse reports whether the grain plays backwards.
func (g *Grain) Reverse() bool { return g.reverse }

// ReadPos returns the fractional read cursor of channel ch.
func (g *Grain) ReadPos(ch int) float64 { return g.readPos[ch&1] }

// Total returns the grain length of channel ch in samples.
func (g *Grain) Total(ch int) int { return g.total[ch&1] }

// Processed returns how many samples channel ch has produced.
func (g *Grain) Processed(ch int) int { return g.processed[ch&1] }

// Progress returns the envelope progress of channel ch in [0, 1].
func (g *Grain) Progress(ch int) float64 {
	ch &= 1
	if g.total[ch] == 0 {
		return 1
	}

	return float64(g.processed[ch]) / float64(g.total[ch])
}

// Step returns the signed per-sample cursor increment of channel ch.
func (g *Grain) Step(ch int) float64 { return g.step[ch&1] }

// Gains returns the constant-power pan gains.
func (g *Grain) Gains() (l, r float64) { return g.gain[left], g.gain[right] }

// StartWritePos returns the write head at trigger time.
func (g *Grain) StartWritePos() int { return g.startWritePos }

// Collided reports whether the right cursor was ever seen ahead of the
// write head.
func (g *Grain) Collided() bool { return g.collided }

// CollisionDistance returns the last observed collision distance in samples
// and the write head at which it occurred.
func (g *Grain) CollisionDistance() (dist, writePos int) {
	return g.collisionDistance, g.writePosAtCollision
}

func ceilSamples(x float64) int {
	if x <= 0 {
		return 0
	}

	return int(math.Ceil(x))
}
