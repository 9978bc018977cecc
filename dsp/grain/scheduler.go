package grain

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/interp"
)

const (
	// DefaultReverseMargin is the minimum delay, in samples, given to
	// reverse grains. Their cursor moves away from the write head so only a
	// small interpolation guard is needed.
	DefaultReverseMargin = 64

	// DefaultSeed seeds a Scheduler created with seed 0.
	DefaultSeed = 1

	// headroom keeps the oldest read sample, and its interpolation
	// neighbours, clear of the write head.
	headroom = 2
)

// Settings holds the smoothed per-sample scheduling controls.
type Settings struct {
	SpliceMs            float64
	DelayMs             float64
	Density             float64
	Pitch               float64
	SpreadMs            float64
	Width               float64
	PitchOffsetCents    float64
	SpliceOffsetPercent float64
	DelayOffsetPercent  float64
	Reverse             bool
}

// Plan is the deterministic part of one scheduling decision.
type Plan struct {
	SpliceSamples   int
	IntervalSamples int

	PitchL, PitchR float64
	// PitchWorst is the largest per-channel ratio, PitchLowest the smallest.
	PitchWorst, PitchLowest float64

	RequestedDelaySamples float64
	MinSafeDelaySamples   float64
	// DelaySamples is the requested delay clamped into
	// [MinSafeDelaySamples, MaxDelaySamples], before spread.
	DelaySamples float64
	// MaxDelaySamples is the largest delay, spread included, for which the
	// grain stays inside the unambiguous half of the ring. It never falls
	// below MinSafeDelaySamples.
	MaxDelaySamples float64
}

// SpliceSamples returns ceil(ms/1000*sampleRate), at least 1.
func SpliceSamples(ms, sampleRate float64) int {
	n := ceilSamples(core.MillisecondsToSamples(ms, sampleRate))
	if n < 1 {
		return 1
	}

	return n
}

// Interval returns the trigger period in samples for a splice length and
// density: spliceSamples/max(1, density), at least 1.
func Interval(spliceSamples int, density float64) int {
	if density < 1 || math.IsNaN(density) {
		density = 1
	}

	n := int(float64(spliceSamples) / density)
	if n < 1 {
		return 1
	}

	return n
}

// MinSafeDelaySamples returns the smallest delay for which a grain of
// spliceSamples length cannot reach the write head. Forward grains need
// spliceSamples*(pitch-1) when pitch exceeds 1; reverse grains only need
// margin.
func MinSafeDelaySamples(spliceSamples int, pitch float64, reverse bool, margin int) float64 {
	if reverse {
		return float64(max(0, margin))
	}

	return math.Max(0, float64(spliceSamples)*(pitch-1))
}

// ReadGuard returns the extra forward delay, in samples, that a ring read
// with mode needs so that its look-ahead neighbours stay behind the write
// head. Linear reads need none; the 4-point Hermite kernel reads two
// samples past the cursor.
func ReadGuard(mode interp.Mode) int {
	if mode == interp.Hermite {
		return headroom
	}

	return 0
}

// MinSafeDelayMs is MinSafeDelaySamples expressed in milliseconds.
func MinSafeDelayMs(spliceSamples int, pitch float64, reverse bool, margin int, sampleRate float64) float64 {
	return core.SamplesToMilliseconds(MinSafeDelaySamples(spliceSamples, pitch, reverse, margin), sampleRate)
}

// NewPlan computes splice length, trigger interval and the safe delay range
// for s. capacity is the ring size in samples; a cursor may lag the write
// head by at most half of it, beyond which the wrapped distance turns
// ambiguous. guard is added to the forward minimum, see ReadGuard.
//
// The minimum safe delay uses the faster of the two detuned channels and is
// scaled up so that the right channel, whose delay is shortened by
// DelayOffsetPercent, is safe as well.
func NewPlan(s *Settings, sampleRate float64, capacity, margin, guard int) Plan {
	var p Plan

	p.SpliceSamples = SpliceSamples(s.SpliceMs, sampleRate)
	p.IntervalSamples = Interval(p.SpliceSamples, s.Density)
	p.PitchL, p.PitchR = PitchRatios(s.Pitch, s.PitchOffsetCents)
	p.PitchWorst = math.Max(p.PitchL, p.PitchR)
	p.PitchLowest = math.Min(p.PitchL, p.PitchR)

	minSafe := MinSafeDelaySamples(p.SpliceSamples, p.PitchWorst, s.Reverse, margin)
	if !s.Reverse {
		minSafe += float64(max(0, guard))

		factor := 1 - core.Clamp(s.DelayOffsetPercent, 0, 100)/100
		if factor > 0 {
			minSafe /= factor
		} else if minSafe > 0 {
			minSafe = math.Inf(1)
		}
	}

	splice := float64(p.SpliceSamples)
	window := float64(capacity/2 - headroom)

	var upper float64
	if s.Reverse {
		upper = window - splice*(1+p.PitchWorst)
	} else {
		upper = window - splice*math.Max(0, 1-p.PitchLowest)
	}

	if math.IsInf(minSafe, 1) {
		minSafe = upper
	}

	if upper < minSafe {
		upper = minSafe
	}

	p.RequestedDelaySamples = math.Max(0, core.MillisecondsToSamples(s.DelayMs, sampleRate))
	p.MinSafeDelaySamples = minSafe
	p.MaxDelaySamples = upper
	p.DelaySamples = core.Clamp(p.RequestedDelaySamples, minSafe, upper)

	return p
}

// Scheduler triggers grains from a pool at a density-derived interval.
// It is not safe for concurrent use.
type Scheduler struct {
	capacity int
	margin   int
	guard    int
	seed     int64
	rng      *rand.Rand

	countdown int
	last      Plan
}

// NewScheduler returns a scheduler for a ring of capacity samples. A zero
// seed selects DefaultSeed.
func NewScheduler(capacity int, seed int64) *Scheduler {
	if seed == 0 {
		seed = DefaultSeed
	}

	return &Scheduler{
		capacity: capacity,
		margin:   DefaultReverseMargin,
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// SetCapacity updates the ring size used for the delay upper bound.
func (s *Scheduler) SetCapacity(capacity int) { s.capacity = capacity }

// SetReverseMargin sets the reverse-grain minimum delay in samples.
func (s *Scheduler) SetReverseMargin(samples int) { s.margin = max(0, samples) }

// ReverseMargin returns the reverse-grain minimum delay in samples.
func (s *Scheduler) ReverseMargin() int { return s.margin }

// SetGuard sets the forward read guard in samples, see ReadGuard.
func (s *Scheduler) SetGuard(samples int) { s.guard = max(0, samples) }

// Guard returns the forward read guard in samples.
func (s *Scheduler) Guard() int { return s.guard }

// Seed sets the random seed and resets the scheduler.
func (s *Scheduler) Seed(seed int64) {
	if seed == 0 {
		seed = DefaultSeed
	}

	s.seed = seed
	s.Reset()
}

// Reset rewinds the random sequence and arms an immediate trigger.
func (s *Scheduler) Reset() {
	s.rng.Seed(s.seed)
	s.countdown = 0
	s.last = Plan{}
}

// Countdown returns the samples left until the next trigger.
func (s *Scheduler) Countdown() int { return s.countdown }

// LastPlan returns the plan of the most recent trigger attempt.
func (s *Scheduler) LastPlan() Plan { return s.last }

// Tick advances the scheduler by one sample. When the countdown has expired
// it plans a grain, draws spread and pan, and triggers the first free pool
// slot at writePos. It reports whether a grain was started; a full pool
// drops the request.
func (s *Scheduler) Tick(pool *Pool, writePos int, sampleRate float64, set *Settings, diag *Diagnostics) bool {
	started := false

	if s.countdown <= 0 {
		started = s.trigger(pool, writePos, sampleRate, set, diag)
		s.countdown = s.last.IntervalSamples
	}

	s.countdown--

	return started
}

func (s *Scheduler) trigger(pool *Pool, writePos int, sampleRate float64, set *Settings, diag *Diagnostics) bool {
	s.last = NewPlan(set, sampleRate, s.capacity, s.margin, s.guard)

	delay := s.last.DelaySamples
	if set.SpreadMs > 0 {
		delay += s.rng.Float64() * core.MillisecondsToSamples(set.SpreadMs, sampleRate)
	}

	delay = math.Min(delay, s.last.MaxDelaySamples)

	pan := 0.5 + (s.rng.Float64()*2-1)*0.5*core.Clamp(set.Width, 0, 1)

	g := pool.Acquire()
	if g == nil {
		if diag != nil {
			diag.recordDrop()
		}

		return false
	}

	g.Trigger(writePos, sampleRate, Config{
		DelayMs:             core.SamplesToMilliseconds(delay, sampleRate),
		DelayOffsetPercent:  set.DelayOffsetPercent,
		Pitch:               set.Pitch,
		PitchOffsetCents:    set.PitchOffsetCents,
		SpliceMs:            set.SpliceMs,
		SpliceOffsetPercent: set.SpliceOffsetPercent,
		Reverse:             set.Reverse,
		Pan:                 pan,
	})

	if diag != nil {
		diag.recordTrigger()
	}

	return true
}
