package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-granular/dsp/buffer"
	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/delay"
	"github.com/cwbudde/algo-granular/dsp/filter/onepole"
	"github.com/cwbudde/algo-granular/dsp/grain"
	"github.com/cwbudde/algo-granular/dsp/params"
	"github.com/cwbudde/algo-granular/dsp/smooth"
	"github.com/cwbudde/algo-granular/internal/tribuf"
)

// Scratch lanes staged per sample and mixed per block.
const (
	laneWetL = iota
	laneWetR
	laneDry
	laneWet
	laneCount
)

// GranularDelay is a stereo granular delay and pitch shifter. Input is
// recorded into a power-of-two delay line through a saturating, DC-blocked,
// tone-filtered feedback path; overlapping Hann-windowed grains read that
// history back at independent delay, pitch, direction, length and pan.
//
// Parameters arrive through the lock-free [params.Store] returned by Params,
// are loaded once per block and ramped per sample. ProcessBlock does not
// allocate, lock or block. Apart from Params, Diagnostics and Snapshot the
// methods must be called from the goroutine that runs ProcessBlock.
type GranularDelay struct {
	sampleRate float64
	blockSize  int
	channels   int
	opts       granularConfig

	store     *params.Store
	target    params.Values
	cur       params.Values
	smoothers [params.Count]smooth.Linear
	settings  grain.Settings

	ring     *delay.Ring
	mask     int
	writePos int
	pool     grain.Pool
	sched    *grain.Scheduler
	diag     grain.Diagnostics
	diagSink *grain.Diagnostics

	feedback  [2]feedbackPath
	lastWet   [2]float64
	toneValue float64

	scratch *buffer.Block

	overview   overview
	recent     []float64
	recentHead int
	sequence   uint64
	snap       *tribuf.TripleBuffer[Snapshot]
}

// NewGranularDelay creates a granular delay for cfg. cfg.Channels selects a
// mono or stereo delay line; cfg.BufferSize is its capacity in samples.
func NewGranularDelay(cfg core.ProcessorConfig, opts ...GranularDelayOption) (*GranularDelay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gc := defaultGranularConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&gc); err != nil {
			return nil, err
		}
	}

	if gc.overviewBins > cfg.BufferSize {
		return nil, fmt.Errorf("granular overview bins must be <= buffer size %d: %d", cfg.BufferSize, gc.overviewBins)
	}

	ring, err := delay.NewRing(cfg.Channels, cfg.BufferSize, delay.WithRingInterpolation(gc.interpolation))
	if err != nil {
		return nil, err
	}

	g := &GranularDelay{
		sampleRate: cfg.SampleRate,
		blockSize:  cfg.BlockSize,
		channels:   cfg.Channels,
		opts:       gc,
		store:      params.NewStore(),
		ring:       ring,
		mask:       ring.Mask(),
		sched:      grain.NewScheduler(ring.Len(), gc.seed),
		feedback:   [2]feedbackPath{newFeedbackPath(), newFeedbackPath()},
		scratch:    buffer.NewBlock(laneCount, cfg.BlockSize),
		recent:     make([]float64, gc.analysisSize),
		snap:       tribuf.New(newSnapshot(gc.overviewBins, gc.analysisSize)),
	}

	g.store.SetValues(gc.values)
	g.sched.SetReverseMargin(gc.reverseMargin)
	g.sched.SetGuard(grain.ReadGuard(gc.interpolation))
	g.overview.configure(ring.Len(), gc.overviewBins)

	if gc.collisionDetection {
		g.diagSink = &g.diag
	}

	for i := range g.smoothers {
		if err := g.smoothers[i].Configure(g.sampleRate, gc.smoothingMs); err != nil {
			return nil, err
		}
	}

	g.Reset()

	return g, nil
}

// Prepare adapts the engine to a new stream format and resets it. Unlike
// ProcessBlock it may allocate.
func (g *GranularDelay) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("granular sample rate must be > 0: %f", sampleRate)
	}

	if blockSize <= 0 {
		return fmt.Errorf("granular block size must be > 0: %d", blockSize)
	}

	for i := range g.smoothers {
		if err := g.smoothers[i].Configure(sampleRate, g.opts.smoothingMs); err != nil {
			return err
		}
	}

	g.sampleRate = sampleRate
	g.blockSize = blockSize
	g.scratch.Grow(blockSize)

	if err := g.ring.Respace(g.ring.Len()); err != nil {
		return err
	}

	g.Reset()

	return nil
}

// Reset clears the delay line, grains, filters and diagnostics, rewinds the
// random sequence and jumps every smoother to the stored parameter values.
func (g *GranularDelay) Reset() {
	g.ring.Reset()
	g.pool.Reset()
	g.sched.SetCapacity(g.ring.Len())
	g.sched.Reset()
	g.diag.Reset()

	for ch := range g.feedback {
		g.feedback[ch].Reset()
	}

	g.lastWet = [2]float64{}
	g.writePos = 0

	g.store.Load(&g.target)
	for i := range g.smoothers {
		g.smoothers[i].Reset(g.target[i])
	}

	g.cur = g.target
	g.settings = GrainSettings(&g.cur)
	g.updateTone(true)

	g.overview.reset()
	clear(g.recent)
	g.recentHead = 0
}

// Params returns the parameter store. It is safe for concurrent use.
func (g *GranularDelay) Params() *params.Store { return g.store }

// Diagnostics returns the collision and trigger counters. It is safe for
// concurrent use.
func (g *GranularDelay) Diagnostics() *grain.Diagnostics { return &g.diag }

// SampleRate returns the sample rate in Hz.
func (g *GranularDelay) SampleRate() float64 { return g.sampleRate }

// BlockSize returns the internal processing chunk size.
func (g *GranularDelay) BlockSize() int { return g.blockSize }

// Channels returns the delay-line channel count.
func (g *GranularDelay) Channels() int { return g.channels }

// WritePos returns the delay-line index the next sample is written to.
func (g *GranularDelay) WritePos() int { return g.writePos }

// DelayLine returns the delay line.
func (g *GranularDelay) DelayLine() *delay.Ring { return g.ring }

// Pool returns the grain pool.
func (g *GranularDelay) Pool() *grain.Pool { return &g.pool }

// Scheduler returns the grain scheduler.
func (g *GranularDelay) Scheduler() *grain.Scheduler { return g.sched }

// Settings returns the smoothed scheduler settings of the last sample.
func (g *GranularDelay) Settings() grain.Settings { return g.settings }

// TriggerGrain starts a grain with cfg at the next processed sample, the
// same position a scheduled grain would start from. It reports false when
// the pool is full. The delay is used as given, without safety clamping.
// Sub-sample delays may read one unwritten neighbour, and Hermite reads need
// grain.ReadGuard extra samples, without a collision being reported.
func (g *GranularDelay) TriggerGrain(cfg grain.Config) bool {
	gr := g.pool.Acquire()
	if gr == nil {
		return false
	}

	gr.Trigger(g.writePos, g.sampleRate, cfg)

	return true
}

// Snapshot returns the most recently published snapshot and whether it is
// newer than the previous call's. Only one goroutine may call Snapshot; the
// returned value is valid until its next call.
func (g *GranularDelay) Snapshot() (*Snapshot, bool) {
	return g.snap.Front()
}

// ProcessBlock processes left and right in place. A nil right selects mono
// I/O; a stereo delay line then receives the left input on both channels.
// Only the overlapping length of left and right is processed.
func (g *GranularDelay) ProcessBlock(left, right []float64) {
	n := len(left)
	if right != nil && len(right) < n {
		n = len(right)
	}

	g.loadParams()

	for off := 0; off < n; {
		m := min(n-off, g.blockSize)

		var r []float64
		if right != nil {
			r = right[off : off+m]
		}

		g.processChunk(left[off:off+m], r)
		off += m
	}

	g.publish()
}

func (g *GranularDelay) loadParams() {
	g.store.Load(&g.target)

	for i := range g.smoothers {
		if params.ID(i) == params.Reverse {
			continue
		}

		g.smoothers[i].SetTarget(g.target[i])
	}

	g.cur[params.Reverse] = g.target[params.Reverse]
}

func (g *GranularDelay) processChunk(left, right []float64) {
	g.scratch.SetLen(len(left))
	wetL := g.scratch.Lane(laneWetL)
	wetR := g.scratch.Lane(laneWetR)
	dryGain := g.scratch.Lane(laneDry)
	wetGain := g.scratch.Lane(laneWet)

	for i := range left {
		g.stepParams()

		inL := left[i]
		inR := inL
		if right != nil {
			inR = right[i]
		}

		g.record(inL, inR)

		if g.opts.autoTrigger {
			g.sched.Tick(&g.pool, g.writePos, g.sampleRate, &g.settings, &g.diag)
		}

		sumL, sumR := g.pool.Process(g.ring, g.writePos, g.diagSink)

		scale := DensityScale(g.settings.Density)
		wl := sumL * scale
		wr := sumR * scale
		g.lastWet[0], g.lastWet[1] = wl, wr

		wetL[i], wetR[i] = wl, wr
		dryGain[i], wetGain[i] = EqualPowerGains(g.cur[params.Mix])

		g.writePos = (g.writePos + 1) & g.mask
	}

	vecmath.MulBlockInPlace(left, dryGain)
	vecmath.MulBlockInPlace(wetL, wetGain)
	vecmath.AddBlockInPlace(left, wetL)

	if right != nil {
		vecmath.MulBlockInPlace(right, dryGain)
		vecmath.MulBlockInPlace(wetR, wetGain)
		vecmath.AddBlockInPlace(right, wetR)
	}

	g.recordOutput(left, right)
}

func (g *GranularDelay) stepParams() {
	for i := range g.smoothers {
		if params.ID(i) == params.Reverse {
			continue
		}

		g.cur[i] = g.smoothers[i].Next()
	}

	g.settings = GrainSettings(&g.cur)
	g.updateTone(false)
}

func (g *GranularDelay) updateTone(force bool) {
	tone := g.cur[params.Tone]
	if !force && tone == g.toneValue {
		return
	}

	g.toneValue = tone

	alpha := onepole.Coefficient(ToneCutoff(tone), g.sampleRate)
	for ch := range g.feedback {
		g.feedback[ch].setAlpha(alpha)
	}
}

// record writes one conditioned input frame at the write head.
func (g *GranularDelay) record(inL, inR float64) {
	amount := g.cur[params.Feedback]

	var l, r float64
	if g.channels == 1 {
		l = g.feedback[0].Process((inL+inR)*0.5, (g.lastWet[0]+g.lastWet[1])*0.5, amount)
		r = l
	} else {
		l = g.feedback[0].Process(inL, g.lastWet[0], amount)
		r = g.feedback[1].Process(inR, g.lastWet[1], amount)
	}

	g.ring.Write(g.writePos, l, r)
	g.overview.write(g.writePos, l, r)
}

func (g *GranularDelay) recordOutput(left, right []float64) {
	mask := len(g.recent) - 1

	for i, l := range left {
		v := l
		if right != nil {
			v = (l + right[i]) * 0.5
		}

		g.recent[g.recentHead] = v
		g.recentHead = (g.recentHead + 1) & mask
	}
}

func (g *GranularDelay) publish() {
	s := g.snap.Back()

	g.sequence++
	s.Sequence = g.sequence
	s.SampleRate = g.sampleRate
	s.Capacity = g.ring.Len()
	s.Mask = g.mask
	s.WritePos = g.writePos

	copy(s.Overview, g.overview.peaks)
	s.OverviewSpan = g.overview.span

	active := 0
	for i := range s.Grains {
		gr := g.pool.At(i)
		s.Grains[i] = viewOf(gr)

		if gr.Active() {
			active++
		}
	}

	s.ActiveGrains = active

	core.UnwrapRing(s.Output, g.recent, g.recentHead)

	s.Collision, s.CollisionDistance = g.diag.Collision()
	s.Counters = g.diag.Counters()
	s.Params = g.cur

	g.snap.Publish()
}
