package effects

import (
	"math"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/grain"
	"github.com/cwbudde/algo-granular/dsp/params"
)

// GrainView is a copy of one pool slot for display.
type GrainView struct {
	Active   bool
	Reverse  bool
	Collided bool
	ReadPos  [2]float64
	Progress [2]float64
	Total    [2]int
	Gains    [2]float64
}

// Snapshot is the engine state published at the end of every block. It is
// a copy; readers never touch engine memory.
type Snapshot struct {
	// Sequence counts published snapshots.
	Sequence   uint64
	SampleRate float64

	// Capacity and Mask describe the delay line; WritePos is the next index
	// to be written.
	Capacity int
	Mask     int
	WritePos int

	// Overview holds the peak |x| of each equally sized span of the delay
	// line, across channels. Span i covers indices
	// [i*OverviewSpan, (i+1)*OverviewSpan).
	Overview     []float64
	OverviewSpan int

	Grains       [grain.PoolSize]GrainView
	ActiveGrains int

	// Output holds the most recent mono output, oldest first.
	Output []float64

	Collision         bool
	CollisionDistance int
	Counters          grain.Counters

	// Params holds the smoothed values in effect at the end of the block.
	Params params.Values
}

func newSnapshot(bins, analysisSize int) func(*Snapshot) {
	return func(s *Snapshot) {
		s.Overview = make([]float64, bins)
		s.Output = make([]float64, analysisSize)
	}
}

// overview tracks per-span peaks of the delay line as it is written. A span
// is cleared when the write head enters it, so it reflects only the newest
// lap of history.
type overview struct {
	peaks []float64
	shift int
	span  int
}

func (o *overview) configure(capacity, bins int) {
	if bins > capacity {
		bins = capacity
	}

	if len(o.peaks) != bins {
		o.peaks = make([]float64, bins)
	}

	o.span = capacity / bins
	o.shift = core.Log2(o.span)
	o.reset()
}

func (o *overview) reset() {
	clear(o.peaks)
}

func (o *overview) write(index int, l, r float64) {
	bin := index >> o.shift
	if index&(o.span-1) == 0 {
		o.peaks[bin] = 0
	}

	a := math.Max(math.Abs(l), math.Abs(r))
	if a > o.peaks[bin] {
		o.peaks[bin] = a
	}
}

func viewOf(g *grain.Grain) GrainView {
	v := GrainView{
		Active:   g.Active(),
		Reverse:  g.Reverse(),
		Collided: g.Collided(),
	}

	for ch := range 2 {
		v.ReadPos[ch] = g.ReadPos(ch)
		v.Progress[ch] = g.Progress(ch)
		v.Total[ch] = g.Total(ch)
	}

	v.Gains[0], v.Gains[1] = g.Gains()

	return v
}
