package main

import (
	"math/rand"

	"github.com/cwbudde/algo-granular/internal/wavio"
)

// source fills stereo input blocks for the engine.
type source interface {
	Fill(left, right []float64)
}

// clipSource plays a decoded clip in a loop.
type clipSource struct {
	left, right []float64
	pos         int
}

func newClipSource(c *wavio.Clip) *clipSource {
	l, r := c.Stereo()
	return &clipSource{left: l, right: r}
}

func (s *clipSource) Fill(left, right []float64) {
	if len(s.left) == 0 {
		clear(left)
		clear(right)
		return
	}

	for i := range left {
		left[i] = s.left[s.pos]
		right[i] = s.right[s.pos]

		s.pos++
		if s.pos == len(s.left) {
			s.pos = 0
		}
	}
}

// pluckSource is a Karplus-Strong string plucked at a fixed rate on
// random notes of a pentatonic scale.
type pluckSource struct {
	sampleRate float64
	period     int
	countdown  int
	rng        *rand.Rand

	line  []float64
	size  int
	pos   int
	decay float64
	gain  float64
}

var pentatonic = [...]float64{220, 246.94, 277.18, 329.63, 369.99, 440, 493.88, 554.37}

const (
	pluckDecay = 0.996
	pluckGain  = 0.5
)

func newPluckSource(sampleRate, perSecond float64, seed int64) *pluckSource {
	period := max(1, int(sampleRate/perSecond))

	return &pluckSource{
		sampleRate: sampleRate,
		period:     period,
		rng:        rand.New(rand.NewSource(seed)),
		line:       make([]float64, int(sampleRate/pentatonic[0])+1),
		decay:      pluckDecay,
		gain:       pluckGain,
	}
}

func (s *pluckSource) pluck() {
	freq := pentatonic[s.rng.Intn(len(pentatonic))]
	s.size = max(2, int(s.sampleRate/freq))
	s.pos = 0

	for i := range s.line[:s.size] {
		s.line[i] = s.rng.Float64()*2 - 1
	}
}

func (s *pluckSource) Fill(left, right []float64) {
	for i := range left {
		if s.countdown <= 0 {
			s.pluck()
			s.countdown = s.period
		}
		s.countdown--

		next := s.pos + 1
		if next == s.size {
			next = 0
		}

		y := s.line[s.pos]
		s.line[s.pos] = s.decay * 0.5 * (y + s.line[next])
		s.pos = next

		left[i] = y * s.gain
		right[i] = left[i]
	}
}
