package delay

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/interp"
)

// ErrNotPowerOfTwo is returned when a ring capacity is not a power of two.
var ErrNotPowerOfTwo = errors.New("delay: capacity must be a power of two >= 2")

// RingOption mutates ring construction parameters.
type RingOption func(*Ring)

// WithRingInterpolation selects the fractional read kernel. Linear is the
// default.
func WithRingInterpolation(mode interp.Mode) RingOption {
	return func(r *Ring) {
		r.mode = mode
	}
}

// Ring is a fixed-capacity circular sample store for one or two channels.
//
// Mono rings alias channel 1 onto channel 0 so stereo readers need no
// branching. Ring is not thread-safe.
type Ring struct {
	data     [2][]float64
	mask     int
	channels int
	mode     interp.Mode
}

// NewRing creates a ring with channels in {1, 2} and a power-of-two capacity.
func NewRing(channels, capacity int, opts ...RingOption) (*Ring, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("delay ring channels must be 1 or 2: %d", channels)
	}

	r := &Ring{channels: channels}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if err := r.Respace(capacity); err != nil {
		return nil, err
	}

	return r, nil
}

// Respace allocates and clears storage for capacity samples per channel.
// Resizing is a reset: previous history is discarded.
func (r *Ring) Respace(capacity int) error {
	if capacity < 2 || !core.IsPowerOfTwo(capacity) {
		return fmt.Errorf("%w: %d", ErrNotPowerOfTwo, capacity)
	}

	if len(r.data[0]) == capacity {
		r.Reset()
		return nil
	}

	r.data[0] = make([]float64, capacity)
	if r.channels == 2 {
		r.data[1] = make([]float64, capacity)
	} else {
		r.data[1] = r.data[0]
	}

	r.mask = capacity - 1

	return nil
}

// Len returns the per-channel capacity.
func (r *Ring) Len() int { return len(r.data[0]) }

// Mask returns Len()-1.
func (r *Ring) Mask() int { return r.mask }

// Channels returns the number of stored channels.
func (r *Ring) Channels() int { return r.channels }

// Interpolation returns the configured read kernel.
func (r *Ring) Interpolation() interp.Mode { return r.mode }

// Write stores one frame at index & mask. Mono rings ignore right.
func (r *Ring) Write(index int, left, right float64) {
	i := index & r.mask
	r.data[0][i] = left
	if r.channels == 2 {
		r.data[1][i] = right
	}
}

// At returns the stored sample at index & mask without interpolation.
func (r *Ring) At(ch, index int) float64 {
	return r.data[ch&1][index&r.mask]
}

// Read returns an interpolated sample at the fractional position pos.
func (r *Ring) Read(ch int, pos float64) float64 {
	buf := r.data[ch&1]
	fl := math.Floor(pos)
	i0 := int(fl)
	frac := pos - fl

	if r.mode == interp.Hermite {
		return interp.Hermite4(frac,
			buf[(i0-1)&r.mask], buf[i0&r.mask], buf[(i0+1)&r.mask], buf[(i0+2)&r.mask])
	}

	return interp.Linear2(frac, buf[i0&r.mask], buf[(i0+1)&r.mask])
}

// Samples exposes the backing slice of channel ch. The caller must not
// retain it across Respace and must not share it with another goroutine
// while the ring is being written.
func (r *Ring) Samples(ch int) []float64 {
	return r.data[ch&1]
}

// Reset clears the stored history.
func (r *Ring) Reset() {
	core.Zero(r.data[0])
	if r.channels == 2 {
		core.Zero(r.data[1])
	}
}
