package smooth

import (
	"fmt"
	"math"
)

// Linear ramps from its current value to a target in a fixed number of
// equal steps. After exactly RampSamples() calls to Next following
// SetTarget, Value() equals the target bit-for-bit.
//
// Linear is real-time safe and not thread-safe.
type Linear struct {
	current     float64
	target      float64
	step        float64
	remaining   int
	rampSamples int
}

// NewLinear creates a smoother with a ramp of rampMs milliseconds.
func NewLinear(sampleRate, rampMs float64) (*Linear, error) {
	l := &Linear{}
	if err := l.Configure(sampleRate, rampMs); err != nil {
		return nil, err
	}

	return l, nil
}

// Configure sets the ramp length. A ramp of 0 ms makes SetTarget jump.
// An in-flight ramp is completed immediately.
func (l *Linear) Configure(sampleRate, rampMs float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("smoother sample rate must be > 0 and finite: %f", sampleRate)
	}

	if rampMs < 0 || math.IsNaN(rampMs) || math.IsInf(rampMs, 0) {
		return fmt.Errorf("smoother ramp must be >= 0 and finite: %f", rampMs)
	}

	l.rampSamples = int(math.Round(rampMs / 1000 * sampleRate))
	l.Reset(l.target)

	return nil
}

// RampSamples returns the ramp length in samples.
func (l *Linear) RampSamples() int { return l.rampSamples }

// SetTarget starts a new ramp from the current value. Setting the value
// already targeted is a no-op so per-block reloads do not restart ramps.
func (l *Linear) SetTarget(target float64) {
	if target == l.target {
		return
	}

	l.target = target
	if l.rampSamples <= 0 {
		l.current = target
		l.remaining = 0

		return
	}

	l.step = (target - l.current) / float64(l.rampSamples)
	l.remaining = l.rampSamples
}

// Next advances one sample and returns the new value.
func (l *Linear) Next() float64 {
	if l.remaining == 0 {
		return l.current
	}

	l.remaining--
	if l.remaining == 0 {
		l.current = l.target
	} else {
		l.current += l.step
	}

	return l.current
}

// Value returns the current value without advancing.
func (l *Linear) Value() float64 { return l.current }

// Target returns the ramp destination.
func (l *Linear) Target() float64 { return l.target }

// Ramping reports whether a ramp is in progress.
func (l *Linear) Ramping() bool { return l.remaining > 0 }

// Reset jumps to value and cancels any ramp.
func (l *Linear) Reset(value float64) {
	l.current = value
	l.target = value
	l.step = 0
	l.remaining = 0
}
