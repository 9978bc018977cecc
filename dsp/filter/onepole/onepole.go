package onepole

import "math"

// DefaultDCBlockerPole keeps the high-pass corner far below the audible band
// (about 35 Hz at 44.1 kHz).
const DefaultDCBlockerPole = 0.995

// DCBlocker is the first-order high-pass y[n] = k*(y[n-1] + x[n] - x[n-1]).
type DCBlocker struct {
	k     float64
	state float64
	prevX float64
}

// NewDCBlocker returns a DC blocker with pole k. Values outside (0, 1) fall
// back to DefaultDCBlockerPole.
func NewDCBlocker(k float64) DCBlocker {
	if !(k > 0 && k < 1) {
		k = DefaultDCBlockerPole
	}

	return DCBlocker{k: k}
}

// Pole returns the feedback coefficient.
func (f *DCBlocker) Pole() float64 { return f.k }

// Process filters one sample.
func (f *DCBlocker) Process(x float64) float64 {
	f.state = f.k * (f.state + x - f.prevX)
	f.prevX = x

	return f.state
}

// Reset clears the filter memory.
func (f *DCBlocker) Reset() {
	f.state = 0
	f.prevX = 0
}

// LowPass is the one-pole smoother y += alpha*(x - y).
type LowPass struct {
	alpha float64
	state float64
}

// Coefficient returns alpha = 1 - exp(-2π*fc/fs), clamped to [0, 1].
func Coefficient(cutoffHz, sampleRate float64) float64 {
	if cutoffHz <= 0 || sampleRate <= 0 {
		return 0
	}

	alpha := 1.0 - math.Exp(-2.0*math.Pi*cutoffHz/sampleRate)
	if alpha > 1 {
		return 1
	}

	return alpha
}

// Configure sets the cutoff frequency.
func (f *LowPass) Configure(cutoffHz, sampleRate float64) {
	f.alpha = Coefficient(cutoffHz, sampleRate)
}

// SetAlpha sets the smoothing coefficient directly.
func (f *LowPass) SetAlpha(alpha float64) {
	f.alpha = alpha
}

// Alpha returns the smoothing coefficient.
func (f *LowPass) Alpha() float64 { return f.alpha }

// Process filters one sample.
func (f *LowPass) Process(x float64) float64 {
	f.state += f.alpha * (x - f.state)

	return f.state
}

// Reset clears the filter memory.
func (f *LowPass) Reset() {
	f.state = 0
}
