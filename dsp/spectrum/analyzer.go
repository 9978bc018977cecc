package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/window"
)

const (
	// FloorDB is the lowest level reported by the analyzer.
	FloorDB = -130.0

	minAnalyzerSize = 16
	maxSmoothing    = 0.95
	eps             = 1e-12
)

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerConfig) error

type analyzerConfig struct {
	window    window.Type
	smoothing float64
}

// WithAnalyzerWindow selects the analysis window. The default is Hann.
func WithAnalyzerWindow(t window.Type) AnalyzerOption {
	return func(cfg *analyzerConfig) error {
		cfg.window = t
		return nil
	}
}

// WithAnalyzerSmoothing sets the per-frame dB smoothing factor in [0, 0.95].
// 0 disables smoothing.
func WithAnalyzerSmoothing(s float64) AnalyzerOption {
	return func(cfg *analyzerConfig) error {
		if s < 0 || s > maxSmoothing || math.IsNaN(s) {
			return fmt.Errorf("spectrum smoothing must be in [0, %g]: %f", maxSmoothing, s)
		}

		cfg.smoothing = s

		return nil
	}
}

// Analyzer computes single-sided magnitude spectra of fixed-size frames.
// After construction Analyze does not allocate. It is not safe for
// concurrent use.
type Analyzer struct {
	size       int
	sampleRate float64
	smoothing  float64

	plan    *algofft.Plan[complex128]
	win     []float64
	winGain float64

	frame []float64
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
	mag   []float64
	db    []float64
	ready bool
}

// NewAnalyzer returns an analyzer for frames of size samples, which must be
// a power of two of at least 16.
func NewAnalyzer(size int, sampleRate float64, opts ...AnalyzerOption) (*Analyzer, error) {
	if size < minAnalyzerSize || !core.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("spectrum analyzer size must be a power of two >= %d: %d", minAnalyzerSize, size)
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectrum analyzer sample rate must be > 0: %f", sampleRate)
	}

	cfg := analyzerConfig{window: window.TypeHann}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum init fft plan: %w", err)
	}

	win := window.Generate(cfg.window, size, window.WithPeriodic())

	gain, err := window.CoherentGain(win)
	if err != nil {
		return nil, err
	}

	bins := size/2 + 1
	a := &Analyzer{
		size:       size,
		sampleRate: sampleRate,
		smoothing:  cfg.smoothing,
		plan:       plan,
		win:        win,
		winGain:    gain,
		frame:      make([]float64, size),
		in:         make([]complex128, size),
		out:        make([]complex128, size),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mag:        make([]float64, bins),
		db:         make([]float64, bins),
	}
	a.Reset()

	return a, nil
}

// Size returns the frame length.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of single-sided bins, Size/2+1.
func (a *Analyzer) Bins() int { return len(a.db) }

// SampleRate returns the sample rate in Hz.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// BinHz returns the bin spacing in Hz.
func (a *Analyzer) BinHz() float64 { return a.sampleRate / float64(a.size) }

// Reset discards smoothing history.
func (a *Analyzer) Reset() {
	for i := range a.db {
		a.db[i] = FloorDB
		a.mag[i] = 0
	}

	a.ready = false
}

// Analyze computes the spectrum of the newest Size samples of x. Shorter
// input is zero-padded at the front.
func (a *Analyzer) Analyze(x []float64) error {
	if len(x) > a.size {
		x = x[len(x)-a.size:]
	}

	pad := a.size - len(x)
	clear(a.frame[:pad])
	copy(a.frame[pad:], x)

	if err := window.ApplyCoefficients(a.frame, a.frame, a.win); err != nil {
		return err
	}

	for i, s := range a.frame {
		a.in[i] = complex(s, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return fmt.Errorf("spectrum forward fft: %w", err)
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}

	vecmath.Magnitude(a.mag, a.re, a.im)

	norm := float64(a.size) * math.Max(a.winGain, eps)
	last := len(a.mag) - 1

	for k := range a.mag {
		m := a.mag[k] / norm
		if k > 0 && k < last {
			m *= 2
		}

		a.mag[k] = m

		v := math.Max(FloorDB, 20*math.Log10(math.Max(eps, m)))
		if a.ready && a.smoothing > 0 {
			v = a.smoothing*a.db[k] + (1-a.smoothing)*v
		}

		a.db[k] = v
	}

	a.ready = true

	return nil
}

// DB returns the smoothed spectrum in dB full scale. The slice is owned by
// the analyzer and overwritten by the next Analyze.
func (a *Analyzer) DB() []float64 { return a.db }

// Magnitudes returns the unsmoothed linear magnitudes of the last frame,
// normalised so that a full-scale sine at a bin centre reads 1.
func (a *Analyzer) Magnitudes() []float64 { return a.mag }

// Peak returns the frequency and level of the strongest non-DC bin.
func (a *Analyzer) Peak() (hz, db float64) {
	best := 1
	for k := 2; k < len(a.db); k++ {
		if a.db[k] > a.db[best] {
			best = k
		}
	}

	return float64(best) * a.BinHz(), a.db[best]
}

// Centroid returns the magnitude-weighted mean frequency of the last frame,
// or 0 for silence.
func (a *Analyzer) Centroid() float64 {
	var num, den float64

	binHz := a.BinHz()
	for k, m := range a.mag {
		num += float64(k) * binHz * m
		den += m
	}

	if den < eps {
		return 0
	}

	return num / den
}
