// Package window provides the grain envelope and analysis windows.
package window

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeBlackmanHarris4Term
)

// String returns the window name.
func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeBlackmanHarris4Term:
		return "blackman-harris"
	default:
		return "unknown"
	}
}

// ParseType returns the Type whose String form is name.
func ParseType(name string) (Type, error) {
	for t := TypeRectangular; t <= TypeBlackmanHarris4Term; t++ {
		if t.String() == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("window type unknown: %q", name)
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// HannAt returns the raised-cosine envelope value for step processed of a
// total-step grain: 0.5*(1-cos(2π*processed/total)). The value is exactly 0
// at processed == 0 and approaches 0 again at processed == total-1.
func HannAt(processed, total int) float64 {
	if total <= 0 {
		return 0
	}

	phase := 2 * math.Pi * float64(processed) / float64(total)

	return 0.5 * (1 - math.Cos(phase))
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic))
	}

	return out
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHann, size, opts...), validateLength(size)
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	coeffs := Generate(t, len(buf), opts...)
	vecmath.MulBlockInPlace(buf, coeffs)
}

// ApplyCoefficients writes samples*coeffs into dst without allocating.
func ApplyCoefficients(dst, samples, coeffs []float64) error {
	if len(samples) != len(coeffs) || len(dst) != len(samples) {
		return errMismatchedLength
	}

	vecmath.MulBlock(dst, samples, coeffs)

	return nil
}

// CoherentGain returns the mean coefficient value.
func CoherentGain(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}

	return sum / float64(len(coeffs)), nil
}

func evalWindow(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return 0.5 - 0.5*math.Cos(2*math.Pi*x)
	case TypeBlackmanHarris4Term:
		phase := 2 * math.Pi * x
		return 0.35875 - 0.48829*math.Cos(phase) + 0.14128*math.Cos(2*phase) - 0.01168*math.Cos(3*phase)
	default:
		return 1
	}
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
