package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-granular/dsp/core"
	"github.com/cwbudde/algo-granular/dsp/grain"
	"github.com/cwbudde/algo-granular/dsp/interp"
	"github.com/cwbudde/algo-granular/dsp/params"
)

const (
	defaultGranularSmoothingMs  = 20.0
	defaultGranularOverviewBins = 1024
	defaultGranularAnalysisSize = 2048

	maxGranularSmoothingMs = 1000.0
	minGranularAnalysis    = 16
)

// GranularDelayOption mutates granular delay construction parameters.
type GranularDelayOption func(*granularConfig) error

type granularConfig struct {
	smoothingMs        float64
	seed               int64
	collisionDetection bool
	reverseMargin      int
	autoTrigger        bool
	overviewBins       int
	analysisSize       int
	interpolation      interp.Mode
	values             params.Values
}

func defaultGranularConfig() granularConfig {
	return granularConfig{
		smoothingMs:        defaultGranularSmoothingMs,
		seed:               grain.DefaultSeed,
		collisionDetection: true,
		reverseMargin:      grain.DefaultReverseMargin,
		autoTrigger:        true,
		overviewBins:       defaultGranularOverviewBins,
		analysisSize:       defaultGranularAnalysisSize,
		interpolation:      interp.Linear,
		values:             params.Defaults(),
	}
}

// WithGranularSmoothingMs sets the parameter ramp time in milliseconds.
func WithGranularSmoothingMs(ms float64) GranularDelayOption {
	return func(cfg *granularConfig) error {
		if ms < 0 || ms > maxGranularSmoothingMs || math.IsNaN(ms) {
			return fmt.Errorf("granular smoothing must be in [0, %g]: %f", maxGranularSmoothingMs, ms)
		}
		cfg.smoothingMs = ms
		return nil
	}
}

// WithGranularSeed sets the scheduler random seed. 0 selects the default.
func WithGranularSeed(seed int64) GranularDelayOption {
	return func(cfg *granularConfig) error {
		cfg.seed = seed
		return nil
	}
}

// WithGranularCollisionDetection enables or disables the per-sample
// read/write collision check.
func WithGranularCollisionDetection(enabled bool) GranularDelayOption {
	return func(cfg *granularConfig) error {
		cfg.collisionDetection = enabled
		return nil
	}
}

// WithGranularReverseMargin sets the minimum delay of reverse grains in
// samples.
func WithGranularReverseMargin(samples int) GranularDelayOption {
	return func(cfg *granularConfig) error {
		if samples < 0 {
			return fmt.Errorf("granular reverse margin must be >= 0: %d", samples)
		}
		cfg.reverseMargin = samples
		return nil
	}
}

// WithGranularAutoTrigger enables or disables the density-driven scheduler.
// With it disabled grains start only through TriggerGrain.
func WithGranularAutoTrigger(enabled bool) GranularDelayOption {
	return func(cfg *granularConfig) error {
		cfg.autoTrigger = enabled
		return nil
	}
}

// WithGranularOverviewBins sets the number of peak bins in the delay-line
// overview published with each snapshot. Must be a power of two.
func WithGranularOverviewBins(bins int) GranularDelayOption {
	return func(cfg *granularConfig) error {
		if bins < 1 || !core.IsPowerOfTwo(bins) {
			return fmt.Errorf("granular overview bins must be a power of two: %d", bins)
		}
		cfg.overviewBins = bins
		return nil
	}
}

// WithGranularAnalysisSize sets how many recent output samples each snapshot
// carries. Must be a power of two of at least 16.
func WithGranularAnalysisSize(n int) GranularDelayOption {
	return func(cfg *granularConfig) error {
		if n < minGranularAnalysis || !core.IsPowerOfTwo(n) {
			return fmt.Errorf("granular analysis size must be a power of two >= %d: %d", minGranularAnalysis, n)
		}
		cfg.analysisSize = n
		return nil
	}
}

// WithGranularInterpolation selects the delay-line read interpolation.
func WithGranularInterpolation(mode interp.Mode) GranularDelayOption {
	return func(cfg *granularConfig) error {
		if mode != interp.Linear && mode != interp.Hermite {
			return fmt.Errorf("granular interpolation mode unsupported: %v", mode)
		}
		cfg.interpolation = mode
		return nil
	}
}

// WithGranularParams sets the initial parameter values. Values are clamped
// to their ranges.
func WithGranularParams(v params.Values) GranularDelayOption {
	return func(cfg *granularConfig) error {
		for i := range v {
			cfg.values.Set(params.ID(i), v[i])
		}
		return nil
	}
}
