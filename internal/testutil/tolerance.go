package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t at the first index where got and want
// differ by more than eps, or if their lengths differ.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}

	for i := range got {
		if d := math.Abs(got[i] - want[i]); d > eps {
			t.Fatalf("[%d] = %v, want %v (|diff| %g > %g)", i, got[i], want[i], d, eps)
		}
	}
}

// RequireFinite fails t on the first NaN or Inf.
func RequireFinite(t *testing.T, x []float64) {
	t.Helper()

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("[%d] = %v, want finite", i, v)
		}
	}
}

// RequireSilent fails t if any sample of x exceeds eps in magnitude.
func RequireSilent(t *testing.T, x []float64, eps float64) {
	t.Helper()

	for i, v := range x {
		if math.Abs(v) > eps {
			t.Fatalf("[%d] = %v, want |x| <= %g", i, v, eps)
		}
	}
}

// PeakIndex returns the index of the largest |x|, or -1 for an empty slice.
func PeakIndex(x []float64) int {
	best := -1
	peak := -1.0

	for i, v := range x {
		if a := math.Abs(v); a > peak {
			best, peak = i, a
		}
	}

	return best
}
