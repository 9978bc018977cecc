package smooth

import (
	"math"
	"testing"
)

func TestNewLinearRejectsInvalidArgs(t *testing.T) {
	invalid := []struct {
		sampleRate float64
		rampMs     float64
	}{
		{0, 10},
		{-1, 10},
		{math.NaN(), 10},
		{48000, -1},
		{48000, math.Inf(1)},
	}

	for _, tc := range invalid {
		if _, err := NewLinear(tc.sampleRate, tc.rampMs); err == nil {
			t.Fatalf("NewLinear(%v, %v) expected error", tc.sampleRate, tc.rampMs)
		}
	}
}

func TestLinearReachesTargetExactly(t *testing.T) {
	s, err := NewLinear(48000, 20)
	if err != nil {
		t.Fatalf("NewLinear() error = %v", err)
	}

	if s.RampSamples() != 960 {
		t.Fatalf("RampSamples() = %d, want 960", s.RampSamples())
	}

	s.Reset(0.1)
	s.SetTarget(0.7)

	prev := s.Value()
	for i := 0; i < s.RampSamples()-1; i++ {
		v := s.Next()
		if v < prev {
			t.Fatalf("step %d: ramp not monotonic: %v < %v", i, v, prev)
		}
		if !s.Ramping() {
			t.Fatalf("step %d: ramp finished early", i)
		}
		prev = v
	}

	if got := s.Next(); got != 0.7 {
		t.Fatalf("final Next() = %v, want exactly 0.7", got)
	}
	if s.Ramping() {
		t.Fatal("Ramping() = true after ramp end")
	}
	if got := s.Next(); got != 0.7 {
		t.Fatalf("Next() after ramp = %v, want 0.7", got)
	}
}

func TestLinearStepSize(t *testing.T) {
	s, err := NewLinear(1000, 10)
	if err != nil {
		t.Fatal(err)
	}

	s.Reset(0)
	s.SetTarget(1)

	for i := 1; i <= 5; i++ {
		v := s.Next()
		if math.Abs(v-float64(i)/10) > 1e-12 {
			t.Fatalf("step %d = %v, want %v", i, v, float64(i)/10)
		}
	}
}

func TestLinearRetargetMidRamp(t *testing.T) {
	s, err := NewLinear(1000, 10)
	if err != nil {
		t.Fatal(err)
	}

	s.Reset(0)
	s.SetTarget(1)
	for i := 0; i < 5; i++ {
		s.Next()
	}

	s.SetTarget(-1)
	for i := 0; i < 10; i++ {
		s.Next()
	}

	if s.Value() != -1 {
		t.Fatalf("Value() = %v, want -1", s.Value())
	}
}

func TestLinearSameTargetKeepsRamp(t *testing.T) {
	s, err := NewLinear(1000, 10)
	if err != nil {
		t.Fatal(err)
	}

	s.Reset(0)
	s.SetTarget(1)
	s.Next()
	s.SetTarget(1)

	for i := 0; i < 9; i++ {
		s.Next()
	}

	if s.Value() != 1 || s.Ramping() {
		t.Fatalf("Value() = %v ramping=%v, want 1/false", s.Value(), s.Ramping())
	}
}

func TestLinearZeroRampJumps(t *testing.T) {
	s, err := NewLinear(48000, 0)
	if err != nil {
		t.Fatal(err)
	}

	s.SetTarget(3)
	if s.Value() != 3 || s.Ramping() {
		t.Fatalf("Value() = %v ramping=%v, want 3/false", s.Value(), s.Ramping())
	}
}

func TestLinearNextDoesNotAllocate(t *testing.T) {
	s, _ := NewLinear(48000, 5)
	s.SetTarget(1)

	allocs := testing.AllocsPerRun(1000, func() {
		s.Next()
	})
	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}
