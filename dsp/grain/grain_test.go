package grain

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-granular/dsp/delay"
	"github.com/cwbudde/algo-granular/dsp/window"
)

func newTestRing(t *testing.T, capacity int) *delay.Ring {
	t.Helper()

	r, err := delay.NewRing(2, capacity)
	if err != nil {
		t.Fatalf("NewRing() error = %v", err)
	}

	return r
}

func TestPitchRatios(t *testing.T) {
	tests := []struct {
		name        string
		base, cents float64
		wantL       float64
		wantR       float64
	}{
		{name: "no detune", base: 1.5, cents: 0, wantL: 1.5, wantR: 1.5},
		{name: "octave", base: 1, cents: 1200, wantL: 0.5, wantR: 2},
		{name: "negative", base: 2, cents: -1200, wantL: 4, wantR: 1},
		{name: "semitone", base: 1, cents: 100, wantL: math.Pow(2, -1.0/12), wantR: math.Pow(2, 1.0/12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := PitchRatios(tt.base, tt.cents)
			if math.Abs(l-tt.wantL) > 1e-12 || math.Abs(r-tt.wantR) > 1e-12 {
				t.Fatalf("PitchRatios(%v, %v) = (%v, %v), want (%v, %v)", tt.base, tt.cents, l, r, tt.wantL, tt.wantR)
			}
		})
	}
}

func TestPanGainsConstantPower(t *testing.T) {
	for _, pan := range []float64{-1, 0, 0.1, 0.25, 0.5, 0.9, 1, 2} {
		l, r := PanGains(pan)
		if p := l*l + r*r; math.Abs(p-1) > 1e-12 {
			t.Fatalf("PanGains(%v) power = %v, want 1", pan, p)
		}
	}

	l, r := PanGains(0)
	if l != 1 || r != 0 {
		t.Fatalf("PanGains(0) = (%v, %v), want (1, 0)", l, r)
	}

	l, r = PanGains(0.5)
	if math.Abs(l-r) > 1e-15 || math.Abs(l-math.Sqrt2/2) > 1e-12 {
		t.Fatalf("PanGains(0.5) = (%v, %v), want equal at sqrt(2)/2", l, r)
	}
}

func TestTriggerInitialisesChannels(t *testing.T) {
	var g Grain

	g.Trigger(5000, 1000, Config{
		DelayMs:             100,
		DelayOffsetPercent:  50,
		Pitch:               2,
		PitchOffsetCents:    0,
		SpliceMs:            100,
		SpliceOffsetPercent: 25,
		Pan:                 0.5,
	})

	if !g.Active() {
		t.Fatal("grain not active after Trigger")
	}

	if g.Total(0) != 100 || g.Total(1) != 75 {
		t.Fatalf("totals = (%d, %d), want (100, 75)", g.Total(0), g.Total(1))
	}

	if g.ReadPos(0) != 4900 || g.ReadPos(1) != 4950 {
		t.Fatalf("read positions = (%v, %v), want (4900, 4950)", g.ReadPos(0), g.ReadPos(1))
	}

	if g.Step(0) != 2 || g.Step(1) != 2 {
		t.Fatalf("steps = (%v, %v), want (2, 2)", g.Step(0), g.Step(1))
	}

	if g.StartWritePos() != 5000 {
		t.Fatalf("StartWritePos() = %d, want 5000", g.StartWritePos())
	}

	g.Trigger(5000, 1000, Config{DelayMs: 10, Pitch: 0.5, SpliceMs: 10, Reverse: true, Pan: 0})

	if !g.Reverse() || g.Step(0) != -0.5 || g.Step(1) != -0.5 {
		t.Fatalf("reverse steps = (%v, %v), want (-0.5, -0.5)", g.Step(0), g.Step(1))
	}

	if g.Processed(0) != 0 || g.Processed(1) != 0 {
		t.Fatal("retrigger did not clear processed counters")
	}
}

func TestTriggerZeroLengthStaysInactive(t *testing.T) {
	var g Grain

	g.Trigger(0, 48000, Config{SpliceMs: 0, Pitch: 1})

	if g.Active() {
		t.Fatal("zero-length grain should not be active")
	}
}

func TestGrainProducesExactlyTotalFrames(t *testing.T) {
	r := newTestRing(t, 1024)
	for i := range 1024 {
		r.Write(i, 1, 1)
	}

	var g Grain

	g.Trigger(600, 1000, Config{DelayMs: 200, Pitch: 1, SpliceMs: 64, SpliceOffsetPercent: 50, Pan: 0.5})

	frames := 0
	for g.Active() {
		g.Process(r, 600+frames, nil)
		frames++

		if frames > 1000 {
			t.Fatal("grain never deactivated")
		}
	}

	if frames != 64 {
		t.Fatalf("active frames = %d, want 64", frames)
	}

	if g.Processed(0) != 64 || g.Processed(1) != 32 {
		t.Fatalf("processed = (%d, %d), want (64, 32)", g.Processed(0), g.Processed(1))
	}

	if g.Progress(0) != 1 || g.Progress(1) != 1 {
		t.Fatalf("progress = (%v, %v), want (1, 1)", g.Progress(0), g.Progress(1))
	}

	if l, rr := g.Process(r, 700, nil); l != 0 || rr != 0 {
		t.Fatalf("inactive Process() = (%v, %v), want silence", l, rr)
	}
}

func TestExhaustedChannelIsFrozen(t *testing.T) {
	r := newTestRing(t, 256)
	for i := range 256 {
		r.Write(i, 1, 1)
	}

	var g Grain

	g.Trigger(200, 1000, Config{DelayMs: 100, Pitch: 1, SpliceMs: 10, SpliceOffsetPercent: 50, Pan: 0.5})

	for i := range 5 {
		g.Process(r, 200+i, nil)
	}

	frozen := g.ReadPos(1)

	for i := 5; i < 10; i++ {
		_, outR := g.Process(r, 200+i, nil)
		if outR != 0 {
			t.Fatalf("exhausted right channel produced %v at frame %d", outR, i)
		}
	}

	if g.ReadPos(1) != frozen {
		t.Fatalf("right cursor moved after exhaustion: %v -> %v", frozen, g.ReadPos(1))
	}
}

func TestWindowFadesAtGrainEdges(t *testing.T) {
	const total = 100

	if w := window.HannAt(0, total); w != 0 {
		t.Fatalf("HannAt(0, %d) = %v, want 0", total, w)
	}

	if w := window.HannAt(total-1, total); w > 1e-3 {
		t.Fatalf("HannAt(%d, %d) = %v, want near 0", total-1, total, w)
	}
}

func TestGrainReproducesDelayedImpulse(t *testing.T) {
	const (
		sampleRate = 1000.0
		writePos   = 1000
		delayS     = 1000
		splice     = 100
		peak       = splice / 2
	)

	r := newTestRing(t, 4096)
	r.Write(writePos-delayS, 1, 1)
	r.Write(writePos-delayS+peak, 1, 1)

	var (
		g    Grain
		diag Diagnostics
	)

	g.Trigger(writePos, sampleRate, Config{DelayMs: delayS, Pitch: 1, SpliceMs: splice, Pan: 0.5})

	gainL, gainR := g.Gains()
	frames := 0

	for g.Active() {
		w := writePos + frames
		r.Write(w, 0, 0)

		outL, outR := g.Process(r, w, &diag)

		switch frames {
		case 0:
			if outL != 0 || outR != 0 {
				t.Fatalf("frame 0 = (%v, %v), want zero-weighted impulse", outL, outR)
			}
		case peak:
			if math.Abs(outL-gainL) > 1e-12 || math.Abs(outR-gainR) > 1e-12 {
				t.Fatalf("frame %d = (%v, %v), want (%v, %v)", peak, outL, outR, gainL, gainR)
			}
		default:
			if outL != 0 || outR != 0 {
				t.Fatalf("frame %d = (%v, %v), want silence", frames, outL, outR)
			}
		}

		frames++
	}

	if frames != splice {
		t.Fatalf("active frames = %d, want %d", frames, splice)
	}

	if collided, _ := diag.Collision(); collided {
		t.Fatal("unexpected collision")
	}
}

func TestCollisionIsReportedNotCorrected(t *testing.T) {
	r := newTestRing(t, 1024)

	var (
		g    Grain
		diag Diagnostics
	)

	g.Trigger(100, 1000, Config{DelayMs: 0, Pitch: 4, SpliceMs: 20, Pan: 0.5})

	for i := range 20 {
		g.Process(r, 100+i, &diag)
	}

	if !g.Collided() {
		t.Fatal("Collided() = false, want true")
	}

	dist, at := g.CollisionDistance()
	if dist <= 0 || at < 100 {
		t.Fatalf("CollisionDistance() = (%d, %d), want positive distance", dist, at)
	}

	collided, last := diag.Collision()
	if !collided || last != dist {
		t.Fatalf("diag.Collision() = (%v, %d), want (true, %d)", collided, last, dist)
	}

	if g.ReadPos(1) != 100+20*4 {
		t.Fatalf("right cursor = %v, want uncorrected %d", g.ReadPos(1), 100+20*4)
	}
}

func TestWrappedDistance(t *testing.T) {
	tests := []struct {
		read, write, mask, want int
	}{
		{read: 10, write: 10, mask: 15, want: 0},
		{read: 12, write: 10, mask: 15, want: 2},
		{read: 8, write: 10, mask: 15, want: -2},
		{read: 1, write: 15, mask: 15, want: 2},
		{read: 15, write: 1, mask: 15, want: -2},
		{read: 18, write: 10, mask: 15, want: -8},
		{read: -3, write: 0, mask: 15, want: -3},
	}

	for _, tt := range tests {
		if got := WrappedDistance(tt.read, tt.write, tt.mask); got != tt.want {
			t.Fatalf("WrappedDistance(%d, %d, %d) = %d, want %d", tt.read, tt.write, tt.mask, got, tt.want)
		}
	}
}

func BenchmarkGrainProcess(b *testing.B) {
	r, err := delay.NewRing(2, 1<<16)
	if err != nil {
		b.Fatal(err)
	}

	var g Grain

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if !g.Active() {
			g.Trigger(i, 48000, Config{DelayMs: 100, Pitch: 1.5, PitchOffsetCents: 7, SpliceMs: 80, Pan: 0.3})
		}

		g.Process(r, i, nil)
	}
}

func renderDelayedGrain(t *testing.T, delayMs, pitch, fill float64, diag *Diagnostics) []float64 {
	t.Helper()

	const start = 100

	r := newTestRing(t, 1<<10)
	for ch := range 2 {
		buf := r.Samples(ch)
		for i := range buf {
			buf[i] = fill
		}
	}

	for n := range start {
		r.Write(n, float64(n), float64(n))
	}

	var g Grain

	out := make([]float64, 0, 8)

	for n := start; n < start+8; n++ {
		r.Write(n, float64(n), float64(n))

		if n == start {
			g.Trigger(n, 1000, Config{DelayMs: delayMs, Pitch: pitch, SpliceMs: 6, Pan: 0.5})
		}

		_, rr := g.Process(r, n, diag)
		out = append(out, rr)
	}

	return out
}

func TestGrainCursorWithinOneSampleOfHead(t *testing.T) {
	tests := []struct {
		name      string
		delayMs   float64
		pitch     float64
		wantStale bool
	}{
		{name: "one sample behind", delayMs: 1, pitch: 1, wantStale: false},
		{name: "catches up with head", delayMs: 0.5, pitch: 1.25, wantStale: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diag Diagnostics

			clean := renderDelayedGrain(t, tt.delayMs, tt.pitch, 0, &diag)
			stale := renderDelayedGrain(t, tt.delayMs, tt.pitch, 1e6, nil)

			differs := false
			for i := range clean {
				if math.Abs(clean[i]-stale[i]) > 1e-9 {
					differs = true
				}
			}

			if differs != tt.wantStale {
				t.Fatalf("output depends on unwritten slots = %v, want %v", differs, tt.wantStale)
			}

			if c := diag.Counters(); c.Collisions != 0 {
				t.Fatalf("Collisions = %d, want 0", c.Collisions)
			}
		})
	}
}
