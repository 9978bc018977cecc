package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}
}

func TestZero(t *testing.T) {
	buf := []float64{1, 2, 3}
	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestUnwrapRing(t *testing.T) {
	ring := []float64{4, 5, 1, 2, 3}
	dst := make([]float64, 5)

	n := UnwrapRing(dst, ring, 2)
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}

	for i, want := range []float64{1, 2, 3, 4, 5} {
		if dst[i] != want {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestUnwrapRingShortDestination(t *testing.T) {
	ring := []float64{4, 5, 1, 2, 3}
	dst := make([]float64, 3)

	if n := UnwrapRing(dst, ring, 7); n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}

	for i, want := range []float64{1, 2, 3} {
		if dst[i] != want {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}
