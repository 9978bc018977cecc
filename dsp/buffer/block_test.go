package buffer

import "testing"

func TestNewBlockZeroFilled(t *testing.T) {
	b := NewBlock(3, 8)
	if b.Lanes() != 3 || b.Len() != 8 || b.Cap() != 8 {
		t.Fatalf("lanes=%d len=%d cap=%d, want 3/8/8", b.Lanes(), b.Len(), b.Cap())
	}

	for i := 0; i < b.Lanes(); i++ {
		for j, v := range b.Lane(i) {
			if v != 0 {
				t.Fatalf("lane %d[%d] = %v, want 0", i, j, v)
			}
		}
	}
}

func TestNewBlockNegativeArgs(t *testing.T) {
	b := NewBlock(-1, -5)
	if b.Lanes() != 0 || b.Cap() != 0 || b.Len() != 0 {
		t.Fatalf("lanes=%d cap=%d len=%d, want zeros", b.Lanes(), b.Cap(), b.Len())
	}
}

func TestSetLenClampsAndKeepsStorage(t *testing.T) {
	b := NewBlock(2, 16)
	lane := b.Lane(0)
	lane[3] = 7

	if got := b.SetLen(4); got != 4 {
		t.Fatalf("SetLen(4) = %d", got)
	}
	if len(b.Lane(0)) != 4 || b.Lane(0)[3] != 7 {
		t.Fatalf("lane after SetLen = %v", b.Lane(0))
	}

	if got := b.SetLen(100); got != 16 {
		t.Fatalf("SetLen(100) = %d, want 16", got)
	}
	if got := b.SetLen(-3); got != 0 {
		t.Fatalf("SetLen(-3) = %d, want 0", got)
	}
}

func TestGrow(t *testing.T) {
	b := NewBlock(2, 4)
	b.Grow(2)
	if b.Cap() != 4 {
		t.Fatalf("Grow(2) changed cap to %d", b.Cap())
	}

	b.Grow(32)
	if b.Cap() != 32 {
		t.Fatalf("Grow(32) cap = %d", b.Cap())
	}
	if b.SetLen(32) != 32 {
		t.Fatal("SetLen(32) after Grow failed")
	}
}

func TestZero(t *testing.T) {
	b := NewBlock(2, 4)
	b.Lane(0)[1] = 1
	b.Lane(1)[3] = 2
	b.Zero()

	for i := 0; i < 2; i++ {
		for j, v := range b.Lane(i) {
			if v != 0 {
				t.Fatalf("lane %d[%d] = %v after Zero", i, j, v)
			}
		}
	}
}

func TestSetLenDoesNotAllocate(t *testing.T) {
	b := NewBlock(4, 512)
	allocs := testing.AllocsPerRun(100, func() {
		b.SetLen(128)
		_ = b.Lane(3)
		b.SetLen(512)
	})
	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}
