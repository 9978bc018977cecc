package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// UnwrapRing copies the circular buffer ring into dst in chronological order,
// treating head as the index of the oldest element. It copies
// min(len(dst), len(ring)) elements and returns that count.
func UnwrapRing(dst, ring []float64, head int) int {
	n := len(dst)
	if len(ring) < n {
		n = len(ring)
	}
	if n == 0 {
		return 0
	}

	head %= len(ring)
	if head < 0 {
		head += len(ring)
	}

	first := copy(dst[:n], ring[head:])
	if first < n {
		copy(dst[first:n], ring[:n-first])
	}

	return n
}
