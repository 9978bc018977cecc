package buffer

// Block holds a fixed number of equally sized float64 lanes.
type Block struct {
	lanes [][]float64
	n     int
}

// NewBlock returns a Block with the given lane count and capacity per lane.
// Negative arguments are treated as zero.
func NewBlock(lanes, capacity int) *Block {
	if lanes < 0 {
		lanes = 0
	}
	if capacity < 0 {
		capacity = 0
	}

	b := &Block{lanes: make([][]float64, lanes)}
	for i := range b.lanes {
		b.lanes[i] = make([]float64, capacity)
	}
	b.n = capacity

	return b
}

// Lanes returns the lane count.
func (b *Block) Lanes() int { return len(b.lanes) }

// Len returns the current active length of every lane.
func (b *Block) Len() int { return b.n }

// Cap returns the per-lane capacity.
func (b *Block) Cap() int {
	if len(b.lanes) == 0 {
		return 0
	}
	return cap(b.lanes[0])
}

// SetLen sets the active length, clamped to [0, Cap()]. It never allocates.
func (b *Block) SetLen(n int) int {
	if n < 0 {
		n = 0
	}
	if c := b.Cap(); n > c {
		n = c
	}

	b.n = n

	return n
}

// Grow ensures every lane can hold n samples. Existing data is discarded
// when a lane has to be reallocated. Not for use in real-time paths.
func (b *Block) Grow(n int) {
	if n <= b.Cap() {
		return
	}

	for i := range b.lanes {
		b.lanes[i] = make([]float64, n)
	}
}

// Lane returns lane i resliced to the active length.
func (b *Block) Lane(i int) []float64 {
	return b.lanes[i][:b.n]
}

// Zero clears the active region of every lane.
func (b *Block) Zero() {
	for _, lane := range b.lanes {
		for i := range lane[:b.n] {
			lane[i] = 0
		}
	}
}
