package grain

import "sync/atomic"

// Diagnostics carries observability signals from the audio goroutine to any
// number of occasional readers. Every field is a single-writer atomic;
// readers may see slightly stale or torn-across-fields values, which is
// acceptable for display.
type Diagnostics struct {
	collision atomic.Bool
	distance  atomic.Int64

	collisions atomic.Uint64
	triggered  atomic.Uint64
	dropped    atomic.Uint64
}

// Counters is a point-in-time copy of the diagnostic counters.
type Counters struct {
	Collisions uint64
	Triggered  uint64
	Dropped    uint64
}

// Collision reports whether a collision has been seen since the last
// ClearCollision, and the most recent collision distance in samples.
func (d *Diagnostics) Collision() (bool, int) {
	return d.collision.Load(), int(d.distance.Load())
}

// ClearCollision resets the collision flag. Typically called by the reader
// after displaying it.
func (d *Diagnostics) ClearCollision() {
	d.collision.Store(false)
}

// Counters returns the current counter values.
func (d *Diagnostics) Counters() Counters {
	return Counters{
		Collisions: d.collisions.Load(),
		Triggered:  d.triggered.Load(),
		Dropped:    d.dropped.Load(),
	}
}

// Reset clears flag and counters. Only call while the writer is idle.
func (d *Diagnostics) Reset() {
	d.collision.Store(false)
	d.distance.Store(0)
	d.collisions.Store(0)
	d.triggered.Store(0)
	d.dropped.Store(0)
}

func (d *Diagnostics) reportCollision(dist int) {
	d.distance.Store(int64(dist))
	d.collision.Store(true)
	d.collisions.Add(1)
}

func (d *Diagnostics) recordTrigger() { d.triggered.Add(1) }

func (d *Diagnostics) recordDrop() { d.dropped.Add(1) }
