// Package grain implements the grain lifecycle of the granular delay: the
// stereo [Grain], the fixed [Pool] it lives in, the [Scheduler] that
// triggers grains at a density-derived interval, and lock-free collision
// [Diagnostics].
//
// A grain reads a slice of [delay.Ring] history behind the write head at its
// own pitch and direction, shaped by a Hann envelope. The scheduler chooses
// a delay large enough that a forward-moving read cursor cannot overtake
// the write head before the grain ends; the per-sample collision check only
// reports, it never corrects.
//
// Nothing in this package allocates after construction.
package grain
