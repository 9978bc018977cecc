// Package effects provides the real-time stereo granular delay.
//
// GranularDelay writes its input, conditioned by a feedback path, into a
// power-of-two delay line and replays overlapping Hann-windowed grains from
// it at an adjustable pitch, delay, density and stereo spread. Left and
// right read cursors of each grain move independently so the channels can
// be detuned, shortened or offset in time.
//
// Parameters are written from any goroutine through the engine's
// params.Store and ramped per sample. ProcessBlock does not allocate, lock
// or block. At the end of every block a Snapshot is published through a
// lock-free triple buffer for one visualiser goroutine.
package effects
