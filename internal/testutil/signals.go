// Package testutil holds deterministic test signals and float assertions
// shared by the DSP package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine returns length samples of amplitude*sin(2π·freqHz·n/sampleRate).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	w := 2 * math.Pi * freqHz / sampleRate

	for n := range out {
		out[n] = amplitude * math.Sin(w*float64(n))
	}

	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude) from
// a seeded source.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)

	for n := range out {
		out[n] = amplitude * (2*rng.Float64() - 1)
	}

	return out
}

// Impulse returns a unit impulse at pos. Out-of-range positions give silence.
func Impulse(length, pos int) []float64 {
	return Impulses(length, pos)
}

// Impulses returns a signal with a unit impulse at every in-range position.
func Impulses(length int, positions ...int) []float64 {
	out := make([]float64, length)
	for _, p := range positions {
		if p >= 0 && p < length {
			out[p] = 1
		}
	}

	return out
}

// DC returns length samples of value.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for n := range out {
		out[n] = value
	}

	return out
}
