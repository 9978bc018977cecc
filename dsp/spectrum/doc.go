// Package spectrum provides a windowed FFT magnitude [Analyzer] for
// visualisation and offline measurement of the granular output.
//
// The FFT itself comes from algo-fft; this package adds windowing,
// normalisation, dB conversion with frame smoothing, and a few summary
// measures (peak bin, spectral centroid).
package spectrum
