// Package buffer provides preallocated multi-lane scratch storage for
// block-based processing. All DSP functions accept raw []float64 slices;
// Block only manages allocation up front so hot paths can reslice instead
// of allocating.
package buffer
