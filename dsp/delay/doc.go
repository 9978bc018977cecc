// Package delay provides the power-of-two circular history used by the
// granular engine.
//
// A [Ring] stores one or two channels. The caller owns a monotonically
// advancing write index; every read and write is folded into range with a
// bit mask, so fractional read positions may be negative or far outside
// [0, Len()).
package delay
