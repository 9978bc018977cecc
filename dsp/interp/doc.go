// Package interp provides interpolation primitives used by delay-based DSP blocks.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation (reference grain read)
//   - [Hermite4]: 4-point cubic Hermite
//
// The [Mode] enum lets [delay.Ring] select the read algorithm at
// construction time.
package interp
