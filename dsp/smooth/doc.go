// Package smooth provides per-sample parameter ramps that remove zipper
// noise from host automation.
package smooth
