// Package onepole provides the first-order filters used on the granular
// feedback path: a DC-blocking high-pass and a smoothing low-pass.
package onepole
