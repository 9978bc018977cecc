// Package params defines the granular delay's host parameter set: stable
// identifiers and keys, ranges and defaults, and a lock-free [Store] through
// which a control goroutine hands values to the audio goroutine.
package params
