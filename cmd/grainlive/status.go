package main

import (
	"fmt"

	"github.com/cwbudde/algo-granular/dsp/effects"
	"github.com/cwbudde/algo-granular/dsp/spectrum"
)

// statusLine summarises one snapshot. a analyses the snapshot's recent
// output and is owned by the caller's goroutine.
func statusLine(snap *effects.Snapshot, a *spectrum.Analyzer) (string, error) {
	if err := a.Analyze(snap.Output); err != nil {
		return "", err
	}

	hz, db := a.Peak()

	collision := "-"
	if snap.Collision {
		collision = fmt.Sprintf("COLLISION %d", snap.CollisionDistance)
	}

	return fmt.Sprintf("grains %2d/%d  triggered %d  dropped %d  peak %6.0f Hz %6.1f dB  %s",
		snap.ActiveGrains, len(snap.Grains),
		snap.Counters.Triggered, snap.Counters.Dropped,
		hz, db, collision), nil
}
