package main

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-granular/dsp/params"
)

type binding struct {
	id   params.ID
	step float64
}

// Lower case decreases, upper case increases.
var bindings = map[byte]binding{
	's': {params.Splice, -10}, 'S': {params.Splice, 10},
	'd': {params.Delay, -50}, 'D': {params.Delay, 50},
	'n': {params.Density, -1}, 'N': {params.Density, 1},
	'p': {params.Pitch, -0.05}, 'P': {params.Pitch, 0.05},
	'a': {params.Spread, -10}, 'A': {params.Spread, 10},
	'f': {params.Feedback, -0.05}, 'F': {params.Feedback, 0.05},
	't': {params.Tone, -0.05}, 'T': {params.Tone, 0.05},
	'w': {params.Width, -0.1}, 'W': {params.Width, 0.1},
	'm': {params.Mix, -0.05}, 'M': {params.Mix, 0.05},
	'o': {params.PitchOffset, -5}, 'O': {params.PitchOffset, 5},
	'l': {params.SpliceOffset, -5}, 'L': {params.SpliceOffset, 5},
	'y': {params.DelayOffset, -5}, 'Y': {params.DelayOffset, 5},
}

const (
	keyReverse = 'r'
	keyQuit    = 'q'
	keyCtrlC   = 3
)

// handleKey applies key to store. It reports the parameter touched, if
// any, and whether the key asks to quit.
func handleKey(store *params.Store, key byte) (id params.ID, changed, quit bool) {
	switch key {
	case keyQuit, keyCtrlC:
		return 0, false, true
	case keyReverse:
		if store.Get(params.Reverse) >= 0.5 {
			store.Set(params.Reverse, 0)
		} else {
			store.Set(params.Reverse, 1)
		}
		return params.Reverse, true, false
	}

	b, ok := bindings[key]
	if !ok {
		return 0, false, false
	}

	store.Set(b.id, store.Get(b.id)+b.step)

	return b.id, true, false
}

func keyHelp() string {
	var sb strings.Builder

	sb.WriteString("keys (lower -, upper +):")
	for _, k := range []byte("sdnpaftwmoly") {
		fmt.Fprintf(&sb, " %c=%s", k, bindings[k].id.Spec().Key)
	}
	sb.WriteString(" r=reverse q=quit")

	return sb.String()
}
