package params

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownKey is returned for parameter keys that are not part of the set.
var ErrUnknownKey = errors.New("params: unknown key")

// ID identifies one parameter.
type ID int

const (
	Splice ID = iota
	Delay
	Density
	Pitch
	Spread
	Feedback
	Tone
	Width
	Mix
	Reverse
	PitchOffset
	SpliceOffset
	DelayOffset

	// Count is the number of parameters.
	Count
)

// Spec describes the range and default of one parameter.
type Spec struct {
	ID      ID
	Key     string
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Default float64
	// Toggle parameters hold 0 or 1.
	Toggle bool
}

var specs = [Count]Spec{
	{ID: Splice, Key: "splice", Name: "Splice", Unit: "ms", Min: 1, Max: 500, Default: 80},
	{ID: Delay, Key: "delay", Name: "Delay", Unit: "ms", Min: 0, Max: 5000, Default: 250},
	{ID: Density, Key: "density", Name: "Density", Unit: "grains", Min: 1, Max: 32, Default: 4},
	{ID: Pitch, Key: "pitch", Name: "Pitch", Unit: "ratio", Min: 0.25, Max: 4, Default: 1},
	{ID: Spread, Key: "spread", Name: "Spread", Unit: "ms", Min: 0, Max: 2000, Default: 50},
	{ID: Feedback, Key: "feedback", Name: "Feedback", Min: 0, Max: 1, Default: 0.3},
	{ID: Tone, Key: "tone", Name: "Tone", Min: 0, Max: 1, Default: 0.8},
	{ID: Width, Key: "width", Name: "Width", Min: 0, Max: 1, Default: 0.5},
	{ID: Mix, Key: "mix", Name: "Mix", Min: 0, Max: 1, Default: 0.5},
	{ID: Reverse, Key: "reverse", Name: "Reverse", Unit: "toggle", Min: 0, Max: 1, Default: 0, Toggle: true},
	{ID: PitchOffset, Key: "pitchOffset", Name: "Pitch Offset", Unit: "cents", Min: -100, Max: 100, Default: 0},
	{ID: SpliceOffset, Key: "spliceOffset", Name: "Splice Offset", Unit: "%", Min: 0, Max: 90, Default: 0},
	{ID: DelayOffset, Key: "delayOffset", Name: "Delay Offset", Unit: "%", Min: 0, Max: 90, Default: 0},
}

// All returns every parameter spec in ID order.
func All() []Spec {
	out := make([]Spec, Count)
	copy(out, specs[:])

	return out
}

// Lookup returns the spec registered under key.
func Lookup(key string) (Spec, error) {
	for _, s := range specs {
		if s.Key == key {
			return s, nil
		}
	}

	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Keys returns every parameter key, sorted.
func Keys() []string {
	out := make([]string, 0, Count)
	for _, s := range specs {
		out = append(out, s.Key)
	}

	sort.Strings(out)

	return out
}

// Valid reports whether id names a parameter.
func (id ID) Valid() bool { return id >= 0 && id < Count }

// Spec returns the spec of id. It panics for invalid IDs.
func (id ID) Spec() Spec { return specs[id] }

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ID(%d)", int(id))
	}

	return specs[id].Key
}

// Clamp limits v to the parameter range. NaN maps to the default and toggles
// snap to 0 or 1.
func (s Spec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}

	if s.Toggle {
		if v >= 0.5 {
			return 1
		}

		return 0
	}

	return math.Max(s.Min, math.Min(s.Max, v))
}

// Validate rejects non-finite and out-of-range values.
func (s Spec) Validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < s.Min || v > s.Max {
		return fmt.Errorf("%s must be in [%g, %g]: %g", s.Key, s.Min, s.Max, v)
	}

	return nil
}
