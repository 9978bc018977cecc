package params

import (
	"math"
	"sync/atomic"
)

// Store publishes parameter values from control goroutines to the audio
// goroutine. Each value is an independent atomic word; there is no
// cross-parameter consistency.
type Store struct {
	bits [Count]atomic.Uint64
}

// NewStore returns a store holding the defaults.
func NewStore() *Store {
	s := &Store{}
	s.SetValues(Defaults())

	return s
}

// Set stores x clamped to the range of id. Invalid IDs are ignored.
func (s *Store) Set(id ID, x float64) {
	if !id.Valid() {
		return
	}

	s.bits[id].Store(math.Float64bits(specs[id].Clamp(x)))
}

// SetKey sets the parameter registered under key.
func (s *Store) SetKey(key string, x float64) error {
	spec, err := Lookup(key)
	if err != nil {
		return err
	}

	s.Set(spec.ID, x)

	return nil
}

// Get returns the current value of id.
func (s *Store) Get(id ID) float64 {
	return math.Float64frombits(s.bits[id].Load())
}

// Load copies every value into dst.
func (s *Store) Load(dst *Values) {
	for i := range s.bits {
		dst[i] = math.Float64frombits(s.bits[i].Load())
	}
}

// Snapshot returns a copy of every value.
func (s *Store) Snapshot() Values {
	var v Values
	s.Load(&v)

	return v
}

// SetValues stores every entry of v, clamped.
func (s *Store) SetValues(v Values) {
	for i := range v {
		s.Set(ID(i), v[i])
	}
}
