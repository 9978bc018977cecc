package params

// Values is one complete parameter set indexed by ID.
type Values [Count]float64

// Defaults returns every parameter at its default.
func Defaults() Values {
	var v Values
	for i, s := range specs {
		v[i] = s.Default
	}

	return v
}

// Get returns the value of id.
func (v *Values) Get(id ID) float64 { return v[id] }

// Set stores x clamped to the range of id.
func (v *Values) Set(id ID, x float64) { v[id] = specs[id].Clamp(x) }

// Bool reports whether a toggle parameter is on.
func (v *Values) Bool(id ID) bool { return v[id] >= 0.5 }

// SetKey sets the parameter registered under key.
func (v *Values) SetKey(key string, x float64) error {
	s, err := Lookup(key)
	if err != nil {
		return err
	}

	v.Set(s.ID, x)

	return nil
}

// Apply sets every entry of m, stopping at the first unknown key.
func (v *Values) Apply(m map[string]float64) error {
	for key, x := range m {
		if err := v.SetKey(key, x); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks every value against its range.
func (v *Values) Validate() error {
	for i, s := range specs {
		if err := s.Validate(v[i]); err != nil {
			return err
		}
	}

	return nil
}

// Map returns the values keyed by parameter key.
func (v *Values) Map() map[string]float64 {
	out := make(map[string]float64, Count)
	for i, s := range specs {
		out[s.Key] = v[i]
	}

	return out
}
