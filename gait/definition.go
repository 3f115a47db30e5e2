package gait

// Definition is a named gait: six per-leg phase offsets (each in
// [0, 1)) which shift the swing/stance timing of each leg relative to
// leg 0. The engine only cares about the offsets; the descriptive
// fields exist for the config layer and UIs.
type Definition struct {
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description,omitempty"`
	Enabled      bool       `yaml:"enabled"`
	PhaseOffsets [6]float64 `yaml:"phase_offsets"`
}

// BuiltinDefinitions returns the four stock gaits. Creep shares wave's
// offsets; it is the slowest, most stable profile of the two.
func BuiltinDefinitions() map[string]Definition {
	return map[string]Definition{
		"tripod": {
			Name:         "Tripod",
			Description:  "Fast, stable gait with alternating groups of 3 legs",
			Enabled:      true,
			PhaseOffsets: [6]float64{0, 0.5, 0, 0.5, 0, 0.5},
		},
		"wave": {
			Name:         "Wave",
			Description:  "Smooth, elegant sequential leg movement",
			Enabled:      true,
			PhaseOffsets: [6]float64{0, 1.0 / 6, 2.0 / 6, 3.0 / 6, 4.0 / 6, 5.0 / 6},
		},
		"ripple": {
			Name:         "Ripple",
			Description:  "Balanced offset pattern between legs",
			Enabled:      true,
			PhaseOffsets: [6]float64{0, 0.25, 0.5, 0.75, 0.1, 0.6},
		},
		"creep": {
			Name:         "Creep",
			Description:  "Very slow, maximum stability gait",
			Enabled:      true,
			PhaseOffsets: [6]float64{0, 1.0 / 6, 2.0 / 6, 3.0 / 6, 4.0 / 6, 5.0 / 6},
		},
	}
}
