package config

import (
	"github.com/hexwalk/hexapod/gait"
)

// Default leg geometry (mm), used as the fallback for legs without a
// per-leg override.
const (
	DefaultCoxaLen  = 15.0
	DefaultFemurLen = 50.0
	DefaultTibiaLen = 55.0
)

// Defaults returns the baseline configuration used when no config file
// exists, or when keys are missing from one.
func Defaults() File {
	return File{
		Geometry: gait.Geometry{
			CoxaLen:  DefaultCoxaLen,
			FemurLen: DefaultFemurLen,
			TibiaLen: DefaultTibiaLen,
		},

		// Attach points in the body frame: X forward, Y to the right,
		// Z up. Leg order is FR, MR, RR, RL, ML, FL.
		Mounts: [6]Mount{
			{X: 150, Y: 120, Z: 0, Angle: 45},
			{X: 0, Y: 150, Z: 0, Angle: 90},
			{X: -150, Y: 120, Z: 0, Angle: 135},
			{X: -150, Y: -120, Z: 0, Angle: 225},
			{X: 0, Y: -150, Z: 0, Angle: 270},
			{X: 150, Y: -120, Z: 0, Angle: 315},
		},

		GaitParams: gait.Params{
			StepHeight: 25.0,
			StepLength: 40.0,
			CycleTime:  1.2,
		},

		DefaultGait: "tripod",
		Gaits:       gait.BuiltinDefinitions(),

		Poses: map[string]Pose{
			"default_stance": {
				Name:      "Default Stance",
				Category:  "operation",
				Height:    90,
				LegSpread: 110,
				Builtin:   true,
			},
			"low_stance": {
				Name:      "Low Stance",
				Category:  "operation",
				Height:    70,
				LegSpread: 115,
			},
			"high_stance": {
				Name:      "High Stance",
				Category:  "operation",
				Height:    120,
				LegSpread: 105,
			},
			"rest_pose": {
				Name:      "Rest Pose",
				Category:  "rest",
				Height:    50,
				LegSpread: 130,
			},
		},
	}
}
