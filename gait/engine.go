package gait

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod/utils"
)

const (
	// Safe ranges for the externally-settable step parameters.
	MinStepHeight = 10.0
	MaxStepHeight = 50.0
	MinStepLength = 10.0
	MaxStepLength = 80.0
	MinCycleTime  = 0.5
	MaxCycleTime  = 3.0

	// Femur angle of a grounded leg. This matches the standing-pose IK
	// convention exactly; if the two drift apart the body lurches at
	// every swing/stance transition.
	stanceFemur = 67.0

	// Femur baseline at the start of swing, and tibia angle of a
	// grounded leg.
	swingFemurBase = 75.0
	stanceTibia    = 180.0

	// How strongly the turn rate scales the per-side swing amplitude.
	turnGain = 0.8
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "gait",
})

// Params are the externally-set step parameters, read every tick.
type Params struct {
	StepHeight float64 `yaml:"step_height"`
	StepLength float64 `yaml:"step_length"`
	CycleTime  float64 `yaml:"cycle_time"`
}

// Engine owns per-gait phase tables and step parameters. Given an
// elapsed time and a gait mode it produces angle triples for all six
// legs plus a per-leg swing/stance flag. The swing/stance trajectory
// is a closed-form angle synthesis; the embedded IK solver exists for
// standing-pose support, not for the trajectory itself.
type Engine struct {
	mu sync.Mutex

	stepHeight float64
	stepLength float64
	cycleTime  float64
	turnRate   float64
	gaitTime   float64

	defs      map[string][6]float64
	ik        *InverseKinematics
	lastSwing [6]bool
}

// NewEngine creates an engine with the given step parameters and leg
// geometry, using the built-in gait definitions until the config layer
// installs its own.
func NewEngine(p Params, geo Geometry) *Engine {
	e := &Engine{
		stepHeight: utils.Clamp(p.StepHeight, MinStepHeight, MaxStepHeight),
		stepLength: utils.Clamp(p.StepLength, MinStepLength, MaxStepLength),
		cycleTime:  utils.Clamp(p.CycleTime, MinCycleTime, MaxCycleTime),
		defs:       make(map[string][6]float64),
		ik:         NewInverseKinematics(geo.CoxaLen, geo.FemurLen, geo.TibiaLen),
	}

	for id, def := range BuiltinDefinitions() {
		e.defs[id] = def.PhaseOffsets
	}

	return e
}

// Advance moves gait time forward by dt seconds. Negative dt is
// accepted; callers may rewind.
func (e *Engine) Advance(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gaitTime += dt
}

func (e *Engine) Time() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gaitTime
}

func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Params{
		StepHeight: e.stepHeight,
		StepLength: e.stepLength,
		CycleTime:  e.cycleTime,
	}
}

func (e *Engine) SetStepHeight(mm float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepHeight = utils.Clamp(mm, MinStepHeight, MaxStepHeight)
	return e.stepHeight
}

func (e *Engine) SetStepLength(mm float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLength = utils.Clamp(mm, MinStepLength, MaxStepLength)
	return e.stepLength
}

func (e *Engine) SetCycleTime(secs float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cycleTime = utils.Clamp(secs, MinCycleTime, MaxCycleTime)
	return e.cycleTime
}

func (e *Engine) TurnRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turnRate
}

func (e *Engine) SetTurnRate(rate float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turnRate = utils.Clamp(rate, -1, 1)
	return e.turnRate
}

// SetDefinitions replaces the phase tables with the enabled subset of
// the given definitions.
func (e *Engine) SetDefinitions(defs map[string]Definition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defs = make(map[string][6]float64, len(defs))
	for id, def := range defs {
		if def.Enabled {
			e.defs[id] = def.PhaseOffsets
		}
	}
}

// IK returns the embedded solver, which reflects the leg geometry as
// of the last RefreshGeometry call.
func (e *Engine) IK() *InverseKinematics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ik
}

// RefreshGeometry rebuilds the embedded IK solver with new segment
// lengths. There is no implicit invalidation: callers changing the
// geometry configuration must call this themselves.
func (e *Engine) RefreshGeometry(geo Geometry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ik = NewInverseKinematics(geo.CoxaLen, geo.FemurLen, geo.TibiaLen)
	log.Infof("leg geometry refreshed: coxa=%0.1f femur=%0.1f tibia=%0.1f",
		geo.CoxaLen, geo.FemurLen, geo.TibiaLen)
}

// AnglesForTime synthesizes the six leg angle triples for elapsed time
// t under the named gait, plus a per-leg swing flag (false = stance/
// grounded). Unknown modes fall back to a zero offset for every leg, a
// degenerate all-legs-synchronized gait, rather than erroring.
func (e *Engine) AnglesForTime(t float64, mode string) ([6]JointAngles, [6]bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-derived every call, so parameter changes take effect on the
	// next tick with no cache to invalidate.
	liftAngle := 5 + (e.stepHeight-MinStepHeight)/(MaxStepHeight-MinStepHeight)*20
	liftAngle = utils.Clamp(liftAngle, 5, 25)

	baseSwing := 3 + (e.stepLength-MinStepLength)/(MaxStepLength-MinStepLength)*12
	baseSwing = utils.Clamp(baseSwing, 3, 15)

	offsets := e.defs[mode]

	var angles [6]JointAngles
	var swings [6]bool

	for leg := 0; leg < 6; leg++ {
		localT := frac(t/e.cycleTime + offsets[leg])
		swing := localT < 0.5

		// A 0..1 ramp within whichever half-phase is active.
		var cyclePos float64
		if swing {
			cyclePos = localT * 2
		} else {
			cyclePos = (localT - 0.5) * 2
		}

		// Tank-style steering: shrink the swing amplitude on the side
		// we're turning towards, grow it on the other. Right legs are
		// 0-2, left legs 3-5.
		var turnMod float64
		if leg < 3 {
			turnMod = utils.Clamp(1-e.turnRate*turnGain, 0.1, 2.0)
		} else {
			turnMod = utils.Clamp(1+e.turnRate*turnGain, 0.1, 2.0)
		}
		swingAngle := baseSwing * turnMod

		// The sine shaping gives each half-phase zero velocity at its
		// boundaries; a linear ramp would snap at every transition.
		wave := math.Sin(cyclePos * math.Pi)

		var a JointAngles
		if swing {
			a.Coxa = 90 + wave*swingAngle
			a.Femur = swingFemurBase + wave*liftAngle
			a.Tibia = stanceTibia + wave*(liftAngle*0.5)
		} else {
			a.Coxa = 90 - wave*swingAngle
			a.Femur = stanceFemur
			a.Tibia = stanceTibia
		}

		angles[leg] = a
		swings[leg] = swing
	}

	e.lastSwing = swings
	return angles, swings
}

// LastSwingStates returns the per-leg swing flags from the most recent
// AnglesForTime call.
func (e *Engine) LastSwingStates() [6]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSwing
}

// frac returns the fractional part of x in [0, 1), wrapping negative
// values; gait time may run backwards.
func frac(x float64) float64 {
	f := math.Mod(x, 1)
	if f < 0 {
		f += 1
	}
	return f
}
