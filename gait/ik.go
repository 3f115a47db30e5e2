package gait

import (
	"fmt"
	"math"

	"github.com/hexwalk/hexapod/math3d"
	"github.com/hexwalk/hexapod/utils"
)

// JointAngles is one leg's servo targets in degrees, clamped to the
// servo range [0, 180]. The convention is 90 = neutral/horizontal for
// the coxa; femur and tibia are hierarchical (relative) rotations,
// where standing ground contact sits at femur ~67 and tibia 180.
type JointAngles struct {
	Coxa  float64
	Femur float64
	Tibia float64
}

// Geometry is the segment lengths of one leg, in millimeters.
type Geometry struct {
	CoxaLen  float64
	FemurLen float64
	TibiaLen float64
}

// ReachBand returns the minimum and maximum distance (from the end of
// the coxa) at which a foot target is solvable.
func (g Geometry) ReachBand() (min float64, max float64) {
	return math.Abs(g.FemurLen - g.TibiaLen), g.FemurLen + g.TibiaLen
}

// Unreachable is returned by Solve when the target lies outside the
// leg's reach band. It carries the geometry of the failure for
// diagnostics; the pose layer recovers from it with a fallback angle
// set, but calibration tooling surfaces it directly.
type Unreachable struct {
	Target   math3d.Vector3
	Reach    float64
	ReachMin float64
	ReachMax float64
}

func (e *Unreachable) Error() string {
	return fmt.Sprintf("target %s out of reach (reach=%0.2f, min=%0.2f, max=%0.2f)",
		e.Target, e.Reach, e.ReachMin, e.ReachMax)
}

// InverseKinematics solves foot targets for a single 3-link leg. It
// has no state beyond the fixed segment lengths, so one instance can
// serve any leg sharing the same geometry.
type InverseKinematics struct {
	geo Geometry
}

func NewInverseKinematics(coxaLen, femurLen, tibiaLen float64) *InverseKinematics {
	return &InverseKinematics{
		geo: Geometry{
			CoxaLen:  coxaLen,
			FemurLen: femurLen,
			TibiaLen: tibiaLen,
		},
	}
}

func (ik *InverseKinematics) Geometry() Geometry {
	return ik.geo
}

// Solve returns the joint angles which place the foot at the given
// target in the leg-local hip frame (z negative = down). It fails with
// *Unreachable when the target is outside the reach band; any solvable
// target is saturated into [0, 180] per joint rather than rejected,
// since an in-reach target can still produce an out-of-band angle near
// the extremes.
func (ik *InverseKinematics) Solve(target math3d.Vector3) (JointAngles, error) {
	coxaRad := math.Atan2(target.Y, target.X)
	coxaDeg := utils.Deg(coxaRad)

	// Project to the 2D side view past the end of the coxa.
	rHoriz := math.Sqrt(target.X*target.X+target.Y*target.Y) - ik.geo.CoxaLen
	rVert := target.Z
	r := math.Sqrt(rHoriz*rHoriz + rVert*rVert)

	reachMin, reachMax := ik.geo.ReachBand()
	if r < reachMin || r > reachMax {
		return JointAngles{}, &Unreachable{
			Target:   target,
			Reach:    r,
			ReachMin: reachMin,
			ReachMax: reachMax,
		}
	}

	// Law of cosines for the internal knee angle. The clamp guards
	// floating-point overshoot at the exact reach boundary.
	cosTibia := (r*r - ik.geo.FemurLen*ik.geo.FemurLen - ik.geo.TibiaLen*ik.geo.TibiaLen) /
		(2 * ik.geo.FemurLen * ik.geo.TibiaLen)
	cosTibia = utils.Clamp(cosTibia, -1, 1)
	tibiaInternal := math.Acos(cosTibia)

	targetAngle := math.Atan2(rVert, rHoriz)
	elbowOffset := math.Atan2(
		ik.geo.TibiaLen*math.Sin(tibiaInternal),
		ik.geo.FemurLen+ik.geo.TibiaLen*math.Cos(tibiaInternal),
	)
	femurRad := targetAngle + elbowOffset

	// Servo convention: 90 = horizontal for the femur; the tibia angle
	// is relative to the femur, not absolute.
	femurDeg := 90 + utils.Deg(femurRad)
	tibiaDeg := 90 + utils.Deg(math.Pi-tibiaInternal)

	return JointAngles{
		Coxa:  utils.Clamp(coxaDeg, 0, 180),
		Femur: utils.Clamp(femurDeg, 0, 180),
		Tibia: utils.Clamp(tibiaDeg, 0, 180),
	}, nil
}
