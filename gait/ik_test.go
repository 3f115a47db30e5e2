package gait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexwalk/hexapod/math3d"
)

func TestSolveForwardPoint(t *testing.T) {
	ik := NewInverseKinematics(30, 60, 80)

	a, err := ik.Solve(math3d.Vector3{X: 100, Y: 0, Z: -80})
	require.NoError(t, err)

	// A point straight ahead barely turns the coxa.
	assert.Less(t, a.Coxa, 5.0)
	assert.GreaterOrEqual(t, a.Femur, 0.0)
	assert.LessOrEqual(t, a.Femur, 180.0)
	assert.GreaterOrEqual(t, a.Tibia, 0.0)
	assert.LessOrEqual(t, a.Tibia, 180.0)
}

func TestSolveSidePoint(t *testing.T) {
	ik := NewInverseKinematics(30, 60, 80)

	a, err := ik.Solve(math3d.Vector3{X: 0, Y: 100, Z: -80})
	require.NoError(t, err)
	assert.InDelta(t, 90, a.Coxa, 10)
}

func TestSolveUnreachableFar(t *testing.T) {
	ik := NewInverseKinematics(30, 60, 80)

	_, err := ik.Solve(math3d.Vector3{X: 500, Y: 0, Z: -80})
	require.Error(t, err)

	var unreachable *Unreachable
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, 20.0, unreachable.ReachMin)
	assert.Equal(t, 140.0, unreachable.ReachMax)
	assert.Greater(t, unreachable.Reach, unreachable.ReachMax)
}

func TestSolveUnreachableClose(t *testing.T) {
	ik := NewInverseKinematics(30, 60, 80)

	// Effective reach past the coxa is 5mm, well under |femur-tibia|.
	_, err := ik.Solve(math3d.Vector3{X: 25, Y: 0, Z: 0})
	require.Error(t, err)

	var unreachable *Unreachable
	require.ErrorAs(t, err, &unreachable)
	assert.Less(t, unreachable.Reach, unreachable.ReachMin)
}

func TestSolveAngleBounds(t *testing.T) {
	ik := NewInverseKinematics(30, 60, 80)

	// Sweep a grid over the workspace; every solvable target must come
	// back saturated into the servo range.
	solved := 0
	for x := -150.0; x <= 150; x += 25 {
		for y := -150.0; y <= 150; y += 25 {
			for z := -140.0; z <= 20; z += 20 {
				a, err := ik.Solve(math3d.Vector3{X: x, Y: y, Z: z})
				if err != nil {
					continue
				}
				solved++

				assert.GreaterOrEqual(t, a.Coxa, 0.0)
				assert.LessOrEqual(t, a.Coxa, 180.0)
				assert.GreaterOrEqual(t, a.Femur, 0.0)
				assert.LessOrEqual(t, a.Femur, 180.0)
				assert.GreaterOrEqual(t, a.Tibia, 0.0)
				assert.LessOrEqual(t, a.Tibia, 180.0)
			}
		}
	}

	assert.Greater(t, solved, 0)
}

func TestSolveExactReachBoundary(t *testing.T) {
	ik := NewInverseKinematics(30, 60, 80)

	// A fully extended leg sits exactly on the reach boundary. The
	// cosine clamp must absorb any floating-point overshoot instead of
	// producing NaN.
	a, err := ik.Solve(math3d.Vector3{X: 170, Y: 0, Z: 0})
	require.NoError(t, err)
	assert.InDelta(t, 90, a.Femur, 0.01)
	assert.InDelta(t, 180, a.Tibia, 0.01)
}

func TestGeometryReachBand(t *testing.T) {
	min, max := (Geometry{CoxaLen: 30, FemurLen: 60, TibiaLen: 80}).ReachBand()
	assert.Equal(t, 20.0, min)
	assert.Equal(t, 140.0, max)

	min, max = (Geometry{CoxaLen: 15, FemurLen: 80, TibiaLen: 60}).ReachBand()
	assert.Equal(t, 20.0, min)
	assert.Equal(t, 140.0, max)
}
