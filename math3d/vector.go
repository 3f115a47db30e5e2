package math3d

import (
	"fmt"
	"math"
)

// Vector3 is a point or offset in millimeters. For leg targets, the
// frame is the leg-local hip frame: x/y horizontal, z vertical, with
// negative z pointing at the ground.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

var (
	ZeroVector3 = Vector3{}
)

// MakeVector3 returns a pointer to a new Vector3.
func MakeVector3(x float64, y float64, z float64) *Vector3 {
	return &Vector3{x, y, z}
}

func (v Vector3) String() string {
	return fmt.Sprintf("&Vec3{x=%0.2f y=%0.2f z=%0.2f}", v.X, v.Y, v.Z)
}

// Zero returns true if the vector is at 0,0,0.
func (v Vector3) Zero() bool {
	return (v.X == 0) && (v.Y == 0) && (v.Z == 0)
}

// Add adds two vectors, and returns a pointer to the result.
func (v Vector3) Add(vv Vector3) *Vector3 {
	return &Vector3{
		(v.X + vv.X),
		(v.Y + vv.Y),
		(v.Z + vv.Z),
	}
}

// Subtract returns the difference between this vector and another.
func (v Vector3) Subtract(vv Vector3) Vector3 {
	return Vector3{
		(v.X - vv.X),
		(v.Y - vv.Y),
		(v.Z - vv.Z),
	}
}

// Magnitude returns the length of the vector.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt((v.X * v.X) + (v.Y * v.Y) + (v.Z * v.Z))
}

// Distance calculates and returns the distance between this vector and
// another, as a float64.
func (v Vector3) Distance(vv Vector3) float64 {
	dx := v.X - vv.X
	dy := v.Y - vv.Y
	dz := v.Z - vv.Z
	return math.Sqrt((dx * dx) + (dy * dy) + (dz * dz))
}
