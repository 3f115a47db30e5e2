// Package servos defines the sink capability that the pose layer fans
// angles out to, plus the mock and hardware implementations. A sink
// accepts one (leg, joint, angle) write at a time and may fail; the
// caller treats each failure as local to that joint.
package servos

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	NumLegs      = 6
	JointsPerLeg = 3
	MinAngle     = 0.0
	MaxAngle     = 180.0
)

// Joint indices within a leg.
const (
	JointCoxa = iota
	JointFemur
	JointTibia
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "servos",
})

// Sink accepts per-joint angle writes. Implementations must clamp to
// [0, 180] themselves as a final safety net, even though the pose
// layer already clamps; a hardware-facing sink should not trust
// upstream blindly.
type Sink interface {
	SetAngle(leg int, joint int, angle float64) error
}

// Syncer is implemented by sinks which buffer writes and fire them in
// one shot. The pose layer wraps each frame's writes in Sync so all
// eighteen joints land together rather than rippling down the bus.
type Syncer interface {
	Sync(func())
}

// Error wraps a failed write with the servo it was aimed at.
type Error struct {
	Leg   int
	Joint int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("servo leg=%d joint=%d: %s", e.Leg, e.Joint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func checkIndex(leg, joint int) error {
	if leg < 0 || leg >= NumLegs {
		return fmt.Errorf("leg index %d out of range", leg)
	}
	if joint < 0 || joint >= JointsPerLeg {
		return fmt.Errorf("joint index %d out of range", joint)
	}
	return nil
}

func clampAngle(angle float64) float64 {
	if angle < MinAngle {
		return MinAngle
	}
	if angle > MaxAngle {
		return MaxAngle
	}
	return angle
}
