// Package pose fuses gait output (walking) or an IK-derived standing
// pose with body tilt, leg spread, and heading, and fans the resulting
// eighteen joint angles out to the servo sink.
package pose

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod"
	"github.com/hexwalk/hexapod/config"
	"github.com/hexwalk/hexapod/gait"
	"github.com/hexwalk/hexapod/math3d"
	"github.com/hexwalk/hexapod/servos"
	"github.com/hexwalk/hexapod/utils"
)

const (
	// Assumed foot contact plane, relative to the hip (mm).
	groundLevel = -10.0

	// Fraction of the leg's maximum reach actually used when standing.
	// The margin keeps legs away from singular, fully-extended poses.
	usableReachRatio = 0.85

	// Per-degree-of-tilt femur correction applied while walking.
	// Standing already encodes tilt through IK, so it gets none.
	walkingTiltGain = 0.3
)

// Fallback angles for a leg whose standing target turned out to be
// unreachable. Heading and yaw are added to the coxa at fan-out.
var fallbackAngles = gait.JointAngles{Coxa: 90, Femur: 70, Tibia: 90}

var log = logrus.WithFields(logrus.Fields{
	"pkg": "pose",
})

// Coordinator produces the final 6x3 angle matrix every tick and
// pushes it to the sink. It owns the gait engine's clock: gait time
// advances here, and only while the robot is walking with nonzero
// speed.
type Coordinator struct {
	engine *gait.Engine
	sink   servos.Sink
	cfg    *config.Config

	mu       sync.Mutex
	angles   [6]gait.JointAngles
	contacts [6]bool
}

func New(engine *gait.Engine, sink servos.Sink, cfg *config.Config) *Coordinator {
	return &Coordinator{
		engine:   engine,
		sink:     sink,
		cfg:      cfg,
		contacts: [6]bool{true, true, true, true, true, true},
	}
}

func (c *Coordinator) Boot() error {
	return nil
}

// Tick computes and applies one frame of servo targets. A single leg
// or joint failing never aborts the frame; the robot degrades
// leg-by-leg instead of stopping the whole gait on a local fault.
func (c *Coordinator) Tick(now time.Time, dt float64, s *hexapod.State) error {
	v := s.Values()

	if v.Running && v.Speed > 0 {
		c.engine.Advance(dt * v.Speed)
	}

	var base [6]gait.JointAngles
	var contacts [6]bool

	if v.Running {
		var swings [6]bool
		base, swings = c.engine.AnglesForTime(c.engine.Time(), v.GaitMode)
		for i, swing := range swings {
			contacts[i] = !swing
		}
	} else {
		base = c.standingPose(v)
		for i := range contacts {
			contacts[i] = true
		}
	}

	mounts := c.cfg.Mounts()
	pitch := utils.Rad(v.BodyPitch)
	roll := utils.Rad(v.BodyRoll)

	var final [6]gait.JointAngles
	for leg, a := range base {
		a.Coxa += v.Heading + v.BodyYaw

		// While walking, fold body tilt into the femur directly; the
		// standing pose already encodes it via IK.
		if v.Running {
			m := mounts[leg]
			adj := m.X*math.Sin(pitch)*walkingTiltGain + m.Y*math.Sin(roll)*walkingTiltGain
			a.Femur = utils.Clamp(a.Femur+adj, 30, 150)
		}

		final[leg] = a
	}

	// Buffered sinks get all eighteen writes flushed as one frame.
	write := func() {
		for leg, a := range final {
			for joint, angle := range [3]float64{a.Coxa, a.Femur, a.Tibia} {
				if err := c.sink.SetAngle(leg, joint, angle); err != nil {
					log.Errorf("servo write failed: %s", err)
				}
			}
		}
	}

	if syncer, ok := c.sink.(servos.Syncer); ok {
		syncer.Sync(write)
	} else {
		write()
	}

	c.mu.Lock()
	c.angles = final
	c.contacts = contacts
	c.mu.Unlock()

	return nil
}

// standingPose solves, per leg, a foot position that keeps the feet
// grounded under the current body height, tilt, and leg spread. One
// leg's IK failure gets a fixed fallback and never disturbs the other
// five.
func (c *Coordinator) standingPose(v hexapod.Values) [6]gait.JointAngles {
	ik := c.engine.IK()
	geo := ik.Geometry()

	maxReach := geo.FemurLen + geo.TibiaLen
	usableReach := maxReach * usableReachRatio

	baseDrop := v.BodyHeight - groundLevel
	pitch := utils.Rad(v.BodyPitch)
	roll := utils.Rad(v.BodyRoll)
	mounts := c.cfg.Mounts()

	var out [6]gait.JointAngles
	for leg := 0; leg < 6; leg++ {
		m := mounts[leg]

		// A leg mounted further from the body center dips more when
		// the body tilts towards it.
		heightOffset := m.X*math.Sin(pitch) + m.Y*math.Sin(roll)
		drop := utils.Clamp(baseDrop+heightOffset, 10, usableReach*0.95)

		var horizontal float64
		if drop >= usableReach {
			horizontal = maxReach * 0.3
		} else {
			horizontal = math.Sqrt(usableReach*usableReach - drop*drop)
		}

		stanceWidth := geo.CoxaLen + horizontal*(v.LegSpread/100)

		a, err := ik.Solve(math3d.Vector3{X: stanceWidth, Z: -drop})
		if err != nil {
			var unreachable *gait.Unreachable
			if errors.As(err, &unreachable) {
				log.Debugf("standing IK failed for leg %d at height %0.1fmm: %s",
					leg, v.BodyHeight, err)
			} else {
				log.Errorf("standing IK failed for leg %d: %s", leg, err)
			}
			a = fallbackAngles
		}

		// The base coxa is forced back to neutral; heading and yaw
		// rotate all legs together and are added once at fan-out.
		a.Coxa = 90
		out[leg] = a
	}

	return out
}

// LastAngles returns the most recently applied angle matrix.
func (c *Coordinator) LastAngles() [6]gait.JointAngles {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.angles
}

// GroundContacts returns the per-leg stance flags from the last tick:
// true when the leg is grounded.
func (c *Coordinator) GroundContacts() [6]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contacts
}
