// Package telemetry builds the periodic state snapshot consumed by
// downstream visualizers. The snapshot's field set is part of the
// external contract; renaming or dropping a field breaks any UI
// reading it.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod"
	"github.com/hexwalk/hexapod/gait"
	"github.com/hexwalk/hexapod/pose"
	"github.com/hexwalk/hexapod/sensors"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "telemetry",
})

// Snapshot is one broadcast frame.
type Snapshot struct {
	Running        bool          `json:"running"`
	GaitMode       string        `json:"gait_mode"`
	GaitTime       float64       `json:"gait_time"`
	Speed          float64       `json:"speed"`
	Heading        float64       `json:"heading"`
	BodyHeight     float64       `json:"body_height"`
	BodyPitch      float64       `json:"body_pitch"`
	BodyRoll       float64       `json:"body_roll"`
	BodyYaw        float64       `json:"body_yaw"`
	LegSpread      float64       `json:"leg_spread"`
	RotationSpeed  float64       `json:"rotation_speed"`
	TemperatureC   float64       `json:"temperature_c"`
	BatteryV       float64       `json:"battery_v"`
	GroundContacts [6]bool       `json:"ground_contacts"`
	Angles         [6][3]float64 `json:"angles"`
}

// Broadcaster fans a snapshot out to whoever is listening. It must be
// non-blocking or bounded-time: a stall here delays every leg's next
// update.
type Broadcaster interface {
	Broadcast(Snapshot)
}

// LogBroadcaster dumps snapshots to the debug log as JSON; the default
// when no transport is wired up.
type LogBroadcaster struct{}

func (LogBroadcaster) Broadcast(s Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		log.Errorf("marshaling snapshot: %s", err)
		return
	}
	log.Debugf("telemetry: %s", data)
}

// Reporter is a component which emits snapshots at a slower cadence
// than the servo tick.
type Reporter struct {
	engine      *gait.Engine
	coordinator *pose.Coordinator
	sensors     sensors.Reader
	out         Broadcaster
	interval    time.Duration
	last        time.Time
}

func NewReporter(engine *gait.Engine, coordinator *pose.Coordinator, r sensors.Reader, out Broadcaster, interval time.Duration) *Reporter {
	return &Reporter{
		engine:      engine,
		coordinator: coordinator,
		sensors:     r,
		out:         out,
		interval:    interval,
	}
}

func (r *Reporter) Boot() error {
	return nil
}

func (r *Reporter) Tick(now time.Time, dt float64, s *hexapod.State) error {
	if now.Sub(r.last) < r.interval {
		return nil
	}
	r.last = now

	r.out.Broadcast(r.Build(s))
	return nil
}

// Build assembles a snapshot from the current state. Sensor read
// failures degrade to zero values rather than dropping the frame.
func (r *Reporter) Build(s *hexapod.State) Snapshot {
	v := s.Values()

	snap := Snapshot{
		Running:        v.Running,
		GaitMode:       v.GaitMode,
		GaitTime:       r.engine.Time(),
		Speed:          v.Speed,
		Heading:        v.Heading,
		BodyHeight:     v.BodyHeight,
		BodyPitch:      v.BodyPitch,
		BodyRoll:       v.BodyRoll,
		BodyYaw:        v.BodyYaw,
		LegSpread:      v.LegSpread,
		RotationSpeed:  v.RotationSpeed,
		GroundContacts: r.coordinator.GroundContacts(),
	}

	for leg, a := range r.coordinator.LastAngles() {
		snap.Angles[leg] = [3]float64{a.Coxa, a.Femur, a.Tibia}
	}

	if temp, err := r.sensors.Temperature(); err == nil {
		snap.TemperatureC = temp
	} else {
		log.Warnf("temperature read failed: %s", err)
	}

	if volts, err := r.sensors.BatteryVoltage(); err == nil {
		snap.BatteryV = volts
	} else {
		log.Warnf("battery read failed: %s", err)
	}

	return snap
}
