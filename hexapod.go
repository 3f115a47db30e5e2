package hexapod

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod/utils"
)

// Safe ranges for the externally-settable state fields. Out-of-range
// writes are clamped, never rejected; the clamped value is what takes
// effect and is what the setter returns.
const (
	MinBodyHeight = 30.0
	MaxBodyHeight = 200.0
	MaxBodyTilt   = 30.0
	MaxBodyYaw    = 45.0
	MinLegSpread  = 50.0
	MaxLegSpread  = 150.0
	MaxRotation   = 180.0
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "hexapod",
})

// State holds the shared robot state mutated by the command layer and
// read by the control loop every tick. Commands arrive from network
// and gamepad goroutines, so every access goes through the mutex.
type State struct {
	mu sync.Mutex

	running       bool
	gaitMode      string
	speed         float64
	heading       float64
	rotationSpeed float64
	bodyHeight    float64
	bodyPitch     float64
	bodyRoll      float64
	bodyYaw       float64
	legSpread     float64
}

// Values is a plain copy of every State field, taken under one lock so
// a tick sees a consistent view.
type Values struct {
	Running       bool
	GaitMode      string
	Speed         float64
	Heading       float64
	RotationSpeed float64
	BodyHeight    float64
	BodyPitch     float64
	BodyRoll      float64
	BodyYaw       float64
	LegSpread     float64
}

func NewState() *State {
	return &State{
		gaitMode:   "tripod",
		speed:      1.0,
		bodyHeight: 60.0,
		legSpread:  100.0,
	}
}

func (s *State) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Values{
		Running:       s.running,
		GaitMode:      s.gaitMode,
		Speed:         s.speed,
		Heading:       s.heading,
		RotationSpeed: s.rotationSpeed,
		BodyHeight:    s.bodyHeight,
		BodyPitch:     s.bodyPitch,
		BodyRoll:      s.bodyRoll,
		BodyYaw:       s.bodyYaw,
		LegSpread:     s.legSpread,
	}
}

func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *State) SetRunning(run bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = run
}

func (s *State) GaitMode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gaitMode
}

// SetGaitMode stores the mode without validating it; checking the mode
// against the set of enabled gaits is the command layer's job.
func (s *State) SetGaitMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gaitMode = mode
}

func (s *State) SetSpeed(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = utils.Clamp(v, 0, 1)
	return s.speed
}

func (s *State) Heading() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heading
}

func (s *State) SetHeading(deg float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heading = normalizeHeading(deg)
	return s.heading
}

func (s *State) SetRotationSpeed(degPerSec float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotationSpeed = utils.Clamp(degPerSec, -MaxRotation, MaxRotation)
	return s.rotationSpeed
}

func (s *State) BodyHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodyHeight
}

func (s *State) SetBodyHeight(mm float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodyHeight = utils.Clamp(mm, MinBodyHeight, MaxBodyHeight)
	return s.bodyHeight
}

func (s *State) SetBodyPitch(deg float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodyPitch = utils.Clamp(deg, -MaxBodyTilt, MaxBodyTilt)
	return s.bodyPitch
}

func (s *State) SetBodyRoll(deg float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodyRoll = utils.Clamp(deg, -MaxBodyTilt, MaxBodyTilt)
	return s.bodyRoll
}

func (s *State) SetBodyYaw(deg float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodyYaw = utils.Clamp(deg, -MaxBodyYaw, MaxBodyYaw)
	return s.bodyYaw
}

func (s *State) SetLegSpread(pct float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legSpread = utils.Clamp(pct, MinLegSpread, MaxLegSpread)
	return s.legSpread
}

// EmergencyStop zeroes running, speed, rotation, and all body tilt
// fields under a single lock, so no tick can observe a half-stopped
// state.
func (s *State) EmergencyStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.speed = 0
	s.rotationSpeed = 0
	s.bodyPitch = 0
	s.bodyRoll = 0
	s.bodyYaw = 0
}

// IntegrateRotation folds the rotation speed into the heading. This
// runs every tick whether or not the robot is walking, so a
// rotate-in-place command visibly sweeps the heading while standing.
func (s *State) IntegrateRotation(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rotationSpeed == 0 {
		return
	}
	s.heading = normalizeHeading(s.heading + s.rotationSpeed*dt)
}

// normalizeHeading wraps a heading into (-180, 180].
func normalizeHeading(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}

// Component is anything which hangs off the main loop and receives
// ticks at the frame rate.
type Component interface {
	Boot() error
	Tick(now time.Time, dt float64, s *State) error
}

// Hexapod owns the shared state and the component list. One goroutine
// drives Tick; everything else mutates State through its setters.
type Hexapod struct {
	State      *State
	Components []Component
}

func New() *Hexapod {
	return &Hexapod{
		State: NewState(),
	}
}

// Add registers a component to receive ticks every frame.
func (h *Hexapod) Add(c Component) {
	h.Components = append(h.Components, c)
}

// Boot calls Boot on each component, and fails on the first error.
func (h *Hexapod) Boot() error {
	for _, c := range h.Components {
		if err := c.Boot(); err != nil {
			return err
		}
	}

	return nil
}

// Tick integrates rotation into the heading, then ticks each component.
// A component error is logged rather than propagated; one component's
// failure shouldn't stall the others.
func (h *Hexapod) Tick(now time.Time, dt float64) {
	h.State.IntegrateRotation(dt)

	for _, c := range h.Components {
		if err := c.Tick(now, dt, h.State); err != nil {
			log.Errorf("tick error: %s", err)
		}
	}
}
