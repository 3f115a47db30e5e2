// Package commands is the intent layer between external inputs
// (network handlers, gamepads) and the shared robot state. All
// parameter clamping and gait-mode validation happens here or in the
// setters it calls; the kinematics core below never sees raw input.
package commands

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod"
	"github.com/hexwalk/hexapod/config"
	"github.com/hexwalk/hexapod/gait"
	"github.com/hexwalk/hexapod/utils"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "commands",
})

// Kind discriminates MotionCommand payloads.
type Kind string

const (
	KindMove  Kind = "move"
	KindTurn  Kind = "turn"
	KindGait  Kind = "gait"
	KindStart Kind = "start"
	KindStop  Kind = "stop"
	KindEstop Kind = "estop"
)

// MotionCommand is the abstract command an input device resolves to.
// Only the fields relevant to the Kind are meaningful.
type MotionCommand struct {
	Kind Kind
	X    float64
	Y    float64
	Mode string
	Rate float64
}

// Handler applies intents to the robot. It owns no state of its own;
// everything flows into the State, the gait engine, or the config
// handle.
type Handler struct {
	state  *hexapod.State
	engine *gait.Engine
	cfg    *config.Config
}

func NewHandler(state *hexapod.State, engine *gait.Engine, cfg *config.Config) *Handler {
	return &Handler{
		state:  state,
		engine: engine,
		cfg:    cfg,
	}
}

// Apply dispatches one MotionCommand.
func (h *Handler) Apply(cmd MotionCommand) {
	switch cmd.Kind {
	case KindMove:
		h.Move(cmd.X, cmd.Y)
	case KindTurn:
		h.SetTurnRate(cmd.Rate)
	case KindGait:
		if err := h.SetGaitMode(cmd.Mode); err != nil {
			log.Warnf("gait command rejected: %s", err)
		}
	case KindStart:
		h.SetRunning(true)
	case KindStop:
		h.SetRunning(false)
	case KindEstop:
		h.EmergencyStop()
	}
}

// Move converts a joystick vector into heading and speed. Small
// deflections inside the dead zone are ignored.
func (h *Handler) Move(x, y float64) {
	if math.Abs(x) <= 0.1 && math.Abs(y) <= 0.1 {
		return
	}

	h.state.SetSpeed(math.Sqrt(x*x + y*y))
	if y != 0 {
		h.state.SetHeading(utils.Deg(math.Atan2(x, y)))
	}
}

// SetGaitMode switches the active gait. Unlike the engine, which
// tolerates anything, the command boundary rejects modes that aren't
// currently enabled.
func (h *Handler) SetGaitMode(mode string) error {
	if !h.cfg.GaitEnabled(mode) {
		return errors.Errorf("gait %q is not enabled", mode)
	}

	h.state.SetGaitMode(mode)
	log.Infof("gait mode changed to %q", mode)
	return nil
}

// SetGaitEnabled flips a gait's availability. The config layer refuses
// to disable the last enabled gait; this layer additionally refuses to
// disable the one currently selected. The engine's phase tables are
// refreshed on success.
func (h *Handler) SetGaitEnabled(id string, enabled bool) error {
	if !enabled && h.state.GaitMode() == id {
		return errors.Errorf("cannot disable active gait %q", id)
	}

	if err := h.cfg.SetGaitEnabled(id, enabled); err != nil {
		return err
	}

	h.engine.SetDefinitions(h.cfg.Gaits())
	return nil
}

// RegisterGait adds or updates a gait definition and refreshes the
// engine's phase tables.
func (h *Handler) RegisterGait(id string, def gait.Definition) {
	h.cfg.UpsertGait(id, def)
	h.engine.SetDefinitions(h.cfg.Gaits())
	log.Infof("gait %q registered", id)
}

// GaitParamsUpdate carries optional step-parameter changes; nil fields
// are left untouched.
type GaitParamsUpdate struct {
	StepHeight *float64
	StepLength *float64
	CycleTime  *float64
}

// SetGaitParams applies the non-nil parameters, each independently
// clamped by the engine, and returns the values that took effect.
func (h *Handler) SetGaitParams(u GaitParamsUpdate) map[string]float64 {
	applied := make(map[string]float64)

	if u.StepHeight != nil {
		applied["step_height"] = h.engine.SetStepHeight(*u.StepHeight)
	}
	if u.StepLength != nil {
		applied["step_length"] = h.engine.SetStepLength(*u.StepLength)
	}
	if u.CycleTime != nil {
		applied["cycle_time"] = h.engine.SetCycleTime(*u.CycleTime)
	}

	if len(applied) > 0 {
		log.Infof("gait parameters updated: %v", applied)
	}
	return applied
}

// RefreshGaitParams reloads the step parameters and gait definitions
// from config, e.g. after the config file was swapped out.
func (h *Handler) RefreshGaitParams() {
	p := h.cfg.GaitParams()
	h.engine.SetStepHeight(p.StepHeight)
	h.engine.SetStepLength(p.StepLength)
	h.engine.SetCycleTime(p.CycleTime)
	h.engine.SetDefinitions(h.cfg.Gaits())
}

func (h *Handler) SetRunning(run bool) {
	h.state.SetRunning(run)
	log.Infof("running=%v", run)
}

// SetBodyHeight clamps and applies a body height, returning the value
// that took effect.
func (h *Handler) SetBodyHeight(mm float64) float64 {
	return h.state.SetBodyHeight(mm)
}

// PoseUpdate carries optional body-pose changes; nil fields are left
// untouched.
type PoseUpdate struct {
	Pitch *float64
	Roll  *float64
	Yaw   *float64
}

// SetBodyPose applies the non-nil pose angles, each independently
// clamped, and returns the values that took effect.
func (h *Handler) SetBodyPose(u PoseUpdate) map[string]float64 {
	applied := make(map[string]float64)

	if u.Pitch != nil {
		applied["pitch"] = h.state.SetBodyPitch(*u.Pitch)
	}
	if u.Roll != nil {
		applied["roll"] = h.state.SetBodyRoll(*u.Roll)
	}
	if u.Yaw != nil {
		applied["yaw"] = h.state.SetBodyYaw(*u.Yaw)
	}

	return applied
}

func (h *Handler) SetLegSpread(pct float64) float64 {
	return h.state.SetLegSpread(pct)
}

func (h *Handler) SetRotation(degPerSec float64) float64 {
	return h.state.SetRotationSpeed(degPerSec)
}

func (h *Handler) SetTurnRate(rate float64) float64 {
	return h.engine.SetTurnRate(rate)
}

// ApplyPose recalls a named pose from config: height, tilt, and leg
// spread in one shot.
func (h *Handler) ApplyPose(id string) error {
	p, ok := h.cfg.Pose(id)
	if !ok {
		return errors.Errorf("unknown pose %q", id)
	}

	h.state.SetBodyHeight(p.Height)
	h.state.SetBodyPitch(p.Pitch)
	h.state.SetBodyRoll(p.Roll)
	h.state.SetBodyYaw(p.Yaw)
	h.state.SetLegSpread(p.LegSpread)

	log.Infof("pose applied: %q", id)
	return nil
}

// SetLegGeometry updates the global segment lengths in config and
// rebuilds the engine's IK solver. The refresh is explicit here
// because nothing else invalidates the solver.
func (h *Handler) SetLegGeometry(g gait.Geometry) {
	h.cfg.SetGeometry(g)
	h.engine.RefreshGeometry(g)
}

// EmergencyStop halts all movement: running, speed, rotation, body
// tilt, and turn rate all go to zero.
func (h *Handler) EmergencyStop() {
	h.state.EmergencyStop()
	h.engine.SetTurnRate(0)
	log.Warnf("EMERGENCY STOP activated")
}
