// Package config provides the YAML-backed configuration handle for leg
// geometry, mount points, gait definitions, poses, and servo
// calibration. The handle is created once and passed down explicitly;
// nothing in this package is a global.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/hexwalk/hexapod/gait"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "config",
})

// Mount is one leg's attach point in the body frame: X forward, Y to
// the right, Z up (all mm), plus the angle (degrees) the leg's neutral
// direction makes with the body's forward axis.
type Mount struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	Angle float64 `yaml:"angle"`
}

// Pose is a named body posture for quick recall.
type Pose struct {
	Name      string  `yaml:"name"`
	Category  string  `yaml:"category,omitempty"`
	Height    float64 `yaml:"height"`
	Pitch     float64 `yaml:"pitch,omitempty"`
	Roll      float64 `yaml:"roll,omitempty"`
	Yaw       float64 `yaml:"yaw,omitempty"`
	LegSpread float64 `yaml:"leg_spread"`
	Builtin   bool    `yaml:"builtin,omitempty"`
}

// File is the on-disk document.
type File struct {
	Geometry     gait.Geometry              `yaml:"leg_geometry"`
	LegOverrides map[int]gait.Geometry      `yaml:"leg_overrides,omitempty"`
	Mounts       [6]Mount                   `yaml:"mounts"`
	GaitParams   gait.Params                `yaml:"gait_params"`
	DefaultGait  string                     `yaml:"default_gait"`
	Gaits        map[string]gait.Definition `yaml:"gaits"`
	Poses        map[string]Pose            `yaml:"poses,omitempty"`

	// Per-servo calibration offsets (degrees), keyed "leg<L>_j<J>".
	ServoOffsets map[string]float64 `yaml:"servo_offsets,omitempty"`
}

// Config is the mutex-guarded handle around a File. Reads happen every
// tick from the control loop; writes arrive from command handlers on
// other goroutines.
type Config struct {
	mu   sync.RWMutex
	path string
	file File
}

// New returns a handle holding the defaults, with no backing file.
func New() *Config {
	return &Config{file: Defaults()}
}

// Load reads the config file at path, falling back to defaults when
// the file does not exist yet.
func Load(path string) (*Config, error) {
	c := &Config{path: path, file: Defaults()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Infof("no config at %s, using defaults", path)
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	if err := yaml.Unmarshal(data, &c.file); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	log.Infof("config loaded from %s", path)
	return c, nil
}

// Save writes the current document back to the file it was loaded
// from.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" {
		return errors.New("config has no backing file")
	}

	data, err := yaml.Marshal(&c.file)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", c.path)
	}

	return nil
}

// Geometry returns the global (fallback) leg geometry.
func (c *Config) Geometry() gait.Geometry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.Geometry
}

// LegGeometry returns the geometry for one leg: the per-leg override
// when one exists, the global values otherwise.
func (c *Config) LegGeometry(leg int) gait.Geometry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if g, ok := c.file.LegOverrides[leg]; ok {
		return g
	}
	return c.file.Geometry
}

// SetGeometry replaces the global leg geometry. The caller owns the
// follow-up: the gait engine's IK solver is not rebuilt until someone
// calls Engine.RefreshGeometry.
func (c *Config) SetGeometry(g gait.Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file.Geometry = g
}

// SetLegGeometry installs a per-leg geometry override.
func (c *Config) SetLegGeometry(leg int, g gait.Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file.LegOverrides == nil {
		c.file.LegOverrides = make(map[int]gait.Geometry)
	}
	c.file.LegOverrides[leg] = g
}

// Mount returns one leg's attach point.
func (c *Config) Mount(leg int) Mount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.Mounts[leg]
}

// SetMount replaces one leg's attach point.
func (c *Config) SetMount(leg int, m Mount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file.Mounts[leg] = m
}

// Mounts returns all six attach points.
func (c *Config) Mounts() [6]Mount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.Mounts
}

// GaitParams returns the configured step parameters.
func (c *Config) GaitParams() gait.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.GaitParams
}

// SetGaitParams stores new step parameters (they still pass through
// the engine's clamps when applied).
func (c *Config) SetGaitParams(p gait.Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file.GaitParams = p
}

// DefaultGait returns the configured startup gait.
func (c *Config) DefaultGait() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.file.DefaultGait == "" {
		return "tripod"
	}
	return c.file.DefaultGait
}

// Gaits returns a copy of all gait definitions, enabled or not.
func (c *Config) Gaits() map[string]gait.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]gait.Definition, len(c.file.Gaits))
	for id, def := range c.file.Gaits {
		out[id] = def
	}
	return out
}

// EnabledGaits returns the definitions currently available for
// selection.
func (c *Config) EnabledGaits() map[string]gait.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]gait.Definition)
	for id, def := range c.file.Gaits {
		if def.Enabled {
			out[id] = def
		}
	}
	return out
}

// GaitEnabled reports whether the named gait exists and is enabled.
func (c *Config) GaitEnabled(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.file.Gaits[id]
	return ok && def.Enabled
}

// PhaseOffsets returns the phase table for the named gait.
func (c *Config) PhaseOffsets(id string) ([6]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.file.Gaits[id]
	return def.PhaseOffsets, ok
}

// SetGaitEnabled flips a gait's availability. Disabling the last
// enabled gait is refused; the robot always needs something to walk
// with. Guarding the currently-active gait is the command layer's job,
// since the config layer doesn't know which gait is selected.
func (c *Config) SetGaitEnabled(id string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	def, ok := c.file.Gaits[id]
	if !ok {
		return fmt.Errorf("unknown gait %q", id)
	}

	if !enabled {
		others := 0
		for otherID, other := range c.file.Gaits {
			if other.Enabled && otherID != id {
				others++
			}
		}
		if others == 0 {
			return fmt.Errorf("cannot disable last enabled gait %q", id)
		}
	}

	def.Enabled = enabled
	c.file.Gaits[id] = def
	return nil
}

// UpsertGait adds a custom gait definition, or updates an existing
// one. The engine only needs the phase offsets; everything else is
// descriptive.
func (c *Config) UpsertGait(id string, def gait.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file.Gaits == nil {
		c.file.Gaits = make(map[string]gait.Definition)
	}
	c.file.Gaits[id] = def
}

// Pose looks up a named pose.
func (c *Config) Pose(id string) (Pose, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.file.Poses[id]
	return p, ok
}

// ServoOffset returns the calibration offset (degrees) for one servo.
func (c *Config) ServoOffset(leg, joint int) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.ServoOffsets[servoKey(leg, joint)]
}

// SetServoOffset stores a calibration offset for one servo.
func (c *Config) SetServoOffset(leg, joint int, offset float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file.ServoOffsets == nil {
		c.file.ServoOffsets = make(map[string]float64)
	}
	c.file.ServoOffsets[servoKey(leg, joint)] = offset
}

// ApplyServoCalibration adds the servo's calibration offset to an
// angle. The final [0, 180] clamp stays with the sink.
func (c *Config) ApplyServoCalibration(leg, joint int, angle float64) float64 {
	return angle + c.ServoOffset(leg, joint)
}

func servoKey(leg, joint int) string {
	return fmt.Sprintf("leg%d_j%d", leg, joint)
}
