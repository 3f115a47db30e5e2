package servos

import (
	"sync"

	"github.com/hexwalk/hexapod/config"
)

// Mock is an in-memory sink for development and tests. It records the
// last angle written to each joint, after calibration and clamping,
// exactly as a hardware sink would apply them.
type Mock struct {
	mu     sync.Mutex
	angles map[[2]int]float64
	cfg    *config.Config
}

// NewMock returns a mock sink. cfg may be nil to skip calibration
// offsets.
func NewMock(cfg *config.Config) *Mock {
	return &Mock{
		angles: make(map[[2]int]float64),
		cfg:    cfg,
	}
}

func (m *Mock) SetAngle(leg int, joint int, angle float64) error {
	if err := checkIndex(leg, joint); err != nil {
		return &Error{Leg: leg, Joint: joint, Err: err}
	}

	if m.cfg != nil {
		angle = m.cfg.ApplyServoCalibration(leg, joint, angle)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.angles[[2]int{leg, joint}] = clampAngle(angle)
	return nil
}

// Angle returns the last angle written to a joint, and whether one has
// been written at all.
func (m *Mock) Angle(leg int, joint int) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.angles[[2]int{leg, joint}]
	return a, ok
}
