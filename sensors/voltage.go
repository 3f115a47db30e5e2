package sensors

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod"
)

const (
	// Seconds between voltage checks. The read is quick but not
	// instant, and running at low voltage for too long damages the
	// battery, so it gets checked regularly.
	voltageInterval = 5 * time.Second

	// The voltage below which the robot should shut down.
	minimumVoltage = 9.6
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "sensors",
})

// VoltageCheck is a component which periodically samples the supply
// voltage and errors when it drops below the safe minimum. The owner
// decides what to do about it.
type VoltageCheck struct {
	t time.Time
	HasVoltage
}

func NewVoltageCheck(v HasVoltage) *VoltageCheck {
	return &VoltageCheck{
		time.Time{},
		v,
	}
}

func (vc *VoltageCheck) Boot() error {
	return nil
}

func (vc *VoltageCheck) Tick(now time.Time, dt float64, s *hexapod.State) error {
	if now.Sub(vc.t) < voltageInterval {
		return nil
	}

	val, err := vc.Voltage()
	vc.t = now
	if err != nil {
		return err
	}

	log.Debugf("voltage: %.2fv", val)

	if val < minimumVoltage {
		return fmt.Errorf("low voltage: %.2fv", val)
	}

	return nil
}
