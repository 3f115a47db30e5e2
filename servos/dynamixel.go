package servos

import (
	"github.com/adammck/dynamixel/network"
	"github.com/adammck/dynamixel/servo"
	"github.com/adammck/dynamixel/servo/ax"
	"github.com/pkg/errors"

	"github.com/hexwalk/hexapod/config"
	"github.com/hexwalk/hexapod/utils"
)

// Dynamixel drives the eighteen AX-12 servos over one half-duplex bus.
// Bus IDs are assigned 1..18 as leg*3+joint+1, so leg 0's coxa is #1
// and leg 5's tibia is #18.
type Dynamixel struct {
	network *network.Network
	servos  [NumLegs * JointsPerLeg]*servo.Servo
	cfg     *config.Config
}

// NewDynamixel builds the sink and initializes every servo on the bus
// with sensible defaults. Any servo failing to respond fails the whole
// constructor; a missing joint at boot is not something to limp past.
func NewDynamixel(n *network.Network, cfg *config.Config) (*Dynamixel, error) {
	d := &Dynamixel{
		network: n,
		cfg:     cfg,
	}

	for i := range d.servos {
		s, err := newServo(n, i+1)
		if err != nil {
			return nil, errors.Wrapf(err, "servo #%d", i+1)
		}
		d.servos[i] = s
	}

	return d, nil
}

func newServo(n *network.Network, id int) (*servo.Servo, error) {
	s, err := ax.New(n, id)
	if err != nil {
		return nil, err
	}

	// Don't bother sending ACKs for writes. We must do this first, to
	// ensure that the servo is in the expected state before sending
	// other commands.
	if err := s.SetReturnLevel(1); err != nil {
		return nil, errors.Wrap(err, "setting return level")
	}

	if err := s.Ping(); err != nil {
		return nil, errors.Wrap(err, "pinging")
	}

	if err := s.SetReturnDelayTime(0); err != nil {
		return nil, errors.Wrap(err, "setting return delay")
	}

	if err := s.SetTorqueEnable(true); err != nil {
		return nil, errors.Wrap(err, "enabling torque")
	}

	if err := s.SetMovingSpeed(1023); err != nil {
		return nil, errors.Wrap(err, "setting move speed")
	}

	// Buffer all subsequent instructions; the ACTION command is issued
	// at the end of each tick via Sync.
	s.SetBuffered(true)

	return s, nil
}

func (d *Dynamixel) SetAngle(leg int, joint int, angle float64) error {
	if err := checkIndex(leg, joint); err != nil {
		return &Error{Leg: leg, Joint: joint, Err: err}
	}

	if d.cfg != nil {
		angle = d.cfg.ApplyServoCalibration(leg, joint, angle)
	}
	angle = clampAngle(angle)

	// The AX zero is the center of travel; our convention puts neutral
	// at 90.
	if err := d.servos[leg*JointsPerLeg+joint].MoveTo(angle - 90); err != nil {
		return &Error{Leg: leg, Joint: joint, Err: err}
	}

	return nil
}

// Angle reads a joint's present position back from the bus, in the
// same 90=neutral convention SetAngle accepts. Calibration offsets are
// not removed; this is the raw servo view, which is what calibration
// tooling wants to compare against.
func (d *Dynamixel) Angle(leg int, joint int) (float64, error) {
	if err := checkIndex(leg, joint); err != nil {
		return 0, &Error{Leg: leg, Joint: joint, Err: err}
	}

	a, err := d.servos[leg*JointsPerLeg+joint].Angle()
	if err != nil {
		return 0, &Error{Leg: leg, Joint: joint, Err: err}
	}

	return a + 90, nil
}

// SetLegTorque enables or disables torque on all three of a leg's
// joints, so the leg can be posed by hand.
func (d *Dynamixel) SetLegTorque(leg int, enabled bool) error {
	if err := checkIndex(leg, 0); err != nil {
		return err
	}

	for joint := 0; joint < JointsPerLeg; joint++ {
		if err := d.servos[leg*JointsPerLeg+joint].SetTorqueEnable(enabled); err != nil {
			return &Error{Leg: leg, Joint: joint, Err: err}
		}
	}

	return nil
}

// Sync runs f with the network in buffered mode, then fires all queued
// moves at once, so the eighteen joints of a tick land together.
func (d *Dynamixel) Sync(f func()) {
	utils.Sync(d.network, f)
}

// Voltage returns the supply voltage as seen by an arbitrary servo.
func (d *Dynamixel) Voltage() (float64, error) {
	return d.servos[0].Voltage()
}

// Shutdown powers off every servo. Call before terminating the
// program, so they don't stay powered up indefinitely.
func (d *Dynamixel) Shutdown() {
	for _, s := range d.servos {
		if err := s.SetTorqueEnable(false); err != nil {
			log.Warnf("disabling torque: %s", err)
		}
		if err := s.SetLED(false); err != nil {
			log.Warnf("disabling LED: %s", err)
		}
	}
}
