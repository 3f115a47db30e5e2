// Package gamepad adapts a sixaxis controller into motion intents.
// Raw protocol decoding stays inside the sixaxis library; this
// component only maps stick and button state onto the command layer,
// once per tick.
package gamepad

import (
	"io"
	"time"

	"github.com/adammck/sixaxis"
	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod"
	"github.com/hexwalk/hexapod/commands"
)

const (
	// Maximum rotation speed (degrees per second) at full right-stick
	// deflection.
	maxRotationSpeed = 60.0

	// Millimeters of body height change per tick while the dpad is
	// held.
	heightStep = 2.0
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "gamepad",
})

// Latch reports true only on a false-to-true edge, so a held button
// fires once.
type Latch struct {
	val bool
}

func (l *Latch) Run(v bool) bool {
	r := v && !l.val
	l.val = v
	return r
}

type Controller struct {
	handler *commands.Handler
	sa      *sixaxis.SA

	startLatch  Latch
	squareLatch Latch
}

func New(handler *commands.Handler, r io.Reader) *Controller {
	return &Controller{
		handler: handler,
		sa:      sixaxis.New(r),
	}
}

func (c *Controller) Boot() error {
	go c.sa.Run()
	log.Info("gamepad input started")
	return nil
}

func (c *Controller) Tick(now time.Time, dt float64, s *hexapod.State) error {

	// Left stick: heading and speed.
	if c.sa.LeftStick.X != 0 || c.sa.LeftStick.Y != 0 {
		x := float64(c.sa.LeftStick.X) / 127.0
		y := float64(-c.sa.LeftStick.Y) / 127.0
		c.handler.Apply(commands.MotionCommand{Kind: commands.KindMove, X: x, Y: y})
	}

	// Right stick X: rotate in place.
	c.handler.SetRotation((float64(c.sa.RightStick.X) / 127.0) * maxRotationSpeed)

	// Dpad: nudge the body height.
	if c.sa.Up > 0 {
		c.handler.SetBodyHeight(s.BodyHeight() + heightStep)
	}
	if c.sa.Down > 0 {
		c.handler.SetBodyHeight(s.BodyHeight() - heightStep)
	}

	// Start toggles walking; square is the emergency stop.
	if c.startLatch.Run(c.sa.Start) {
		c.handler.SetRunning(!s.Running())
	}
	if c.squareLatch.Run(c.sa.Square > 0) {
		c.handler.Apply(commands.MotionCommand{Kind: commands.KindEstop})
	}

	return nil
}
