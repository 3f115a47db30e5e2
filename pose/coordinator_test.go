package pose

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexwalk/hexapod"
	"github.com/hexwalk/hexapod/config"
	"github.com/hexwalk/hexapod/gait"
	"github.com/hexwalk/hexapod/servos"
)

func testRig() (*Coordinator, *servos.Mock, *hexapod.State, *gait.Engine, *config.Config) {
	cfg := config.New()
	engine := gait.NewEngine(cfg.GaitParams(), cfg.Geometry())
	mock := servos.NewMock(nil)
	return New(engine, mock, cfg), mock, hexapod.NewState(), engine, cfg
}

func TestTickStanding(t *testing.T) {
	c, mock, state, engine, _ := testRig()

	require.NoError(t, c.Tick(time.Now(), 0.02, state))

	// Not walking: gait time must not advance, every leg is grounded.
	assert.Equal(t, 0.0, engine.Time())
	assert.Equal(t, [6]bool{true, true, true, true, true, true}, c.GroundContacts())

	// Level body, no heading: all six legs get the same triple, coxa
	// at neutral.
	angles := c.LastAngles()
	for leg := 0; leg < 6; leg++ {
		assert.Equal(t, angles[0], angles[leg])
		assert.InDelta(t, 90, angles[leg].Coxa, 0.001)

		for joint := 0; joint < 3; joint++ {
			_, ok := mock.Angle(leg, joint)
			assert.True(t, ok, "leg %d joint %d never written", leg, joint)
		}
	}
}

func TestTickStandingHeadingAndYaw(t *testing.T) {
	c, _, state, _, _ := testRig()
	state.SetHeading(20)
	state.SetBodyYaw(10)

	require.NoError(t, c.Tick(time.Now(), 0.02, state))

	for _, a := range c.LastAngles() {
		assert.InDelta(t, 120, a.Coxa, 0.001)
	}
}

func TestTickWalkingAdvancesGaitTime(t *testing.T) {
	c, _, state, engine, _ := testRig()

	state.SetRunning(true)
	require.NoError(t, c.Tick(time.Now(), 0.02, state))
	assert.InDelta(t, 0.02, engine.Time(), 0.0001)

	// Speed scales the clock.
	state.SetSpeed(0.5)
	require.NoError(t, c.Tick(time.Now(), 0.02, state))
	assert.InDelta(t, 0.03, engine.Time(), 0.0001)

	// Zero speed or stopped: the clock freezes mid-phase.
	state.SetSpeed(0)
	require.NoError(t, c.Tick(time.Now(), 0.02, state))
	state.SetSpeed(1)
	state.SetRunning(false)
	require.NoError(t, c.Tick(time.Now(), 0.02, state))
	assert.InDelta(t, 0.03, engine.Time(), 0.0001)
}

func TestTickWalkingContacts(t *testing.T) {
	c, _, state, _, _ := testRig()
	state.SetRunning(true)

	require.NoError(t, c.Tick(time.Now(), 0.01, state))

	// Tripod at the start of the cycle: legs 0/2/4 swing, 1/3/5 are
	// grounded.
	assert.Equal(t, [6]bool{false, true, false, true, false, true}, c.GroundContacts())
}

func TestTickWalkingTiltAdjustment(t *testing.T) {
	c, _, state, _, _ := testRig()
	state.SetRunning(true)
	state.SetBodyPitch(30)

	// Zero dt keeps the gait clock at the start of the cycle, where the
	// swing femur baseline is flat.
	require.NoError(t, c.Tick(time.Now(), 0, state))

	angles := c.LastAngles()

	// Front-right (mounted forward) pitches down: 150 * sin(30) * 0.3.
	assert.InDelta(t, 75+22.5, angles[0].Femur, 0.001)
	// Rear-right (mounted backward) pitches up by the same amount.
	assert.InDelta(t, 75-22.5, angles[2].Femur, 0.001)
	// Mid legs mount at x=0 and are untouched by pitch.
	assert.InDelta(t, 67, angles[1].Femur, 0.001)
}

func TestStandingFallbackIsolated(t *testing.T) {
	// Geometry with reach band [20, 140]; at body height 100 with 150%
	// spread a leg is solvable only when its drop stays large. A forward
	// mount plus nose-down pitch shrinks leg 0's drop below that point
	// while leaving the others alone.
	build := func(leg0X float64) *Coordinator {
		cfg := config.New()
		cfg.SetGeometry(gait.Geometry{CoxaLen: 30, FemurLen: 60, TibiaLen: 80})
		for leg := 0; leg < 6; leg++ {
			cfg.SetMount(leg, config.Mount{})
		}
		cfg.SetMount(0, config.Mount{X: leg0X})

		engine := gait.NewEngine(cfg.GaitParams(), cfg.Geometry())
		return New(engine, servos.NewMock(nil), cfg)
	}

	state := hexapod.NewState()
	state.SetBodyHeight(100)
	state.SetLegSpread(150)
	state.SetBodyPitch(-30)

	broken := build(150)
	require.NoError(t, broken.Tick(time.Now(), 0.01, state))
	intact := build(0)
	require.NoError(t, intact.Tick(time.Now(), 0.01, state))

	brokenAngles := broken.LastAngles()
	intactAngles := intact.LastAngles()

	// The failing leg receives the fixed fallback triple.
	assert.InDelta(t, 90, brokenAngles[0].Coxa, 0.001)
	assert.InDelta(t, 70, brokenAngles[0].Femur, 0.001)
	assert.InDelta(t, 90, brokenAngles[0].Tibia, 0.001)
	assert.NotEqual(t, brokenAngles[0], intactAngles[0])

	// The other five legs are untouched by leg 0's failure.
	for leg := 1; leg < 6; leg++ {
		assert.Equal(t, intactAngles[leg], brokenAngles[leg], "leg %d", leg)
	}
}

// brokenLegSink fails every write to one leg and passes the rest
// through.
type brokenLegSink struct {
	inner servos.Sink
	leg   int
}

func (b *brokenLegSink) SetAngle(leg, joint int, angle float64) error {
	if leg == b.leg {
		return fmt.Errorf("servo dead")
	}
	return b.inner.SetAngle(leg, joint, angle)
}

func TestTickSinkFailureIsolated(t *testing.T) {
	cfg := config.New()
	engine := gait.NewEngine(cfg.GaitParams(), cfg.Geometry())
	mock := servos.NewMock(nil)
	c := New(engine, &brokenLegSink{inner: mock, leg: 2}, cfg)

	state := hexapod.NewState()
	require.NoError(t, c.Tick(time.Now(), 0.01, state))

	// The dead leg never reaches the hardware, but the frame completes
	// and the other legs are all written.
	_, ok := mock.Angle(2, servos.JointCoxa)
	assert.False(t, ok)
	for _, leg := range []int{0, 1, 3, 4, 5} {
		_, ok := mock.Angle(leg, servos.JointCoxa)
		assert.True(t, ok, "leg %d", leg)
	}
}
