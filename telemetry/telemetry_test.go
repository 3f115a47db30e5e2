package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexwalk/hexapod"
	"github.com/hexwalk/hexapod/config"
	"github.com/hexwalk/hexapod/gait"
	"github.com/hexwalk/hexapod/pose"
	"github.com/hexwalk/hexapod/sensors"
	"github.com/hexwalk/hexapod/servos"
)

type captureBroadcaster struct {
	snaps []Snapshot
}

func (c *captureBroadcaster) Broadcast(s Snapshot) {
	c.snaps = append(c.snaps, s)
}

type deadSensors struct{}

func (deadSensors) Temperature() (float64, error)    { return 0, errors.New("no sensor") }
func (deadSensors) BatteryVoltage() (float64, error) { return 0, errors.New("no sensor") }

func testReporter(r sensors.Reader, out Broadcaster, interval time.Duration) (*Reporter, *hexapod.State, *pose.Coordinator) {
	cfg := config.New()
	engine := gait.NewEngine(cfg.GaitParams(), cfg.Geometry())
	coordinator := pose.New(engine, servos.NewMock(nil), cfg)
	state := hexapod.NewState()
	return NewReporter(engine, coordinator, r, out, interval), state, coordinator
}

func TestBuildSnapshot(t *testing.T) {
	reporter, state, coordinator := testReporter(&sensors.Mock{TempC: 31, Volts: 11.4}, LogBroadcaster{}, time.Second)

	state.SetBodyHeight(80)
	state.SetHeading(15)
	require.NoError(t, coordinator.Tick(time.Now(), 0.01, state))

	snap := reporter.Build(state)
	assert.False(t, snap.Running)
	assert.Equal(t, "tripod", snap.GaitMode)
	assert.Equal(t, 80.0, snap.BodyHeight)
	assert.Equal(t, 15.0, snap.Heading)
	assert.Equal(t, 31.0, snap.TemperatureC)
	assert.Equal(t, 11.4, snap.BatteryV)
	assert.Equal(t, [6]bool{true, true, true, true, true, true}, snap.GroundContacts)

	// The angle matrix mirrors the last fan-out, heading included.
	assert.InDelta(t, 105, snap.Angles[0][0], 0.001)
}

func TestBuildSensorFailureDegrades(t *testing.T) {
	reporter, state, _ := testReporter(deadSensors{}, LogBroadcaster{}, time.Second)

	snap := reporter.Build(state)
	assert.Equal(t, 0.0, snap.TemperatureC)
	assert.Equal(t, 0.0, snap.BatteryV)
}

func TestReporterInterval(t *testing.T) {
	out := &captureBroadcaster{}
	reporter, state, _ := testReporter(&sensors.Mock{}, out, 50*time.Millisecond)

	start := time.Now()
	require.NoError(t, reporter.Tick(start, 0.01, state))
	require.NoError(t, reporter.Tick(start.Add(10*time.Millisecond), 0.01, state))
	require.NoError(t, reporter.Tick(start.Add(60*time.Millisecond), 0.01, state))

	// Only the first and the post-interval ticks broadcast.
	assert.Len(t, out.snaps, 2)
}
