// Package sensors reads the temperature and battery telemetry that
// rides along in every snapshot.
package sensors

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Reader provides the two values telemetry carries.
type Reader interface {
	Temperature() (float64, error)
	BatteryVoltage() (float64, error)
}

// HasVoltage is anything that can report a supply voltage; the
// dynamixel sink implements it via an arbitrary servo on the bus.
type HasVoltage interface {
	Voltage() (float64, error)
}

// Mock returns fixed readings, for development without hardware.
type Mock struct {
	TempC float64
	Volts float64
}

func NewMock() *Mock {
	return &Mock{TempC: 25.0, Volts: 12.0}
}

func (m *Mock) Temperature() (float64, error) {
	return m.TempC, nil
}

func (m *Mock) BatteryVoltage() (float64, error) {
	return m.Volts, nil
}

// System reads the SoC temperature from the kernel thermal zone and
// the battery voltage from the servo bus.
type System struct {
	ThermalPath string
	Volts       HasVoltage
}

func NewSystem(volts HasVoltage) *System {
	return &System{
		ThermalPath: "/sys/class/thermal/thermal_zone0/temp",
		Volts:       volts,
	}
}

func (s *System) Temperature() (float64, error) {
	data, err := os.ReadFile(s.ThermalPath)
	if err != nil {
		return 0, errors.Wrap(err, "reading thermal zone")
	}

	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "parsing thermal zone")
	}

	return float64(milli) / 1000.0, nil
}

func (s *System) BatteryVoltage() (float64, error) {
	return s.Volts.Voltage()
}
