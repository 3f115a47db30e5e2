package servos

import (
	"io"

	"github.com/adammck/dynamixel/network"
	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"

	"github.com/hexwalk/hexapod/config"
)

// Connect opens the serial port the servo bus hangs off and boots all
// eighteen servos. The returned closer is the port; close it after
// Shutdown. cfg may be nil to skip calibration offsets.
func Connect(portName string, cfg *config.Config) (*Dynamixel, io.Closer, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              portName,
		BaudRate:              1000000,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", portName)
	}

	n := network.New(port)
	n.Flush()

	d, err := NewDynamixel(n, cfg)
	if err != nil {
		port.Close()
		return nil, nil, err
	}

	return d, port, nil
}
