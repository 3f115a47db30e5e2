// Powers off every servo on the bus. Useful after a crash left the
// robot standing with torque still applied.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod/servos"
)

var (
	portName = flag.String("port", "/dev/ttyACM0", "the serial port path")
	debug    = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	dyn, port, err := servos.Connect(*portName, nil)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer port.Close()

	dyn.Shutdown()
}
