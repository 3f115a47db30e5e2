// Cuts torque on one leg and polls its joint angles, so the leg can be
// posed by hand while reading the values back. The difference between
// a posed angle and the intended one is what goes into the config's
// servo_offsets table.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod/servos"
)

var (
	portName = flag.String("port", "/dev/ttyACM0", "the serial port path")
	leg      = flag.Int("leg", 0, "the leg index to watch")
	interval = flag.Int("interval", 1000, "the time between reads (ms)")
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

	if err := dyn.SetLegTorque(*leg, false); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	names := [3]string{"coxa", "femur", "tibia"}
	for {
		for joint, name := range names {
			a, err := dyn.Angle(*leg, joint)
			if err != nil {
				fmt.Printf("%s: %s\n", name, err)
				continue
			}
			fmt.Printf("%s=%.2f\n", name, a)
		}

		fmt.Println()
		time.Sleep(time.Duration(*interval) * time.Millisecond)
	}
}
