// Sweeps each leg's coxa through a small arc, one leg at a time, to
// verify bus IDs and wiring after (re)assembly. Legs should twitch in
// order: FR, MR, RR, RL, ML, FL.
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

	move := func(leg int, angle float64) {
		dyn.Sync(func() {
			if err := dyn.SetAngle(leg, servos.JointCoxa, angle); err != nil {
				fmt.Println(err)
			}
		})
		time.Sleep(500 * time.Millisecond)
	}

	for leg := 0; leg < servos.NumLegs; leg++ {
		fmt.Printf("leg %d\n", leg)
		move(leg, 50)
		move(leg, 130)
		move(leg, 90)
	}

	dyn.Shutdown()
}
