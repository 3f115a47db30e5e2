package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexwalk/hexapod"
	"github.com/hexwalk/hexapod/commands"
	"github.com/hexwalk/hexapod/config"
	"github.com/hexwalk/hexapod/gait"
	"github.com/hexwalk/hexapod/gamepad"
	"github.com/hexwalk/hexapod/pose"
	"github.com/hexwalk/hexapod/sensors"
	"github.com/hexwalk/hexapod/servos"
	"github.com/hexwalk/hexapod/telemetry"
)

var (
	configPath  = flag.String("config", "hexapod.yml", "path to the config file")
	portName    = flag.String("port", "/dev/ttyACM0", "the serial port path")
	gamepadPath = flag.String("gamepad", "", "input event device for a gamepad (empty to disable)")
	hardware    = flag.Bool("hardware", false, "drive real servos instead of the mock sink")
	debug       = flag.Bool("debug", false, "enable debug logging")
)

const (
	tickInterval      = 10 * time.Millisecond
	telemetryInterval = 50 * time.Millisecond
)

func main() {
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("error loading config: %s\n", err)
		os.Exit(1)
	}

	engine := gait.NewEngine(cfg.GaitParams(), cfg.Geometry())
	engine.SetDefinitions(cfg.Gaits())

	var sink servos.Sink
	var reader sensors.Reader = sensors.NewMock()
	var shutdown func()

	if *hardware {
		fmt.Println("Booting servos...")
		dyn, port, err := servos.Connect(*portName, cfg)
		if err != nil {
			fmt.Printf("error booting servos: %s\n", err)
			os.Exit(1)
		}
		defer port.Close()

		sink = dyn
		reader = sensors.NewSystem(dyn)
		shutdown = dyn.Shutdown
	} else {
		fmt.Println("Using mock servos...")
		sink = servos.NewMock(cfg)
	}

	h := hexapod.New()
	h.State.SetGaitMode(cfg.DefaultGait())

	handler := commands.NewHandler(h.State, engine, cfg)
	coordinator := pose.New(engine, sink, cfg)

	h.Add(coordinator)
	h.Add(telemetry.NewReporter(engine, coordinator, reader, telemetry.LogBroadcaster{}, telemetryInterval))

	if *hardware {
		if v, ok := sink.(sensors.HasVoltage); ok {
			h.Add(sensors.NewVoltageCheck(v))
		}
	}

	if *gamepadPath != "" {
		fmt.Println("Opening gamepad...")
		f, err := os.Open(*gamepadPath)
		if err != nil {
			fmt.Printf("error opening gamepad: %s\n", err)
			os.Exit(1)
		}
		defer f.Close()

		h.Add(gamepad.New(handler, f))
	}

	fmt.Println("Booting components...")
	if err := h.Boot(); err != nil {
		fmt.Printf("error while booting: %s\n", err)
		os.Exit(1)
	}

	// Catch both SIGINT (ctrl+c) and SIGTERM (kill/systemd), to give
	// the servos a chance to power down before exiting.
	done := make(chan struct{})
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("Caught signal, shutting down...")
		close(done)
	}()

	fmt.Println("Starting loop...")
	t := time.NewTicker(tickInterval)
	defer t.Stop()

	last := time.Now()
	for {
		select {
		case <-done:
			handler.EmergencyStop()
			if shutdown != nil {
				shutdown()
			}
			return
		case now := <-t.C:
			dt := now.Sub(last).Seconds()
			last = now
			h.Tick(now, dt)
		}
	}
}
