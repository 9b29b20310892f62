// Command fuelcapture records fuel table telemetry from a serial port into a
// timestamped CSV file until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/fueltable/pkg/capture"
	"github.com/itohio/fueltable/pkg/config"
	"github.com/itohio/fueltable/pkg/device"
	"github.com/itohio/fueltable/pkg/logging"
	"github.com/rs/zerolog"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM10 or /dev/ttyACM0)")
		baudFlag   = flag.Int("b", 0, "Baud rate override")
		outFlag    = flag.String("o", "", "Output directory override")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		listFlag   = flag.Bool("list", false, "List available serial ports and exit")
		quietFlag  = flag.Bool("quiet", false, "Do not echo captured lines")
		saveFlag   = flag.String("write-config", "", "Write the effective configuration to this file and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *baudFlag > 0 {
		cfg.Serial.BaudRate = *baudFlag
	}
	if *outFlag != "" {
		cfg.Capture.OutputDir = *outFlag
	}
	if *quietFlag {
		cfg.Capture.Quiet = true
	}

	log := logging.New(cfg.Log.Level, os.Stderr)

	if *saveFlag != "" {
		if err := cfg.Save(*saveFlag); err != nil {
			log.Fatal().Err(err).Msg("Failed to save configuration")
		}
		log.Info().Str("path", *saveFlag).Msg("Configuration written")
		return
	}

	if *listFlag {
		listPorts(log)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dev device.Device
	if *mockFlag {
		dev = device.NewMock(cfg.Mock)
	} else {
		dev = device.NewSerial(cfg.Serial, 0, log)
	}

	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop")

	res, err := capture.New(cfg.Capture, os.Stdout, log).Run(ctx, dev)
	if err != nil {
		log.Error().Err(err).Str("path", res.Path).Msg("Capture failed")
		stop()
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Data saved to %s\n", res.Path)
}

func listPorts(log zerolog.Logger) {
	ports, err := device.Ports()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list ports")
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p.Description)
	}
}
