// Command fuelprocess rescales the fuel level and temperature columns of a
// captured telemetry CSV and writes a timestamped processed copy.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/itohio/fueltable/pkg/config"
	"github.com/itohio/fueltable/pkg/logging"
	"github.com/itohio/fueltable/pkg/normalize"
	"github.com/itohio/fueltable/pkg/prompt"
)

func main() {
	var (
		configFlag  = flag.String("config", "config.yaml", "Configuration file path")
		divisorFlag = flag.Int("divisor", 0, "Divisor override for encoded columns")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [input.csv]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *divisorFlag > 0 {
		cfg.Normalize.Divisor = *divisorFlag
	}

	log := logging.New(cfg.Log.Level, os.Stderr)

	input, err := prompt.InputFile(flag.Args(), os.Stdin, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("No input")
		os.Exit(1)
	}

	output, stats, err := normalize.New(cfg.Normalize).File(input, time.Now())
	if err != nil {
		log.Error().Err(err).Str("input", input).Msg("Error processing file")
		os.Exit(1)
	}

	log.Info().
		Int("rows", stats.Rows).
		Int("rescaled", stats.Rescaled).
		Str("output", output).
		Msg("Processing complete")
}
