// Command fuelplot renders pitch, fuel level and temperatures from a telemetry
// CSV into <input>_combined_plot.png and .pdf.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/itohio/fueltable/pkg/chart"
	"github.com/itohio/fueltable/pkg/config"
	"github.com/itohio/fueltable/pkg/logging"
	"github.com/itohio/fueltable/pkg/prompt"
	"github.com/itohio/fueltable/pkg/viewer"
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		noShowFlag = flag.Bool("no-show", false, "Only write the files, do not open a window")
		dpiFlag    = flag.Int("dpi", 0, "PNG resolution override")
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
	if *dpiFlag > 0 {
		cfg.Plot.DPI = *dpiFlag
	}
	if *noShowFlag {
		cfg.Plot.Show = false
	}

	log := logging.New(cfg.Log.Level, os.Stderr)

	input, err := prompt.InputFile(flag.Args(), os.Stdin, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("No input")
		os.Exit(1)
	}

	series, err := chart.LoadFile(input)
	if err != nil {
		log.Error().Err(err).Str("input", input).Msg("Error plotting data")
		os.Exit(1)
	}
	log.Debug().Int("samples", series.Len()).Msg("Series loaded")

	pngPath, pdfPath, err := chart.SaveFiles(series, chart.OptionsFromConfig(cfg.Plot), input, cfg.Plot.Suffix)
	if err != nil {
		log.Error().Err(err).Str("input", input).Msg("Error plotting data")
		os.Exit(1)
	}

	log.Info().Str("png", pngPath).Str("pdf", pdfPath).Msg("Plots saved")

	if cfg.Plot.Show {
		viewer.Show(cfg.Plot.Title, pngPath)
	}
}
