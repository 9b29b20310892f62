package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override file values,
// e.g. FUELTABLE_SERIAL_PORT or FUELTABLE_PLOT_DPI.
const EnvPrefix = "FUELTABLE_"

// Config represents the application configuration shared by the capture,
// post-processing and plotting tools.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Capture   CaptureConfig   `yaml:"capture"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Plot      PlotConfig      `yaml:"plot"`
	Mock      MockConfig      `yaml:"mock"`
	Log       LogConfig       `yaml:"log"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	SettleDelay time.Duration `yaml:"settle_delay"` // Wait after opening before reading (board reset)
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// CaptureConfig controls where captured sessions are written.
type CaptureConfig struct {
	OutputDir string `yaml:"output_dir"`
	Prefix    string `yaml:"prefix"`
	Quiet     bool   `yaml:"quiet"` // Do not echo captured lines to stdout
}

// NormalizeConfig controls rescaling of hundredths-encoded sensor columns.
type NormalizeConfig struct {
	Divisor    int   `yaml:"divisor"`
	MinColumns int   `yaml:"min_columns"`
	Columns    []int `yaml:"columns"` // Positional indices rescaled in each data row
}

// PlotConfig contains chart rendering parameters.
type PlotConfig struct {
	Width       float64 `yaml:"width"`  // inches
	Height      float64 `yaml:"height"` // inches
	DPI         int     `yaml:"dpi"`
	MarkerEvery int     `yaml:"marker_every"`
	Suffix      string  `yaml:"suffix"`
	Title       string  `yaml:"title"`
	Show        bool    `yaml:"show"` // Open the rendered chart in a window
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	SampleRate       time.Duration `yaml:"sample_rate"`
	SensorFaultEvery int           `yaml:"sensor_fault_every"` // Emit a sentinel every N rows (0 = never)
}

// LogConfig contains logger configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:        "COM10", // Should be "/dev/ttyACM0" or similar on Linux/Mac
			BaudRate:    115200,
			SettleDelay: 2 * time.Second,
			ReadTimeout: time.Second,
		},
		Capture: CaptureConfig{
			OutputDir: ".",
			Prefix:    "test_data",
		},
		Normalize: NormalizeConfig{
			Divisor:    100,
			MinColumns: 5,
			Columns:    []int{1, 2, 3},
		},
		Plot: PlotConfig{
			Width:       14,
			Height:      8,
			DPI:         300,
			MarkerEvery: 100,
			Suffix:      "_combined_plot",
			Title:       "Pitch, Fuel Level, and Temperature vs Time",
			Show:        true,
		},
		Mock: MockConfig{
			SampleRate: 10 * time.Millisecond, // firmware streams at 100 Hz
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file and applies FUELTABLE_* environment
// overrides. If the file doesn't exist or fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// File doesn't exist, keep defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(EnvPrefix); err != nil {
		return nil, err
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv overlays environment variables onto the configuration.
// FUELTABLE_SERIAL_BAUD_RATE maps to serial.baud_rate: the first word after the
// prefix names the section, the remainder the key.
func (c *Config) applyEnv(prefix string) error {
	k := koanf.New(".")

	provider := env.Provider(prefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.Replace(s, "_", ".", 1)
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if len(k.Keys()) == 0 {
		return nil
	}

	if err := k.UnmarshalWithConf("", c, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = def.Serial.ReadTimeout
	}

	if c.Capture.OutputDir == "" {
		c.Capture.OutputDir = def.Capture.OutputDir
	}
	if c.Capture.Prefix == "" {
		c.Capture.Prefix = def.Capture.Prefix
	}

	if c.Normalize.Divisor == 0 {
		c.Normalize.Divisor = def.Normalize.Divisor
	}
	if c.Normalize.MinColumns == 0 {
		c.Normalize.MinColumns = def.Normalize.MinColumns
	}
	if len(c.Normalize.Columns) == 0 {
		c.Normalize.Columns = def.Normalize.Columns
	}

	if c.Plot.Width == 0 {
		c.Plot.Width = def.Plot.Width
	}
	if c.Plot.Height == 0 {
		c.Plot.Height = def.Plot.Height
	}
	if c.Plot.DPI == 0 {
		c.Plot.DPI = def.Plot.DPI
	}
	if c.Plot.MarkerEvery == 0 {
		c.Plot.MarkerEvery = def.Plot.MarkerEvery
	}
	if c.Plot.Suffix == "" {
		c.Plot.Suffix = def.Plot.Suffix
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
