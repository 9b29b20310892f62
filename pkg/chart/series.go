// Package chart turns a telemetry CSV into aligned plot series and renders
// them as a pitch/fuel/temperature chart.
package chart

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/itohio/fueltable/pkg/telemetry"
)

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("input has no header row")

// Series holds parallel per-row sequences. Every slice has the same length
// and follows the row order of the source file. Missing values are NaN.
type Series struct {
	Time     []float64 // seconds
	Pitch    []float64 // degrees
	Fuel     []float64
	Internal []float64
	External []float64
	Phases   []string
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Time)
}

// Append parses one CSV row using resolved columns. Rows too short to cover
// every column, or with an unparseable time, are rejected and leave the
// series untouched. A time of "nan" or "inf" parses and is kept; such
// samples are left out of the drawn lines.
func (s *Series) Append(row []string, cols telemetry.Columns) bool {
	if len(row) <= cols.Max() {
		return false
	}

	ms, err := strconv.ParseFloat(strings.TrimSpace(row[cols.Time]), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return false
	}

	phase := telemetry.PhaseUnknown
	if cols.Phase < len(row) {
		phase = row[cols.Phase]
	}

	s.Time = append(s.Time, ms/1000.0)
	s.Pitch = append(s.Pitch, telemetry.ValueOrNaN(row[cols.Pitch], nil))
	s.Fuel = append(s.Fuel, telemetry.ValueOrNaN(row[cols.Fuel], telemetry.LevelSentinels))
	s.Internal = append(s.Internal, telemetry.ValueOrNaN(row[cols.Internal], telemetry.LevelSentinels))
	s.External = append(s.External, telemetry.ValueOrNaN(row[cols.External], telemetry.ExternalSentinels))
	s.Phases = append(s.Phases, phase)

	return true
}

// Load reads a raw or normalized telemetry CSV.
func Load(r io.Reader) (*Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := telemetry.ResolveColumns(header)
	s := &Series{}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		s.Append(row, cols)
	}

	return s, nil
}

// LoadFile reads series from a CSV file.
func LoadFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return Load(f)
}
