// Package telemetry describes the CSV record emitted by the fuel table firmware:
// column names, positional fallbacks, sentinel strings and phase labels.
package telemetry

import (
	"math"
	"strconv"
	"strings"
)

// Canonical column names of the header row.
const (
	ColTimeMS       = "TimeMS"
	ColFuelLevel    = "FuelLevel"
	ColInternalTemp = "InternalTemp"
	ColExternalTemp = "ExternalTemp"
	ColPitch        = "Pitch"
	ColPhase        = "Phase"
	ColDirection    = "MovementDirection"
)

// Header is the header row written by the firmware.
var Header = []string{
	ColTimeMS, ColFuelLevel, ColInternalTemp, ColExternalTemp, ColPitch, ColPhase, ColDirection,
}

// Sentinel strings reported in place of a measurement.
const (
	NoData       = "No Data"
	Disabled     = "Disabled"
	OpenCircuit  = "Open Circuit"
	ShortCircuit = "Short Circuit"
)

// Phase labels of the test sequence.
const (
	PhaseMovement     = "Movement"
	PhaseStationary1  = "Stationary1"
	PhaseStationary2  = "Stationary2"
	PhaseReturnToZero = "ReturnToZero"
	PhaseComplete     = "Complete"
	PhaseUnknown      = "Unknown"
)

// SentinelSet is a set of reserved strings that mean "sensor unavailable".
type SentinelSet map[string]struct{}

// NewSentinelSet builds a set from the given strings.
func NewSentinelSet(values ...string) SentinelSet {
	s := make(SentinelSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether text is a sentinel.
func (s SentinelSet) Contains(text string) bool {
	_, ok := s[text]
	return ok
}

var (
	// LevelSentinels apply to FuelLevel and InternalTemp.
	LevelSentinels = NewSentinelSet(NoData)
	// ExternalSentinels apply to ExternalTemp (thermocouple faults).
	ExternalSentinels = NewSentinelSet(NoData, Disabled, OpenCircuit, ShortCircuit)
)

// ParseNumeric parses text as a float. It returns false when text is a
// sentinel, is not a number, or parses to NaN.
func ParseNumeric(text string, sentinels SentinelSet) (float64, bool) {
	if sentinels.Contains(text) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ValueOrNaN is ParseNumeric with NaN as the missing-value marker.
func ValueOrNaN(text string, sentinels SentinelSet) float64 {
	if v, ok := ParseNumeric(text, sentinels); ok {
		return v
	}
	return math.NaN()
}

// IsUnsignedInteger reports whether text is a non-empty string of ASCII digits.
// Signs, decimal points and whitespace are rejected.
func IsUnsignedInteger(text string) bool {
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}
