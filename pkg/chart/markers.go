package chart

import (
	"image/color"

	"github.com/itohio/fueltable/pkg/telemetry"
)

// Marker shapes.
const (
	ShapeCircle   = "o"
	ShapeSquare   = "s"
	ShapeTriangle = "^"
	ShapeCross    = "x"
)

// MarkerStyle is the glyph used for a phase.
type MarkerStyle struct {
	Shape string
	Color color.RGBA
}

var phaseStyles = map[string]MarkerStyle{
	telemetry.PhaseMovement:     {ShapeCircle, color.RGBA{R: 0, G: 0, B: 255, A: 255}},
	telemetry.PhaseStationary1:  {ShapeSquare, color.RGBA{R: 0, G: 128, B: 0, A: 255}},
	telemetry.PhaseStationary2:  {ShapeSquare, color.RGBA{R: 0, G: 100, B: 0, A: 255}},
	telemetry.PhaseReturnToZero: {ShapeTriangle, color.RGBA{R: 255, G: 165, B: 0, A: 255}},
	telemetry.PhaseComplete:     {ShapeCross, color.RGBA{R: 255, G: 0, B: 0, A: 255}},
}

// defaultStyle is used for phases outside the known vocabulary.
var defaultStyle = MarkerStyle{ShapeCircle, color.RGBA{A: 255}}

// PhaseStyle returns the marker style for a phase label.
func PhaseStyle(phase string) MarkerStyle {
	if st, ok := phaseStyles[phase]; ok {
		return st
	}
	return defaultStyle
}

// Marker annotates the pitch trace where a phase is first seen.
type Marker struct {
	Index int
	Phase string
	Time  float64
	Pitch float64
	Style MarkerStyle
}

// Markers inspects every n-th sample (0, n, 2n, ...) and returns one marker
// for the first sample of each distinct phase among them.
func Markers(s *Series, every int) []Marker {
	if every <= 0 {
		every = 1
	}

	seen := make(map[string]struct{})
	var markers []Marker

	for i := 0; i < s.Len(); i += every {
		phase := s.Phases[i]
		if _, ok := seen[phase]; ok {
			continue
		}
		seen[phase] = struct{}{}
		markers = append(markers, Marker{
			Index: i,
			Phase: phase,
			Time:  s.Time[i],
			Pitch: s.Pitch[i],
			Style: PhaseStyle(phase),
		})
	}

	return markers
}
