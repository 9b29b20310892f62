package chart

import (
	"image/color"
	"testing"

	"github.com/itohio/fueltable/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesWithPhases(phases ...string) *Series {
	s := &Series{}
	for i, ph := range phases {
		s.Time = append(s.Time, float64(i))
		s.Pitch = append(s.Pitch, float64(i)/10)
		s.Fuel = append(s.Fuel, 0)
		s.Internal = append(s.Internal, 0)
		s.External = append(s.External, 0)
		s.Phases = append(s.Phases, ph)
	}
	return s
}

func repeat(phase string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = phase
	}
	return out
}

func TestMarkers_FirstOccurrenceOnly(t *testing.T) {
	s := seriesWithPhases(telemetry.PhaseMovement, telemetry.PhaseMovement)

	markers := Markers(s, 100)
	require.Len(t, markers, 1)
	assert.Equal(t, 0, markers[0].Index)
	assert.Equal(t, telemetry.PhaseMovement, markers[0].Phase)
}

func TestMarkers_Decimation(t *testing.T) {
	var phases []string
	phases = append(phases, repeat(telemetry.PhaseMovement, 100)...)
	phases = append(phases, repeat(telemetry.PhaseStationary1, 50)...)
	// A phase that only exists between decimated samples is never marked
	phases = append(phases, repeat("AdjustingToPos5", 40)...)
	phases = append(phases, repeat(telemetry.PhaseStationary1, 10)...)
	phases = append(phases, repeat(telemetry.PhaseMovement, 100)...)
	phases = append(phases, repeat(telemetry.PhaseComplete, 1)...)

	markers := Markers(seriesWithPhases(phases...), 100)

	var got []string
	var idx []int
	for _, m := range markers {
		got = append(got, m.Phase)
		idx = append(idx, m.Index)
	}
	assert.Equal(t, []string{telemetry.PhaseMovement, telemetry.PhaseStationary1, telemetry.PhaseComplete}, got)
	assert.Equal(t, []int{0, 100, 300}, idx)
	assert.Equal(t, 30.0, markers[2].Pitch)
	assert.Equal(t, 300.0, markers[2].Time)
}

func TestMarkers_ZeroEvery(t *testing.T) {
	s := seriesWithPhases("a", "b", "a")
	markers := Markers(s, 0)
	require.Len(t, markers, 2)
	assert.Equal(t, 1, markers[1].Index)
}

func TestMarkers_Empty(t *testing.T) {
	assert.Empty(t, Markers(&Series{}, 100))
}

func TestPhaseStyle(t *testing.T) {
	tests := []struct {
		phase string
		shape string
		color color.RGBA
	}{
		{telemetry.PhaseMovement, ShapeCircle, color.RGBA{B: 255, A: 255}},
		{telemetry.PhaseStationary1, ShapeSquare, color.RGBA{G: 128, A: 255}},
		{telemetry.PhaseStationary2, ShapeSquare, color.RGBA{G: 100, A: 255}},
		{telemetry.PhaseReturnToZero, ShapeTriangle, color.RGBA{R: 255, G: 165, A: 255}},
		{telemetry.PhaseComplete, ShapeCross, color.RGBA{R: 255, A: 255}},
		{"Stationary3", ShapeCircle, color.RGBA{A: 255}},
		{telemetry.PhaseUnknown, ShapeCircle, color.RGBA{A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			st := PhaseStyle(tt.phase)
			assert.Equal(t, tt.shape, st.Shape)
			assert.Equal(t, tt.color, st.Color)
		})
	}
}
