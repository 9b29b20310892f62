package chart

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	twinTickLength = 4 // points, major ticks
	twinMinorTick  = 2 // points
	twinPadding    = 3 // points between tick, labels and title
	twinRangePad   = 0.05
)

// twinAxis is a secondary Y axis drawn on the right of the data area.
// Offset moves its spine outward from the data area's right edge.
type twinAxis struct {
	Label  string
	Color  color.Color
	Min    float64
	Max    float64
	Offset vg.Length

	tickStyle  text.Style
	labelStyle text.Style
	ticks      []plot.Tick
}

// newTwinAxis creates an axis covering the finite values of series, padded
// by 5% on both ends. Text styles are taken from the primary Y axis.
func newTwinAxis(label string, col color.Color, base *plot.Axis, series ...[]float64) *twinAxis {
	lo, hi := finiteRange(series...)
	switch {
	case math.IsInf(lo, 0) || math.IsInf(hi, 0):
		lo, hi = 0, 1
	case lo == hi:
		lo, hi = lo-1, hi+1
	default:
		pad := (hi - lo) * twinRangePad
		lo, hi = lo-pad, hi+pad
	}

	a := &twinAxis{
		Label:      label,
		Color:      col,
		Min:        lo,
		Max:        hi,
		tickStyle:  base.Tick.Label,
		labelStyle: base.Label.TextStyle,
	}

	a.tickStyle.Color = col
	a.tickStyle.XAlign = text.XLeft
	a.tickStyle.YAlign = text.YCenter
	a.tickStyle.Rotation = 0

	a.labelStyle.Color = col
	a.labelStyle.Rotation = math.Pi / 2
	a.labelStyle.XAlign = text.XCenter
	a.labelStyle.YAlign = text.YTop

	for _, tk := range (plot.DefaultTicks{}).Ticks(lo, hi) {
		if tk.Value >= lo && tk.Value <= hi {
			a.ticks = append(a.ticks, tk)
		}
	}

	return a
}

// transform maps a value on this axis to a Y coordinate of the data canvas c.
func (a *twinAxis) transform(c draw.Canvas) func(float64) vg.Length {
	span := a.Max - a.Min
	return func(v float64) vg.Length {
		return c.Y((v - a.Min) / span)
	}
}

// labelWidth is the width of the widest tick label.
func (a *twinAxis) labelWidth() vg.Length {
	var w vg.Length
	for _, tk := range a.ticks {
		if tk.IsMinor() {
			continue
		}
		w = max(w, a.tickStyle.Width(tk.Label))
	}
	return w
}

// Width is the horizontal space the axis occupies right of its spine.
func (a *twinAxis) Width() vg.Length {
	w := vg.Points(twinTickLength+2*twinPadding) + a.labelWidth()
	if a.Label != "" {
		w += a.labelStyle.Height(a.Label) + vg.Points(twinPadding)
	}
	return w
}

// Draw renders the spine, ticks, tick labels and title beside the data area da.
func (a *twinAxis) Draw(c draw.Canvas, da draw.Canvas) {
	x := da.Max.X + a.Offset
	spine := draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
	c.StrokeLine2(spine, x, da.Min.Y, x, da.Max.Y)

	tr := a.transform(da)
	for _, tk := range a.ticks {
		y := tr(tk.Value)
		length := vg.Points(twinTickLength)
		if tk.IsMinor() {
			length = vg.Points(twinMinorTick)
		}
		c.StrokeLine2(spine, x, y, x+length, y)
		if !tk.IsMinor() {
			c.FillText(a.tickStyle, vg.Point{X: x + vg.Points(twinTickLength+twinPadding), Y: y}, tk.Label)
		}
	}

	if a.Label != "" {
		lx := x + vg.Points(twinTickLength+2*twinPadding) + a.labelWidth()
		ly := (da.Min.Y + da.Max.Y) / 2
		c.FillText(a.labelStyle, vg.Point{X: lx, Y: ly}, a.Label)
	}
}
