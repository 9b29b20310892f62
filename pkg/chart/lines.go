package chart

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// gapLine is a line plotter that breaks at NaN or infinite values instead of
// rejecting them. When axis is set, Y values are mapped through that secondary axis
// rather than the plot's own Y axis.
type gapLine struct {
	xs, ys []float64
	draw.LineStyle
	axis *twinAxis
}

var (
	_ plot.Plotter     = (*gapLine)(nil)
	_ plot.DataRanger  = (*gapLine)(nil)
	_ plot.Thumbnailer = (*gapLine)(nil)
)

// Plot implements plot.Plotter.
func (l *gapLine) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	if l.axis != nil {
		trY = l.axis.transform(c)
	}

	var seg []vg.Point
	flush := func() {
		if len(seg) > 1 {
			c.StrokeLines(l.LineStyle, c.ClipLinesXY(seg)...)
		}
		seg = nil
	}

	for i := range l.xs {
		if !isFinite(l.xs[i]) || !isFinite(l.ys[i]) {
			flush()
			continue
		}
		seg = append(seg, vg.Point{X: trX(l.xs[i]), Y: trY(l.ys[i])})
	}
	flush()
}

// DataRange implements plot.DataRanger. Lines on a secondary axis only
// contribute to the X range.
func (l *gapLine) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = finiteRange(l.xs)
	if l.axis != nil {
		return xmin, xmax, math.Inf(1), math.Inf(-1)
	}
	ymin, ymax = finiteRange(l.ys)
	return xmin, xmax, ymin, ymax
}

// Thumbnail implements plot.Thumbnailer.
func (l *gapLine) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(l.LineStyle, c.Min.X, y, c.Max.X, y)
}

// finiteRange returns the min and max of the finite values, or +Inf/-Inf
// when there are none.
func finiteRange(vs ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		for _, x := range v {
			if !isFinite(x) {
				continue
			}
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
	}
	return lo, hi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// minorGrid draws lines at the unlabeled ticks of the primary axes.
// plotter.Grid only covers the labeled ones.
type minorGrid struct {
	Vertical   draw.LineStyle
	Horizontal draw.LineStyle
}

var _ plot.Plotter = (*minorGrid)(nil)

// Plot implements plot.Plotter.
func (g *minorGrid) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)

	for _, v := range minorTicks(&p.X) {
		x := trX(v)
		c.StrokeLine2(g.Vertical, x, c.Min.Y, x, c.Max.Y)
	}
	for _, v := range minorTicks(&p.Y) {
		y := trY(v)
		c.StrokeLine2(g.Horizontal, c.Min.X, y, c.Max.X, y)
	}
}

// minorTicks returns the in-range unlabeled tick values of a.
func minorTicks(a *plot.Axis) []float64 {
	var vs []float64
	for _, tk := range a.Tick.Marker.Ticks(a.Min, a.Max) {
		if !tk.IsMinor() || tk.Value < a.Min || tk.Value > a.Max {
			continue
		}
		vs = append(vs, tk.Value)
	}
	return vs
}
