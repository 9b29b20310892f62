package chart

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/itohio/fueltable/pkg/config"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// Series colors, matching the matplotlib tab palette.
var (
	colorPitch    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorFuel     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorInternal = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorExternal = color.RGBA{R: 148, G: 103, B: 189, A: 255}
	colorGrid     = color.RGBA{R: 176, G: 176, B: 176, A: 255}
	colorMinor    = color.RGBA{R: 216, G: 216, B: 216, A: 255}
)

const legendColumns = 4

// Options controls chart rendering.
type Options struct {
	Title       string
	Width       vg.Length
	Height      vg.Length
	DPI         int
	MarkerEvery int
}

// OptionsFromConfig converts plot configuration (inches) into render options.
func OptionsFromConfig(cfg config.PlotConfig) Options {
	return Options{
		Title:       cfg.Title,
		Width:       vg.Length(cfg.Width) * vg.Inch,
		Height:      vg.Length(cfg.Height) * vg.Inch,
		DPI:         cfg.DPI,
		MarkerEvery: cfg.MarkerEvery,
	}
}

// OutputPaths returns the PNG and PDF paths for input: <base><suffix>.png/.pdf.
func OutputPaths(input, suffix string) (png, pdf string) {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + suffix + ".png", base + suffix + ".pdf"
}

type legendEntry struct {
	label string
	thumb plot.Thumbnailer
}

// Render draws the chart onto dc: pitch on the primary axis, fuel level on a
// secondary axis, temperatures on a third axis offset outward, phase markers
// on the pitch trace and a combined legend below the plot.
func Render(s *Series, opts Options, dc draw.Canvas) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Pitch (degrees)"
	p.Y.Label.TextStyle.Color = colorPitch
	p.Y.Tick.Label.Color = colorPitch

	grid := plotter.NewGrid()
	grid.Vertical.Color = colorGrid
	grid.Vertical.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	grid.Horizontal.Color = colorGrid
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	dotted := draw.LineStyle{Color: colorMinor, Width: vg.Points(0.5), Dashes: []vg.Length{vg.Points(1), vg.Points(2)}}
	p.Add(&minorGrid{Vertical: dotted, Horizontal: dotted}, grid)

	fuelAxis := newTwinAxis("Fuel Level", colorFuel, &p.Y, s.Fuel)
	tempAxis := newTwinAxis("Temperature", colorInternal, &p.Y, s.Internal, s.External)
	tempAxis.Offset = fuelAxis.Width() + vg.Points(twinPadding)

	pitch := &gapLine{xs: s.Time, ys: s.Pitch, LineStyle: draw.LineStyle{Color: colorPitch, Width: vg.Points(2)}}
	fuel := &gapLine{xs: s.Time, ys: s.Fuel, axis: fuelAxis, LineStyle: draw.LineStyle{
		Color: colorFuel, Width: vg.Points(2), Dashes: []vg.Length{vg.Points(6), vg.Points(3)},
	}}
	internal := &gapLine{xs: s.Time, ys: s.Internal, axis: tempAxis, LineStyle: draw.LineStyle{
		Color: colorInternal, Width: vg.Points(2), Dashes: []vg.Length{vg.Points(6), vg.Points(2), vg.Points(1), vg.Points(2)},
	}}
	external := &gapLine{xs: s.Time, ys: s.External, axis: tempAxis, LineStyle: draw.LineStyle{
		Color: colorExternal, Width: vg.Points(2), Dashes: []vg.Length{vg.Points(1), vg.Points(2)},
	}}
	p.Add(fuel, internal, external, pitch)

	entries := []legendEntry{{"Pitch", pitch}}
	for _, m := range Markers(s, opts.MarkerEvery) {
		sc := markerScatter(m)
		p.Add(sc)
		entries = append(entries, legendEntry{m.Phase, sc})
	}
	entries = append(entries,
		legendEntry{"Fuel Level", fuel},
		legendEntry{"Internal Temp", internal},
		legendEntry{"External Temp", external},
	)

	rows := (len(entries) + legendColumns - 1) / legendColumns
	rowHeight := p.Legend.TextStyle.Height("M") + vg.Points(4)
	band := vg.Length(rows)*rowHeight + vg.Points(36)
	right := tempAxis.Offset + tempAxis.Width() + vg.Points(6)

	pc := draw.Crop(dc, 0, -right, band, 0)
	p.Draw(pc)

	da := p.DataCanvas(pc)
	fuelAxis.Draw(dc, da)
	tempAxis.Draw(dc, da)

	legendCanvas := draw.Crop(dc, da.Min.X-dc.Min.X, da.Max.X-dc.Max.X, vg.Points(6), -(dc.Max.Y - dc.Min.Y - band + vg.Points(18)))
	drawLegend(legendCanvas, entries, rows)
}

// markerScatter builds the scatter plotter for a phase marker. Markers on a
// missing time or pitch value keep their legend entry but draw nothing.
func markerScatter(m Marker) *plotter.Scatter {
	sc := &plotter.Scatter{}
	if isFinite(m.Time) && isFinite(m.Pitch) {
		sc.XYs = plotter.XYs{{X: m.Time, Y: m.Pitch}}
	}
	sc.GlyphStyle = draw.GlyphStyle{
		Color:  m.Style.Color,
		Radius: vg.Points(5),
		Shape:  glyphFor(m.Style.Shape),
	}
	return sc
}

func glyphFor(shape string) draw.GlyphDrawer {
	switch shape {
	case ShapeSquare:
		return draw.BoxGlyph{}
	case ShapeTriangle:
		return draw.TriangleGlyph{}
	case ShapeCross:
		return draw.CrossGlyph{}
	default:
		return draw.CircleGlyph{}
	}
}

// drawLegend lays entries out in legendColumns columns filled top to bottom,
// inside a framed box.
func drawLegend(c draw.Canvas, entries []legendEntry, rows int) {
	frame := draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
	c.StrokeLines(frame, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Min.X, Y: c.Min.Y},
	})

	colWidth := (c.Max.X - c.Min.X) / legendColumns
	for col := 0; col < legendColumns; col++ {
		lo := col * rows
		if lo >= len(entries) {
			break
		}
		hi := min(lo+rows, len(entries))

		l := plot.NewLegend()
		l.Top = true
		l.Left = true
		l.XOffs = vg.Points(6)
		l.YOffs = -vg.Points(4)
		for _, e := range entries[lo:hi] {
			l.Add(e.label, e.thumb)
		}

		left := colWidth * vg.Length(col)
		right := -(colWidth * vg.Length(legendColumns-col-1))
		l.Draw(draw.Crop(c, left, right, 0, 0))
	}
}

// WritePNG renders s as a PNG image at opts.DPI.
func WritePNG(w io.Writer, s *Series, opts Options) error {
	img := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	Render(s, opts, draw.New(img))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WritePDF renders s as a PDF document.
func WritePDF(w io.Writer, s *Series, opts Options) error {
	doc := vgpdf.New(opts.Width, opts.Height)
	Render(s, opts, draw.New(doc))

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode pdf: %w", err)
	}
	return nil
}

// SaveFiles renders s next to input as PNG and PDF and returns both paths.
// Existing files are overwritten.
func SaveFiles(s *Series, opts Options, input, suffix string) (string, string, error) {
	pngPath, pdfPath := OutputPaths(input, suffix)

	if err := writeFile(pngPath, func(w io.Writer) error { return WritePNG(w, s, opts) }); err != nil {
		return "", "", err
	}
	if err := writeFile(pdfPath, func(w io.Writer) error { return WritePDF(w, s, opts) }); err != nil {
		return pngPath, "", err
	}

	return pngPath, pdfPath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
