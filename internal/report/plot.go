// Package report renders scatter plots of repository activity against
// popularity from an assembled table.
package report

import (
	"fmt"
	"image/color"
	"os"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/mcp-community/registry-stats/internal/dataset"
)

var (
	colorScatter = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorLog     = color.RGBA{R: 214, G: 96, B: 36, A: 255}
	colorStars   = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	colorDays    = color.RGBA{R: 255, G: 127, B: 80, A: 255}
)

// Summary describes the plotted sample.
type Summary struct {
	Count       int
	MeanStars   float64
	MedianStars float64
	MeanDays    float64
}

// ScatterPlot renders days-since-commit against stars as a PNG at path
// and returns summary statistics for the plotted rows. Rows without stats
// are dropped first; an empty result is an error. With logScale set, the
// y-axis is logarithmic and zero-star rows are omitted (a log axis cannot
// place them).
func ScatterPlot(t *dataset.Table, path, title string, logScale bool) (*Summary, error) {
	valid := t.Filter()
	if valid.Len() == 0 {
		return nil, fmt.Errorf("no valid data points to plot")
	}
	xys, starVals, dayVals := points(valid)
	sum, err := summarize(valid.Len(), starVals, dayVals)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Days Since Most Recent Commit"
	p.Y.Label.Text = "GitHub Stars"
	p.Add(plotter.NewGrid())

	data := xys
	if logScale {
		data = positiveY(xys)
		if len(data) == 0 {
			return nil, fmt.Errorf("no rows with a positive star count for the log scale plot")
		}
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Y.Label.Text = "GitHub Stars (log scale)"
	}
	s, err := newScatter(data, colorScatter)
	if err != nil {
		return nil, fmt.Errorf("failed to build scatter plot: %w", err)
	}
	p.Add(s)

	if err := p.Save(12*vg.Inch, 8*vg.Inch, path); err != nil {
		return nil, fmt.Errorf("failed to save plot to %s: %w", path, err)
	}
	return sum, nil
}

// EnhancedPlot renders a 2x2 PNG grid at path: linear scatter, log-scale
// scatter, star-count histogram, and days-since-commit histogram.
func EnhancedPlot(t *dataset.Table, path, title string) error {
	valid := t.Filter()
	if valid.Len() == 0 {
		return fmt.Errorf("no valid data points to plot")
	}
	xys, starVals, dayVals := points(valid)

	linear := plot.New()
	linear.Title.Text = "Linear Scale"
	linear.X.Label.Text = "Days Since Commit"
	linear.Y.Label.Text = "Stars"
	linear.Add(plotter.NewGrid())
	s1, err := newScatter(xys, colorScatter)
	if err != nil {
		return fmt.Errorf("failed to build linear scatter: %w", err)
	}
	linear.Add(s1)

	logp := plot.New()
	logp.Title.Text = "Log Scale"
	logp.X.Label.Text = "Days Since Commit"
	logp.Y.Label.Text = "Stars (log scale)"
	logp.Add(plotter.NewGrid())
	logData := positiveY(xys)
	if len(logData) > 0 {
		logp.Y.Scale = plot.LogScale{}
		logp.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	} else {
		// Every repository has zero stars; fall back to a linear panel
		// rather than an unplottable log axis.
		logData = xys
	}
	s2, err := newScatter(logData, colorLog)
	if err != nil {
		return fmt.Errorf("failed to build log scatter: %w", err)
	}
	logp.Add(s2)

	starHist, err := histogram("Star Distribution", "Stars", starVals, colorStars)
	if err != nil {
		return err
	}
	dayHist, err := histogram("Activity Distribution", "Days Since Commit", dayVals, colorDays)
	if err != nil {
		return err
	}

	img := vgimg.New(14*vg.Inch, 10*vg.Inch)
	tiles := draw.Tiles{
		Rows: 2, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 4, PadBottom: vg.Millimeter * 4,
		PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4,
	}
	panels := [][]*plot.Plot{
		{linear, logp},
		{starHist, dayHist},
	}
	canvases := plot.Align(panels, tiles, draw.New(img))
	for r := range panels {
		for c := range panels[r] {
			panels[r][c].Draw(canvases[r][c])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file %s: %w", path, err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write plot to %s: %w", path, err)
	}
	return nil
}

func points(t *dataset.Table) (plotter.XYs, []float64, []float64) {
	xys := make(plotter.XYs, 0, t.Len())
	starVals := make([]float64, 0, t.Len())
	dayVals := make([]float64, 0, t.Len())
	for _, r := range t.Records {
		stars := float64(*r.Stars)
		days := *r.DaysSinceCommit
		xys = append(xys, plotter.XY{X: days, Y: stars})
		starVals = append(starVals, stars)
		dayVals = append(dayVals, days)
	}
	return xys, starVals, dayVals
}

func positiveY(xys plotter.XYs) plotter.XYs {
	out := make(plotter.XYs, 0, len(xys))
	for _, xy := range xys {
		if xy.Y > 0 {
			out = append(out, xy)
		}
	}
	return out
}

func newScatter(xys plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2.5)
	s.GlyphStyle.Color = c
	return s, nil
}

func histogram(title, xLabel string, vals []float64, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Count"

	bins := 50
	if len(vals) < bins {
		bins = len(vals)
	}
	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s histogram: %w", xLabel, err)
	}
	h.FillColor = c
	p.Add(h)
	return p, nil
}

func summarize(count int, starVals, dayVals []float64) (*Summary, error) {
	meanStars, err := stats.Mean(starVals)
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean stars: %w", err)
	}
	medianStars, err := stats.Median(starVals)
	if err != nil {
		return nil, fmt.Errorf("failed to compute median stars: %w", err)
	}
	meanDays, err := stats.Mean(dayVals)
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean days: %w", err)
	}
	return &Summary{
		Count:       count,
		MeanStars:   meanStars,
		MedianStars: medianStars,
		MeanDays:    meanDays,
	}, nil
}
