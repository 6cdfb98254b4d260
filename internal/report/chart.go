package report

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/inf-covid19/prederr/internal/backtest"
	"github.com/inf-covid19/prederr/internal/series"
)

// RenderChart draws the percentage error of each day to an image file.
// The format follows the extension of path (.png, .svg, .pdf).
// Days with an undefined error are left out.
func RenderChart(path, title string, records []backtest.ErrorRecord) error {
	pts, dated := errorPoints(records)
	if len(pts) == 0 {
		return fmt.Errorf("no defined error values to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "prediction error (%)"
	if dated {
		p.X.Label.Text = "date"
		p.X.Tick.Marker = plot.TimeTicks{Format: series.DateLayout}
	} else {
		p.X.Label.Text = "day"
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 20, G: 80, B: 200, A: 255}
	line.Width = vg.Points(1.2)
	points.GlyphStyle.Color = line.Color
	points.GlyphStyle.Radius = vg.Points(1.8)
	p.Add(line, points)

	// Zero error reference
	zero, err := plotter.NewLine(plotter.XYs{{X: pts[0].X, Y: 0}, {X: pts[len(pts)-1].X, Y: 0}})
	if err != nil {
		return err
	}
	zero.Color = color.RGBA{R: 120, G: 120, B: 120, A: 180}
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(zero, plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

// errorPoints maps records to (x, error%) points. X is the unix time of the
// date when every date is ISO formatted, the record position otherwise.
func errorPoints(records []backtest.ErrorRecord) (plotter.XYs, bool) {
	dated := true
	times := make([]float64, len(records))
	for i, r := range records {
		t, err := time.Parse(series.DateLayout, r.X)
		if err != nil {
			dated = false
			break
		}
		times[i] = float64(t.Unix())
	}

	pts := make(plotter.XYs, 0, len(records))
	for i, r := range records {
		pct, ok := r.ErrorPct()
		if !ok {
			continue
		}
		x := float64(i)
		if dated {
			x = times[i]
		}
		pts = append(pts, plotter.XY{X: x, Y: pct})
	}
	return pts, dated
}
