package report

import (
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/stackreg/ensemble"
	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// forecastPlot は予測値と実測値を重ねた図を作る。
func forecastPlot(pairs []ensemble.ForecastPair, title string) (*plot.Plot, error) {
	if len(pairs) == 0 {
		return nil, errors.NewModelError("report.PlotForecast", "no forecast", errors.ErrEmptyData)
	}
	actual := make(plotter.XYs, len(pairs))
	predicted := make(plotter.XYs, len(pairs))
	for i, p := range pairs {
		actual[i].X, actual[i].Y = float64(p.Index), p.Actual
		predicted[i].X, predicted[i].Y = float64(p.Index), p.Predicted
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "held-out observation"
	p.Y.Label.Text = "target"
	p.Add(plotter.NewGrid())

	al, as, err := plotter.NewLinePoints(actual)
	if err != nil {
		return nil, errors.Wrap(err, "actual series")
	}
	al.Color = color.RGBA{B: 200, A: 255}
	as.Shape = draw.CircleGlyph{}
	as.Color = al.Color

	pl, ps, err := plotter.NewLinePoints(predicted)
	if err != nil {
		return nil, errors.Wrap(err, "predicted series")
	}
	pl.Color = color.RGBA{R: 200, A: 255}
	pl.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	ps.Shape = draw.TriangleGlyph{}
	ps.Color = pl.Color

	p.Add(al, as, pl, ps)
	p.Legend.Add("actual", al, as)
	p.Legend.Add("predicted", pl, ps)
	p.Legend.Top = true
	return p, nil
}

// WriteForecastPlot renders the forecast chart to w. format is one of the
// formats gonum/plot supports (png, svg, pdf, ...).
func WriteForecastPlot(w io.Writer, format string, pairs []ensemble.ForecastPair, title string) error {
	p, err := forecastPlot(pairs, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return errors.Wrapf(err, "unsupported plot format %q", format)
	}
	_, err = wt.WriteTo(w)
	return err
}

// PlotForecast saves the forecast chart to path; the extension selects the format.
func PlotForecast(path string, pairs []ensemble.ForecastPair, title string) error {
	p, err := forecastPlot(pairs, title)
	if err != nil {
		return err
	}
	if strings.TrimPrefix(filepath.Ext(path), ".") == "" {
		return errors.NewValidationError("path", "missing file extension", path)
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %s", path)
	}
	return nil
}
