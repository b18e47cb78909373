package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/TobiSchelling/climatetrends/internal/analysis"
	"github.com/TobiSchelling/climatetrends/internal/dataset"
)

func temperaturePlot(t dataset.Table) (*plot.Plot, error) {
	p := newPlot("Global Temperature Trends Over Time", yearLabel, temperatureLabel)

	if band := uncertaintyBand(t); band != nil {
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			return nil, err
		}
		poly.Color = bandBlue
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	if t.Len() == 0 {
		return p, nil
	}
	line, points, err := plotter.NewLinePoints(xys(t))
	if err != nil {
		return nil, err
	}
	line.Color = blue
	points.Color = blue
	points.Radius = vg.Points(2)
	p.Add(line, points)
	p.Legend.Add("Temperature", line, points)
	return p, nil
}

// uncertaintyBand outlines value±uncertainty as a closed polygon, or nil when
// the table carries no band.
func uncertaintyBand(t dataset.Table) plotter.XYs {
	if !t.HasUncertainty() || t.Len() == 0 {
		return nil
	}
	n := t.Len()
	band := make(plotter.XYs, 2*n)
	for i, r := range t.Records {
		u := t.Uncertainty[i]
		band[i] = plotter.XY{X: float64(r.Year), Y: r.Value + u}
		band[2*n-1-i] = plotter.XY{X: float64(r.Year), Y: r.Value - u}
	}
	return band
}

func co2Plot(t dataset.Table) (*plot.Plot, error) {
	p := newPlot("Global CO2 Emissions Over Time", yearLabel, co2Label)
	if t.Len() == 0 {
		return p, nil
	}

	line, points, err := plotter.NewLinePoints(xys(t))
	if err != nil {
		return nil, err
	}
	line.Color = red
	points.Color = red
	points.Radius = vg.Points(2)
	p.Add(line, points)
	p.Legend.Add("Annual Emissions", line, points)

	if avg := movingAverage(t, MovingAverageWindow); len(avg) > 0 {
		l, err := plotter.NewLine(avg)
		if err != nil {
			return nil, err
		}
		l.Color = darkRed
		l.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%d-year Average", MovingAverageWindow), l)
	}
	return p, nil
}

// movingAverage returns the defined points of the trailing average; the
// leading window-1 years have no value and are left out of the line.
func movingAverage(t dataset.Table, window int) plotter.XYs {
	avg := analysis.TrailingMovingAverage(t.Values(), window)
	pts := make(plotter.XYs, 0, len(avg))
	for i, v := range avg {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(t.Records[i].Year), Y: v})
	}
	return pts
}

func seaLevelPlot(t dataset.Table) (*plot.Plot, error) {
	p := newPlot("Global Sea Level Rise", yearLabel, seaLevelLabel)
	if t.Len() == 0 {
		return p, nil
	}

	sc, err := plotter.NewScatter(xys(t))
	if err != nil {
		return nil, err
	}
	sc.Color = blue
	p.Add(sc)
	p.Legend.Add("Measured Levels", sc)

	if trend := trendLine(t); trend != nil {
		l, err := plotter.NewLine(trend)
		if err != nil {
			return nil, err
		}
		l.Color = red
		l.Width = vg.Points(2)
		l.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(l)
		p.Legend.Add("Trend Line", l)
	}
	return p, nil
}

// trendLine evaluates the least-squares fit at every year of t, or returns
// nil when no line can be fitted.
func trendLine(t dataset.Table) plotter.XYs {
	years := t.Years()
	fit := analysis.LinearFit(years, t.Values())
	if math.IsNaN(fit.Slope) {
		return nil
	}
	pts := make(plotter.XYs, len(years))
	for i, x := range years {
		pts[i] = plotter.XY{X: x, Y: fit.At(x)}
	}
	return pts
}

func correlationPlot(s Set) (*plot.Plot, error) {
	merged := analysis.InnerJoin(s.Temperature, s.CO2, s.SeaLevel)
	corr := analysis.CorrelationMatrix(merged)

	p := plot.New()
	p.Title.Text = "Correlation Between Climate Indicators"

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	grid := corrGrid{m: corr, n: len(merged.Fields)}
	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	labels, err := plotter.NewLabels(grid.annotations())
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	xTicks := make([]plot.Tick, grid.n)
	yTicks := make([]plot.Tick, grid.n)
	for i, f := range merged.Fields {
		xTicks[i] = plot.Tick{Value: float64(i), Label: f}
		yTicks[i] = plot.Tick{Value: float64(grid.n - 1 - i), Label: f}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Min, p.X.Max = -0.5, float64(grid.n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(grid.n)-0.5
	return p, nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ with matrix row 0
// drawn at the top.
type corrGrid struct {
	m *mat.SymDense
	n int
}

func (g corrGrid) Dims() (c, r int)   { return g.n, g.n }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(g.n-1-r, c) }

func (g corrGrid) annotations() plotter.XYLabels {
	var out plotter.XYLabels
	for r := 0; r < g.n; r++ {
		for c := 0; c < g.n; c++ {
			out.XYs = append(out.XYs, plotter.XY{X: g.X(c), Y: g.Y(r)})
			out.Labels = append(out.Labels, fmt.Sprintf("%.2f", g.Z(c, r)))
		}
	}
	return out
}

// combinedPlots builds one panel per metric over a common year range.
func combinedPlots(s Set) ([]*plot.Plot, error) {
	panels := []struct {
		table  dataset.Table
		label  string
		legend string
		color  color.Color
	}{
		{s.Temperature, temperatureLabel, "Temperature", blue},
		{s.CO2, co2Label, "CO2 Emissions", red},
		{s.SeaLevel, seaLevelLabel, "Sea Level", green},
	}

	lo, hi := sharedYearRange(s.Temperature, s.CO2, s.SeaLevel)

	plots := make([]*plot.Plot, len(panels))
	for i, pn := range panels {
		p := newPlot("", "", pn.label)
		if pn.table.Len() > 0 {
			l, err := plotter.NewLine(xys(pn.table))
			if err != nil {
				return nil, err
			}
			l.Color = pn.color
			p.Add(l)
			p.Legend.Add(pn.legend, l)
		}
		if hi >= lo {
			p.X.Min, p.X.Max = lo, hi
		}
		plots[i] = p
	}
	plots[0].Title.Text = "Climate Change Indicators Over Time"
	plots[len(plots)-1].X.Label.Text = yearLabel
	return plots, nil
}

// sharedYearRange returns the union of the tables' year ranges. hi < lo when
// every table is empty.
func sharedYearRange(tables ...dataset.Table) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, t := range tables {
		first, last, ok := t.YearRange()
		if !ok {
			continue
		}
		lo = math.Min(lo, float64(first))
		hi = math.Max(hi, float64(last))
	}
	return lo, hi
}
