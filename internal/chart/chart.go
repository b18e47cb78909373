// Package chart renders the five climate charts as PNG files.
package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/TobiSchelling/climatetrends/internal/dataset"
)

// Output file names, written relative to the producer's directory.
const (
	TemperatureFile = "temperature_trends.png"
	CO2File         = "co2_emissions.png"
	SeaLevelFile    = "sea_levels.png"
	CorrelationFile = "correlation_matrix.png"
	CombinedFile    = "combined_trends.png"
)

var files = [...]string{TemperatureFile, CO2File, SeaLevelFile, CorrelationFile, CombinedFile}

// Files returns every chart file name in render order.
func Files() []string {
	out := files
	return out[:]
}

// IsChartFile reports whether name is one of the files Render writes.
func IsChartFile(name string) bool {
	for _, f := range files {
		if f == name {
			return true
		}
	}
	return false
}

// MovingAverageWindow is the CO2 overlay window, in years.
const MovingAverageWindow = 5

// Axis labels shared by the single and combined charts.
const (
	yearLabel        = "Year"
	temperatureLabel = "Temperature Anomaly (°C)"
	co2Label         = "CO2 Emissions (million metric tons)"
	seaLevelLabel    = "Sea Level (mm)"
)

var (
	blue     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bandBlue = color.RGBA{R: 31, G: 119, B: 180, A: 51}
	red      = color.RGBA{R: 214, G: 39, B: 40, A: 128}
	darkRed  = color.RGBA{R: 139, A: 255}
	green    = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// Set is the three normalized tables a render needs.
type Set struct {
	Temperature dataset.Table
	CO2         dataset.Table
	SeaLevel    dataset.Table
}

// Producer writes the chart PNGs into a directory.
type Producer struct {
	dir    string
	width  vg.Length
	height vg.Length
}

// NewProducer creates a producer writing into dir ("" means the working directory).
func NewProducer(dir string) *Producer {
	if dir == "" {
		dir = "."
	}
	return &Producer{dir: dir, width: 12 * vg.Inch, height: 6 * vg.Inch}
}

// Dir returns the output directory.
func (p *Producer) Dir() string { return p.dir }

// Render builds all five charts, overwriting earlier files, and returns the
// paths written.
func (p *Producer) Render(s Set) ([]string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating charts directory: %w", err)
	}

	square := p.width * 10 / 12
	singles := []struct {
		file  string
		build func() (*plot.Plot, error)
		w, h  vg.Length
	}{
		{TemperatureFile, func() (*plot.Plot, error) { return temperaturePlot(s.Temperature) }, p.width, p.height},
		{CO2File, func() (*plot.Plot, error) { return co2Plot(s.CO2) }, p.width, p.height},
		{SeaLevelFile, func() (*plot.Plot, error) { return seaLevelPlot(s.SeaLevel) }, p.width, p.height},
		{CorrelationFile, func() (*plot.Plot, error) { return correlationPlot(s) }, square, square * 8 / 10},
	}

	written := make([]string, 0, len(files))
	for _, c := range singles {
		pl, err := c.build()
		if err != nil {
			return written, fmt.Errorf("building %s: %w", c.file, err)
		}
		path := filepath.Join(p.dir, c.file)
		if err := pl.Save(c.w, c.h, path); err != nil {
			return written, fmt.Errorf("saving %s: %w", c.file, err)
		}
		written = append(written, path)
	}

	path := filepath.Join(p.dir, CombinedFile)
	if err := p.saveCombined(s, path); err != nil {
		return written, fmt.Errorf("saving %s: %w", CombinedFile, err)
	}
	return append(written, path), nil
}

func (p *Producer) saveCombined(s Set, path string) error {
	panels, err := combinedPlots(s)
	if err != nil {
		return err
	}

	img := vgimg.New(p.width, p.width)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(panels),
		Cols: 1,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}

	grid := make([][]*plot.Plot, len(panels))
	for i, pl := range panels {
		grid[i] = []*plot.Plot{pl}
	}
	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		grid[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true
	return p
}

func xys(t dataset.Table) plotter.XYs {
	pts := make(plotter.XYs, t.Len())
	for i, r := range t.Records {
		pts[i].X = float64(r.Year)
		pts[i].Y = r.Value
	}
	return pts
}
