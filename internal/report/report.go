// Package report builds the markdown summary stored with each successful run.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/mat"

	"github.com/TobiSchelling/climatetrends/internal/analysis"
	"github.com/TobiSchelling/climatetrends/internal/chart"
	"github.com/TobiSchelling/climatetrends/internal/dataset"
)

// Input is everything a report is built from.
type Input struct {
	Temperature dataset.Table
	CO2         dataset.Table
	SeaLevel    dataset.Table
	Charts      []string
	GeneratedAt time.Time
}

type section struct {
	title string
	unit  string
	table dataset.Table
}

// Build renders the run report as markdown.
func Build(in Input) string {
	sections := []section{
		{"Global temperature anomaly", "°C", in.Temperature},
		{"CO₂ emissions (World)", "Mt", in.CO2},
		{"Sea level", "mm", in.SeaLevel},
	}

	var parts []string
	parts = append(parts, "# Climate trends report")
	if !in.GeneratedAt.IsZero() {
		parts = append(parts, fmt.Sprintf("_Generated %s_", in.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	}
	parts = append(parts, "## Summary\n\n"+summary(sections))

	for _, s := range sections {
		body := datasetBody(s)
		switch s.table.Metric {
		case dataset.CO2:
			if line := co2Average(s.table); line != "" {
				body += "\n" + line
			}
		case dataset.SeaLevel:
			if line := seaLevelTrend(s.table); line != "" {
				body += "\n" + line
			}
		}
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", s.title, body))
	}

	merged := analysis.InnerJoin(in.Temperature, in.CO2, in.SeaLevel)
	corr := analysis.CorrelationMatrix(merged)
	parts = append(parts, fmt.Sprintf("## Correlation\n\nPearson correlation over %d shared years.\n\n%s",
		merged.Len(), CorrelationTable(columnLabels(sections), corr)))

	if len(in.Charts) > 0 {
		var links []string
		for _, name := range in.Charts {
			links = append(links, fmt.Sprintf("- ![%s](/charts/%s)", name, name))
		}
		parts = append(parts, "## Charts\n\n"+strings.Join(links, "\n"))
	}

	return strings.Join(parts, "\n\n") + "\n"
}

func summary(sections []section) string {
	var bullets []string
	for _, s := range sections {
		if s.table.Len() == 0 {
			bullets = append(bullets, fmt.Sprintf("- %s: no data", s.title))
			continue
		}
		last := s.table.Records[s.table.Len()-1]
		bullets = append(bullets, fmt.Sprintf("- %s: %s %s in %d", s.title, formatValue(last.Value), s.unit, last.Year))
	}
	return strings.Join(bullets, "\n")
}

func datasetBody(s section) string {
	t := s.table
	if t.Len() == 0 {
		return "- Rows: 0"
	}
	first, last, _ := t.YearRange()
	latest := t.Records[t.Len()-1]
	return strings.Join([]string{
		fmt.Sprintf("- Rows: %d", t.Len()),
		fmt.Sprintf("- Years: %d-%d", first, last),
		fmt.Sprintf("- Latest: %s %s (%d)", formatValue(latest.Value), s.unit, latest.Year),
	}, "\n")
}

func co2Average(t dataset.Table) string {
	ma := analysis.TrailingMovingAverage(t.Values(), chart.MovingAverageWindow)
	if len(ma) == 0 || math.IsNaN(ma[len(ma)-1]) {
		return ""
	}
	return fmt.Sprintf("- %d-year average: %s Mt", chart.MovingAverageWindow, formatValue(ma[len(ma)-1]))
}

func seaLevelTrend(t dataset.Table) string {
	fit := analysis.LinearFit(t.Years(), t.Values())
	if math.IsNaN(fit.Slope) {
		return ""
	}
	return fmt.Sprintf("- Trend: %+.3f mm/year", fit.Slope)
}

func columnLabels(sections []section) []string {
	labels := make([]string, len(sections))
	for i, s := range sections {
		labels[i] = fmt.Sprintf("%s (%s)", s.table.Field, s.unit)
		if s.table.Field == "" {
			labels[i] = s.title
		}
	}
	return labels
}

// CorrelationTable renders corr as a markdown table with display-width
// aligned columns. A nil matrix renders an empty string.
func CorrelationTable(labels []string, corr *mat.SymDense) string {
	if corr == nil {
		return ""
	}
	n := corr.SymmetricDim()
	for len(labels) < n {
		labels = append(labels, "")
	}

	rows := make([][]string, 0, n+1)
	header := append([]string{""}, labels[:n]...)
	rows = append(rows, header)
	for i := 0; i < n; i++ {
		row := []string{labels[i]}
		for j := 0; j < n; j++ {
			row = append(row, formatCorr(corr.At(i, j)))
		}
		rows = append(rows, row)
	}
	return strings.Join(alignTable(rows), "\n")
}

// alignTable pads every cell to its column's display width and inserts the
// header separator.
func alignTable(rows [][]string) []string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	line := func(cells []string) string {
		var sb strings.Builder
		sb.WriteString("|")
		for i, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			sb.WriteString(" |")
		}
		return sb.String()
	}

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}

	out := []string{line(rows[0]), line(sep)}
	for _, row := range rows[1:] {
		out = append(out, line(row))
	}
	return out
}

func formatCorr(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatValue(v float64) string {
	switch {
	case math.Abs(v) >= 1000:
		return fmt.Sprintf("%.0f", v)
	case math.Abs(v) >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
