// Package analysis holds the numeric steps that feed the charts: moving
// averages, a least-squares trend, the inner join on year, and the Pearson
// correlation matrix.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/TobiSchelling/climatetrends/internal/dataset"
)

// TrailingMovingAverage returns, for each i, the mean of values[i-window+1..i].
// The first window-1 entries are NaN.
func TrailingMovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// Line is y = Intercept + Slope*x.
type Line struct {
	Intercept float64
	Slope     float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// LinearFit fits a first-degree least-squares line through (xs, ys).
// With fewer than two distinct x values the slope is NaN.
func LinearFit(xs, ys []float64) Line {
	if len(xs) < 2 || len(xs) != len(ys) || floats.Min(xs) == floats.Max(xs) {
		return Line{Intercept: math.NaN(), Slope: math.NaN()}
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Line{Intercept: alpha, Slope: beta}
}

// Merged is the inner join of several tables on Year.
type Merged struct {
	Years  []int
	Fields []string
	// Columns[j][i] is the value of Fields[j] in Years[i].
	Columns [][]float64
}

// Len returns the number of joined years.
func (m Merged) Len() int { return len(m.Years) }

// InnerJoin keeps the years present in every table, in ascending order.
func InnerJoin(tables ...dataset.Table) Merged {
	m := Merged{Fields: make([]string, len(tables)), Columns: make([][]float64, len(tables))}
	for j, t := range tables {
		m.Fields[j] = t.Field
	}
	if len(tables) == 0 {
		return m
	}

	lookups := make([]map[int]float64, len(tables))
	for j, t := range tables {
		lookups[j] = make(map[int]float64, t.Len())
		for _, r := range t.Records {
			lookups[j][r.Year] = r.Value
		}
	}

	for year := range lookups[0] {
		inAll := true
		for _, l := range lookups[1:] {
			if _, ok := l[year]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			m.Years = append(m.Years, year)
		}
	}
	sort.Ints(m.Years)

	for j, l := range lookups {
		col := make([]float64, len(m.Years))
		for i, y := range m.Years {
			col[i] = l[y]
		}
		m.Columns[j] = col
	}
	return m
}

// CorrelationMatrix returns the Pearson correlation between every pair of
// merged columns. Fewer than two joined years yields an all-NaN matrix, and a
// merge with no columns yields nil.
func CorrelationMatrix(m Merged) *mat.SymDense {
	n := len(m.Columns)
	if n == 0 {
		return nil
	}
	corr := mat.NewSymDense(n, nil)
	if m.Len() < 2 {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				corr.SetSym(i, j, math.NaN())
			}
		}
		return corr
	}

	x := mat.NewDense(m.Len(), n, nil)
	for j, col := range m.Columns {
		x.SetCol(j, col)
	}
	stat.CorrelationMatrix(corr, x, nil)
	return corr
}
