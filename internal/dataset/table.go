package dataset

import (
	"errors"
	"fmt"
)

// Metric identifies one of the three climate indicators.
type Metric string

const (
	Temperature Metric = "temperature"
	CO2         Metric = "co2"
	SeaLevel    Metric = "sea_level"
)

// Field names of the normalized tables.
const (
	YearField        = "Year"
	TemperatureField = "Temperature"
	CO2Field         = "CO2_Emissions"
	SeaLevelField    = "Sea_Level"
)

// ErrMissingColumn is returned when a tabular source lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Record is one (year, value) pair.
type Record struct {
	Year  int
	Value float64
}

// Table is a normalized per-year series for a single metric.
type Table struct {
	Metric  Metric
	Field   string
	Records []Record

	// Uncertainty optionally holds a ± band parallel to Records.
	Uncertainty []float64
}

// newTable builds a Table, dropping records whose year was already seen.
func newTable(metric Metric, field string, records []Record) Table {
	seen := make(map[int]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.Year]; dup {
			continue
		}
		seen[r.Year] = struct{}{}
		out = append(out, r)
	}
	return Table{Metric: metric, Field: field, Records: out}
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// Years returns the years as float64, ready for plotting or regression.
func (t Table) Years() []float64 {
	xs := make([]float64, len(t.Records))
	for i, r := range t.Records {
		xs[i] = float64(r.Year)
	}
	return xs
}

// Values returns the metric values in record order.
func (t Table) Values() []float64 {
	ys := make([]float64, len(t.Records))
	for i, r := range t.Records {
		ys[i] = r.Value
	}
	return ys
}

// HasUncertainty reports whether a usable uncertainty band is attached.
func (t Table) HasUncertainty() bool {
	return len(t.Uncertainty) > 0 && len(t.Uncertainty) == len(t.Records)
}

// YearRange returns the smallest and largest year. ok is false for an empty table.
func (t Table) YearRange() (first, last int, ok bool) {
	if len(t.Records) == 0 {
		return 0, 0, false
	}
	first, last = t.Records[0].Year, t.Records[0].Year
	for _, r := range t.Records[1:] {
		if r.Year < first {
			first = r.Year
		}
		if r.Year > last {
			last = r.Year
		}
	}
	return first, last, true
}

// Lookup returns the value for a year.
func (t Table) Lookup(year int) (float64, bool) {
	for _, r := range t.Records {
		if r.Year == year {
			return r.Value, true
		}
	}
	return 0, false
}

func missingColumn(name string) error {
	return fmt.Errorf("%w %q", ErrMissingColumn, name)
}
