package dataset

import (
	"math"
	"strconv"
	"strings"
)

// WorldEntity is the OWID label for the global aggregate rows.
const WorldEntity = "World"

// NormalizeCO2 keeps the World rows of an OWID frame and projects them to
// (Year, CO2_Emissions). Rows with a missing or non-numeric year or co2 are dropped.
func NormalizeCO2(f *Frame) (Table, error) {
	cols, err := f.Columns("country", "year", "co2")
	if err != nil {
		return Table{}, err
	}
	countryCol, yearCol, co2Col := cols[0], cols[1], cols[2]

	var records []Record
	for _, row := range f.Rows {
		if cell(row, countryCol) != WorldEntity {
			continue
		}
		year, ok := parseYear(cell(row, yearCol))
		if !ok {
			continue
		}
		v, ok := parseNumber(cell(row, co2Col))
		if !ok {
			continue
		}
		records = append(records, Record{Year: year, Value: v})
	}
	return newTable(CO2, CO2Field, records), nil
}

// LoadCO2 reads an OWID CSV file and normalizes it.
func LoadCO2(path string) (Table, error) {
	f, err := ReadFrameFile(path)
	if err != nil {
		return Table{}, err
	}
	return NormalizeCO2(f)
}

// parseNumber coerces a cell to float64. Empty, NaN and non-numeric cells are missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseYear accepts "2019", "2019.0" and ISO dates like "2019-03-15".
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	if len(s) >= 5 && s[4] == '-' {
		if y, err := strconv.Atoi(s[:4]); err == nil {
			return y, true
		}
	}
	return 0, false
}
