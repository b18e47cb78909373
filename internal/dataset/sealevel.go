package dataset

// SeaLevelColumn is the EPA column holding the raw sea-level measurement.
const SeaLevelColumn = "CSIRO Adjusted Sea Level"

// NormalizeSeaLevel coerces the sea-level column to numbers, drops rows where
// that fails, and projects to (Year, Sea_Level).
func NormalizeSeaLevel(f *Frame) (Table, error) {
	cols, err := f.Columns(YearField, SeaLevelColumn)
	if err != nil {
		return Table{}, err
	}
	yearCol, valueCol := cols[0], cols[1]

	var records []Record
	for _, row := range f.Rows {
		v, ok := parseNumber(cell(row, valueCol))
		if !ok {
			continue
		}
		year, ok := parseYear(cell(row, yearCol))
		if !ok {
			continue
		}
		records = append(records, Record{Year: year, Value: v})
	}
	return newTable(SeaLevel, SeaLevelField, records), nil
}

// LoadSeaLevel reads the EPA CSV file and normalizes it.
func LoadSeaLevel(path string) (Table, error) {
	f, err := ReadFrameFile(path)
	if err != nil {
		return Table{}, err
	}
	return NormalizeSeaLevel(f)
}
