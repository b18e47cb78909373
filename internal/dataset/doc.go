// Package dataset turns the three raw climate downloads into normalized
// per-year tables.
//
// # Sources
//
// Temperature comes from the NASA GISTEMP v4 global land-ocean text table
// (GLB.Ts+dSST.txt). The file opens with banner lines, then repeats a header
// row beginning with "Year" every twenty or so data rows. Each data row holds
// the year, twelve monthly anomalies, and the annual J-D mean, all in
// hundredths of a degree Celsius. Missing months are written as "***", so
// rows for the current year usually fail to parse and are skipped.
//
// CO2 comes from the Our World in Data co2-data CSV. It carries one row per
// (country, year); the aggregate row for the whole planet uses the country
// label "World". Early years have an empty co2 cell.
//
// Sea level comes from the EPA sea level CSV mirrored by datasets/sea-level-rise.
// Its value column is named "CSIRO Adjusted Sea Level" (inches in the EPA
// data, though the charts label it mm), and the Year column is written as an
// ISO date such as "1880-03-15".
//
// # Normalized form
//
// Every normalizer returns a [Table]: an ordered list of [Record] values with
// unique years, in source order. Temperature parsing is lenient line by line;
// the CSV normalizers fail only when the file is unreadable or a required
// column is missing.
package dataset
