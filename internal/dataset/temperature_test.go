package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gistempSample = `        GLOBAL Land-Ocean Temperature Index in 0.01 degrees Celsius   base period: 1951-1980

                    sources:  GHCN-v4 1880-11/2023 + SST: ERSST v5 1880-11/2023
                    using elimination of outliers and homogeneity adjustment
                    Notes: 1950 DJF = Dec 1949 - Feb 1950 ;  ***** = missing

                                                                    AnnMean
Year   Jan  Feb  Mar  Apr  May  Jun  Jul  Aug  Sep  Oct  Nov  Dec    J-D D-N    DJF  MAM  JJA  SON  Year
1880   -19  -25  -10  -17  -10  -21  -18  -10  -14  -23  -22  -18    -17 ***   **** -12  -16  -20  1880
1881   -20  -15    3    5    6  -19    0   -3  -15  -22  -18  -7     -9  -10    -18   5   -7  -18  1881

Year   Jan  Feb  Mar  Apr  May  Jun  Jul  Aug  Sep  Oct  Nov  Dec    J-D D-N    DJF  MAM  JJA  SON  Year
2023    87   98  120  100   93  107  119  119  147  134  144  137    117  114    92  104  115  142  2023
2024   124  144  ****
`

func TestParseTemperatureGistemp(t *testing.T) {
	table, stats, err := ParseTemperature(strings.NewReader(gistempSample))
	require.NoError(t, err)

	want := []Record{
		{Year: 1880, Value: -0.17},
		{Year: 1881, Value: -0.09},
		{Year: 2023, Value: 1.17},
	}
	if diff := cmp.Diff(want, table.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Temperature, table.Metric)
	assert.Equal(t, TemperatureField, table.Field)
	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, 1, stats.Skipped)
	assert.False(t, table.HasUncertainty())
}

func TestParseTemperatureSingleLine(t *testing.T) {
	input := "Year Jan Feb Mar Apr May Jun Jul Aug Sep Oct Nov Dec J-D\n" +
		"2020  1 1 1 1 1 1 1 1 1 1 1 1 150\n"

	table, _, err := ParseTemperature(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 2020, Value: 1.50}}, table.Records)
}

func TestParseTemperatureNoHeaderTreatsAllAsData(t *testing.T) {
	input := "banner text that is not data\n" +
		"1999  1 1 1 1 1 1 1 1 1 1 1 1 42\n" +
		"2000  1 1 1 1 1 1 1 1 1 1 1 1 -8\n"

	table, stats, err := ParseTemperature(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 1999, Value: 0.42}, {Year: 2000, Value: -0.08}}, table.Records)
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParseTemperatureSkipsMalformedLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few tokens", "2001 1 2 3 4 5 6 7 8 9 10 11 12"},
		{"non-integer year", "20x1 1 1 1 1 1 1 1 1 1 1 1 1 50"},
		{"fractional year", "2001.5 1 1 1 1 1 1 1 1 1 1 1 1 50"},
		{"missing annual mean", "2001 1 1 1 1 1 1 1 1 1 1 1 1 ***"},
		{"NaN annual mean", "2001 1 1 1 1 1 1 1 1 1 1 1 1 NaN"},
		{"infinite annual mean", "2001 1 1 1 1 1 1 1 1 1 1 1 1 Inf"},
		{"signed infinite annual mean", "2001 1 1 1 1 1 1 1 1 1 1 1 1 -Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "Year\n" + tt.line + "\n2002 1 1 1 1 1 1 1 1 1 1 1 1 25\n"
			table, stats, err := ParseTemperature(strings.NewReader(input))
			require.NoError(t, err)
			assert.Equal(t, []Record{{Year: 2002, Value: 0.25}}, table.Records)
			assert.Equal(t, 1, stats.Skipped)
		})
	}
}

func TestParseTemperatureOversizedLineIsSkipped(t *testing.T) {
	input := "Year\n" +
		"2019 1 1 1 1 1 1 1 1 1 1 1 1 98\n" +
		strings.Repeat("x", 2<<20) + "\n" +
		"2020 1 1 1 1 1 1 1 1 1 1 1 1 102\n"

	table, stats, err := ParseTemperature(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 2019, Value: 0.98}, {Year: 2020, Value: 1.02}}, table.Records)
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParseTemperatureLastLineWithoutNewline(t *testing.T) {
	input := "Year\r\n2019 1 1 1 1 1 1 1 1 1 1 1 1 98\r\n2020 1 1 1 1 1 1 1 1 1 1 1 1 102"
	table, _, err := ParseTemperature(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 2019, Value: 0.98}, {Year: 2020, Value: 1.02}}, table.Records)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestParseTemperatureReadError(t *testing.T) {
	_, _, err := ParseTemperature(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading temperature table")
}

func TestParseTemperatureRepeatedHeaderLikeLinesIgnored(t *testing.T) {
	// Any line starting with "Year" after the first header is treated as a
	// repeated header: neither a record nor a skipped data line.
	input := "Year\n" +
		"2019 1 1 1 1 1 1 1 1 1 1 1 1 98\n" +
		"Yearly note: values in 0.01 degrees\n" +
		"Year   Jan  Feb  Mar  Apr  May  Jun  Jul  Aug  Sep  Oct  Nov  Dec    J-D\n" +
		"2020 1 1 1 1 1 1 1 1 1 1 1 1 102\n"

	table, stats, err := ParseTemperature(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 2019, Value: 0.98}, {Year: 2020, Value: 1.02}}, table.Records)
	assert.Equal(t, 2, stats.Lines)
	assert.Zero(t, stats.Skipped)
}

func TestParseTemperatureEveryRowValid(t *testing.T) {
	// Property: each returned value equals token[13] / 100 for lines with >= 14 tokens.
	lines := []string{
		"1950 0 0 0 0 0 0 0 0 0 0 0 0 -17 extra tokens here",
		"1951 0 0 0 0 0 0 0 0 0 0 0 0 3",
		"1952 0 0 0 0 0 0 0 0 0 0 0 0 12.5",
	}
	table, _, err := ParseTemperature(strings.NewReader("Year\n" + strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.Len(t, table.Records, 3)

	for i, line := range lines {
		fields := strings.Fields(line)
		raw := parseTemperatureLine(line)
		require.True(t, raw.ok)
		assert.GreaterOrEqual(t, len(fields), minTemperatureTokens)
		assert.Equal(t, raw.record, table.Records[i])
	}
	assert.InDelta(t, 0.125, table.Records[2].Value, 1e-12)
}

func TestParseTemperatureAllGarbageIsEmptyNotError(t *testing.T) {
	table, stats, err := ParseTemperature(strings.NewReader("Year\nnope\nstill nope\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 2, stats.Skipped)
}

func TestParseTemperatureDuplicateYearKeepsFirst(t *testing.T) {
	input := "Year\n" +
		"2010 0 0 0 0 0 0 0 0 0 0 0 0 70\n" +
		"2010 0 0 0 0 0 0 0 0 0 0 0 0 99\n"
	table, _, err := ParseTemperature(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 2010, Value: 0.70}}, table.Records)
}

func TestLoadTemperatureMissingFile(t *testing.T) {
	_, _, err := LoadTemperature(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadTemperatureFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temperature_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(gistempSample), 0o644))

	table, _, err := LoadTemperature(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}
