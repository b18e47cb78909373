package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCO2KeepsOnlyWorld(t *testing.T) {
	f := NewFrame(
		[]string{"country", "year", "iso_code", "co2"},
		[][]string{
			{"World", "2019", "", "36000"},
			{"USA", "2019", "USA", "5000"},
		},
	)

	table, err := NormalizeCO2(f)
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 2019, Value: 36000}}, table.Records)
	assert.Equal(t, CO2Field, table.Field)
	assert.Equal(t, "CO2_Emissions", table.Field)
}

func TestNormalizeCO2DropsMissingValues(t *testing.T) {
	f := NewFrame(
		[]string{"country", "year", "co2"},
		[][]string{
			{"World", "1750", ""},
			{"World", "", "9.3"},
			{"World", "1751", "9.35"},
			{"World", "1752", "n/a"},
			{"world", "1753", "9.5"},
			{"World", "1754"},
		},
	)

	table, err := NormalizeCO2(f)
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 1751, Value: 9.35}}, table.Records)
}

func TestNormalizeCO2MissingColumn(t *testing.T) {
	for _, missing := range []string{"country", "year", "co2"} {
		t.Run(missing, func(t *testing.T) {
			var header []string
			for _, h := range []string{"country", "year", "co2"} {
				if h != missing {
					header = append(header, h)
				}
			}
			_, err := NormalizeCO2(NewFrame(header, nil))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingColumn)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadCO2FromFile(t *testing.T) {
	csv := "\ufeffcountry,year,iso_code,population,co2\n" +
		"Afghanistan,2019,AFG,1,10.1\n" +
		"World,2018,,7,35500.5\n" +
		"World,2019,,7,36000\n"
	path := filepath.Join(t.TempDir(), "co2_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	table, err := LoadCO2(path)
	require.NoError(t, err)
	assert.Equal(t, []Record{{Year: 2018, Value: 35500.5}, {Year: 2019, Value: 36000}}, table.Records)
}

func TestLoadCO2MissingFile(t *testing.T) {
	_, err := LoadCO2(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCO2MalformedCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "co2_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("country,year,co2\n\"World,2019,1\n"), 0o644))

	_, err := LoadCO2(path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "reading csv"))
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2019", 2019, true},
		{" 2019 ", 2019, true},
		{"2019.0", 2019, true},
		{"1880-03-15", 1880, true},
		{"2019.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseYear(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
