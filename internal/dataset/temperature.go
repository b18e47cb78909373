package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	headerToken = "Year"

	// A GISTEMP data row is the year, twelve months, then the J-D annual mean.
	minTemperatureTokens = 14
	annualMeanToken      = 13
	hundredths           = 100.0
)

// ParseStats counts how many data lines were seen and how many were skipped.
type ParseStats struct {
	Lines   int
	Skipped int
}

// lineResult is the outcome of classifying one data line: a record, or a skip.
type lineResult struct {
	record Record
	ok     bool
}

// ParseTemperature reads a GISTEMP-style annual table. Lines before the first
// "Year" header are preamble; when no header exists the whole input is data.
// Malformed lines are skipped, never reported.
func ParseTemperature(r io.Reader) (Table, ParseStats, error) {
	lines, err := readLines(r)
	if err != nil {
		return Table{}, ParseStats{}, err
	}

	var (
		stats   ParseStats
		records []Record
	)
	for _, line := range lines[dataStart(lines):] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, headerToken) {
			continue
		}
		stats.Lines++
		res := parseTemperatureLine(trimmed)
		if !res.ok {
			stats.Skipped++
			continue
		}
		records = append(records, res.record)
	}

	return newTable(Temperature, TemperatureField, records), stats, nil
}

// LoadTemperature opens path and parses it with ParseTemperature.
func LoadTemperature(path string) (Table, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, ParseStats{}, err
	}
	defer f.Close()
	return ParseTemperature(f)
}

// dataStart returns the index of the first line after the header row, or 0
// when there is no header.
func dataStart(lines []string) int {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), headerToken) {
			return i + 1
		}
	}
	return 0
}

func parseTemperatureLine(line string) lineResult {
	fields := strings.Fields(line)
	if len(fields) < minTemperatureTokens {
		return lineResult{}
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return lineResult{}
	}
	raw, ok := parseNumber(fields[annualMeanToken])
	if !ok {
		return lineResult{}
	}
	return lineResult{record: Record{Year: year, Value: raw / hundredths}, ok: true}
}

// readLines splits r into lines with no length limit, so one oversized line
// becomes a skipped row instead of a read error.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading temperature table: %w", err)
		}
	}
}
