package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Frame is a CSV dataset held in memory as strings.
type Frame struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewFrame builds a frame from a header and rows.
func NewFrame(header []string, rows [][]string) *Frame {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return &Frame{Header: header, Rows: rows, index: idx}
}

// ReadFrame parses CSV from r. The first record is the header.
func ReadFrame(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return NewFrame(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return NewFrame(header, rows), nil
}

// ReadFrameFile opens path and parses it as CSV.
func ReadFrameFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFrame(f)
}

// Column returns the index of an exact, case-sensitive column name.
func (f *Frame) Column(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

// Columns resolves several column names at once, failing on the first absent one.
func (f *Frame) Columns(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, ok := f.Column(n)
		if !ok {
			return nil, missingColumn(n)
		}
		out[i] = idx
	}
	return out, nil
}

// cell returns row[i], or "" when the row is short.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
