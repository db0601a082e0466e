package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for loading a price table.
type CSVOptions struct {
	DateColumn string   // Column name for dates (default: first of Date/date/ds)
	Columns    []string // Value columns to load (default: every non-date, non-ID column)
	IDColumn   string   // Column name for a ticker/series ID (optional, for filtering)
	IDFilter   string   // Value to filter by ID column
	DateFormat string   // Date format (default: "2006-01-02")
	Delimiter  rune     // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateFormat: time.DateOnly,
		Delimiter:  ',',
	}
}

var dateFallbacks = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// LoadFrameCSV loads a price table from a CSV file.
func LoadFrameCSV(filename string, opts *CSVOptions) (*Frame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFrameCSVFromReader(file, opts)
}

// LoadFrameCSVFromReader loads a price table from an io.Reader. Empty, NA,
// NaN and null cells load as missing values. The resulting index must be
// strictly increasing.
func LoadFrameCSVFromReader(r io.Reader, opts *CSVOptions) (*Frame, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.Trim(h, "\""))
	}

	dateIdx, idIdx := -1, -1
	for i, h := range header {
		switch {
		case opts.DateColumn != "" && h == opts.DateColumn:
			dateIdx = i
		case opts.DateColumn == "" && dateIdx == -1 && (h == "Date" || h == "date" || h == "ds"):
			dateIdx = i
		case opts.IDColumn != "" && h == opts.IDColumn:
			idIdx = i
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("%w: no date column in header %v", ErrDataShape, header)
	}

	var names []string
	var valueIdx []int
	if len(opts.Columns) > 0 {
		for _, name := range opts.Columns {
			found := -1
			for i, h := range header {
				if h == name {
					found = i
					break
				}
			}
			if found == -1 {
				return nil, fmt.Errorf("column %q not found in header %v", name, header)
			}
			names = append(names, name)
			valueIdx = append(valueIdx, found)
		}
	} else {
		for i, h := range header {
			if i == dateIdx || i == idIdx {
				continue
			}
			names = append(names, h)
			valueIdx = append(valueIdx, i)
		}
	}

	var index []time.Time
	columns := make([][]float64, len(names))

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if opts.IDFilter != "" && idIdx >= 0 && idIdx < len(record) {
			id := strings.TrimSpace(strings.Trim(record[idIdx], "\""))
			if id != opts.IDFilter {
				continue
			}
		}

		if dateIdx >= len(record) {
			return nil, fmt.Errorf("%w: line %d has no date", ErrDataShape, line)
		}
		ts, err := parseDate(strings.TrimSpace(strings.Trim(record[dateIdx], "\"")), opts.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataShape, line, err)
		}
		index = append(index, ts)

		for j, idx := range valueIdx {
			v := math.NaN()
			if idx < len(record) {
				v = parseValue(record[idx])
			}
			columns[j] = append(columns[j], v)
		}
	}

	if len(index) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	frame, err := NewFrame(index, names, columns)
	if err != nil {
		return nil, err
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return frame, nil
}

func parseDate(s, layout string) (time.Time, error) {
	if layout != "" {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	for _, f := range dateFallbacks {
		if ts, err := time.Parse(f, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseValue(raw string) float64 {
	s := strings.TrimSpace(strings.Trim(raw, "\""))
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
