package timeseries

import (
	"fmt"
	"math"
	"time"
)

// Frame is an ordered set of named columns sharing one date index.
// Column order is preserved through every pipeline stage.
type Frame struct {
	Index   []time.Time
	Columns []*Series
}

// NewFrame builds a frame from an index and named value columns.
// Every column must have one value per index entry.
func NewFrame(index []time.Time, names []string, columns [][]float64) (*Frame, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrDataShape, len(names), len(columns))
	}
	f := &Frame{Index: index}
	for i, values := range columns {
		if len(values) != len(index) {
			return nil, fmt.Errorf("%w: column %q has %d values for %d dates", ErrDataShape, names[i], len(values), len(index))
		}
		f.Columns = append(f.Columns, &Series{
			Timestamps: index,
			Values:     values,
			Name:       names[i],
		})
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Index)
}

// Names returns column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column or nil.
func (f *Frame) Column(name string) *Series {
	for _, c := range f.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Validate checks the shared index and column lengths.
func (f *Frame) Validate() error {
	if len(f.Index) == 0 {
		return fmt.Errorf("%w: empty index", ErrDataShape)
	}
	idx := &Series{Timestamps: f.Index, Values: make([]float64, len(f.Index)), Name: "index"}
	if err := idx.ValidateIndex(); err != nil {
		return err
	}
	for _, c := range f.Columns {
		if len(c.Values) != len(f.Index) {
			return fmt.Errorf("%w: column %q has %d values for %d dates", ErrDataShape, c.Name, len(c.Values), len(f.Index))
		}
	}
	return nil
}

// TradingCalendar is the subset of calendar behaviour the frame needs.
type TradingCalendar interface {
	IsTradingDay(t time.Time) bool
	Between(start, end time.Time) []time.Time
}

// Reindex aligns the frame onto every trading day between its first and last
// row. Days absent from the input become NaN; rows on non-trading days are
// dropped and counted.
func (f *Frame) Reindex(cal TradingCalendar) (*Frame, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}

	index := cal.Between(f.Index[0], f.Index[len(f.Index)-1])
	pos := make(map[string]int, len(index))
	for i, t := range index {
		pos[dayKey(t)] = i
	}

	out := &Frame{Index: index}
	for _, c := range f.Columns {
		values := make([]float64, len(index))
		for i := range values {
			values[i] = math.NaN()
		}
		out.Columns = append(out.Columns, &Series{Timestamps: index, Values: values, Name: c.Name})
	}

	dropped := 0
	for row, t := range f.Index {
		i, ok := pos[dayKey(t)]
		if !ok || !cal.IsTradingDay(t) {
			dropped++
			continue
		}
		for j, c := range f.Columns {
			out.Columns[j].Values[i] = c.Values[row]
		}
	}
	return out, dropped, nil
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
