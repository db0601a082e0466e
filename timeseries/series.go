package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrDataShape reports an index that is not a strictly increasing sequence of dates.
var ErrDataShape = errors.New("timeseries: malformed index")

// Series represents a time series with timestamps and values.
// A NaN value marks a missing observation.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a values-only series. Timestamps stay nil; it is meant for
// fitting windows where position is all that matters.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrDataShape, len(timestamps), len(values))
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Indexed reports whether every value carries a timestamp.
func (s *Series) Indexed() bool {
	return len(s.Timestamps) == len(s.Values)
}

// Last returns the final timestamp. It panics on an unindexed or empty series.
func (s *Series) Last() time.Time {
	return s.Timestamps[len(s.Timestamps)-1]
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.Values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(s.Values)-1)
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// IsMissing reports whether the value at i is missing.
func (s *Series) IsMissing(i int) bool {
	return math.IsNaN(s.Values[i])
}

// MissingCount returns the number of missing values.
func (s *Series) MissingCount() int {
	n := 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the n-th lag difference of the series, dropping the
// leading n undefined values.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 || len(s.Values) <= n {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	result := make([]float64, len(s.Values)-n)
	for i := n; i < len(s.Values); i++ {
		result[i-n] = s.Values[i] - s.Values[i-n]
	}

	var timestamps []time.Time
	if s.Indexed() {
		timestamps = make([]time.Time, len(result))
		copy(timestamps, s.Timestamps[n:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name,
	}
}

// PctChange returns v[i]/v[i-1]-1 for i >= 1. The leading undefined value is
// dropped; entries with a zero or missing base come out NaN.
func (s *Series) PctChange() *Series {
	if len(s.Values) < 2 {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	result := make([]float64, len(s.Values)-1)
	for i := 1; i < len(s.Values); i++ {
		prev := s.Values[i-1]
		if prev == 0 || math.IsNaN(prev) {
			result[i-1] = math.NaN()
			continue
		}
		result[i-1] = s.Values[i]/prev - 1
	}

	var timestamps []time.Time
	if s.Indexed() {
		timestamps = make([]time.Time, len(result))
		copy(timestamps, s.Timestamps[1:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name,
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	var timestamps []time.Time
	if s.Indexed() {
		timestamps = make([]time.Time, len(values))
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Tail returns the last n entries.
func (s *Series) Tail(n int) *Series {
	return s.Slice(len(s.Values)-n, len(s.Values))
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	var timestamps []time.Time
	if s.Timestamps != nil {
		timestamps = make([]time.Time, len(s.Timestamps))
		copy(timestamps, s.Timestamps)
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// DropMissing returns a copy without missing observations.
func (s *Series) DropMissing() *Series {
	out := &Series{Name: s.Name, Values: make([]float64, 0, len(s.Values))}
	indexed := s.Indexed()
	if indexed {
		out.Timestamps = make([]time.Time, 0, len(s.Values))
	}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Values = append(out.Values, v)
		if indexed {
			out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		}
	}
	return out
}

// TrimLeadingMissing drops missing values before the first observation.
func (s *Series) TrimLeadingMissing() *Series {
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			return s.Slice(i, len(s.Values))
		}
	}
	return &Series{Values: []float64{}, Name: s.Name}
}

// IndexOf returns the position of t in the series index, or -1.
func (s *Series) IndexOf(t time.Time) int {
	lo, hi := 0, len(s.Timestamps)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.Timestamps[mid].Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.Timestamps) && s.Timestamps[lo].Equal(t) {
		return lo
	}
	return -1
}

// ValidateIndex checks that the series is indexed by strictly increasing,
// non-zero timestamps with at most one per calendar date.
func (s *Series) ValidateIndex() error {
	if !s.Indexed() {
		return fmt.Errorf("%w: %q has %d timestamps for %d values", ErrDataShape, s.Name, len(s.Timestamps), len(s.Values))
	}
	for i, ts := range s.Timestamps {
		if ts.IsZero() {
			return fmt.Errorf("%w: %q has zero timestamp at %d", ErrDataShape, s.Name, i)
		}
		if i > 0 && !ts.After(s.Timestamps[i-1]) {
			return fmt.Errorf("%w: %q not strictly increasing at %s", ErrDataShape, s.Name, ts.Format(time.DateOnly))
		}
		if i > 0 && dayKey(ts) == dayKey(s.Timestamps[i-1]) {
			return fmt.Errorf("%w: %q has two rows on %s", ErrDataShape, s.Name, dayKey(ts))
		}
	}
	return nil
}
