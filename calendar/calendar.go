package calendar

import (
	"fmt"
	"sort"
	"time"
)

type day struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time) day {
	y, m, d := t.Date()
	return day{y, m, d}
}

// Calendar decides which dates are valid trading days.
type Calendar struct {
	weekend  [7]bool
	holidays map[day]struct{}
}

// Option configures a Calendar at construction.
type Option func(*Calendar)

// WithWeekend replaces the default Saturday/Sunday weekend.
func WithWeekend(days ...time.Weekday) Option {
	return func(c *Calendar) {
		c.weekend = [7]bool{}
		for _, d := range days {
			c.weekend[d] = true
		}
	}
}

// WithHolidays adds closed dates. Only the calendar date is used.
func WithHolidays(dates ...time.Time) Option {
	return func(c *Calendar) {
		for _, t := range dates {
			c.holidays[dayOf(t)] = struct{}{}
		}
	}
}

// New creates a calendar with a Saturday/Sunday weekend and no holidays
// unless options say otherwise.
func New(opts ...Option) *Calendar {
	c := &Calendar{holidays: make(map[day]struct{})}
	c.weekend[time.Saturday] = true
	c.weekend[time.Sunday] = true
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseHolidays parses dates in layout (time.DateOnly when empty).
func ParseHolidays(layout string, values []string) ([]time.Time, error) {
	if layout == "" {
		layout = time.DateOnly
	}
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		t, err := time.Parse(layout, v)
		if err != nil {
			return nil, fmt.Errorf("parse holiday %q: %w", v, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// IsTradingDay reports whether t falls on an open market day.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	if c.weekend[t.Weekday()] {
		return false
	}
	_, closed := c.holidays[dayOf(t)]
	return !closed
}

// Between returns every trading day in [start, end], at start's time of day.
func (c *Calendar) Between(start, end time.Time) []time.Time {
	var out []time.Time
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		if c.IsTradingDay(t) {
			out = append(out, t)
		}
	}
	return out
}

// Next returns the n trading days strictly after t.
func (c *Calendar) Next(t time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	if c.openDays() == 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for cur := t.AddDate(0, 0, 1); len(out) < n; cur = cur.AddDate(0, 0, 1) {
		if c.IsTradingDay(cur) {
			out = append(out, cur)
		}
	}
	return out
}

// Holidays returns the configured holidays in ascending order.
func (c *Calendar) Holidays() []time.Time {
	out := make([]time.Time, 0, len(c.holidays))
	for d := range c.holidays {
		out = append(out, time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (c *Calendar) openDays() int {
	n := 0
	for _, closed := range c.weekend {
		if !closed {
			n++
		}
	}
	return n
}
