// Package daterange implements closed calendar-date intervals and the overlap
// test used by the reporting period registry.
package daterange

import (
	"fmt"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// Range is a closed interval of calendar days [Start, End].
type Range struct {
	Start time.Time
	End   time.Time
}

// New returns the range [start, end] with both bounds truncated to their day.
func New(start, end time.Time) Range {
	return Range{Start: Day(start), End: Day(end)}
}

// Day drops the clock part of t, keeping its calendar date, in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Valid reports whether Start is not after End.
func (r Range) Valid() bool {
	return !r.Start.After(r.End)
}

// Contains reports whether day t lies in [Start, End].
func (r Range) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(r.Start)) && !d.After(Day(r.End))
}

// Overlaps reports whether a and b share at least one day. Bounds are
// inclusive, so ranges that merely touch (a.End == b.Start) overlap.
//
// This is the four-clause BETWEEN test: either endpoint of a lies inside b, or
// either endpoint of b lies inside a. It is symmetric and catches partial
// overlap, containment in both directions and exact matches.
func Overlaps(a, b Range) bool {
	return b.Contains(a.Start) ||
		b.Contains(a.End) ||
		a.Contains(b.Start) ||
		a.Contains(b.End)
}

// String formats the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r Range) String() string {
	return r.Start.Format(Layout) + ".." + r.End.Format(Layout)
}
