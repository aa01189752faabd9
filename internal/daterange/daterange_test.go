package daterange

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func rng(t *testing.T, start, end string) Range {
	t.Helper()
	return New(day(t, start), day(t, end))
}

func TestOverlaps(t *testing.T) {
	q1 := rng(t, "2025-01-01", "2025-03-31")

	tests := []struct {
		name  string
		other Range
		want  bool
	}{
		{"partial_overlap_end", rng(t, "2025-03-15", "2025-06-30"), true},
		{"partial_overlap_start", rng(t, "2024-12-01", "2025-01-15"), true},
		{"contained", rng(t, "2025-02-01", "2025-02-28"), true},
		{"containing", rng(t, "2024-12-01", "2025-04-30"), true},
		{"exact_match", rng(t, "2025-01-01", "2025-03-31"), true},
		{"touching_end_bound", rng(t, "2025-03-31", "2025-06-30"), true},
		{"touching_start_bound", rng(t, "2024-10-01", "2025-01-01"), true},
		{"adjacent_after", rng(t, "2025-04-01", "2025-06-30"), false},
		{"adjacent_before", rng(t, "2024-10-01", "2024-12-31"), false},
		{"far_apart", rng(t, "2026-01-01", "2026-03-31"), false},
		{"single_day_inside", rng(t, "2025-02-14", "2025-02-14"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(q1, tt.other))
			assert.Equal(t, tt.want, Overlaps(tt.other, q1), "overlap must be symmetric")
		})
	}
}

// Random ranges checked against a day-by-day reference implementation.
func TestOverlapsProperty(t *testing.T) {
	r := rand.New(rand.NewSource(2030))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	randomRange := func() Range {
		start := base.AddDate(0, 0, r.Intn(120))
		return New(start, start.AddDate(0, 0, r.Intn(40)))
	}

	shareDay := func(a, b Range) bool {
		for d := a.Start; !d.After(a.End); d = d.AddDate(0, 0, 1) {
			if b.Contains(d) {
				return true
			}
		}
		return false
	}

	for i := 0; i < 2000; i++ {
		a, b := randomRange(), randomRange()
		require.True(t, a.Valid())
		require.True(t, b.Valid())

		got := Overlaps(a, b)
		require.Equal(t, Overlaps(b, a), got, "asymmetric result for %s and %s", a, b)
		require.Equal(t, shareDay(a, b), got, "wrong result for %s and %s", a, b)
	}
}

func TestContainsIgnoresClock(t *testing.T) {
	q1 := rng(t, "2025-01-01", "2025-03-31")
	lateOnLastDay := time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)

	assert.True(t, q1.Contains(lateOnLastDay))
	assert.False(t, q1.Contains(lateOnLastDay.Add(2*time.Minute)))
}

func TestValid(t *testing.T) {
	assert.True(t, rng(t, "2025-01-01", "2025-01-01").Valid())
	assert.False(t, rng(t, "2025-02-01", "2025-01-31").Valid())
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.April, d.Month())

	_, err = ParseDay("01/04/2025")
	assert.Error(t, err)
}
