package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := NewCalendar("Asia/Tehran")
	require.NoError(t, err)
	return cal
}

// tehran builds a local Tehran instant. 2025-08-02 is a Saturday.
func tehran(t *testing.T, cal *Calendar, day, hour, min, sec int) time.Time {
	t.Helper()
	return time.Date(2025, time.August, day, hour, min, sec, 0, cal.Location())
}

func TestIsRegistrationOpen(t *testing.T) {
	cal := newTestCalendar(t)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"saturday before open", tehran(t, cal, 2, 7, 59, 59), false},
		{"saturday at open", tehran(t, cal, 2, 8, 0, 0), true},
		{"saturday evening", tehran(t, cal, 2, 23, 0, 0), true},
		{"sunday all day", tehran(t, cal, 3, 0, 30, 0), true},
		{"monday all day", tehran(t, cal, 4, 12, 0, 0), true},
		{"tuesday all day", tehran(t, cal, 5, 23, 59, 0), true},
		{"wednesday before close", tehran(t, cal, 6, 19, 59, 59), true},
		{"wednesday at close", tehran(t, cal, 6, 20, 0, 0), false},
		{"thursday midnight", tehran(t, cal, 7, 0, 0, 0), false},
		{"thursday morning", tehran(t, cal, 7, 8, 0, 0), false},
		{"friday", tehran(t, cal, 8, 12, 0, 0), false},
		{"next saturday before open", tehran(t, cal, 9, 7, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsRegistrationOpen(tt.at))
		})
	}
}

func TestWeekStart(t *testing.T) {
	cal := newTestCalendar(t)
	saturdayOpen := tehran(t, cal, 2, 8, 0, 0)

	t.Run("boundary is the saturday itself", func(t *testing.T) {
		assert.Equal(t, saturdayOpen.UTC(), cal.WeekStart(saturdayOpen))
	})

	t.Run("saturday before 8am rolls back a week", func(t *testing.T) {
		got := cal.WeekStart(tehran(t, cal, 2, 7, 59, 59))
		assert.Equal(t, tehran(t, cal, 2-7, 8, 0, 0).UTC(), got)
	})

	t.Run("idempotent across the whole week", func(t *testing.T) {
		instants := []time.Time{
			saturdayOpen,
			tehran(t, cal, 2, 20, 0, 0),
			tehran(t, cal, 3, 3, 0, 0),  // Sunday
			tehran(t, cal, 5, 12, 0, 0), // Tuesday
			tehran(t, cal, 6, 20, 0, 0), // Wednesday after close
			tehran(t, cal, 7, 8, 0, 0),  // Thursday
			tehran(t, cal, 8, 23, 0, 0), // Friday
			tehran(t, cal, 9, 7, 59, 59), // next Saturday, just before rollover
		}
		for _, at := range instants {
			assert.Equal(t, saturdayOpen.UTC(), cal.WeekStart(at), "at %s", at)
		}
	})

	t.Run("rolls over at next saturday 8am", func(t *testing.T) {
		got := cal.WeekStart(tehran(t, cal, 9, 8, 0, 0))
		assert.Equal(t, tehran(t, cal, 9, 8, 0, 0).UTC(), got)
	})

	t.Run("never in the future", func(t *testing.T) {
		for day := 2; day <= 9; day++ {
			for hour := 0; hour < 24; hour += 5 {
				at := tehran(t, cal, day, hour, 0, 0)
				assert.False(t, cal.WeekStart(at).After(at))
			}
		}
	})
}

func TestCompletionDeadline(t *testing.T) {
	cal := newTestCalendar(t)

	t.Run("wednesday draw gets tomorrow 8am", func(t *testing.T) {
		created := tehran(t, cal, 6, 20, 0, 0) // Wednesday 20:00
		want := tehran(t, cal, 7, 8, 0, 0).UTC()
		assert.Equal(t, want, cal.CompletionDeadline(created))
	})

	t.Run("strictly after creation", func(t *testing.T) {
		created := tehran(t, cal, 7, 8, 0, 0) // Thursday 08:00 exactly
		want := tehran(t, cal, 14, 8, 0, 0).UTC()
		assert.Equal(t, want, cal.CompletionDeadline(created))
	})

	t.Run("thursday early morning gets same day 8am", func(t *testing.T) {
		created := tehran(t, cal, 7, 6, 30, 0)
		want := tehran(t, cal, 7, 8, 0, 0).UTC()
		assert.Equal(t, want, cal.CompletionDeadline(created))
	})

	t.Run("saturday participation gets the coming thursday", func(t *testing.T) {
		created := tehran(t, cal, 2, 9, 15, 0)
		want := tehran(t, cal, 7, 8, 0, 0).UTC()
		assert.Equal(t, want, cal.CompletionDeadline(created))
	})

	t.Run("deadline is always after creation", func(t *testing.T) {
		for day := 2; day <= 9; day++ {
			for hour := 0; hour < 24; hour += 3 {
				created := tehran(t, cal, day, hour, 0, 0)
				assert.True(t, cal.CompletionDeadline(created).After(created))
			}
		}
	})
}

func TestCalendarResolvesNamedZone(t *testing.T) {
	_, err := NewCalendar("Not/AZone")
	assert.Error(t, err)

	cal := newTestCalendar(t)
	// Tehran is UTC+03:30 year-round in the covered period; the boundary
	// computed in local time must land on 04:30 UTC.
	start := cal.WeekStart(tehran(t, cal, 4, 12, 0, 0))
	assert.Equal(t, 4, start.Hour())
	assert.Equal(t, 30, start.Minute())
}
