package event

import (
	"testing"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoliday(t *testing.T) {
	testData := map[string]struct {
		hol       *cal.Holiday
		start     time.Time
		end       time.Time
		durBefore time.Duration
		durAfter  time.Duration
		expected  []Event
	}{
		"simple": {
			hol:       us.ChristmasDay,
			start:     time.Date(2024, 12, 8, 1, 0, 0, 0, time.UTC),
			end:       time.Date(2026, 12, 8, 1, 0, 0, 0, time.UTC),
			durBefore: 0,
			durAfter:  0,
			expected: []Event{
				{
					"Christmas_Day_2024",
					time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC),
				},
				{
					"Christmas_Day_2025",
					time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
					time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		"non utc tz": {
			hol:       us.ChristmasDay,
			start:     time.Date(2024, 12, 8, 1, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
			end:       time.Date(2026, 12, 8, 1, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
			durBefore: 0,
			durAfter:  0,
			expected: []Event{
				{
					"Christmas_Day_2024",
					time.Date(2024, 12, 25, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
					time.Date(2024, 12, 26, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
				},
				{
					"Christmas_Day_2025",
					time.Date(2025, 12, 25, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
					time.Date(2025, 12, 26, 0, 0, 0, 0, time.FixedZone("UTC-8", -8*60*60)),
				},
			},
		},

		"with buffer": {
			hol:       us.ChristmasDay,
			start:     time.Date(2024, 12, 8, 1, 0, 0, 0, time.UTC),
			end:       time.Date(2026, 12, 8, 1, 0, 0, 0, time.UTC),
			durBefore: time.Duration(24 * time.Hour),
			durAfter:  time.Duration(2 * 24 * time.Hour),
			expected: []Event{
				{
					"Christmas_Day_2024",
					time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC),
				},
				{
					"Christmas_Day_2025",
					time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
					time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC),
				},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := Holiday(td.hol, td.start, td.end, td.durBefore, td.durAfter)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestCalendar(t *testing.T) {
	_, err := NewCalendar("ZZ", 0, 0)
	assert.ErrorIs(t, err, ErrUnknownCountry)

	c, err := NewCalendar("us", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "US", c.Country)
	assert.Contains(t, c.Names(), "christmas_day")
	assert.Contains(t, c.Names(), "thanksgiving_day")

	testData := map[string]struct {
		name     string
		t        time.Time
		expected bool
	}{
		"christmas morning": {
			name:     "christmas_day",
			t:        time.Date(2024, 12, 25, 9, 0, 0, 0, time.UTC),
			expected: true,
		},
		"christmas eve": {
			name:     "christmas_day",
			t:        time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
		"thanksgiving": {
			name:     "thanksgiving_day",
			t:        time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC),
			expected: true,
		},
		"unknown holiday": {
			name:     "festivus",
			t:        time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, c.Active(td.name)(td.t))
		})
	}
}

func TestCalendarEvents(t *testing.T) {
	c, err := NewCalendar("US", 24*time.Hour, 0)
	require.NoError(t, err)

	events := c.Events(
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	require.Len(t, events, 1)
	assert.Equal(t, "Christmas_Day_2024", events[0].Name)
	assert.Equal(t, time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC), events[0].Start)
	assert.NoError(t, events[0].Valid())
	assert.True(t, c.Active("christmas_day")(time.Date(2024, 12, 24, 12, 0, 0, 0, time.UTC)))
}
