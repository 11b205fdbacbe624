package forecaster

import (
	"strings"
	"time"
)

// Frequency is the spacing of forecast timestamps
type Frequency string

const (
	FrequencyDaily  Frequency = "D"
	FrequencyHourly Frequency = "H"
)

const (
	layoutDaily  = "2006-01-02"
	layoutHourly = "2006-01-02T15:04"
)

// ParseFrequency maps a requested frequency onto a known one. Matching is case-insensitive
// and anything unrecognized is daily.
func ParseFrequency(freq string) Frequency {
	if strings.EqualFold(strings.TrimSpace(freq), string(FrequencyHourly)) {
		return FrequencyHourly
	}
	return FrequencyDaily
}

// Step returns the time one unit after t. Days are calendar days so the wall clock is kept
// across DST transitions.
func (f Frequency) Step(t time.Time, n int) time.Time {
	if f == FrequencyHourly {
		return t.Add(time.Duration(n) * time.Hour)
	}
	return t.AddDate(0, 0, n)
}

// Format renders a forecast timestamp for the wire
func (f Frequency) Format(t time.Time) string {
	if f == FrequencyHourly {
		return t.Format(layoutHourly)
	}
	return t.Format(layoutDaily)
}

// Horizon returns periods timestamps spaced at the frequency with the first one unit after
// the anchor. Non-positive periods yield no timestamps.
func Horizon(anchor time.Time, periods int, freq Frequency) []time.Time {
	if periods <= 0 {
		return []time.Time{}
	}
	t := make([]time.Time, 0, periods)
	for i := 1; i <= periods; i++ {
		t = append(t, freq.Step(anchor, i))
	}
	return t
}

// Yesterday returns midnight of the day before now in the zone of now
func Yesterday(now time.Time) time.Time {
	y, m, d := now.AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
