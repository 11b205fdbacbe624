package timedataset

import (
	"time"
)

// TimeSlice is a slice of time points assumed to be ascending
type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// Span returns the duration between the first and last time point
func (t TimeSlice) Span() time.Duration {
	return t.EndTime().Sub(t.StartTime())
}
