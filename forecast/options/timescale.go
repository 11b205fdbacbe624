package options

import "time"

// TimeScale maps time onto the training window where the first training observation is 0
// and the last is 1. Times after the window scale past 1.
type TimeScale struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTimeScale(start, end time.Time) TimeScale {
	return TimeScale{Start: start, End: end}
}

// Scale returns the scaled time. A zero length window always scales to 0.
func (s TimeScale) Scale(t time.Time) float64 {
	span := s.End.Sub(s.Start)
	if span <= 0 {
		return 0
	}
	return float64(t.Sub(s.Start)) / float64(span)
}

func (s TimeScale) ScaleAll(t []time.Time) []float64 {
	res := make([]float64, len(t))
	for i, tPnt := range t {
		res[i] = s.Scale(tPnt)
	}
	return res
}
