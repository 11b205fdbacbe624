package forecaster

import "time"

// Recorder observes the outcome of train and predict calls
type Recorder interface {
	ObserveTrain(status string, dur time.Duration)
	ObservePredict(status string, dur time.Duration)
	ObserveConfidence(v float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTrain(string, time.Duration)   {}
func (nopRecorder) ObservePredict(string, time.Duration) {}
func (nopRecorder) ObserveConfidence(float64)            {}

func status(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSuccess
}
