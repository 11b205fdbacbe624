package forecast

import "time"

// Components is the additive decomposition of a forecast in the units of the target
type Components struct {
	Trend       []float64 `json:"trend"`
	Seasonality []float64 `json:"seasonality"`
	Event       []float64 `json:"event"`
	Regressor   []float64 `json:"regressor"`
}

// Results holds the predicted values and the uncertainty interval for each time
type Results struct {
	T          []time.Time `json:"time"`
	Forecast   []float64   `json:"forecast"`
	Upper      []float64   `json:"upper"`
	Lower      []float64   `json:"lower"`
	Components Components  `json:"components"`
}
