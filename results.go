package forecaster

import (
	"time"

	"github.com/profithive/go-forecaster/prepare"
)

const StatusSuccess = "success"
const StatusFailed = "failed"

// PredictRequest asks for a forecast of an entity. A non-empty history retrains the entity's
// model before predicting.
type PredictRequest struct {
	History        []prepare.Record `json:"history"`
	PredictPeriods *int             `json:"predict_periods" default:"14"`
	Freq           string           `json:"freq" default:"D"`
	RetailerID     *string          `json:"retailer_id"`
}

// TrainRequest is the framing of a training file or HTTP body
type TrainRequest struct {
	History    []prepare.Record `json:"history"`
	RetailerID *string          `json:"retailer_id"`
}

type TrainResult struct {
	Status     string `json:"status"`
	TrainedOn  string `json:"trained_on"`
	DataPoints int    `json:"data_points"`
	ModelPath  string `json:"model_path"`
	ModelID    string `json:"model_id"`
}

// Prediction is a single forecast point
type Prediction struct {
	DS        string  `json:"ds"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`

	t time.Time
}

// Time returns the timestamp of the prediction
func (p Prediction) Time() time.Time {
	return p.t
}

type ModelMeta struct {
	TrainedOn             string  `json:"trained_on"`
	Method                string  `json:"method"`
	ChangepointPriorScale float64 `json:"changepoint_prior_scale"`
	RetailerID            *string `json:"retailer_id"`
	PredictPeriods        int     `json:"predict_periods"`
	Frequency             string  `json:"frequency"`
	ModelID               string  `json:"model_id"`
	DataPoints            int     `json:"data_points"`
}

type ForecastResult struct {
	Predictions []Prediction `json:"predictions"`
	ModelMeta   ModelMeta    `json:"model_meta"`
	Confidence  float64      `json:"confidence"`
}

// Yhat returns the predicted values along with the lower and upper interval bounds
func (r *ForecastResult) Yhat() (yhat, lower, upper []float64) {
	yhat = make([]float64, len(r.Predictions))
	lower = make([]float64, len(r.Predictions))
	upper = make([]float64, len(r.Predictions))
	for i, p := range r.Predictions {
		yhat[i] = p.Yhat
		lower[i] = p.YhatLower
		upper[i] = p.YhatUpper
	}
	return yhat, lower, upper
}

// Failure is the payload reported to callers when train or predict fails
type Failure struct {
	Error     string `json:"error"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func NewFailure(err error, now time.Time) Failure {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Failure{
		Error:     msg,
		Status:    StatusFailed,
		Timestamp: now.Format(time.RFC3339),
	}
}

func entityID(retailerID *string) string {
	if retailerID == nil {
		return ""
	}
	return *retailerID
}
