// Package feature describes the columns of a forecast design matrix. Every feature has a
// unique string label and a set of key/value labels so a fit model can be serialized and
// the feature reconstructed on load.
package feature

type FeatureType string

const (
	FeatureTypeChangepoint FeatureType = "changepoint"
	FeatureTypeSeasonality FeatureType = "seasonality"
	FeatureTypeEvent       FeatureType = "event"
	FeatureTypeGrowth      FeatureType = "growth"
	FeatureTypeRegressor   FeatureType = "regressor"
)

// Feature is the interface implemented by every design matrix column label
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
