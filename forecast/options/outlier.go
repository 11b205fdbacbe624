package options

// OutlierOptions configures the number of passes to refit after removing training points
// outside of the Tukey fence of the residuals. Zero passes disables outlier removal.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewDefaultOutlierOptions() OutlierOptions {
	return OutlierOptions{
		NumPasses:       0,
		LowerPercentile: 0.25,
		UpperPercentile: 0.75,
		TukeyFactor:     1.5,
	}
}
