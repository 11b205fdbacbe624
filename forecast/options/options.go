// Package options contains all forecast options for an additive fit of a time series with
// trend, changepoints, seasonality, holidays and external regressors
package options

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/profithive/go-forecaster/feature"
	"github.com/profithive/go-forecaster/forecast/util"
)

const (
	DefaultGrowthPriorScale = 5.0
	DefaultIntervalWidth    = 0.8
	DefaultKappa            = 0.01
)

var (
	ErrInvalidIntervalWidth = errors.New("interval width must be between 0 and 1")
	ErrInvalidPriorScale    = errors.New("prior scale must be positive")
	ErrInvalidKappa         = errors.New("kappa must be non-negative")
	ErrInvalidRange         = errors.New("changepoint range must be in (0, 1]")
	ErrInvalidSeasonality   = errors.New("invalid seasonality config")
)

// Options configures a forecast. Every feature other than the intercept is penalized with
// Kappa divided by the square of the prior scale of its group, per training observation, so
// larger prior scales allow larger coefficients.
type Options struct {
	ChangepointOptions ChangepointOptions `json:"changepoint_options"`
	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`
	RegressorOptions   RegressorOptions   `json:"regressor_options"`
	HolidayOptions     HolidayOptions     `json:"holiday_options"`
	OutlierOptions     OutlierOptions     `json:"outlier_options"`

	GrowthPriorScale float64 `json:"growth_prior_scale"`
	IntervalWidth    float64 `json:"interval_width"`
	Kappa            float64 `json:"kappa"`
}

// NewDefaultOptions returns a set of default forecast options
func NewDefaultOptions() *Options {
	return &Options{
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		OutlierOptions:     NewDefaultOutlierOptions(),
		GrowthPriorScale:   DefaultGrowthPriorScale,
		IntervalWidth:      DefaultIntervalWidth,
		Kappa:              DefaultKappa,
	}
}

// Validate checks the numeric ranges of the options
func (o *Options) Validate() error {
	if o.IntervalWidth <= 0 || o.IntervalWidth >= 1 || math.IsNaN(o.IntervalWidth) {
		return fmt.Errorf("got %f, %w", o.IntervalWidth, ErrInvalidIntervalWidth)
	}
	if o.Kappa < 0 || math.IsNaN(o.Kappa) {
		return fmt.Errorf("got %f, %w", o.Kappa, ErrInvalidKappa)
	}
	if !(o.GrowthPriorScale > 0) {
		return fmt.Errorf("growth got %f, %w", o.GrowthPriorScale, ErrInvalidPriorScale)
	}
	if !(o.ChangepointOptions.PriorScale > 0) {
		return fmt.Errorf("changepoint got %f, %w", o.ChangepointOptions.PriorScale, ErrInvalidPriorScale)
	}
	if o.ChangepointOptions.Auto && (o.ChangepointOptions.Range <= 0 || o.ChangepointOptions.Range > 1) {
		return fmt.Errorf("got %f, %w", o.ChangepointOptions.Range, ErrInvalidRange)
	}
	for _, seasCfg := range o.SeasonalityOptions.SeasonalityConfigs {
		if seasCfg.Name == "" || seasCfg.Period <= 0 || seasCfg.Orders < 0 {
			return fmt.Errorf("%q with period %s and %d orders, %w", seasCfg.Name, seasCfg.Period, seasCfg.Orders, ErrInvalidSeasonality)
		}
	}
	return nil
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sInterval Width: %.2f    Kappa: %.3f    Growth Prior: %.2f\n",
		prefix, util.IndentExpand(indent, indentGrowth),
		o.IntervalWidth, o.Kappa, o.GrowthPriorScale,
	); err != nil {
		return err
	}
	if err := o.SeasonalityOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	if err := o.ChangepointOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	if err := o.RegressorOptions.TablePrint(w, prefix, indent, indentGrowth); err != nil {
		return err
	}
	return o.HolidayOptions.TablePrint(w, prefix, indent, indentGrowth)
}

// GenerateGrowthFeatures returns the intercept and linear trend over the scaled time
func (o *Options) GenerateGrowthFeatures(t []time.Time, scale TimeScale) *feature.Set {
	tScaled := scale.ScaleAll(t)
	tFeat := feature.NewSet()

	intercept := feature.Intercept()
	tFeat.Set(intercept, intercept.Generate(tScaled))

	linear := feature.Linear()
	tFeat.Set(linear, linear.Generate(tScaled))
	return tFeat
}

// Penalty returns the ridge penalty of a feature for a single observation. The intercept is
// never penalized.
func (o *Options) Penalty(f feature.Feature) float64 {
	var scale float64
	switch f.Type() {
	case feature.FeatureTypeGrowth:
		if name, _ := f.Get("name"); name == feature.GrowthIntercept {
			return 0
		}
		scale = o.GrowthPriorScale
	case feature.FeatureTypeChangepoint:
		scale = o.ChangepointOptions.PriorScale
	case feature.FeatureTypeSeasonality:
		name, _ := f.Get("name")
		scale = o.SeasonalityOptions.PriorScale(name)
	case feature.FeatureTypeEvent:
		scale = o.HolidayOptions.priorScale()
	case feature.FeatureTypeRegressor:
		scale = o.RegressorOptions.priorScale()
	default:
		return 0
	}
	if scale <= 0 {
		return 0
	}
	return o.Kappa / (scale * scale)
}

// Copy returns a deep copy of the options so a fit never mutates the caller's options
func (o *Options) Copy() *Options {
	if o == nil {
		return nil
	}
	res := *o
	res.ChangepointOptions.Changepoints = append([]Changepoint(nil), o.ChangepointOptions.Changepoints...)
	res.SeasonalityOptions.SeasonalityConfigs = append([]SeasonalityConfig(nil), o.SeasonalityOptions.SeasonalityConfigs...)
	res.RegressorOptions.Names = append([]string(nil), o.RegressorOptions.Names...)
	return &res
}
