package forecaster

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/profithive/go-forecaster/forecast/options"
	"github.com/profithive/go-forecaster/prepare"
)

const (
	DefaultMinTrainingRows = 10
	DefaultRegressorWindow = 7
)

var ErrInvalidOptions = errors.New("invalid forecaster options")

// Options configures the training and prediction lifecycle of a Forecaster
type Options struct {
	ForecastOptions *options.Options `json:"forecast_options"`

	// Regressors are extracted from each history record and used as additive covariates
	Regressors []string `json:"regressors"`

	// MinTrainingRows is the fewest prepared rows a model is trained on
	MinTrainingRows int `json:"min_training_rows"`

	// RegressorWindow is the number of most recent history rows averaged to extrapolate a
	// regressor over the horizon
	RegressorWindow int `json:"regressor_window"`
}

// NewDefaultOptions returns daily, weekly and yearly seasonality with the retail regressors,
// a changepoint prior scale of 0.05 and an 80% interval
func NewDefaultOptions() *Options {
	fOpt := options.NewDefaultOptions()
	fOpt.RegressorOptions.Names = append([]string(nil), prepare.DefaultRegressors...)
	return &Options{
		ForecastOptions: fOpt,
		Regressors:      append([]string(nil), prepare.DefaultRegressors...),
		MinTrainingRows: DefaultMinTrainingRows,
		RegressorWindow: DefaultRegressorWindow,
	}
}

// ChangepointPriorScale returns the prior scale applied to trend changes
func (o *Options) ChangepointPriorScale() float64 {
	if o.ForecastOptions == nil {
		return options.DefaultChangepointPriorScale
	}
	return o.ForecastOptions.ChangepointOptions.PriorScale
}

// SetChangepointPriorScale overrides the changepoint prior scale
func (o *Options) SetChangepointPriorScale(scale float64) {
	if o.ForecastOptions == nil {
		o.ForecastOptions = options.NewDefaultOptions()
	}
	o.ForecastOptions.ChangepointOptions.PriorScale = scale
}

func (o *Options) Validate() error {
	if o.ForecastOptions == nil {
		return fmt.Errorf("missing forecast options, %w", ErrInvalidOptions)
	}
	if err := o.ForecastOptions.Validate(); err != nil {
		return err
	}
	if o.MinTrainingRows < 1 {
		return fmt.Errorf("min training rows of %d, %w", o.MinTrainingRows, ErrInvalidOptions)
	}
	if o.RegressorWindow < 1 {
		return fmt.Errorf("regressor window of %d, %w", o.RegressorWindow, ErrInvalidOptions)
	}
	return nil
}

// Copy returns a deep copy of the options
func (o *Options) Copy() *Options {
	c := *o
	if o.ForecastOptions != nil {
		c.ForecastOptions = o.ForecastOptions.Copy()
	}
	c.Regressors = append([]string(nil), o.Regressors...)
	return &c
}

func (o *Options) TablePrint(w io.Writer) error {
	tbw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tbw, "Forecaster Options\n")
	fmt.Fprintf(tbw, "  Regressors:\t%v\t\n", o.Regressors)
	fmt.Fprintf(tbw, "  Min Training Rows:\t%d\t\n", o.MinTrainingRows)
	fmt.Fprintf(tbw, "  Regressor Window:\t%d\t\n", o.RegressorWindow)
	if err := tbw.Flush(); err != nil {
		return err
	}
	if o.ForecastOptions == nil {
		return nil
	}
	return o.ForecastOptions.TablePrint(w, "  ", "  ", 1)
}
