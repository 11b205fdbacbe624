package forecaster

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/profithive/go-forecaster/forecast"
	"github.com/profithive/go-forecaster/forecast/options"
	"github.com/profithive/go-forecaster/timedataset"
)

const MethodProphet = "prophet"

var (
	ErrUnknownMethod   = errors.New("unknown model method")
	ErrEmptyArtifact   = errors.New("artifact has no model")
	ErrMissingModelID  = errors.New("artifact has no model id")
	ErrNilEstimatorFit = errors.New("estimator returned no model")
)

// Model is a trained forecasting model that can predict at arbitrary times given the values
// of its regressors at those times
type Model interface {
	Predict(t []time.Time, x map[string][]float64) (*forecast.Results, error)
	Model() (forecast.Model, error)
}

// Estimator trains models and restores them from their serialized form
type Estimator interface {
	Fit(td *timedataset.TimeDataset) (Model, error)
	Restore(m forecast.Model) (Model, error)
}

// ProphetEstimator fits the additive trend, seasonality, holiday and regressor model
type ProphetEstimator struct {
	opt *options.Options
}

func NewProphetEstimator(opt *options.Options) *ProphetEstimator {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	return &ProphetEstimator{opt: opt.Copy()}
}

func (p *ProphetEstimator) Fit(td *timedataset.TimeDataset) (Model, error) {
	f, err := forecast.New(p.opt)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast, %w", err)
	}
	if err := f.Fit(td); err != nil {
		return nil, fmt.Errorf("unable to fit forecast, %w", err)
	}
	return f, nil
}

func (p *ProphetEstimator) Restore(m forecast.Model) (Model, error) {
	f, err := forecast.NewFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("unable to restore forecast from model, %w", err)
	}
	return f, nil
}

// Artifact is the persisted form of a trained model along with its training metadata
type Artifact struct {
	ModelID               string         `json:"model_id"`
	Method                string         `json:"method"`
	TrainedOn             time.Time      `json:"trained_on"`
	ChangepointPriorScale float64        `json:"changepoint_prior_scale"`
	RetailerID            *string        `json:"retailer_id"`
	DataPoints            int            `json:"data_points"`
	Model                 forecast.Model `json:"model"`
}

// NewArtifact serializes a trained model and tags it with a new model id
func NewArtifact(m Model, trainedOn time.Time, cpPriorScale float64, entityID string, dataPoints int) (*Artifact, error) {
	if m == nil {
		return nil, ErrNilEstimatorFit
	}
	fm, err := m.Model()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize model, %w", err)
	}
	a := &Artifact{
		ModelID:               uuid.NewString(),
		Method:                MethodProphet,
		TrainedOn:             trainedOn,
		ChangepointPriorScale: cpPriorScale,
		RetailerID:            entityPtr(entityID),
		DataPoints:            dataPoints,
		Model:                 fm,
	}
	return a, nil
}

// Validate rejects artifacts written by another method or missing a model
func (a *Artifact) Validate() error {
	if a == nil {
		return ErrEmptyArtifact
	}
	if a.Method != MethodProphet {
		return fmt.Errorf("%q, %w", a.Method, ErrUnknownMethod)
	}
	if a.ModelID == "" {
		return ErrMissingModelID
	}
	if a.Model.Options == nil || len(a.Model.Weights.Coef) == 0 {
		return ErrEmptyArtifact
	}
	return nil
}

func (a *Artifact) TablePrint(w io.Writer) error {
	tbw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tbw, "Artifact\n")
	fmt.Fprintf(tbw, "  Model ID:\t%s\t\n", a.ModelID)
	fmt.Fprintf(tbw, "  Method:\t%s\t\n", a.Method)
	fmt.Fprintf(tbw, "  Trained On:\t%s\t\n", a.TrainedOn.Format(time.RFC3339))
	fmt.Fprintf(tbw, "  Data Points:\t%d\t\n", a.DataPoints)
	fmt.Fprintf(tbw, "  Changepoint Prior Scale:\t%.4f\t\n", a.ChangepointPriorScale)
	if err := tbw.Flush(); err != nil {
		return err
	}
	return a.Model.TablePrint(w, "  ", "  ")
}

func entityPtr(entityID string) *string {
	if entityID == "" {
		return nil
	}
	return &entityID
}
