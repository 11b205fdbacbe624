// Package forecaster trains and persists per-retailer sales forecasting models and produces
// multi-step forecasts with an uncertainty interval and a confidence score.
package forecaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/profithive/go-forecaster/confidence"
	"github.com/profithive/go-forecaster/prepare"
	"github.com/profithive/go-forecaster/store"
	"github.com/profithive/go-forecaster/timedataset"
	"github.com/rs/zerolog"
)

var (
	ErrModelUnavailable = errors.New("no history data provided and no trained model available")
	ErrValidation       = prepare.ErrValidation
	ErrNilBackend       = errors.New("no model store backend")
)

// Forecaster trains, stores and predicts with a model per retailer
type Forecaster struct {
	opt *Options

	preparer  *prepare.Preparer
	store     *store.ModelStore[*Artifact]
	estimator Estimator
	scorer    *confidence.Scorer
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time

	locks *keyedMutex
}

type Option func(*Forecaster)

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Forecaster) {
		f.logger = logger
	}
}

// WithEstimator replaces the model that is trained and restored
func WithEstimator(e Estimator) Option {
	return func(f *Forecaster) {
		f.estimator = e
	}
}

func WithScorer(s *confidence.Scorer) Option {
	return func(f *Forecaster) {
		f.scorer = s
	}
}

// WithClock sets the source of the current time used for training timestamps and the
// prediction anchor when no history is supplied
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) {
		f.now = now
	}
}

func WithMetrics(r Recorder) Option {
	return func(f *Forecaster) {
		f.recorder = r
	}
}

// New creates a Forecaster storing models in the backend. If no options are provided a
// default is used.
func New(opt *Options, backend store.Backend, fns ...Option) (*Forecaster, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if opt == nil {
		opt = NewDefaultOptions()
	}
	opt = opt.Copy()
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	opt.ForecastOptions.RegressorOptions.Names = append([]string(nil), opt.Regressors...)

	f := &Forecaster{
		opt:      opt,
		recorder: nopRecorder{},
		logger:   zerolog.Nop(),
		now:      time.Now,
		locks:    newKeyedMutex(),
	}
	for _, fn := range fns {
		fn(f)
	}

	if f.estimator == nil {
		f.estimator = NewProphetEstimator(opt.ForecastOptions)
	}
	if f.scorer == nil {
		f.scorer = confidence.New(confidence.WithLogger(f.logger))
	}
	f.preparer = prepare.New(
		prepare.WithRegressors(opt.Regressors...),
		prepare.WithLogger(f.logger),
	)
	f.store = store.New[*Artifact](
		backend,
		store.JSONCodec[*Artifact]{},
		store.WithLogger(f.logger),
	)
	return f, nil
}

// Options returns a copy of the forecaster options
func (f *Forecaster) Options() *Options {
	return f.opt.Copy()
}

// Train fits a model on the history and saves it for the entity replacing any existing model.
// Fewer than the minimum training rows fails validation and nothing is saved.
func (f *Forecaster) Train(ctx context.Context, history []prepare.Record, entityID string) (*TrainResult, error) {
	start := time.Now()
	res, err := f.train(ctx, history, entityID)
	f.recorder.ObserveTrain(status(err), time.Since(start))
	return res, err
}

func (f *Forecaster) train(ctx context.Context, history []prepare.Record, entityID string) (*TrainResult, error) {
	td, err := f.preparer.Prepare(history)
	if err != nil {
		return nil, err
	}
	art, _, loc, err := f.fitAndSave(ctx, td, entityID)
	if err != nil {
		return nil, err
	}

	return &TrainResult{
		Status:     StatusSuccess,
		TrainedOn:  art.TrainedOn.Format(time.RFC3339),
		DataPoints: art.DataPoints,
		ModelPath:  loc,
		ModelID:    art.ModelID,
	}, nil
}

func (f *Forecaster) fitAndSave(ctx context.Context, td *timedataset.TimeDataset, entityID string) (*Artifact, Model, string, error) {
	n := td.Len()
	if n < f.opt.MinTrainingRows {
		return nil, nil, "", prepare.NewValidationError(
			-1, "",
			fmt.Sprintf("insufficient data: need at least %d rows, got %d", f.opt.MinTrainingRows, n),
		)
	}

	unlock := f.locks.Lock(store.Key(entityID))
	defer unlock()

	f.logger.Info().Str("retailer_id", entityID).Int("data_points", n).Msg("training model")
	m, err := f.estimator.Fit(td)
	if err != nil {
		return nil, nil, "", fmt.Errorf("unable to train model, %w", err)
	}
	art, err := NewArtifact(m, f.now(), f.opt.ChangepointPriorScale(), entityID, n)
	if err != nil {
		return nil, nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, "", err
	}

	loc, err := f.store.Save(ctx, entityID, art)
	if err != nil {
		return nil, nil, "", err
	}
	f.logger.Info().
		Str("retailer_id", entityID).
		Str("model_id", art.ModelID).
		Str("location", loc).
		Msg("trained model")
	return art, m, loc, nil
}

// Predict forecasts the requested periods after the last history timestamp, or after
// yesterday when no history is supplied and a stored model exists
func (f *Forecaster) Predict(ctx context.Context, req PredictRequest) (*ForecastResult, error) {
	start := time.Now()
	res, err := f.predict(ctx, req)
	f.recorder.ObservePredict(status(err), time.Since(start))
	if err == nil {
		f.recorder.ObserveConfidence(res.Confidence)
	}
	return res, err
}

func (f *Forecaster) predict(ctx context.Context, req PredictRequest) (*ForecastResult, error) {
	if err := defaults.Set(&req); err != nil {
		return nil, fmt.Errorf("unable to set request defaults, %w", err)
	}
	periods := *req.PredictPeriods
	freq := ParseFrequency(req.Freq)
	id := entityID(req.RetailerID)

	f.logger.Info().
		Int("predict_periods", periods).
		Str("freq", req.Freq).
		Str("retailer_id", id).
		Msg("generating predictions")

	art, loaded := f.store.Load(ctx, id)

	var td *timedataset.TimeDataset
	var m Model
	if !loaded || len(req.History) > 0 {
		if len(req.History) == 0 {
			return nil, ErrModelUnavailable
		}
		var err error
		td, err = f.preparer.Prepare(req.History)
		if err != nil {
			return nil, err
		}
		art, m, _, err = f.fitAndSave(ctx, td, id)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		m, err = f.estimator.Restore(art.Model)
		if err != nil {
			return nil, fmt.Errorf("unable to restore stored model, %w", err)
		}
	}

	anchor := Yesterday(f.now())
	if td != nil && td.Len() > 0 {
		anchor = td.T[td.Len()-1]
	}
	horizon := Horizon(anchor, periods, freq)
	x := f.extrapolateRegressors(td, len(horizon))

	predictions := make([]Prediction, 0, len(horizon))
	if len(horizon) > 0 {
		res, err := m.Predict(horizon, x)
		if err != nil {
			return nil, fmt.Errorf("unable to predict, %w", err)
		}
		for i, t := range res.T {
			predictions = append(predictions, Prediction{
				DS:        freq.Format(t),
				Yhat:      res.Forecast[i],
				YhatLower: res.Lower[i],
				YhatUpper: res.Upper[i],
				t:         t,
			})
		}
	}

	result := &ForecastResult{
		Predictions: predictions,
		ModelMeta: ModelMeta{
			TrainedOn:             art.TrainedOn.Format(time.RFC3339),
			Method:                art.Method,
			ChangepointPriorScale: art.ChangepointPriorScale,
			RetailerID:            req.RetailerID,
			PredictPeriods:        periods,
			Frequency:             req.Freq,
			ModelID:               art.ModelID,
			DataPoints:            art.DataPoints,
		},
	}
	result.Confidence = f.scorer.Score(result.Yhat())

	f.logger.Info().
		Int("predictions", len(predictions)).
		Float64("confidence", result.Confidence).
		Msg("generated predictions")
	return result, nil
}

// extrapolateRegressors holds each regressor at the mean of its most recent history values
// over the horizon. Without history every regressor is neutral.
func (f *Forecaster) extrapolateRegressors(td *timedataset.TimeDataset, n int) map[string][]float64 {
	x := make(map[string][]float64, len(f.opt.Regressors))
	for _, name := range f.opt.Regressors {
		val := prepare.DefaultRegressorValue
		if td != nil {
			if mean, err := td.TailMean(name, f.opt.RegressorWindow); err == nil {
				val = mean
			}
		}
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = val
		}
		x[name] = vals
	}
	return x
}

// Prepare validates and normalizes history records with the forecaster's regressors
func (f *Forecaster) Prepare(history []prepare.Record) (*timedataset.TimeDataset, error) {
	return f.preparer.Prepare(history)
}

// Location returns where the model of the entity is stored
func (f *Forecaster) Location(entityID string) string {
	return f.store.Location(entityID)
}

// Artifact returns the stored artifact of the entity
func (f *Forecaster) Artifact(ctx context.Context, entityID string) (*Artifact, bool) {
	return f.store.Load(ctx, entityID)
}
