// Package forecast fits an additive model of a time series made of a piecewise linear
// trend, fourier seasonality, holiday indicators and external regressors. The model is
// solved with ridge regression where each feature group has its own prior scale.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/profithive/go-forecaster/feature"
	"github.com/profithive/go-forecaster/forecast/options"
	"github.com/profithive/go-forecaster/linearmodel"
	mat_ "github.com/profithive/go-forecaster/mat"
	"github.com/profithive/go-forecaster/stats"
	"github.com/profithive/go-forecaster/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing NaNs")
	ErrMismatchedDataLen        = errors.New("input data has different length than time")
	ErrMissingRegressor         = errors.New("missing regressor values")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
)

// RegressorStats is the training mean and standard deviation used to standardize a regressor
type RegressorStats struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Forecast represents a single forecast model of a time series
type Forecast struct {
	opt    *options.Options
	scores *Scores

	// model coefficients
	fLabels *feature.Labels
	coef    []float64

	scale      options.TimeScale
	yScale     float64
	sigma      float64
	regressors []RegressorStats

	residual        []float64
	trainComponents Components
	trained         bool
}

// New creates a new forecast instance with the given options. If none are provided, a
// default is used. The options are copied.
func New(opt *options.Options) (*Forecast, error) {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	return &Forecast{opt: opt.Copy()}, nil
}

// NewFromModel creates a new forecast instance given a forecast Model to initialize. This
// instance can be used for inference immediately and does not need to be trained again.
func NewFromModel(model Model) (*Forecast, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	labels, err := model.Weights.FeatureLabels()
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, ErrNoModelCoefficients
	}

	yScale := model.YScale
	if yScale == 0 {
		yScale = 1.0
	}

	f := &Forecast{
		opt:        model.Options.Copy(),
		scores:     model.Scores,
		fLabels:    feature.NewLabels(labels),
		coef:       model.Weights.Coefficients(),
		scale:      options.NewTimeScale(model.TrainStartTime, model.TrainEndTime),
		yScale:     yScale,
		sigma:      model.Sigma,
		regressors: append([]RegressorStats(nil), model.Regressors...),
		trained:    true,
	}
	return f, nil
}

func (f *Forecast) generateFeatures(t []time.Time, x map[string][]float64) (*feature.Set, error) {
	feat := f.opt.GenerateGrowthFeatures(t, f.scale)
	feat.Update(f.opt.ChangepointOptions.GenerateFeatures(t, f.scale))
	feat.Update(f.opt.SeasonalityOptions.GenerateFeatures(t))

	holidays, err := f.opt.HolidayOptions.GenerateFeatures(t)
	if err != nil {
		return nil, err
	}
	feat.Update(holidays)

	for _, reg := range f.regressors {
		vals, exists := x[reg.Name]
		if !exists {
			return nil, fmt.Errorf("%q, %w", reg.Name, ErrMissingRegressor)
		}
		if len(vals) != len(t) {
			return nil, fmt.Errorf("regressor %q has %d values for %d times, %w", reg.Name, len(vals), len(t), ErrMismatchedDataLen)
		}
		r := feature.NewRegressor(reg.Name)
		feat.Set(r, r.Generate(vals, reg.Mean, reg.Std))
	}
	return feat, nil
}

// Fit takes the input training data and fits a forecast model for the trend, changepoints,
// seasonal components, holidays and every regressor in the dataset. NaN observations are
// skipped. Seasonalities the training window cannot resolve are dropped from the model.
// Outlier passes refit after masking training points with outlying residuals.
func (f *Forecast) Fit(td *timedataset.TimeDataset) error {
	if f == nil {
		return ErrUninitializedForecast
	}
	if td == nil {
		return timedataset.ErrNoTrainingData
	}

	trainingData := td.Copy().DropNan()
	if trainingData.Len() <= 1 {
		return ErrInsufficientTrainingData
	}
	n := trainingData.Len()

	if err := f.initRegressors(trainingData); err != nil {
		return err
	}

	window := timedataset.TimeSlice(trainingData.T)
	f.scale = options.NewTimeScale(window.StartTime(), window.EndTime())
	f.yScale = floats.Max(absAll(trainingData.Y))
	if f.yScale == 0 {
		f.yScale = 1.0
	}
	f.opt.ChangepointOptions.GenerateAutoChangepoints(trainingData.T)
	f.opt.SeasonalityOptions = f.opt.SeasonalityOptions.Supported(trainingData.T)

	x, err := f.generateFeatures(trainingData.T, trainingData.X)
	if err != nil {
		return err
	}
	x = dropEmptyEvents(x)

	y := make([]float64, n)
	copy(y, trainingData.Y)

	if err := f.fitWithOutliers(x, y); err != nil {
		return err
	}
	f.trained = true

	res, err := f.predictFeatures(trainingData.T, x)
	if err != nil {
		return err
	}
	f.trainComponents = res.Components

	residual := make([]float64, n)
	floats.SubTo(residual, trainingData.Y, res.Forecast)
	f.residual = residual

	f.sigma = stat.StdDev(residual, nil)
	if math.IsNaN(f.sigma) {
		f.sigma = 0
	}

	scores, err := NewScores(res.Forecast, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores
	return nil
}

func (f *Forecast) initRegressors(td *timedataset.TimeDataset) error {
	names := f.opt.RegressorOptions.Names
	if len(names) == 0 {
		names = td.Regressors()
	}

	f.regressors = make([]RegressorStats, 0, len(names))
	for _, name := range names {
		vals, exists := td.X[name]
		if !exists {
			return fmt.Errorf("%q, %w", name, ErrMissingRegressor)
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if math.IsNaN(std) || std == 0 {
			std = 1.0
		}
		f.regressors = append(f.regressors, RegressorStats{Name: name, Mean: mean, Std: std})
	}
	f.opt.RegressorOptions.Names = append([]string(nil), names...)
	return nil
}

// fitWithOutliers solves the ridge system and refits for each outlier pass after
// masking the observations with outlying residuals.
func (f *Forecast) fitWithOutliers(x *feature.Set, y []float64) error {
	numPasses := max(f.opt.OutlierOptions.NumPasses, 0)

	for i := 0; i <= numPasses; i++ {
		if err := f.solve(x, y); err != nil {
			return err
		}
		if i == numPasses {
			break
		}

		pred, err := f.runInference(x)
		if err != nil {
			return err
		}
		residual := make([]float64, len(y))
		for j := range y {
			residual[j] = y[j] - pred[j]
		}

		outlierIdxs := stats.DetectOutliers(
			residual,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)
		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}
		for _, idx := range outlierIdxs {
			y[idx] = math.NaN()
		}
	}
	return nil
}

func (f *Forecast) solve(x *feature.Set, y []float64) error {
	labels := x.Labels()
	mx, err := x.Matrix(labels)
	if err != nil {
		return err
	}

	// only keep observed rows
	rows := make([]int, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			rows = append(rows, i)
		}
	}
	if len(rows) <= 1 {
		return ErrInsufficientTrainingData
	}
	_, cols := mx.Dims()
	train := make([][]float64, 0, len(rows))
	target := make([]float64, 0, len(rows))
	for _, i := range rows {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = mx.At(i, j)
		}
		train = append(train, row)
		target = append(target, y[i]/f.yScale)
	}
	trainMx, err := mat_.NewDenseFromArray(train)
	if err != nil {
		return err
	}

	// penalties are per observation so regularization keeps pace with the squared error
	nObs := float64(len(rows))
	penalties := make([]float64, 0, labels.Len())
	for _, label := range labels.Labels() {
		penalties = append(penalties, f.opt.Penalty(label)*nObs)
	}

	model, err := linearmodel.NewRidgeRegression(&linearmodel.RidgeOptions{Penalties: penalties})
	if err != nil {
		return err
	}
	if err := model.Fit(trainMx, target); err != nil {
		return fmt.Errorf("unable to fit forecast, %w", err)
	}

	f.fLabels = labels
	f.coef = model.Coef()
	return nil
}

// Predict takes a slice of times and the regressor values at those times and produces the
// predicted value and uncertainty interval given a pre-trained model. The interval widens
// with the square root of the distance past the end of the training window.
func (f *Forecast) Predict(t []time.Time, x map[string][]float64) (*Results, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, ErrUntrainedForecast
	}
	if len(t) == 0 {
		return &Results{}, nil
	}

	feat, err := f.generateFeatures(t, x)
	if err != nil {
		return nil, err
	}
	return f.predictFeatures(t, feat)
}

func (f *Forecast) predictFeatures(t []time.Time, feat *feature.Set) (*Results, error) {
	yhat, err := f.runInference(feat)
	if err != nil {
		return nil, err
	}

	var comp Components
	if comp.Trend, err = f.runInference(feat, feature.FeatureTypeGrowth, feature.FeatureTypeChangepoint); err != nil {
		return nil, err
	}
	if comp.Seasonality, err = f.runInference(feat, feature.FeatureTypeSeasonality); err != nil {
		return nil, err
	}
	if comp.Event, err = f.runInference(feat, feature.FeatureTypeEvent); err != nil {
		return nil, err
	}
	if comp.Regressor, err = f.runInference(feat, feature.FeatureTypeRegressor); err != nil {
		return nil, err
	}

	z := distuv.UnitNormal.Quantile((1.0 + f.opt.IntervalWidth) / 2.0)
	upper := make([]float64, len(t))
	lower := make([]float64, len(t))
	for i, tPnt := range t {
		horizon := math.Max(0, f.scale.Scale(tPnt)-1.0)
		halfWidth := z * f.sigma * math.Sqrt(1.0+horizon)
		upper[i] = yhat[i] + halfWidth
		lower[i] = yhat[i] - halfWidth
	}

	res := &Results{
		T:          append([]time.Time(nil), t...),
		Forecast:   yhat,
		Upper:      upper,
		Lower:      lower,
		Components: comp,
	}
	return res, nil
}

// runInference sums the weighted features in the units of the target. When types are
// provided, only features of those types contribute.
func (f *Forecast) runInference(x *feature.Set, types ...feature.FeatureType) ([]float64, error) {
	var res []float64
	for i, label := range f.fLabels.Labels() {
		if len(types) > 0 && !hasType(label, types) {
			continue
		}
		vals, exists := x.Get(label)
		if !exists {
			return nil, fmt.Errorf("%s, %w", label, feature.ErrMissingFeature)
		}
		if res == nil {
			res = make([]float64, len(vals))
		}
		floats.AddScaled(res, f.coef[i]*f.yScale, vals)
	}
	if res == nil {
		// no features of the requested types, use the length of any generated feature
		for _, label := range x.Labels().Labels() {
			vals, _ := x.Get(label)
			return make([]float64, len(vals)), nil
		}
	}
	return res, nil
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}
	return f.fLabels.Labels()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	labels := f.fLabels.Labels()
	if len(labels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i := 0; i < len(f.coef); i++ {
		coef[labels[i].String()] = f.coef[i]
	}
	return coef, nil
}

// Options returns the options of the forecast including any generated changepoints
func (f *Forecast) Options() *options.Options {
	if f == nil {
		return nil
	}
	return f.opt.Copy()
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil || f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Sigma returns the standard deviation of the training residuals
func (f *Forecast) Sigma() float64 {
	if f == nil {
		return 0
	}
	return f.sigma
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent represents the overall trend component of the training fit which is
// determined by the growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Trend))
	copy(res, f.trainComponents.Trend)
	return res
}

// SeasonalityComponent represents the overall seasonal component of the training fit
func (f *Forecast) SeasonalityComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Seasonality))
	copy(res, f.trainComponents.Seasonality)
	return res
}

func hasType(f feature.Feature, types []feature.FeatureType) bool {
	for _, ft := range types {
		if f.Type() == ft {
			return true
		}
	}
	return false
}

// dropEmptyEvents removes event indicators that are never active in the training window
func dropEmptyEvents(x *feature.Set) *feature.Set {
	res := feature.NewSet()
	for _, label := range x.Labels().Labels() {
		vals, _ := x.Get(label)
		if label.Type() == feature.FeatureTypeEvent && floats.Max(vals) == 0 {
			continue
		}
		res.Set(label, vals)
	}
	return res
}

func absAll(y []float64) []float64 {
	res := make([]float64, len(y))
	for i, v := range y {
		res[i] = math.Abs(v)
	}
	return res
}
