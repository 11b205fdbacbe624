// Package timedataset holds the canonical time series used for training: ascending, unique
// timestamps, an observed value per timestamp and any number of named regressor columns.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrUnknownRegressor   = errors.New("unknown regressor")
)

// TimeDataset represents a time series storing a slice of time points, values and
// regressors. All slices must be of the same length.
type TimeDataset struct {
	T []time.Time
	Y []float64
	X map[string][]float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	return NewDataset(t, y, nil)
}

// NewDataset returns an instance of a TimeDataset with regressor columns. Time must be
// strictly increasing and every regressor must match the length of the time slice.
func NewDataset(t []time.Time, y []float64, x map[string][]float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}
	for name, vals := range x {
		if len(vals) != len(t) {
			return nil, fmt.Errorf(
				"regressor %q has length of %d, but time has a length of %d, %w",
				name, len(vals), len(t), ErrDatasetLenMismatch,
			)
		}
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	td := &TimeDataset{
		T: make([]time.Time, len(t)),
		Y: make([]float64, len(y)),
		X: make(map[string][]float64, len(x)),
	}
	copy(td.T, t)
	copy(td.Y, y)
	for name, vals := range x {
		col := make([]float64, len(vals))
		copy(col, vals)
		td.X[name] = col
	}
	return td, nil
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// Copy returns a deep copy of the dataset
func (td *TimeDataset) Copy() *TimeDataset {
	if td == nil {
		return nil
	}
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.Y))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)

	x := make(map[string][]float64, len(td.X))
	for name, vals := range td.X {
		col := make([]float64, len(vals))
		copy(col, vals)
		x[name] = col
	}
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
		X: x,
	}
}

// DropNan returns a new dataset excluding every row with a NaN observation
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}

	res := &TimeDataset{
		T: make([]time.Time, 0, len(td.T)),
		Y: make([]float64, 0, len(td.Y)),
		X: make(map[string][]float64, len(td.X)),
	}
	for name := range td.X {
		res.X[name] = make([]float64, 0, len(td.T))
	}
	for i := 0; i < len(td.Y); i++ {
		if math.IsNaN(td.Y[i]) {
			continue
		}
		res.T = append(res.T, td.T[i])
		res.Y = append(res.Y, td.Y[i])
		for name, vals := range td.X {
			res.X[name] = append(res.X[name], vals[i])
		}
	}
	return res
}

// Regressors returns the sorted names of the regressor columns
func (td *TimeDataset) Regressors() []string {
	if td == nil {
		return nil
	}
	names := make([]string, 0, len(td.X))
	for name := range td.X {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TailMean returns the mean of the last n values of a regressor. If fewer than n rows
// exist, all available rows are used.
func (td *TimeDataset) TailMean(name string, n int) (float64, error) {
	vals, exists := td.X[name]
	if !exists {
		return 0, fmt.Errorf("%q, %w", name, ErrUnknownRegressor)
	}
	if n <= 0 || len(vals) == 0 {
		return 0, ErrNoTrainingData
	}
	if n > len(vals) {
		n = len(vals)
	}
	var sum float64
	for _, v := range vals[len(vals)-n:] {
		sum += v
	}
	return sum / float64(n), nil
}
