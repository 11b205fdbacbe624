// Package linearmodel fits linear models on a design matrix where the intercept, if any,
// is supplied as a column of ones by the caller.
package linearmodel

import (
	"errors"
	"fmt"
	"math"

	mat_ "github.com/profithive/go-forecaster/mat"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RidgeOptions represents input options to run the ridge regression. Penalties holds the
// L2 penalty per design matrix column, a zero penalty leaves that column unregularized.
type RidgeOptions struct {
	Penalties []float64
}

// Validate runs basic validation on ridge options
func (o *RidgeOptions) Validate() (*RidgeOptions, error) {
	if o == nil {
		return nil, ErrNoOptions
	}
	for i, p := range o.Penalties {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("invalid penalty %f at column %d, %w", p, i, mat_.ErrNegativePenalty)
		}
	}
	return o, nil
}

// RidgeRegression computes penalized least squares using QR factorization of the
// augmented system [X; sqrt(P)] b = [y; 0].
type RidgeRegression struct {
	opt  *RidgeOptions
	coef []float64
}

// NewRidgeRegression initializes a ridge regression model ready for fitting
func NewRidgeRegression(opt *RidgeOptions) (*RidgeRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &RidgeRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data
func (r *RidgeRegression) Fit(x mat.Matrix, y []float64) error {
	if r.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, n := x.Dims()
	if len(y) != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, len(y), ErrTargetLenMismatch)
	}

	penalties := r.opt.Penalties
	if penalties == nil {
		penalties = make([]float64, n)
	}
	aug, yAug, err := mat_.AugmentRidge(x, y, penalties)
	if err != nil {
		return err
	}

	am, _ := aug.Dims()
	if am < n {
		return fmt.Errorf("%d rows for %d unknowns, %w", am, n, ErrSingularSystem)
	}

	qr := new(mat.QR)
	qr.Factorize(aug)

	var c mat.VecDense
	if err := qr.SolveVecTo(&c, false, mat.NewVecDense(len(yAug), yAug)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("unable to solve least squares, %w", err)
		}
	}

	coef := make([]float64, n)
	for i := 0; i < n; i++ {
		coef[i] = c.AtVec(i)
		if math.IsNaN(coef[i]) || math.IsInf(coef[i], 0) {
			return fmt.Errorf("non-finite coefficient at column %d, %w", i, ErrSingularSystem)
		}
	}
	r.coef = coef
	return nil
}

// Predict using the ridge model
func (r *RidgeRegression) Predict(x mat.Matrix) ([]float64, error) {
	if r.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	m, xn := x.Dims()
	n := len(r.coef)
	if xn != n {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", xn, n, ErrFeatureLenMismatch)
	}

	var res mat.VecDense
	res.MulVec(x, mat.NewVecDense(n, r.Coef()))

	out := make([]float64, m)
	for i := 0; i < m; i++ {
		out[i] = res.AtVec(i)
	}
	return out, nil
}

// Score computes the coefficient of determination of the prediction
func (r *RidgeRegression) Score(x mat.Matrix, y []float64) (float64, error) {
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	if m != len(y) {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, len(y), ErrTargetLenMismatch)
	}

	res, err := r.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return stat.RSquaredFrom(res, y, nil), nil
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (r *RidgeRegression) Coef() []float64 {
	c := make([]float64, len(r.coef))
	copy(c, r.coef)
	return c
}
