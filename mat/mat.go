// Package mat contains helpers to build gonum dense matrices from feature data
package mat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch     = errors.New("column size mismatch")
	ErrRowMismatch     = errors.New("row size mismatch")
	ErrEmptyArray      = errors.New("empty array")
	ErrPenaltyMismatch = errors.New("penalty length does not match number of columns")
	ErrNegativePenalty = errors.New("negative penalty")
)

// NewDenseFromArray builds an m x n matrix from m rows of n values
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, ErrEmptyArray
	}

	n := len(x[0])
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
	}
	if n == 0 {
		return nil, ErrEmptyArray
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// NewDenseFromColumns builds an m x n matrix from n columns of m values. This is the
// layout features are generated in.
func NewDenseFromColumns(cols [][]float64) (*mat.Dense, error) {
	n := len(cols)
	if n == 0 {
		return nil, ErrEmptyArray
	}
	m := len(cols[0])
	if m == 0 {
		return nil, ErrEmptyArray
	}
	for j, col := range cols {
		if len(col) != m {
			return nil, fmt.Errorf("at column %d, %w", j, ErrRowMismatch)
		}
	}

	data := make([]float64, m*n)
	for j, col := range cols {
		for i, v := range col {
			data[i*n+j] = v
		}
	}
	return mat.NewDense(m, n, data), nil
}

// AugmentRidge stacks sqrt(penalty) on the diagonal below x and zeros below y so that an
// ordinary least squares solve of the result minimizes ||y - xb||^2 + sum(penalty_j * b_j^2).
// Columns with a zero penalty get no extra row.
func AugmentRidge(x mat.Matrix, y []float64, penalties []float64) (*mat.Dense, []float64, error) {
	m, n := x.Dims()
	if len(penalties) != n {
		return nil, nil, fmt.Errorf("expected %d penalties, but got %d, %w", n, len(penalties), ErrPenaltyMismatch)
	}
	if len(y) != m {
		return nil, nil, fmt.Errorf("expected %d observations, but got %d, %w", m, len(y), ErrRowMismatch)
	}

	var extra int
	for j, p := range penalties {
		if p < 0 {
			return nil, nil, fmt.Errorf("column %d, %w", j, ErrNegativePenalty)
		}
		if p > 0 {
			extra++
		}
	}

	aug := mat.NewDense(m+extra, n, nil)
	aug.Slice(0, m, 0, n).(*mat.Dense).Copy(x)

	row := m
	for j, p := range penalties {
		if p == 0 {
			continue
		}
		aug.Set(row, j, math.Sqrt(p))
		row++
	}

	yAug := make([]float64, m+extra)
	copy(yAug, y)
	return aug, yAug, nil
}
