package feature

import (
	"errors"
	"fmt"
	"sort"

	mat_ "github.com/profithive/go-forecaster/mat"
	"gonum.org/v1/gonum/mat"
)

var ErrMissingFeature = errors.New("feature missing from set")

// Data pairs a feature with its generated values
type Data struct {
	F    Feature
	Data []float64
}

// Set represents a mapping to each feature data keyed by the string representation
// of the feature.
type Set struct {
	set map[string]Data
}

func NewSet() *Set {
	return &Set{set: make(map[string]Data)}
}

// Set stores the feature values, replacing any existing values for the feature
func (s *Set) Set(f Feature, data []float64) *Set {
	s.set[f.String()] = Data{F: f, Data: data}
	return s
}

// Get returns the feature values and whether the feature exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	d, exists := s.set[f.String()]
	return d.Data, exists
}

// Len returns the number of features in the set
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.set)
}

// Update copies every feature from other into this set
func (s *Set) Update(other *Set) *Set {
	if other == nil {
		return s
	}
	for label, d := range other.set {
		s.set[label] = d
	}
	return s
}

// Filter returns a new set only including the requested feature types
func (s *Set) Filter(types ...FeatureType) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for label, d := range s.set {
		for _, ft := range types {
			if d.F.Type() == ft {
				res.set[label] = d
				break
			}
		}
	}
	return res
}

// Labels returns the sorted slice of all tracked features in the Set
func (s *Set) Labels() *Labels {
	if s == nil {
		return NewLabels(nil)
	}

	labels := make([]Feature, 0, len(s.set))
	for _, d := range s.set {
		labels = append(labels, d.F)
	}
	sort.Slice(
		labels,
		func(i, j int) bool {
			return labels[i].String() < labels[j].String()
		},
	)
	return NewLabels(labels)
}

// Matrix returns the m x n design matrix of the set where m is the number of observations
// and each of the n columns follows the order of the provided labels.
func (s *Set) Matrix(labels *Labels) (*mat.Dense, error) {
	cols := make([][]float64, 0, labels.Len())
	for _, f := range labels.Labels() {
		vals, exists := s.Get(f)
		if !exists {
			return nil, fmt.Errorf("%s, %w", f, ErrMissingFeature)
		}
		cols = append(cols, vals)
	}
	return mat_.NewDenseFromColumns(cols)
}
