package feature

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegressorUnmarshalJSON(t *testing.T) {
	feat := NewRegressor("promo_active")
	assert.Equal(t, "reg_promo_active", feat.String())
	assert.Equal(t, FeatureTypeRegressor, feat.Type())

	out, err := json.Marshal(feat.Decode())
	require.NoError(t, err)

	var nextFeat Regressor
	require.NoError(t, json.Unmarshal(out, &nextFeat))
	assert.Equal(t, feat, &nextFeat)
}

func TestRegressorGenerate(t *testing.T) {
	testData := map[string]struct {
		vals     []float64
		mean     float64
		std      float64
		expected []float64
	}{
		"standardized": {
			vals:     []float64{0, 0.5, 1.0},
			mean:     0.5,
			std:      0.5,
			expected: []float64{-1, 0, 1},
		},
		"zero std only centers": {
			vals:     []float64{0.5, 0.5},
			mean:     0.5,
			std:      0,
			expected: []float64{0, 0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := NewRegressor("r").Generate(td.vals, td.mean, td.std)
			assert.InDeltaSlice(t, td.expected, res, 1e-12)
		})
	}
}
