package feature

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangepointString(t *testing.T) {
	feat := NewChangepoint("c03", ChangepointCompSlope)
	assert.Equal(t, "chpnt_c03_slope", feat.String())
	assert.Equal(t, FeatureTypeChangepoint, feat.Type())
}

func TestChangepointGet(t *testing.T) {
	feat := NewChangepoint("c03", ChangepointCompBias)

	testData := map[string]struct {
		label     string
		expVal    string
		expExists bool
	}{
		"unknown": {
			label: "unknown",
		},
		"name": {
			label:     "Name",
			expVal:    "c03",
			expExists: true,
		},
		"component": {
			label:     "changepoint_component",
			expVal:    "bias",
			expExists: true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			val, exists := feat.Get(td.label)
			assert.Equal(t, td.expExists, exists)
			assert.Equal(t, td.expVal, val)
		})
	}
}

func TestChangepointUnmarshalJSON(t *testing.T) {
	feat := NewChangepoint("c03", ChangepointCompSlope)
	out, err := json.Marshal(feat.Decode())
	require.NoError(t, err)

	var nextFeat Changepoint
	require.NoError(t, json.Unmarshal(out, &nextFeat))
	assert.Equal(t, feat, &nextFeat)
}

func TestChangepointGenerate(t *testing.T) {
	tScaled := []float64{0, 0.25, 0.5, 0.75, 1.0}

	testData := map[string]struct {
		feat     *Changepoint
		chpt     float64
		expected []float64
	}{
		"slope": {
			feat:     NewChangepoint("c00", ChangepointCompSlope),
			chpt:     0.5,
			expected: []float64{0, 0, 0, 0.25, 0.5},
		},
		"bias": {
			feat:     NewChangepoint("c00", ChangepointCompBias),
			chpt:     0.5,
			expected: []float64{0, 0, 1, 1, 1},
		},
		"slope before series": {
			feat:     NewChangepoint("c00", ChangepointCompSlope),
			chpt:     -1,
			expected: []float64{1, 1.25, 1.5, 1.75, 2.0},
		},
		"unknown": {
			feat: NewChangepoint("c00", ChangepointComp("curve")),
			chpt: 0.5,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.feat.Generate(tScaled, td.chpt)
			if td.expected == nil {
				assert.Nil(t, res)
				return
			}
			assert.InDeltaSlice(t, td.expected, res, 1e-12)
		})
	}
}
