package confidence

import (
	"bytes"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestScoreWithoutJitter(t *testing.T) {
	s := New(WithJitter(0))

	testData := map[string]struct {
		yhat     []float64
		lower    []float64
		upper    []float64
		expected float64
	}{
		"flat narrow band clamps high": {
			yhat:     []float64{100, 100, 100},
			lower:    []float64{99, 99, 99},
			upper:    []float64{101, 101, 101},
			expected: MaxScore,
		},
		"wide band clamps low": {
			yhat:     []float64{100, 100},
			lower:    []float64{0, 0},
			upper:    []float64{200, 200},
			expected: MinScore,
		},
		"formula in range": {
			// widths 0.5 and 0.5 -> base 1 - 0.5/3
			// mean 110, sample std of {100, 120} = 14.142 -> variability 0.0643
			// changes 20/2 = 10 -> trend 10/110*0.3 = 0.0273
			yhat:     []float64{100, 120},
			lower:    []float64{75, 90},
			upper:    []float64{125, 150},
			expected: 1 - 0.5/3 - (math.Sqrt(200)/110)*0.5 - (10.0/110)*0.3,
		},
		"single point takes full variability penalty": {
			yhat:     []float64{100},
			lower:    []float64{97},
			upper:    []float64{103},
			expected: 1 - 0.06/3 - 0.15,
		},
		"penalties are capped": {
			// widths 0.2 -> base 0.9333, variability capped at 0.15 and trend capped at 0.1
			yhat:     []float64{10, 100, 10, 100},
			lower:    []float64{9, 90, 9, 90},
			upper:    []float64{11, 110, 11, 110},
			expected: 1 - 0.2/3 - 0.15 - 0.1,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, td.expected, s.Score(td.yhat, td.lower, td.upper), 1e-9)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	scorers := map[string]*Scorer{
		"hashed": New(),
		"seeded": New(WithSeed(42)),
	}

	inputs := [][3][]float64{
		{{100, 100, 100}, {99, 99, 99}, {101, 101, 101}},
		{{100, 100}, {0, 0}, {200, 200}},
		{{50, 75, 80, 120}, {40, 60, 70, 100}, {60, 90, 90, 140}},
		{{0, 0}, {-1, -1}, {1, 1}},
		{{}, {}, {}},
		{{1, 2}, {1}, {3, 4}},
		{{-100, -100}, {-110, -110}, {-90, -90}},
	}

	for name, s := range scorers {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				for _, in := range inputs {
					score := s.Score(in[0], in[1], in[2])
					assert.GreaterOrEqual(t, score, MinScore)
					assert.LessOrEqual(t, score, MaxScore)
				}
			}
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	yhat := []float64{100, 104, 98, 101}
	lower := []float64{90, 95, 88, 91}
	upper := []float64{110, 113, 108, 111}

	s := New()
	first := s.Score(yhat, lower, upper)
	assert.Equal(t, first, s.Score(yhat, lower, upper))
	assert.Equal(t, first, New().Score(yhat, lower, upper))

	unperturbed := New(WithJitter(0)).Score(yhat, lower, upper)
	assert.InDelta(t, unperturbed, first, DefaultJitter+1e-12)

	seededA := New(WithSeed(7))
	seededB := New(WithSeed(7))
	for i := 0; i < 5; i++ {
		assert.Equal(t, seededA.Score(yhat, lower, upper), seededB.Score(yhat, lower, upper))
	}
}

func TestScoreFallback(t *testing.T) {
	var buf bytes.Buffer
	s := New(WithLogger(zerolog.New(&buf)))

	testData := map[string][3][]float64{
		"empty":      {nil, nil, nil},
		"mismatched": {{1, 2}, {1}, {3, 4}},
		"zero yhat":  {{0, 100}, {-1, 90}, {1, 110}},
		"nan":        {{math.NaN(), 100}, {90, 90}, {110, 110}},
	}

	for name, in := range testData {
		t.Run(name, func(t *testing.T) {
			score := s.Score(in[0], in[1], in[2])
			assert.GreaterOrEqual(t, score, FallbackScore-FallbackSpread)
			assert.LessOrEqual(t, score, FallbackScore+FallbackSpread)
		})
	}
	assert.Contains(t, buf.String(), "using fallback")
}
