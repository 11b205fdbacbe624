package options

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/profithive/go-forecaster/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compareFeatureSet(t *testing.T, expected, res *feature.Set, tol float64) {
	assert.Equal(t, expected.Len(), res.Len())
	require.Equal(t, expected.Labels(), res.Labels())

	for _, f := range res.Labels().Labels() {
		expVals, exists := expected.Get(f)
		require.True(t, exists)
		gotVals, exists := res.Get(f)
		require.True(t, exists)
		require.Equal(t, len(expVals), len(gotVals))
		assert.InDeltaSlice(t, expVals, gotVals, tol, fmt.Sprintf("feature: %+v, values: %+v\n", f, gotVals))
	}
}

func TestValidate(t *testing.T) {
	testData := map[string]struct {
		update func(o *Options)
		err    error
	}{
		"defaults": {
			update: func(o *Options) {},
		},
		"interval too wide": {
			update: func(o *Options) { o.IntervalWidth = 1.0 },
			err:    ErrInvalidIntervalWidth,
		},
		"negative kappa": {
			update: func(o *Options) { o.Kappa = -1 },
			err:    ErrInvalidKappa,
		},
		"zero changepoint prior": {
			update: func(o *Options) { o.ChangepointOptions.PriorScale = 0 },
			err:    ErrInvalidPriorScale,
		},
		"zero growth prior": {
			update: func(o *Options) { o.GrowthPriorScale = 0 },
			err:    ErrInvalidPriorScale,
		},
		"bad range": {
			update: func(o *Options) { o.ChangepointOptions.Range = 1.5 },
			err:    ErrInvalidRange,
		},
		"bad seasonality": {
			update: func(o *Options) {
				o.SeasonalityOptions.SeasonalityConfigs = append(o.SeasonalityOptions.SeasonalityConfigs, SeasonalityConfig{Name: "bad"})
			},
			err: ErrInvalidSeasonality,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultOptions()
			td.update(opt)
			err := opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPenalty(t *testing.T) {
	opt := NewDefaultOptions()

	testData := map[string]struct {
		f        feature.Feature
		expected float64
	}{
		"intercept": {
			f:        feature.Intercept(),
			expected: 0,
		},
		"linear": {
			f:        feature.Linear(),
			expected: 0.01 / 25.0,
		},
		"changepoint": {
			f:        feature.NewChangepoint("auto_00", feature.ChangepointCompSlope),
			expected: 0.01 / (0.05 * 0.05),
		},
		"seasonality": {
			f:        feature.NewSeasonality(LabelSeasWeekly, feature.FourierCompSin, 1),
			expected: 0.01 / 100.0,
		},
		"unknown seasonality uses default prior": {
			f:        feature.NewSeasonality("monthly", feature.FourierCompSin, 1),
			expected: 0.01 / 100.0,
		},
		"holiday": {
			f:        feature.NewEvent("christmas_day"),
			expected: 0.01 / 100.0,
		},
		"regressor": {
			f:        feature.NewRegressor("promo_active"),
			expected: 0.01 / 100.0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, td.expected, opt.Penalty(td.f), 1e-12)
		})
	}
}

func TestGenerateGrowthFeatures(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)}

	res := NewDefaultOptions().GenerateGrowthFeatures(ts, NewTimeScale(ts[0], ts[2]))
	expected := feature.NewSet().
		Set(feature.Intercept(), []float64{1, 1, 1}).
		Set(feature.Linear(), []float64{0, 0.5, 1})
	compareFeatureSet(t, expected, res, 1e-12)
}

func TestTablePrint(t *testing.T) {
	opt := NewDefaultOptions()
	opt.RegressorOptions.Names = []string{"promo_active"}
	opt.HolidayOptions.Country = "US"

	var buf bytes.Buffer
	require.NoError(t, opt.TablePrint(&buf, "", "  ", 0))
	out := buf.String()
	assert.Contains(t, out, "Interval Width: 0.80")
	assert.Contains(t, out, "yearly")
	assert.Contains(t, out, "Regressors: promo_active")
	assert.Contains(t, out, "Holidays: US")
}

func TestTimeScale(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	scale := NewTimeScale(start, start.AddDate(0, 0, 10))

	assert.Equal(t, 0.0, scale.Scale(start))
	assert.InDelta(t, 0.5, scale.Scale(start.AddDate(0, 0, 5)), 1e-12)
	assert.InDelta(t, 1.2, scale.Scale(start.AddDate(0, 0, 12)), 1e-12)

	empty := NewTimeScale(start, start)
	assert.Equal(t, 0.0, empty.Scale(start.AddDate(0, 0, 1)))
}
