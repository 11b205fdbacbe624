package prepare

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, raw string) []Record {
	var records []Record
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	return records
}

func TestPrepare(t *testing.T) {
	testData := map[string]struct {
		raw      string
		expT     []time.Time
		expY     []float64
		expX     map[string][]float64
		errField string
		errRow   int
	}{
		"sorted with regressors": {
			raw: `[
				{"ds": "2025-01-02", "y": 12, "weather_score": 0.2, "transport_score": 0.4, "foot_traffic_score": 0.6},
				{"ds": "2025-01-01", "y": 10.5, "weather_score": 0.1, "transport_score": 0.3, "foot_traffic_score": 0.5}
			]`,
			expT: []time.Time{
				time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			},
			expY: []float64{10.5, 12},
			expX: map[string][]float64{
				RegressorWeather:     {0.1, 0.2},
				RegressorTransport:   {0.3, 0.4},
				RegressorFootTraffic: {0.5, 0.6},
			},
		},
		"missing regressors filled and clipped": {
			raw: `[
				{"ds": "2025-01-01", "y": "7", "weather_score": null},
				{"ds": "2025-01-02 00:00:00", "y": 8, "weather_score": 1.7},
				{"ds": "2025-01-03T00:00:00Z", "y": 9, "weather_score": "-2"},
				{"ds": "2025-01-04T00:00", "y": 10, "weather_score": "sunny"}
			]`,
			expT: []time.Time{
				time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC),
			},
			expY: []float64{7, 8, 9, 10},
			expX: map[string][]float64{
				RegressorWeather:     {0.5, 1.0, 0.0, 0.5},
				RegressorTransport:   {0.5, 0.5, 0.5, 0.5},
				RegressorFootTraffic: {0.5, 0.5, 0.5, 0.5},
			},
		},
		"duplicates keep last": {
			raw: `[
				{"ds": "2025-01-02", "y": 1},
				{"ds": "2025-01-01", "y": 2},
				{"ds": "2025-01-02", "y": 3}
			]`,
			expT: []time.Time{
				time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			},
			expY: []float64{2, 3},
			expX: map[string][]float64{
				RegressorWeather:     {0.5, 0.5},
				RegressorTransport:   {0.5, 0.5},
				RegressorFootTraffic: {0.5, 0.5},
			},
		},
		"hourly": {
			raw: `[{"ds": "2025-01-10T12:00:00", "y": 4}, {"ds": "2025-01-10 11:00", "y": 3}]`,
			expT: []time.Time{
				time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC),
				time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
			},
			expY: []float64{3, 4},
			expX: map[string][]float64{
				RegressorWeather:     {0.5, 0.5},
				RegressorTransport:   {0.5, 0.5},
				RegressorFootTraffic: {0.5, 0.5},
			},
		},
		"missing y": {
			raw:      `[{"ds": "2025-01-01", "y": 1}, {"ds": "2025-01-02"}]`,
			errField: FieldY,
			errRow:   1,
		},
		"null y": {
			raw:      `[{"ds": "2025-01-01", "y": null}]`,
			errField: FieldY,
		},
		"non numeric y": {
			raw:      `[{"ds": "2025-01-01", "y": "lots"}]`,
			errField: FieldY,
		},
		"boolean y": {
			raw:      `[{"ds": "2025-01-01", "y": true}]`,
			errField: FieldY,
		},
		"nan y": {
			raw:      `[{"ds": "2025-01-01", "y": "NaN"}]`,
			errField: FieldY,
		},
		"missing ds": {
			raw:      `[{"y": 1}]`,
			errField: FieldDS,
		},
		"bad ds": {
			raw:      `[{"ds": "01/02/2025", "y": 1}]`,
			errField: FieldDS,
		},
		"numeric ds": {
			raw:      `[{"ds": 20250101, "y": 1}]`,
			errField: FieldDS,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := New().Prepare(decodeRecords(t, td.raw))
			if td.errField != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, td.errField, verr.Field)
				assert.Equal(t, td.errRow, verr.Row)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expT, res.T)
			assert.Equal(t, td.expY, res.Y)
			assert.Equal(t, td.expX, res.X)
		})
	}
}

func TestPrepareEmpty(t *testing.T) {
	res, err := New().Prepare(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Len(t, res.X, 3)
}

func TestPrepareIdempotent(t *testing.T) {
	records := decodeRecords(t, `[
		{"ds": "2025-01-03", "y": 3, "weather_score": 0.9},
		{"ds": "2025-01-01", "y": 1, "weather_score": 1.5},
		{"ds": "2025-01-03", "y": 4, "weather_score": 0.1}
	]`)
	p := New()
	first, err := p.Prepare(records)
	require.NoError(t, err)

	again := make([]Record, 0, first.Len())
	for i := range first.T {
		rec := Record{FieldDS: first.T[i].Format(time.RFC3339), FieldY: first.Y[i]}
		for name, vals := range first.X {
			rec[name] = vals[i]
		}
		again = append(again, rec)
	}
	second, err := p.Prepare(again)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPrepareRegressorsBounded(t *testing.T) {
	records := []Record{
		{FieldDS: "2025-01-01", FieldY: 1.0, RegressorWeather: math.Inf(1), RegressorTransport: math.Inf(-1), RegressorFootTraffic: math.NaN()},
		{FieldDS: "2025-01-02", FieldY: 2, RegressorWeather: int64(3), RegressorTransport: json.Number("0.25"), RegressorFootTraffic: float32(0.75)},
	}
	res, err := New().Prepare(records)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.0, 1.0}, res.X[RegressorWeather])
	assert.Equal(t, []float64{0.0, 0.25}, res.X[RegressorTransport])
	assert.Equal(t, []float64{0.5, 0.75}, res.X[RegressorFootTraffic])
	for _, vals := range res.X {
		for _, v := range vals {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestPrepareLogsMissingRegressorOnce(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithLogger(zerolog.New(&buf)), WithRegressors("promo_active"))
	assert.Equal(t, []string{"promo_active"}, p.Regressors())

	_, err := p.Prepare(decodeRecords(t, `[{"ds": "2025-01-01", "y": 1}, {"ds": "2025-01-02", "y": 2}]`))
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte(`"regressor":"promo_active"`)))
	assert.Contains(t, out, `"message":"prepared history"`)
}

func TestValidationError(t *testing.T) {
	testData := map[string]struct {
		err      *ValidationError
		expected string
	}{
		"row": {
			err:      NewValidationError(2, FieldY, "missing value"),
			expected: `validation error: row 2: field "y": missing value`,
		},
		"dataset": {
			err:      NewValidationError(-1, "", "need at least 10 rows"),
			expected: "validation error: need at least 10 rows",
		},
		"dataset field": {
			err:      NewValidationError(-1, "history", "empty"),
			expected: `validation error: field "history": empty`,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.err.Error())
			assert.ErrorIs(t, td.err, ErrValidation)
		})
	}
}
