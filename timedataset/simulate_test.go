package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateT(t *testing.T) {
	nowFunc := func() time.Time {
		return time.Date(1970, 1, 8, 0, 0, 0, 0, time.UTC)
	}

	numPnts := 7
	res := GenerateT(numPnts, 24*time.Hour, nowFunc)
	assert.Len(t, res, numPnts)

	assert.Equal(t, res[0], time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, res[numPnts-1], time.Date(1970, 1, 7, 0, 0, 0, 0, time.UTC))
}

func TestGenerateDailyT(t *testing.T) {
	res := GenerateDailyT(time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []time.Time{
		time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}, res)
}

func TestSeries(t *testing.T) {
	numPnts := 7
	s := Series(GenerateConstY(numPnts, 1))

	res := s.Add(GenerateConstY(numPnts, 2))
	require.Equal(t, Series([]float64{3, 3, 3, 3, 3, 3, 3}), res)

	// 1970-01-01 is a thursday
	tSeries := GenerateDailyT(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), numPnts)
	s.MaskWithWeekend(tSeries)
	assert.Equal(t, Series([]float64{0, 0, 3, 3, 0, 0, 0}), s)

	s.Add(Series{-1, 0, 1, 2, 3, 4, 5}).Clip(0, 4)
	assert.Equal(t, Series([]float64{0, 0, 4, 4, 3, 4, 4}), s)
}

func TestGenerateTrendAndChange(t *testing.T) {
	tSeries := GenerateDailyT(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 4)

	assert.InDeltaSlice(t, []float64{0, 2, 4, 6}, GenerateTrend(tSeries, 2), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 10, 11}, GenerateChange(tSeries, tSeries[2], 10, 1), 1e-9)
}

func TestGenerateNoiseSeeded(t *testing.T) {
	a := GenerateNoise(10, 2.0, 42)
	b := GenerateNoise(10, 2.0, 42)
	c := GenerateNoise(10, 2.0, 43)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
