package forecaster

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/profithive/go-forecaster/forecast"
	"github.com/profithive/go-forecaster/store"
	"github.com/profithive/go-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedArtifact(t *testing.T) (*Artifact, Model) {
	t.Helper()

	tTrain := timedataset.GenerateDailyT(historyStart, 35)
	y := timedataset.GenerateConstY(len(tTrain), 200).
		Add(timedataset.GenerateWaveY(tTrain, 20, 7*86400, 1, 0)).
		Add(timedataset.GenerateNoise(len(tTrain), 1.0, 3))
	x := map[string][]float64{
		"weather_score":      timedataset.GenerateConstY(len(tTrain), 0.4),
		"transport_score":    timedataset.GenerateConstY(len(tTrain), 0.5),
		"foot_traffic_score": timedataset.GenerateConstY(len(tTrain), 0.6),
	}
	td, err := timedataset.NewDataset(tTrain, y, x)
	require.NoError(t, err)

	opt := NewDefaultOptions()
	m, err := NewProphetEstimator(opt.ForecastOptions).Fit(td)
	require.NoError(t, err)

	art, err := NewArtifact(m, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), opt.ChangepointPriorScale(), "r1", td.Len())
	require.NoError(t, err)
	return art, m
}

func TestArtifactRoundTrip(t *testing.T) {
	ctx := context.Background()
	art, m := trainedArtifact(t)
	require.NoError(t, art.Validate())

	s := store.New[*Artifact](store.NewMemoryBackend(), store.JSONCodec[*Artifact]{})
	_, err := s.Save(ctx, "r1", art)
	require.NoError(t, err)

	loaded, ok := s.Load(ctx, "r1")
	require.True(t, ok)
	assert.Equal(t, art.ModelID, loaded.ModelID)
	assert.True(t, art.TrainedOn.Equal(loaded.TrainedOn))
	assert.Equal(t, 35, loaded.DataPoints)

	restored, err := NewProphetEstimator(nil).Restore(loaded.Model)
	require.NoError(t, err)

	horizon := Horizon(historyStart.AddDate(0, 0, 34), 7, FrequencyDaily)
	x := map[string][]float64{
		"weather_score":      timedataset.GenerateConstY(7, 0.4),
		"transport_score":    timedataset.GenerateConstY(7, 0.5),
		"foot_traffic_score": timedataset.GenerateConstY(7, 0.6),
	}
	expected, err := m.Predict(horizon, x)
	require.NoError(t, err)
	res, err := restored.Predict(horizon, x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected.Forecast, res.Forecast, 1e-9)
	assert.InDeltaSlice(t, expected.Upper, res.Upper, 1e-9)
	assert.InDeltaSlice(t, expected.Lower, res.Lower, 1e-9)
}

func TestArtifactValidate(t *testing.T) {
	art, _ := trainedArtifact(t)

	testData := map[string]struct {
		mutate func(a *Artifact) *Artifact
		err    error
	}{
		"valid": {
			mutate: func(a *Artifact) *Artifact { return a },
		},
		"nil": {
			mutate: func(a *Artifact) *Artifact { return nil },
			err:    ErrEmptyArtifact,
		},
		"other method": {
			mutate: func(a *Artifact) *Artifact { a.Method = "arima"; return a },
			err:    ErrUnknownMethod,
		},
		"missing id": {
			mutate: func(a *Artifact) *Artifact { a.ModelID = ""; return a },
			err:    ErrMissingModelID,
		},
		"no weights": {
			mutate: func(a *Artifact) *Artifact { a.Model.Weights = forecast.Weights{}; return a },
			err:    ErrEmptyArtifact,
		},
		"no options": {
			mutate: func(a *Artifact) *Artifact { a.Model.Options = nil; return a },
			err:    ErrEmptyArtifact,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			c := *art
			err := td.mutate(&c).Validate()
			if td.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestCorruptArtifactIsAbsent(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, store.Key("r1"), []byte(`{"method":"prophet","model_id":"x"}`)))

	f := newTestForecaster(t, backend)
	_, ok := f.Artifact(ctx, "r1")
	assert.False(t, ok)

	_, err := f.Predict(ctx, PredictRequest{RetailerID: strPtr("r1")})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestNewArtifact(t *testing.T) {
	_, err := NewArtifact(nil, time.Now(), 0.05, "", 0)
	assert.ErrorIs(t, err, ErrNilEstimatorFit)

	art, err := NewArtifact(&fakeModel{}, time.Now(), 0.05, "", 12)
	require.NoError(t, err)
	assert.Nil(t, art.RetailerID)
	assert.Equal(t, MethodProphet, art.Method)
}

func TestArtifactTablePrint(t *testing.T) {
	art, _ := trainedArtifact(t)

	var buf bytes.Buffer
	require.NoError(t, art.TablePrint(&buf))
	out := buf.String()
	assert.Contains(t, out, art.ModelID)
	assert.Contains(t, out, "2025-02-05T00:00:00Z")
	assert.Contains(t, out, "Forecast:")
}
