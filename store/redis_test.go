package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	r := NewRedisBackend(client, "forecaster:", time.Hour)

	mock.ExpectGet("forecaster:prophet_model_r1").RedisNil()
	_, err := r.Get(ctx, "prophet_model_r1")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectSet("forecaster:prophet_model_r1", []byte(`{"name":"m"}`), time.Hour).SetVal("OK")
	require.NoError(t, r.Put(ctx, "prophet_model_r1", []byte(`{"name":"m"}`)))

	mock.ExpectGet("forecaster:prophet_model_r1").SetVal(`{"name":"m"}`)
	data, err := r.Get(ctx, "prophet_model_r1")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"m"}`, string(data))

	mock.ExpectGet("forecaster:prophet_model_r2").SetErr(errors.New("connection refused"))
	_, err = r.Get(ctx, "prophet_model_r2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "redis://forecaster:prophet_model_r1", r.Location("prophet_model_r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBackendModelStore(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	s := New[*testModel](NewRedisBackend(client, "", 0), JSONCodec[*testModel]{})

	mock.ExpectSet("prophet_model", []byte(`{"name":"m","value":1}`), 0).SetErr(redis.ErrClosed)
	_, err := s.Save(ctx, "", &testModel{Name: "m", Value: 1})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, redis.ErrClosed)

	mock.ExpectGet("prophet_model").SetVal(`{"name":"m","value":1}`)
	m, ok := s.Load(ctx, "")
	require.True(t, ok)
	assert.Equal(t, 1.0, m.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}
