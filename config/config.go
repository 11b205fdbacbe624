// Package config loads the forecaster configuration from YAML with defaults and environment
// overrides
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/profithive/go-forecaster"
	"github.com/profithive/go-forecaster/confidence"
	"github.com/profithive/go-forecaster/logging"
	"github.com/profithive/go-forecaster/store"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "FORECASTER_"

const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreS3     = "s3"
)

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

type Config struct {
	Log    logging.Config `yaml:"log"`
	Model  ModelConfig    `yaml:"model"`
	Store  StoreConfig    `yaml:"store"`
	Server ServerConfig   `yaml:"server"`
}

type ModelConfig struct {
	ChangepointPriorScale float64  `yaml:"changepoint_prior_scale" default:"0.05" validate:"gt=0"`
	IntervalWidth         float64  `yaml:"interval_width" default:"0.8" validate:"gt=0,lt=1"`
	Holidays              string   `yaml:"holidays" validate:"omitempty,len=2"`
	OutlierPasses         int      `yaml:"outlier_passes" validate:"gte=0"`
	MinTrainingRows       int      `yaml:"min_training_rows" default:"10" validate:"gte=1"`
	RegressorWindow       int      `yaml:"regressor_window" default:"7" validate:"gte=1"`
	Regressors            []string `yaml:"regressors" default:"[\"weather_score\",\"transport_score\",\"foot_traffic_score\"]" validate:"dive,required"`

	// Jitter bounds the confidence perturbation, Seed switches it from hashed to random
	Jitter float64 `yaml:"jitter" default:"0.02" validate:"gte=0,lte=0.1"`
	Seed   *uint64 `yaml:"seed"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" default:"localhost:6379"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix" default:"forecaster:"`
	TTL      time.Duration `yaml:"ttl"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" default:"models.db"`
}

type S3Config struct {
	store.S3Config `yaml:",inline"`

	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix" default:"models/"`
}

type StoreConfig struct {
	Type   string       `yaml:"type" default:"file" validate:"oneof=file memory redis sqlite s3"`
	Dir    string       `yaml:"dir" default:"models"`
	Redis  RedisConfig  `yaml:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	S3     S3Config     `yaml:"s3"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	TrainRate       float64       `yaml:"train_rate" default:"1" validate:"gt=0"`
	TrainBurst      int           `yaml:"train_burst" default:"2" validate:"gte=1"`
	BodyLimit       string        `yaml:"body_limit" default:"8M"`
}

// Default returns the configuration with every default applied
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set config defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML configuration file on top of the defaults and applies environment
// overrides. An empty path only uses defaults and the environment.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	setStr := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	setStr("LOG_LEVEL", &c.Log.Level)
	setStr("LOG_FORMAT", &c.Log.Format)
	setStr("LOG_OUTPUT", &c.Log.Output)
	setStr("STORE", &c.Store.Type)
	setStr("MODEL_DIR", &c.Store.Dir)
	setStr("REDIS_ADDR", &c.Store.Redis.Addr)
	setStr("REDIS_PASSWORD", &c.Store.Redis.Password)
	setStr("SQLITE_PATH", &c.Store.SQLite.Path)
	setStr("S3_BUCKET", &c.Store.S3.Bucket)
	setStr("S3_ENDPOINT", &c.Store.S3.Endpoint)
	setStr("S3_REGION", &c.Store.S3.Region)
	setStr("SERVER_ADDR", &c.Server.Addr)
	setStr("HOLIDAYS", &c.Model.Holidays)

	if v, ok := os.LookupEnv(EnvPrefix + "CHANGEPOINT_PRIOR_SCALE"); ok && v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse %sCHANGEPOINT_PRIOR_SCALE: %w", EnvPrefix, err)
		}
		c.Model.ChangepointPriorScale = scale
	}
	if v, ok := os.LookupEnv(EnvPrefix + "REGRESSORS"); ok && v != "" {
		names := strings.Split(v, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		c.Model.Regressors = names
	}
	return nil
}

// Validate checks the configuration against its validation tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Store.Type == StoreS3 && c.Store.S3.Bucket == "" {
		return fmt.Errorf("%w: store.s3.bucket is required", ErrInvalidConfig)
	}
	return nil
}

// ForecasterOptions returns the modeling options described by the configuration
func (c *Config) ForecasterOptions() *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	opt.SetChangepointPriorScale(c.Model.ChangepointPriorScale)
	opt.ForecastOptions.IntervalWidth = c.Model.IntervalWidth
	opt.ForecastOptions.HolidayOptions.Country = c.Model.Holidays
	opt.ForecastOptions.OutlierOptions.NumPasses = c.Model.OutlierPasses
	opt.MinTrainingRows = c.Model.MinTrainingRows
	opt.RegressorWindow = c.Model.RegressorWindow
	opt.Regressors = append([]string(nil), c.Model.Regressors...)
	return opt
}

// ScorerOptions returns the confidence scorer options described by the configuration
func (c *Config) ScorerOptions() []confidence.Option {
	opts := []confidence.Option{confidence.WithJitter(c.Model.Jitter)}
	if c.Model.Seed != nil {
		opts = append(opts, confidence.WithSeed(*c.Model.Seed))
	}
	return opts
}

// OpenBackend connects the configured model store backend. The closer releases any client
// opened for it.
func (s StoreConfig) OpenBackend(ctx context.Context) (store.Backend, io.Closer, error) {
	switch s.Type {
	case StoreMemory:
		return store.NewMemoryBackend(), nopCloser{}, nil
	case StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", s.Redis.Addr, err)
		}
		return store.NewRedisBackend(client, s.Redis.Prefix, s.Redis.TTL), client, nil
	case StoreSQLite:
		backend, err := store.OpenSQLiteBackend(s.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend, nil
	case StoreS3:
		client, err := store.NewS3Client(ctx, s.S3.S3Config)
		if err != nil {
			return nil, nil, err
		}
		return store.NewS3Backend(client, s.S3.Bucket, s.S3.Prefix), nopCloser{}, nil
	case StoreFile, "":
		return store.NewFileBackend(s.Dir), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store type %q", ErrInvalidConfig, s.Type)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
