// Package store persists trained models keyed by entity. A ModelStore encodes models with a
// Codec and writes the bytes to a Backend such as the local filesystem, redis, sqlite or s3.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "prophet_model"

var (
	ErrNotFound    = errors.New("model not found")
	ErrPersistence = errors.New("persistence error")
)

// Backend stores opaque blobs by key. Get returns ErrNotFound when the key does not exist.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Location(key string) string
}

// PersistenceError reports a failure to save a model
type PersistenceError struct {
	Key string
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s %q, %v", ErrPersistence, e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Key returns the storage key of an entity. The empty entity maps to the default slot.
// Characters outside of [A-Za-z0-9_.-] are percent encoded so keys are path safe.
func Key(entityID string) string {
	if entityID == "" {
		return keyPrefix
	}
	return keyPrefix + "_" + escape(entityID)
}

func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '_', c == '-', c == '.':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// Codec converts a model to and from bytes
type Codec[M any] interface {
	Marshal(m M) ([]byte, error)
	Unmarshal(data []byte) (M, error)
}

// JSONCodec encodes models as JSON
type JSONCodec[M any] struct{}

func (JSONCodec[M]) Marshal(m M) ([]byte, error) {
	return json.Marshal(m)
}

func (JSONCodec[M]) Unmarshal(data []byte) (M, error) {
	var m M
	err := json.Unmarshal(data, &m)
	return m, err
}

// Validator is optionally implemented by models to reject structurally valid but unusable blobs
type Validator interface {
	Validate() error
}

type Option func(*options)

type options struct {
	logger zerolog.Logger
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// ModelStore loads and saves models of type M for entities
type ModelStore[M any] struct {
	backend Backend
	codec   Codec[M]
	logger  zerolog.Logger
	group   singleflight.Group
}

func New[M any](backend Backend, codec Codec[M], fns ...Option) *ModelStore[M] {
	opt := options{logger: zerolog.Nop()}
	for _, fn := range fns {
		fn(&opt)
	}
	return &ModelStore[M]{
		backend: backend,
		codec:   codec,
		logger:  opt.logger,
	}
}

// Location returns where the model of the entity is stored
func (s *ModelStore[M]) Location(entityID string) string {
	return s.backend.Location(Key(entityID))
}

// Load returns the model of the entity. A missing model, backend failure or corrupt blob is
// reported as absent and never as an error. Concurrent loads of the same entity share one
// backend read.
func (s *ModelStore[M]) Load(ctx context.Context, entityID string) (M, bool) {
	key := Key(entityID)
	res, err, _ := s.group.Do(key, func() (any, error) {
		data, err := s.backend.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		m, err := s.codec.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("unable to decode model, %w", err)
		}
		if v, ok := any(m).(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("invalid model, %w", err)
			}
		}
		return m, nil
	})

	var zero M
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug().Str("key", key).Msg("no stored model")
			return zero, false
		}
		s.logger.Warn().Err(err).Str("key", key).Msg("unable to load stored model, treating as absent")
		return zero, false
	}
	m, ok := res.(M)
	if !ok {
		return zero, false
	}
	return m, true
}

// Save encodes and writes the model of the entity replacing any existing model. The storage
// location is returned.
func (s *ModelStore[M]) Save(ctx context.Context, entityID string, m M) (string, error) {
	key := Key(entityID)
	data, err := s.codec.Marshal(m)
	if err != nil {
		return "", &PersistenceError{Key: key, Op: "marshal", Err: err}
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return "", &PersistenceError{Key: key, Op: "put", Err: err}
	}

	loc := s.backend.Location(key)
	s.logger.Info().Str("key", key).Str("location", loc).Int("bytes", len(data)).Msg("saved model")
	return loc, nil
}
