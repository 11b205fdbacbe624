package store

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testModel struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (m *testModel) Validate() error {
	if m == nil || m.Name == "" {
		return errors.New("missing name")
	}
	return nil
}

func TestKey(t *testing.T) {
	testData := map[string]struct {
		entityID string
		expected string
	}{
		"default":   {entityID: "", expected: "prophet_model"},
		"simple":    {entityID: "store-42", expected: "prophet_model_store-42"},
		"path":      {entityID: "../etc/passwd", expected: "prophet_model_..%2Fetc%2Fpasswd"},
		"spaces":    {entityID: "my shop", expected: "prophet_model_my%20shop"},
		"unicode":   {entityID: "é", expected: "prophet_model_%C3%A9"},
		"no escape": {entityID: "A.b_c", expected: "prophet_model_A.b_c"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, Key(td.entityID))
		})
	}
	assert.NotEqual(t, Key("a/b"), Key("a%2Fb"))
}

func TestModelStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New[*testModel](NewMemoryBackend(), JSONCodec[*testModel]{})

	_, ok := s.Load(ctx, "r1")
	assert.False(t, ok)

	loc, err := s.Save(ctx, "r1", &testModel{Name: "first", Value: 1})
	require.NoError(t, err)
	assert.Equal(t, "memory://prophet_model_r1", loc)
	assert.Equal(t, loc, s.Location("r1"))

	m, ok := s.Load(ctx, "r1")
	require.True(t, ok)
	assert.Equal(t, &testModel{Name: "first", Value: 1}, m)

	// later saves supersede
	_, err = s.Save(ctx, "r1", &testModel{Name: "second", Value: 2})
	require.NoError(t, err)
	m, ok = s.Load(ctx, "r1")
	require.True(t, ok)
	assert.Equal(t, "second", m.Name)

	// entities are isolated
	_, ok = s.Load(ctx, "")
	assert.False(t, ok)
}

func TestModelStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	var buf bytes.Buffer
	s := New[*testModel](backend, JSONCodec[*testModel]{}, WithLogger(zerolog.New(&buf)))

	testData := map[string][]byte{
		"garbage":      []byte("{not json"),
		"invalid":      []byte(`{"value": 3}`),
		"wrong schema": []byte(`[1, 2, 3]`),
	}

	for name, blob := range testData {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Put(ctx, Key(name), blob))
			m, ok := s.Load(ctx, name)
			assert.False(t, ok)
			assert.Nil(t, m)
		})
	}
	assert.Contains(t, buf.String(), "treating as absent")
}

type failingBackend struct {
	err   error
	reads atomic.Int32
	gate  chan struct{}
}

func (f *failingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.reads.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return nil, f.err
}

func (f *failingBackend) Put(ctx context.Context, key string, data []byte) error {
	return f.err
}

func (f *failingBackend) Location(key string) string {
	return "failing://" + key
}

func TestModelStoreBackendErrors(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("disk on fire")
	s := New[*testModel](&failingBackend{err: backendErr}, JSONCodec[*testModel]{})

	_, ok := s.Load(ctx, "r1")
	assert.False(t, ok)

	_, err := s.Save(ctx, "r1", &testModel{Name: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, backendErr)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "prophet_model_r1", perr.Key)
	assert.Equal(t, "put", perr.Op)
}

type failingCodec struct{}

func (failingCodec) Marshal(m *testModel) ([]byte, error) {
	return nil, errors.New("cannot encode")
}

func (failingCodec) Unmarshal(data []byte) (*testModel, error) {
	return nil, errors.New("cannot decode")
}

func TestModelStoreMarshalError(t *testing.T) {
	s := New[*testModel](NewMemoryBackend(), failingCodec{})
	_, err := s.Save(context.Background(), "", &testModel{Name: "x"})

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "marshal", perr.Op)
	assert.Equal(t, "prophet_model", perr.Key)
}

func TestModelStoreLoadCollapsed(t *testing.T) {
	backend := &failingBackend{err: ErrNotFound, gate: make(chan struct{})}
	s := New[*testModel](backend, JSONCodec[*testModel]{})

	const callers = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			_, ok := s.Load(context.Background(), "shared")
			assert.False(t, ok)
		}()
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	close(backend.gate)
	wg.Wait()

	assert.GreaterOrEqual(t, backend.reads.Load(), int32(1))
	assert.LessOrEqual(t, backend.reads.Load(), int32(callers))
}
