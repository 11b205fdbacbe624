// Package prepare turns raw history records into a clean, ordered time dataset of sales
// observations with bounded regressors.
package prepare

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/profithive/go-forecaster/timedataset"
	"github.com/rs/zerolog"
)

const (
	FieldDS = "ds"
	FieldY  = "y"

	RegressorWeather      = "weather_score"
	RegressorTransport    = "transport_score"
	RegressorFootTraffic  = "foot_traffic_score"
	DefaultRegressorValue = 0.5
	regressorLower        = 0.0
	regressorUpper        = 1.0
)

// DefaultRegressors are the external regressors expected on every history record
var DefaultRegressors = []string{RegressorWeather, RegressorTransport, RegressorFootTraffic}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Record is a raw history row as decoded from JSON
type Record map[string]any

// Preparer validates and normalizes history records
type Preparer struct {
	regressors []string
	logger     zerolog.Logger
}

type Option func(*Preparer)

// WithRegressors overrides the regressor names to extract from each record
func WithRegressors(names ...string) Option {
	return func(p *Preparer) {
		p.regressors = append([]string(nil), names...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Preparer) {
		p.logger = logger
	}
}

func New(fns ...Option) *Preparer {
	p := &Preparer{
		regressors: append([]string(nil), DefaultRegressors...),
		logger:     zerolog.Nop(),
	}
	for _, fn := range fns {
		fn(p)
	}
	return p
}

// Regressors returns the regressor names extracted by the preparer
func (p *Preparer) Regressors() []string {
	return append([]string(nil), p.regressors...)
}

type row struct {
	t time.Time
	y float64
	x []float64
}

// Prepare validates every record, fills and clips regressors, removes duplicate timestamps
// keeping the last occurrence and sorts by time. An empty input yields an empty dataset.
func (p *Preparer) Prepare(records []Record) (*timedataset.TimeDataset, error) {
	present := make([]bool, len(p.regressors))
	for _, rec := range records {
		for j, name := range p.regressors {
			if _, exists := rec[name]; exists {
				present[j] = true
			}
		}
	}
	for j, name := range p.regressors {
		if !present[j] && len(records) > 0 {
			p.logger.Warn().Str("regressor", name).Float64("fill", DefaultRegressorValue).Msg("regressor missing from history, filling with default")
		}
	}

	byTime := make(map[int64]int, len(records))
	rows := make([]row, 0, len(records))
	for i, rec := range records {
		t, err := parseDS(i, rec)
		if err != nil {
			return nil, err
		}
		y, err := parseY(i, rec)
		if err != nil {
			return nil, err
		}

		x := make([]float64, len(p.regressors))
		for j, name := range p.regressors {
			x[j] = regressorValue(rec[name])
		}

		r := row{t: t, y: y, x: x}
		key := t.UnixNano()
		if idx, exists := byTime[key]; exists {
			rows[idx] = r
			continue
		}
		byTime[key] = len(rows)
		rows = append(rows, r)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].t.Before(rows[j].t)
	})

	t := make([]time.Time, len(rows))
	y := make([]float64, len(rows))
	x := make(map[string][]float64, len(p.regressors))
	for _, name := range p.regressors {
		x[name] = make([]float64, len(rows))
	}
	for i, r := range rows {
		t[i] = r.t
		y[i] = r.y
		for j, name := range p.regressors {
			x[name][i] = r.x[j]
		}
	}

	if len(rows) > 0 {
		p.logger.Info().
			Int("records", len(records)).
			Int("rows", len(rows)).
			Time("start", t[0]).
			Time("end", t[len(t)-1]).
			Dur("span", timedataset.TimeSlice(t).Span()).
			Msg("prepared history")
	} else {
		p.logger.Info().Int("records", 0).Msg("prepared empty history")
	}

	if len(rows) == 0 {
		return &timedataset.TimeDataset{X: x}, nil
	}
	return timedataset.NewDataset(t, y, x)
}

func parseDS(i int, rec Record) (time.Time, error) {
	val, exists := rec[FieldDS]
	if !exists || val == nil {
		return time.Time{}, NewValidationError(i, FieldDS, "missing value")
	}
	s, ok := val.(string)
	if !ok {
		return time.Time{}, NewValidationError(i, FieldDS, "expected a date string")
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, NewValidationError(i, FieldDS, "unparsable date "+strconv.Quote(s))
}

func parseY(i int, rec Record) (float64, error) {
	val, exists := rec[FieldY]
	if !exists || val == nil {
		return 0, NewValidationError(i, FieldY, "missing value")
	}
	y, ok := toFloat(val)
	if !ok {
		return 0, NewValidationError(i, FieldY, "expected a number")
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, NewValidationError(i, FieldY, "expected a finite number")
	}
	return y, nil
}

// regressorValue coerces a raw regressor to [0, 1] using the default for missing values
func regressorValue(val any) float64 {
	v, ok := toFloat(val)
	if !ok || math.IsNaN(v) {
		return DefaultRegressorValue
	}
	return math.Max(regressorLower, math.Min(regressorUpper, v))
}

type float64er interface {
	Float64() (float64, error)
}

func toFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case float64er:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
