// Package confidence turns a forecast and its uncertainty interval into a single score in
// [MinScore, MaxScore]. Narrow intervals, low variability and a stable trend score higher.
package confidence

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

const (
	MinScore = 0.65
	MaxScore = 0.92

	DefaultJitter = 0.02

	FallbackScore  = 0.75
	FallbackSpread = 0.05

	widthDivisor          = 3.0
	maxVariabilityPenalty = 0.15
	variabilityWeight     = 0.5
	maxTrendPenalty       = 0.1
	trendWeight           = 0.3
)

// Scorer computes confidence scores. The score is perturbed by up to the jitter in either
// direction. The perturbation is derived from the forecast itself unless a seed is provided.
type Scorer struct {
	jitter float64
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Scorer)

// WithJitter sets the maximum perturbation, 0 disables it
func WithJitter(jitter float64) Option {
	return func(s *Scorer) {
		s.jitter = math.Abs(jitter)
	}
}

// WithSeed draws perturbations from a seeded generator instead of hashing the forecast
func WithSeed(seed uint64) Option {
	return func(s *Scorer) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scorer) {
		s.logger = logger
	}
}

func New(fns ...Option) *Scorer {
	s := &Scorer{
		jitter: DefaultJitter,
		logger: zerolog.Nop(),
	}
	for _, fn := range fns {
		fn(s)
	}
	return s
}

// Score returns the confidence of a forecast. Empty, mismatched or degenerate input, such as
// a zero forecast, falls back to a score within FallbackSpread of FallbackScore.
func (s *Scorer) Score(yhat, lower, upper []float64) float64 {
	n := len(yhat)
	if n == 0 || len(lower) != n || len(upper) != n {
		s.logger.Warn().Int("points", n).Msg("unable to score empty or mismatched forecast, using fallback")
		return s.fallback(yhat, lower, upper)
	}

	var avgWidth float64
	for i := 0; i < n; i++ {
		avgWidth += (upper[i] - lower[i]) / math.Abs(yhat[i])
	}
	avgWidth /= float64(n)
	base := 1.0 - avgWidth/widthDivisor

	// a single point has an undefined spread and takes the full variability penalty
	variability := maxVariabilityPenalty
	mean, std := stat.Mean(yhat, nil), 0.0
	if n > 1 {
		std = stat.StdDev(yhat, nil)
		variability = math.Min(maxVariabilityPenalty, std/mean*variabilityWeight)
	}

	var changes float64
	for i := 1; i < n; i++ {
		changes += math.Abs(yhat[i] - yhat[i-1])
	}
	changes /= float64(n)
	trend := math.Min(maxTrendPenalty, changes/mean*trendWeight)

	score := base - variability - trend
	if !isFinite(avgWidth, base, mean, std, variability, trend, score) {
		s.logger.Warn().
			Float64("avg_width", avgWidth).
			Float64("mean", mean).
			Msg("non-finite confidence statistics, using fallback")
		return s.fallback(yhat, lower, upper)
	}

	score = clamp(score)
	score += (s.uniform(avgWidth, mean, std, changes, float64(n)) - 0.5) * 2.0 * s.jitter
	return clamp(score)
}

func (s *Scorer) fallback(yhat, lower, upper []float64) float64 {
	vals := make([]float64, 0, len(yhat)+len(lower)+len(upper)+1)
	vals = append(vals, float64(len(yhat)))
	vals = append(vals, yhat...)
	vals = append(vals, lower...)
	vals = append(vals, upper...)
	return FallbackScore + (s.uniform(vals...)-0.5)*2.0*FallbackSpread
}

// uniform returns a value in [0, 1) from the seeded generator when present, otherwise from
// an FNV-1a hash of the values
func (s *Scorer) uniform(vals ...float64) float64 {
	if s.rng != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.rng.Float64()
	}

	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return float64(h.Sum64()>>11) / (1 << 53)
}

func clamp(v float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, v))
}

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
