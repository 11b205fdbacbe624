package options

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/profithive/go-forecaster/feature"
	"github.com/profithive/go-forecaster/forecast/util"
)

const (
	LabelSeasDaily  = "daily"
	LabelSeasWeekly = "weekly"
	LabelSeasYearly = "yearly"

	DefaultSeasonalityPriorScale = 10.0

	// MinSeasonalityCycles is the number of full periods a training window must span to
	// fit a seasonality
	MinSeasonalityCycles = 2
)

// Seasonality options configures the number of seasonality components to fit for.
type SeasonalityOptions struct {
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

func (s SeasonalityOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(s.SeasonalityConfigs) > 0 {
		noCfg = ""
		fmt.Fprintf(tbl, "%s%sName\tPeriod\tOrders\tPrior\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	}
	fmt.Fprintf(w, "%s%sSeasonality:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg)
	for _, seasCfg := range s.SeasonalityConfigs {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t%d\t%.2f\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			seasCfg.Name, seasCfg.Period, seasCfg.Orders, seasCfg.priorScale())
	}
	return tbl.Flush()
}

// NewDefaultSeasonalityOptions generates a default seasonality config with daily, weekly
// and yearly seasonal components
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		SeasonalityConfigs: []SeasonalityConfig{
			NewDailySeasonalityConfig(4),
			NewWeeklySeasonalityConfig(3),
			NewYearlySeasonalityConfig(10),
		},
	}
}

// removeDuplicates sorts by period and only keeps the highest order config of each period.
// Configs without a name, period or orders are dropped.
func (s *SeasonalityOptions) removeDuplicates() {
	optSeasConfigs := make([]SeasonalityConfig, len(s.SeasonalityConfigs))
	copy(optSeasConfigs, s.SeasonalityConfigs)
	sort.Slice(optSeasConfigs, func(i, j int) bool {
		if optSeasConfigs[i].Period != optSeasConfigs[j].Period {
			return optSeasConfigs[i].Period < optSeasConfigs[j].Period
		}
		if optSeasConfigs[i].Orders != optSeasConfigs[j].Orders {
			return optSeasConfigs[i].Orders > optSeasConfigs[j].Orders
		}
		return optSeasConfigs[i].Name < optSeasConfigs[j].Name
	})

	validated := make([]SeasonalityConfig, 0, len(optSeasConfigs))
	var lastValidPeriod time.Duration
	for _, seasCfg := range optSeasConfigs {
		if seasCfg.Period > 0 && seasCfg.Period > lastValidPeriod && seasCfg.Name != "" && seasCfg.Orders > 0 {
			validated = append(validated, seasCfg)
			lastValidPeriod = seasCfg.Period
		}
	}
	s.SeasonalityConfigs = validated
}

// GenerateFeatures creates the sine and cosine features of every configured order using
// the unix epoch of each time.
func (s SeasonalityOptions) GenerateFeatures(t []time.Time) *feature.Set {
	s.removeDuplicates()

	epoch := make([]float64, len(t))
	for i, tPnt := range t {
		epoch[i] = float64(tPnt.UnixNano()) / 1e9
	}

	x := feature.NewSet()
	for _, seasCfg := range s.SeasonalityConfigs {
		period := seasCfg.Period.Seconds()
		for order := 1; order <= seasCfg.Orders; order++ {
			sinFeat := feature.NewSeasonality(seasCfg.Name, feature.FourierCompSin, order)
			cosFeat := feature.NewSeasonality(seasCfg.Name, feature.FourierCompCos, order)
			x.Set(sinFeat, sinFeat.Generate(epoch, period))
			x.Set(cosFeat, cosFeat.Generate(epoch, period))
		}
	}
	return x
}

// Supported returns the configs a training window of ascending times can resolve. The
// window must span MinSeasonalityCycles periods and be sampled more often than the period.
func (s SeasonalityOptions) Supported(t []time.Time) SeasonalityOptions {
	if len(t) < 2 {
		return SeasonalityOptions{SeasonalityConfigs: []SeasonalityConfig{}}
	}

	span := t[len(t)-1].Sub(t[0])
	minStep := span
	for i := 1; i < len(t); i++ {
		if step := t[i].Sub(t[i-1]); step > 0 && step < minStep {
			minStep = step
		}
	}

	kept := make([]SeasonalityConfig, 0, len(s.SeasonalityConfigs))
	for _, seasCfg := range s.SeasonalityConfigs {
		if span < MinSeasonalityCycles*seasCfg.Period || minStep >= seasCfg.Period {
			continue
		}
		kept = append(kept, seasCfg)
	}
	return SeasonalityOptions{SeasonalityConfigs: kept}
}

// PriorScale returns the prior scale of the named seasonality
func (s SeasonalityOptions) PriorScale(name string) float64 {
	for _, seasCfg := range s.SeasonalityConfigs {
		if seasCfg.Name == name {
			return seasCfg.priorScale()
		}
	}
	return DefaultSeasonalityPriorScale
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 24*time.Hour
// with 3 orders will create 6 Fourier series of order 1, 2, 3 and for the sine/cosine components
// where order 1 will have a period of 1 day and order 2 will have a period of 12 hours.
type SeasonalityConfig struct {
	Name       string        `json:"name"`
	Orders     int           `json:"orders"`
	Period     time.Duration `json:"period"`
	PriorScale float64       `json:"prior_scale"`
}

func (s SeasonalityConfig) priorScale() float64 {
	if s.PriorScale <= 0 {
		return DefaultSeasonalityPriorScale
	}
	return s.PriorScale
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:       name,
		Orders:     orders,
		Period:     period,
		PriorScale: DefaultSeasonalityPriorScale,
	}
}

// NewDailySeasonalityConfig creates a daily seasonality config given a specified number of orders
func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, 24*time.Hour, orders)
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, orders)
}

// NewYearlySeasonalityConfig creates a yearly seasonality config of 365.25 days given a
// specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, time.Duration(365.25*24*float64(time.Hour)), orders)
}
