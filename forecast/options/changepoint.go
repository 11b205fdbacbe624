package options

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/profithive/go-forecaster/feature"
	"github.com/profithive/go-forecaster/forecast/util"
)

const (
	DefaultAutoNumChangepoints   = 25
	DefaultChangepointRange      = 0.8
	DefaultChangepointPriorScale = 0.05
)

// Changepoint describes a point in time that will change the ongoing trend
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection by
// evenly placing N changepoints over the first part of the training window or to use
// explicit changepoints. The prior scale controls how flexible the trend is where a
// smaller value penalizes trend changes more heavily.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	Range               float64       `json:"range"`
	PriorScale          float64       `json:"prior_scale"`
	EnableBias          bool          `json:"enable_bias"`
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(c.Changepoints) > 0 {
		noCfg = ""
		fmt.Fprintf(tbl, "%s%sName\tDatetime\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	}
	fmt.Fprintf(w, "%s%sChangepoints (prior scale %.3f):%s\n", prefix, util.IndentExpand(indent, indentGrowth), c.PriorScale, noCfg)
	for _, chpt := range c.Changepoints {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			chpt.Name, chpt.T.Format(time.RFC3339))
	}
	return tbl.Flush()
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		Range:               DefaultChangepointRange,
		PriorScale:          DefaultChangepointPriorScale,
	}
}

// GenerateAutoChangepoints places changepoints on evenly spaced observations of the first
// Range fraction of the sorted training times. With n observations there are at most
// floor(Range*n)-1 changepoints. Existing changepoints are replaced.
func (c *ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	if !c.Auto {
		return nil
	}

	if c.AutoNumChangepoints == 0 {
		c.AutoNumChangepoints = DefaultAutoNumChangepoints
	}
	if c.Range <= 0 || c.Range > 1 {
		c.Range = DefaultChangepointRange
	}

	histSize := int(math.Floor(float64(len(t)) * c.Range))
	n := min(c.AutoNumChangepoints, histSize-1)
	if n <= 0 {
		c.Changepoints = nil
		return nil
	}

	chpts := make([]Changepoint, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(step * float64(i)))
		chpts = append(chpts, NewChangepoint(fmt.Sprintf("auto_%02d", i-1), t[idx]))
	}

	c.Changepoints = chpts
	return chpts
}

// GenerateFeatures creates a slope feature, and a bias feature if enabled, for each changepoint
// inside the training window.
func (c ChangepointOptions) GenerateFeatures(t []time.Time, scale TimeScale) *feature.Set {
	tScaled := scale.ScaleAll(t)

	feat := feature.NewSet()
	for i, chpt := range c.Changepoints {
		// changepoints outside of the training window produce constant or empty features
		if !chpt.T.After(scale.Start) || !chpt.T.Before(scale.End) {
			continue
		}
		chpntName := fmt.Sprintf("%02d", i)
		if chpt.Name != "" {
			chpntName = chpt.Name
		}
		loc := scale.Scale(chpt.T)

		slope := feature.NewChangepoint(chpntName, feature.ChangepointCompSlope)
		feat.Set(slope, slope.Generate(tScaled, loc))

		if c.EnableBias {
			bias := feature.NewChangepoint(chpntName, feature.ChangepointCompBias)
			feat.Set(bias, bias.Generate(tScaled, loc))
		}
	}
	return feat
}
