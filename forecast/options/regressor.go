package options

import (
	"fmt"
	"io"
	"strings"

	"github.com/profithive/go-forecaster/forecast/util"
)

const DefaultRegressorPriorScale = 10.0

// RegressorOptions configures the additive external regressors. Regressors are modeled in
// the order of Names.
type RegressorOptions struct {
	Names      []string `json:"names"`
	PriorScale float64  `json:"prior_scale"`
}

func (r RegressorOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	names := "None"
	if len(r.Names) > 0 {
		names = strings.Join(r.Names, ", ")
	}
	_, err := fmt.Fprintf(w, "%s%sRegressors: %s\n", prefix, util.IndentExpand(indent, indentGrowth), names)
	return err
}

func (r RegressorOptions) priorScale() float64 {
	if r.PriorScale <= 0 {
		return DefaultRegressorPriorScale
	}
	return r.PriorScale
}
