package feature

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

type ChangepointComp string

const (
	ChangepointCompBias  ChangepointComp = "bias"
	ChangepointCompSlope ChangepointComp = "slope"
)

// Changepoint feature representing a point in time where the trend of the series may
// change. The component is either of type bias (jump) or slope (trend).
type Changepoint struct {
	Name            string          `json:"name"`
	ChangepointComp ChangepointComp `json:"changepoint_component"`
}

func NewChangepoint(name string, comp ChangepointComp) *Changepoint {
	return &Changepoint{name, comp}
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s_%s", c.Name, c.ChangepointComp)
}

func (c Changepoint) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	case "changepoint_component":
		return string(c.ChangepointComp), true
	}
	return "", false
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = c.Name
	res["changepoint_component"] = string(c.ChangepointComp)
	return res
}

func (c *Changepoint) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name            string          `json:"name"`
		ChangepointComp ChangepointComp `json:"changepoint_component"`
	}
	if err := json.Unmarshal(data, &labelStr); err != nil {
		return err
	}
	c.Name = labelStr.Name
	c.ChangepointComp = labelStr.ChangepointComp
	return nil
}

// Generate computes the changepoint feature over the scaled time values given the scaled
// location of the changepoint. The bias component is a step of 1 at and after the
// changepoint. The slope component is max(0, t - chpt).
func (c Changepoint) Generate(t []float64, chpt float64) []float64 {
	res := make([]float64, len(t))
	switch c.ChangepointComp {
	case ChangepointCompBias:
		for i, v := range t {
			if v >= chpt {
				res[i] = 1.0
			}
		}
	case ChangepointCompSlope:
		for i, v := range t {
			if v > chpt {
				res[i] = v - chpt
			}
		}
	default:
		return nil
	}
	return res
}
