package feature

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Regressor feature is an external covariate supplied alongside the target series
type Regressor struct {
	Name string `json:"name"`
}

func NewRegressor(name string) *Regressor {
	return &Regressor{name}
}

func (r Regressor) String() string {
	return fmt.Sprintf("reg_%s", r.Name)
}

func (r Regressor) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return r.Name, true
	}
	return "", false
}

func (r Regressor) Type() FeatureType {
	return FeatureTypeRegressor
}

func (r Regressor) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = r.Name
	return res
}

func (r *Regressor) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &labelStr); err != nil {
		return err
	}
	r.Name = labelStr.Name
	return nil
}

// Generate standardizes the regressor values with the training mean and standard deviation.
// A zero standard deviation only centers the values.
func (r Regressor) Generate(vals []float64, mean, std float64) []float64 {
	if std == 0 {
		std = 1.0
	}
	res := make([]float64, len(vals))
	for i, v := range vals {
		res[i] = (v - mean) / std
	}
	return res
}
