package options

import (
	"fmt"
	"io"
	"time"

	"github.com/profithive/go-forecaster/event"
	"github.com/profithive/go-forecaster/feature"
	"github.com/profithive/go-forecaster/forecast/util"
)

const DefaultHolidayPriorScale = 10.0

// HolidayOptions enables one indicator feature per holiday of a country calendar. The
// indicator window can be widened before and after the holiday.
type HolidayOptions struct {
	Country    string        `json:"country"`
	DurBefore  time.Duration `json:"dur_before"`
	DurAfter   time.Duration `json:"dur_after"`
	PriorScale float64       `json:"prior_scale"`
}

func (h HolidayOptions) Enabled() bool {
	return h.Country != ""
}

func (h HolidayOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if !h.Enabled() {
		_, err := fmt.Fprintf(w, "%s%sHolidays: None\n", prefix, util.IndentExpand(indent, indentGrowth))
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sHolidays: %s\n", prefix, util.IndentExpand(indent, indentGrowth), h.Country); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%sBefore: %s, After: %s\n", prefix, util.IndentExpand(indent, indentGrowth+1), h.DurBefore, h.DurAfter)
	return err
}

func (h HolidayOptions) priorScale() float64 {
	if h.PriorScale <= 0 {
		return DefaultHolidayPriorScale
	}
	return h.PriorScale
}

// GenerateFeatures returns an event indicator per holiday of the configured country. An
// empty set is returned when holidays are disabled.
func (h HolidayOptions) GenerateFeatures(t []time.Time) (*feature.Set, error) {
	feat := feature.NewSet()
	if !h.Enabled() {
		return feat, nil
	}

	c, err := event.NewCalendar(h.Country, h.DurBefore, h.DurAfter)
	if err != nil {
		return nil, fmt.Errorf("unable to load holiday calendar, %w", err)
	}
	for _, name := range c.Names() {
		e := feature.NewEvent(name)
		feat.Set(e, e.Generate(t, c.Active(name)))
	}
	return feat, nil
}
