// Package event turns holiday calendars into dated event windows used as indicator features
package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd  = errors.New("event start time is after end time")
	ErrUnsetTime      = errors.New("unset event start or end time")
	ErrNoEventName    = errors.New("no event name")
	ErrUnknownCountry = errors.New("unknown holiday country")
)

// represents a time span to model separately
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Contains reports whether t falls in [Start, End)
func (e Event) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Holiday returns one event per observed occurrence of the holiday between start and end
// inclusive. Each event spans the observed day in the location of start, widened by
// durBefore and durAfter.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	startLoc := start.Location()

	events := []Event{}
	for i := start.Year(); i <= end.Year(); i++ {
		_, observed := hol.Calc(i)
		_, offset := observed.Zone()
		_, startOffset := start.Zone()

		observed = observed.Add(time.Duration(offset) * time.Second).In(startLoc).Add(time.Duration(-startOffset) * time.Second)

		if (observed.After(start) || observed.Equal(start)) && (observed.Before(end) || observed.Equal(end)) {
			events = append(events, Event{
				Name:  strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, i), " ", "_"),
				Start: observed.Add(-durBefore),
				End:   observed.Add(24 * time.Hour).Add(durAfter),
			})
		}
	}
	return events
}

// FeatureName converts a holiday name into its lower case feature name,
// e.g. "Christmas Day" becomes "christmas_day"
func FeatureName(hol *cal.Holiday) string {
	return strings.ToLower(strings.ReplaceAll(hol.Name, " ", "_"))
}

var countries = map[string][]*cal.Holiday{
	"US": {
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ColumbusDay,
		us.VeteransDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	},
}

// Calendar is the set of holidays observed in a country
type Calendar struct {
	Country   string
	DurBefore time.Duration
	DurAfter  time.Duration

	holidays map[string]*cal.Holiday
}

// NewCalendar returns the holiday calendar of a country code such as "US"
func NewCalendar(country string, durBefore, durAfter time.Duration) (*Calendar, error) {
	country = strings.ToUpper(country)
	hols, exists := countries[country]
	if !exists {
		return nil, fmt.Errorf("%s, %w", country, ErrUnknownCountry)
	}

	holidays := make(map[string]*cal.Holiday, len(hols))
	for _, hol := range hols {
		holidays[FeatureName(hol)] = hol
	}
	return &Calendar{
		Country:   country,
		DurBefore: durBefore,
		DurAfter:  durAfter,
		holidays:  holidays,
	}, nil
}

// Names returns the sorted feature names of every holiday in the calendar
func (c *Calendar) Names() []string {
	names := make([]string, 0, len(c.holidays))
	for name := range c.holidays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Events returns every holiday event between start and end
func (c *Calendar) Events(start, end time.Time) []Event {
	var events []Event
	for _, name := range c.Names() {
		events = append(events, Holiday(c.holidays[name], start, end, c.DurBefore, c.DurAfter)...)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// Active returns a check reporting whether a point in time falls on the named holiday.
// An unknown holiday name is never active.
func (c *Calendar) Active(name string) func(time.Time) bool {
	hol, exists := c.holidays[name]
	if !exists {
		return func(time.Time) bool { return false }
	}
	return func(t time.Time) bool {
		// look at the neighboring years so that windows crossing new year are found
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		for _, e := range Holiday(hol, day.AddDate(-1, 0, 0), day.AddDate(1, 0, 0), c.DurBefore, c.DurAfter) {
			if e.Contains(t) {
				return true
			}
		}
		return false
	}
}
