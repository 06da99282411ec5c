package domain

import (
	"strings"
	"time"
)

// Activity is the canonical entity every source mapper produces and all
// persistence and filtering code consumes. Descriptive fields default to
// empty strings, never nil. The english mirror fields are populated by an
// out-of-process enrichment step and stay nil until it runs.
type Activity struct {
	ID           int64
	Serno        string // natural key, globally unique across sources
	Name         string
	Detail       string
	Organizer    string
	Voice        string
	Location     Location
	Date         DateRange
	Tags         []Tag
	RelatedLinks []RelatedLink
	LikesCount   int

	NameEn      *string
	DetailEn    *string
	LocationEn  *string
	OrganizerEn *string
}

type Tag struct {
	ID     int64
	Text   string
	TextEn *string
}

// RelatedLink points at supplementary upstream material. URL always starts
// with "http"; mappers drop anything else.
type RelatedLink struct {
	Title string
	URL   string
}

// AddLike increments the like counter.
func (a *Activity) AddLike() {
	a.LikesCount++
}

// RemoveLike decrements the like counter, floored at zero.
func (a *Activity) RemoveLike() {
	if a.LikesCount > 0 {
		a.LikesCount--
	}
}

func (a *Activity) City() string {
	return a.Location.City()
}

func (a *Activity) District() string {
	return a.Location.District()
}

// TagTexts returns the tag strings in their stored order.
func (a *Activity) TagTexts() []string {
	texts := make([]string, len(a.Tags))
	for i, t := range a.Tags {
		texts[i] = t.Text
	}
	return texts
}

// Location is a value object for where an activity takes place. Building is
// the full human-readable address, city-prefixed when the source omitted the
// prefix. CityName may be empty for sources that do not identify their city.
type Location struct {
	Building string
	CityName string
}

// NormalizeCity collapses the traditional variant 臺 to 台 so the two
// spellings of a city compare equal.
func NormalizeCity(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "臺", "台")
}

// NormalizeBuilding prefixes city onto a bare address unless the address
// already starts with the city after variant collapsing.
func NormalizeBuilding(building, city string) string {
	building = strings.TrimSpace(building)
	city = NormalizeCity(city)

	if building == "" {
		return city
	}
	if city == "" {
		return building
	}
	if strings.HasPrefix(NormalizeCity(building), city) {
		return building
	}
	return city + building
}

func (l Location) City() string {
	return NormalizeCity(l.CityName)
}

// District is not carried by any current upstream source.
func (l Location) District() string {
	return ""
}

func (l Location) String() string {
	return l.Building
}

// DateRange is the UTC start/end window of an activity with End >= Start.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange clamps the invariant End >= Start; a zero or earlier end
// collapses the range to the start instant. Sources that only provide a
// start date pass a zero end.
func NewDateRange(start, end time.Time) DateRange {
	start = start.UTC()
	end = end.UTC()
	if end.Before(start) || end.IsZero() {
		end = start
	}
	return DateRange{Start: start, End: end}
}

func (d DateRange) Duration() time.Duration {
	return d.End.Sub(d.Start)
}
