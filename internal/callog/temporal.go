package callog

import (
	"strings"
	"time"
)

// ReportingZone is the fixed zone (UTC+5:30) that every local-date and
// hour-of-day derivation anchors to. Inputs are assumed to be wall-clock
// time in this zone unless already zone-qualified.
var ReportingZone = loadReportingZone()

func loadReportingZone() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	// IST has no DST, so a fixed offset is an exact fallback.
	return time.FixedZone("IST", 5*3600+30*60)
}

// DateOrder selects how ambiguous numeric dates like "03/04/2024" are read.
// The choice is made once per column, never per row, so one upload cannot
// mix interpretations.
type DateOrder int

const (
	DayFirst DateOrder = iota
	MonthFirst
)

func (o DateOrder) String() string {
	if o == MonthFirst {
		return "month-first"
	}
	return "day-first"
}

var dayFirstLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
}

var monthFirstLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",
	"1/2/06",
}

// isoLayouts are unambiguous under either order.
var isoLayouts = []string{
	"2006-01-02",
	"2006/1/2",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func parseWithLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DetectDateOrder parses the whole date column under both interpretations
// and keeps the one with fewer failures. Ties prefer day-first.
func DetectDateOrder(values []string) DateOrder {
	dayOK, monthOK := 0, 0
	for _, v := range values {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		if _, ok := parseWithLayouts(s, isoLayouts); ok {
			dayOK++
			monthOK++
			continue
		}
		if _, ok := parseWithLayouts(s, dayFirstLayouts); ok {
			dayOK++
		}
		if _, ok := parseWithLayouts(s, monthFirstLayouts); ok {
			monthOK++
		}
	}
	if monthOK > dayOK {
		return MonthFirst
	}
	return DayFirst
}

// DetectStampOrder applies the same column-level vote to combined date-time
// stamps: zone-qualified and ISO-dated stamps count for both interpretations,
// ambiguous numeric dates count for whichever orders can parse them with any
// recognized time suffix (or none).
func DetectStampOrder(values []string) DateOrder {
	dayOK, monthOK := 0, 0
	for _, v := range values {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		if isZonedStamp(s) || stampMatches(s, isoLayouts) {
			dayOK++
			monthOK++
			continue
		}
		if stampMatches(s, dayFirstLayouts) {
			dayOK++
		}
		if stampMatches(s, monthFirstLayouts) {
			monthOK++
		}
	}
	if monthOK > dayOK {
		return MonthFirst
	}
	return DayFirst
}

func isZonedStamp(s string) bool {
	for _, layout := range zonedStampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func stampMatches(s string, dateLayouts []string) bool {
	upper := strings.ToUpper(s)
	for _, dl := range dateLayouts {
		if _, err := time.ParseInLocation(dl, upper, ReportingZone); err == nil {
			return true
		}
		for _, suffix := range naiveStampSuffixes {
			if _, err := time.ParseInLocation(dl+suffix, upper, ReportingZone); err == nil {
				return true
			}
		}
	}
	return false
}

// ParseDate resolves a raw date cell to a calendar date under the given
// order. The preferred interpretation is tried first, then unambiguous ISO
// layouts, then the opposite order as a last resort (a day value above 12
// can only parse one way).
func ParseDate(raw string, order DateOrder) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	preferred, fallback := dayFirstLayouts, monthFirstLayouts
	if order == MonthFirst {
		preferred, fallback = monthFirstLayouts, dayFirstLayouts
	}
	if t, ok := parseWithLayouts(s, preferred); ok {
		return t, true
	}
	if t, ok := parseWithLayouts(s, isoLayouts); ok {
		return t, true
	}
	return parseWithLayouts(s, fallback)
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// ParseClock resolves a raw time-of-day cell, trying 24-hour layouts first
// and progressively looser 12-hour AM/PM forms before giving up.
func ParseClock(raw string) (hh, mm, ss int, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0, 0, 0, false
	}
	if t, found := parseWithLayouts(s, clockLayouts); found {
		h, m, sec := t.Clock()
		return h, m, sec, true
	}
	return 0, 0, 0, false
}

// CombineLocal builds an instant in the reporting zone from calendar and
// clock components. A wall time the zone cannot represent (it normalizes to
// a different clock reading) resolves to missing rather than an arbitrary
// offset.
func CombineLocal(year int, month time.Month, day, hh, mm, ss int) (time.Time, bool) {
	t := time.Date(year, month, day, hh, mm, ss, 0, ReportingZone)
	if t.Year() != year || t.Month() != month || t.Day() != day ||
		t.Hour() != hh || t.Minute() != mm || t.Second() != ss {
		return time.Time{}, false
	}
	return t, true
}

// ResolveInstant combines separate date and time cells into a reporting-zone
// instant. Any unparseable component yields missing for the whole instant.
func ResolveInstant(dateRaw, timeRaw string, order DateOrder) (time.Time, bool) {
	d, ok := ParseDate(dateRaw, order)
	if !ok {
		return time.Time{}, false
	}
	hh, mm, ss, ok := ParseClock(timeRaw)
	if !ok {
		return time.Time{}, false
	}
	return CombineLocal(d.Year(), d.Month(), d.Day(), hh, mm, ss)
}

var zonedStampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700 MST",
}

var naiveStampSuffixes = []string{
	" 15:04:05",
	" 15:04",
	" 3:04:05 PM",
	" 3:04 PM",
	"T15:04:05",
	"T15:04",
}

// ParseStamp resolves a combined date-time cell for schemas that carry a
// single start-timestamp field. Zone-qualified values are converted into the
// reporting zone; naive values are localized to it directly.
func ParseStamp(raw string, order DateOrder) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedStampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(ReportingZone), true
		}
	}
	dateLayouts := make([]string, 0, len(isoLayouts)+len(dayFirstLayouts)+len(monthFirstLayouts))
	preferred, fallback := dayFirstLayouts, monthFirstLayouts
	if order == MonthFirst {
		preferred, fallback = monthFirstLayouts, dayFirstLayouts
	}
	dateLayouts = append(dateLayouts, isoLayouts...)
	dateLayouts = append(dateLayouts, preferred...)
	dateLayouts = append(dateLayouts, fallback...)

	// Uppercased once: the AM/PM token only matches "PM"/"pm" verbatim,
	// month names are case-insensitive either way.
	upper := strings.ToUpper(s)
	for _, dl := range dateLayouts {
		for _, suffix := range naiveStampSuffixes {
			if t, err := time.ParseInLocation(dl+suffix, upper, ReportingZone); err == nil {
				return t, true
			}
		}
	}
	// Date-only stamp: midnight in the reporting zone.
	if d, ok := ParseDate(s, order); ok {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, ReportingZone), true
	}
	return time.Time{}, false
}
