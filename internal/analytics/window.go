// Package analytics implements the filtering and aggregation pipeline that
// turns a normalized call log into the dashboard's summary views.
package analytics

import (
	"time"

	"talktime/internal/callog"
)

// DateWindow is a half-open [Start, End) interval of instants in the
// reporting zone, built from inclusive calendar dates.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateWindow builds a window from inclusive start and end dates: both are
// snapped to reporting-zone midnight and the end is pushed one day forward.
func NewDateWindow(start, end time.Time) DateWindow {
	return DateWindow{
		Start: localMidnight(start),
		End:   localMidnight(end).AddDate(0, 0, 1),
	}
}

// Today returns the one-day window covering now's reporting-zone date.
func Today(now time.Time) DateWindow {
	d := now.In(callog.ReportingZone)
	return NewDateWindow(d, d)
}

// Yesterday returns the one-day window before Today.
func Yesterday(now time.Time) DateWindow {
	d := now.In(callog.ReportingZone).AddDate(0, 0, -1)
	return NewDateWindow(d, d)
}

// Preset resolves a named range. Returns false for unknown names, including
// "custom", which requires explicit dates.
func Preset(name string, now time.Time) (DateWindow, bool) {
	switch name {
	case "today":
		return Today(now), true
	case "yesterday":
		return Yesterday(now), true
	default:
		return DateWindow{}, false
	}
}

// Contains reports whether t falls inside the half-open interval.
func (w DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func localMidnight(t time.Time) time.Time {
	l := t.In(callog.ReportingZone)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, callog.ReportingZone)
}
