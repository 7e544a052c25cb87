package callog

import "time"

// Record is one normalized row of an uploaded call log. Categorical fields
// keep their source spelling; the empty string marks a missing value.
// Derived fields are computed once at ingestion and never mutated.
type Record struct {
	Agent      string
	Country    string
	CallType   string
	CallStatus string

	// DurationSec is the parsed call duration in seconds, nil when the raw
	// value could not be parsed.
	DurationSec *float64

	// Date is the calendar date of the call at midnight in the reporting
	// zone, resolved from the date column alone so date-window filtering
	// works even when the time-of-day component is unparseable.
	Date *time.Time

	// StartLocal is the full call start instant in the reporting zone,
	// nil when either the date or the time component is missing.
	StartLocal *time.Time
}

// Hour returns the local hour of day [0..23]. Defined iff StartLocal is.
func (r Record) Hour() (int, bool) {
	if r.StartLocal == nil {
		return 0, false
	}
	return r.StartLocal.Hour(), true
}

// LocalDate returns the calendar date used for date-window filtering,
// preferring the date-column derivation over the full instant.
func (r Record) LocalDate() (time.Time, bool) {
	if r.Date != nil {
		return *r.Date, true
	}
	if r.StartLocal == nil {
		return time.Time{}, false
	}
	t := r.StartLocal.In(ReportingZone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, ReportingZone), true
}
