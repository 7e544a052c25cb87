package callog

import "strings"

// Aliases lists the accepted header spellings per logical role, in priority
// order. The defaults cover every export shape the dashboard has seen; they
// are configuration data and can be replaced wholesale per deployment.
type Aliases struct {
	Agent      []string `yaml:"agent"`
	Country    []string `yaml:"country"`
	CallType   []string `yaml:"call_type"`
	CallStatus []string `yaml:"call_status"`
	Duration   []string `yaml:"duration"`
	Date       []string `yaml:"date"`
	Time       []string `yaml:"time"`
	Start      []string `yaml:"start"`
}

// DefaultAliases returns the built-in alias chains.
func DefaultAliases() Aliases {
	return Aliases{
		Agent: []string{
			"Caller", "Owner", "Agent", "User",
			"Student/Academic Counsellor", "Student/Academic Counselor",
			"Assigned To", "Rep", "Agent Name",
		},
		Country:    []string{"Country Name", "Country", "Country/Region"},
		CallType:   []string{"Call Type", "Type"},
		CallStatus: []string{"Call Status", "Status"},
		Duration: []string{
			"Call Duration", "Duration", "Talk Time",
			"CallDuration", "Call_Duration",
		},
		Date: []string{"Date", "Call Date"},
		Time: []string{"Time", "Call Time"},
		Start: []string{
			"Start Time", "Call Start Time", "Created At", "Timestamp",
			"Call Start", "Started At", "Date/Time", "Datetime",
		},
	}
}

// Overrides carries explicit column names supplied by the user. An override
// only takes effect when it matches a header exactly.
type Overrides struct {
	Agent      string
	Country    string
	CallType   string
	CallStatus string
	Duration   string
	Date       string
	Time       string
	Start      string
}

// Schema maps each logical role to the resolved source column name. The
// empty string means unresolved; that is not an error. Dependent views
// degrade instead of failing the pipeline.
type Schema struct {
	Agent      string `json:"agent,omitempty"`
	Country    string `json:"country,omitempty"`
	CallType   string `json:"call_type,omitempty"`
	CallStatus string `json:"call_status,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
	Start      string `json:"start,omitempty"`
}

// HasTemporal reports whether any temporal derivation is possible.
func (s Schema) HasTemporal() bool {
	return s.Date != "" || s.Start != ""
}

// ResolveSchema maps logical roles onto the actual header set. Explicit
// overrides win when present verbatim; otherwise each alias list is tried
// with an exact pass first and a case-insensitive pass second. Resolution is
// pure and idempotent.
func ResolveSchema(headers []string, aliases Aliases, overrides Overrides) Schema {
	exact := make(map[string]string, len(headers))
	lower := make(map[string]string, len(headers))
	for _, h := range headers {
		exact[h] = h
		// First spelling wins on case collisions.
		if _, ok := lower[strings.ToLower(h)]; !ok {
			lower[strings.ToLower(h)] = h
		}
	}

	resolve := func(override string, candidates []string) string {
		if override != "" {
			if h, ok := exact[override]; ok {
				return h
			}
		}
		for _, c := range candidates {
			if h, ok := exact[c]; ok {
				return h
			}
		}
		for _, c := range candidates {
			if h, ok := lower[strings.ToLower(c)]; ok {
				return h
			}
		}
		return ""
	}

	return Schema{
		Agent:      resolve(overrides.Agent, aliases.Agent),
		Country:    resolve(overrides.Country, aliases.Country),
		CallType:   resolve(overrides.CallType, aliases.CallType),
		CallStatus: resolve(overrides.CallStatus, aliases.CallStatus),
		Duration:   resolve(overrides.Duration, aliases.Duration),
		Date:       resolve(overrides.Date, aliases.Date),
		Time:       resolve(overrides.Time, aliases.Time),
		Start:      resolve(overrides.Start, aliases.Start),
	}
}
