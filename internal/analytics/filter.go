package analytics

import (
	"talktime/internal/callog"
	"talktime/internal/roster"
)

// TeamBase selects the base agent set before additive team flags.
type TeamBase string

const (
	// TeamAll passes every record.
	TeamAll TeamBase = "all"
	// TeamRestricted keeps only records whose agent matches the BaseTeam
	// roster.
	TeamRestricted TeamBase = "restricted"
)

// Spec is the active query: it is built fresh from user input on every
// interaction and never persisted. Nil/empty selections mean "no
// constraint" for that dimension.
type Spec struct {
	// Window keeps records whose local date falls inside it. Records with
	// missing temporal data are dropped by this stage; a nil window skips
	// the stage entirely.
	Window *DateWindow

	Agents       []string
	Countries    []string
	CallTypes    []string
	CallStatuses []string

	TeamBase TeamBase
	// BaseTeam is the roster tag used when TeamBase is TeamRestricted.
	BaseTeam string
	// AddTeams are additive roster tags: each ORs its matches into the base
	// selection, expanding it, never restricting.
	AddTeams []string

	// IncludeMissing keeps records with a missing value for any filtered
	// dimension, and reinstates missing-agent records even under a
	// restricted team base.
	IncludeMissing bool
}

// Apply runs every filter except the duration threshold, so the result is
// the "attempts" view: every attempted call that survives the date window,
// team selection and categorical filters. The input is never mutated.
func Apply(records []callog.Record, spec Spec, teams *roster.Set) []callog.Record {
	agents := selectionSet(spec.Agents)
	countries := selectionSet(spec.Countries)
	types := selectionSet(spec.CallTypes)
	statuses := selectionSet(spec.CallStatuses)

	out := make([]callog.Record, 0, len(records))
	for _, r := range records {
		if !passWindow(r, spec.Window) {
			continue
		}
		if !passTeam(r, spec, teams) {
			continue
		}
		if !passSelection(r.Agent, agents, spec.IncludeMissing) {
			continue
		}
		if !passSelection(r.Country, countries, spec.IncludeMissing) {
			continue
		}
		if !passSelection(r.CallType, types, spec.IncludeMissing) {
			continue
		}
		if !passSelection(r.CallStatus, statuses, spec.IncludeMissing) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ApplyThreshold keeps only qualifying calls: duration present and at least
// thr seconds. Talktime views layer this over Apply; attempts views do not.
func ApplyThreshold(records []callog.Record, thr float64) []callog.Record {
	out := make([]callog.Record, 0, len(records))
	for _, r := range records {
		if r.DurationSec != nil && *r.DurationSec >= thr {
			out = append(out, r)
		}
	}
	return out
}

func passWindow(r callog.Record, w *DateWindow) bool {
	if w == nil {
		return true
	}
	d, ok := r.LocalDate()
	if !ok {
		return false
	}
	return w.Contains(d)
}

func passTeam(r callog.Record, spec Spec, teams *roster.Set) bool {
	if spec.IncludeMissing && r.Agent == "" {
		return true
	}
	match := spec.TeamBase != TeamRestricted
	if !match && teams != nil {
		if t, ok := teams.Get(spec.BaseTeam); ok {
			match = t.Matches(r.Agent)
		}
	}
	if teams != nil {
		for _, tag := range spec.AddTeams {
			if match {
				break
			}
			if t, ok := teams.Get(tag); ok && t.Matches(r.Agent) {
				match = true
			}
		}
	}
	return match
}

func passSelection(value string, selected map[string]struct{}, includeMissing bool) bool {
	if len(selected) == 0 {
		return true
	}
	if value == "" {
		return includeMissing
	}
	_, ok := selected[value]
	return ok
}

func selectionSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
