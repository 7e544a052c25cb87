package analytics

import (
	"sort"

	"talktime/internal/callog"
)

// HourAttempts counts attempted calls per local hour of day.
type HourAttempts struct {
	Hour     int `json:"hour"`
	Attempts int `json:"attempts"`
}

// HourCountryAttempts counts attempts per (hour, country) pair.
type HourCountryAttempts struct {
	Hour     int    `json:"hour"`
	Country  string `json:"country"`
	Attempts int    `json:"attempts"`
}

// AgentHourAttempts counts attempts per (agent, hour) pair.
type AgentHourAttempts struct {
	Agent    string `json:"agent"`
	Hour     int    `json:"hour"`
	Attempts int    `json:"attempts"`
}

// AttemptsByHour tallies every record with a defined local hour, regardless
// of duration. Hours ascend; hours with no attempts are omitted.
func AttemptsByHour(records []callog.Record) []HourAttempts {
	counts := make(map[int]int)
	for _, r := range records {
		if h, ok := r.Hour(); ok {
			counts[h]++
		}
	}
	out := make([]HourAttempts, 0, len(counts))
	for h, n := range counts {
		out = append(out, HourAttempts{Hour: h, Attempts: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// AttemptsByHourCountry tallies attempts per hour and country. A missing
// country is its own group. Sorted by country then hour.
func AttemptsByHourCountry(records []callog.Record) []HourCountryAttempts {
	type key struct {
		hour    int
		country string
	}
	counts := make(map[key]int)
	for _, r := range records {
		h, ok := r.Hour()
		if !ok {
			continue
		}
		counts[key{h, r.Country}]++
	}
	out := make([]HourCountryAttempts, 0, len(counts))
	for k, n := range counts {
		out = append(out, HourCountryAttempts{Hour: k.hour, Country: k.country, Attempts: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// AttemptsByAgentHour tallies attempts per agent and hour. A missing agent
// is its own group. Sorted by agent then hour.
func AttemptsByAgentHour(records []callog.Record) []AgentHourAttempts {
	type key struct {
		agent string
		hour  int
	}
	counts := make(map[key]int)
	for _, r := range records {
		h, ok := r.Hour()
		if !ok {
			continue
		}
		counts[key{r.Agent, h}]++
	}
	out := make([]AgentHourAttempts, 0, len(counts))
	for k, n := range counts {
		out = append(out, AgentHourAttempts{Agent: k.agent, Hour: k.hour, Attempts: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Agent != out[j].Agent {
			return out[i].Agent < out[j].Agent
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}
