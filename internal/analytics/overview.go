package analytics

import (
	"github.com/montanaflynn/stats"

	"talktime/internal/callog"
)

// Overview is the KPI strip over one filtered view: total calls, duration
// averages and the distinct agent count. Avg/median are nil when no record
// in the view carries a parseable duration.
type Overview struct {
	TotalCalls     int      `json:"total_calls"`
	AvgDuration    *float64 `json:"avg_duration_sec"`
	MedianDuration *float64 `json:"median_duration_sec"`
	Agents         int      `json:"agents"`
}

// Summarize computes the overview KPIs for a view.
func Summarize(records []callog.Record) Overview {
	o := Overview{TotalCalls: len(records)}

	durations := make([]float64, 0, len(records))
	agents := make(map[string]struct{})
	for _, r := range records {
		if r.DurationSec != nil {
			durations = append(durations, *r.DurationSec)
		}
		if r.Agent != "" {
			agents[r.Agent] = struct{}{}
		}
	}
	o.Agents = len(agents)

	if len(durations) > 0 {
		mean, _ := stats.Mean(durations)
		median, _ := stats.Median(durations)
		o.AvgDuration = &mean
		o.MedianDuration = &median
	}
	return o
}
