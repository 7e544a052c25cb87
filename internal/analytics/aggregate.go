package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"talktime/internal/callog"
)

// Dimension identifies a grouping field of a call record.
type Dimension string

const (
	DimAgent      Dimension = "agent"
	DimCountry    Dimension = "country"
	DimCallType   Dimension = "call_type"
	DimCallStatus Dimension = "call_status"
)

// ParseDimension resolves a user-supplied dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(s))) {
	case DimAgent:
		return DimAgent, nil
	case DimCountry:
		return DimCountry, nil
	case DimCallType:
		return DimCallType, nil
	case DimCallStatus:
		return DimCallStatus, nil
	default:
		return "", fmt.Errorf("unknown dimension %q", s)
	}
}

// Label returns the dimension's display/export column name.
func (d Dimension) Label() string {
	switch d {
	case DimAgent:
		return "Agent"
	case DimCountry:
		return "Country"
	case DimCallType:
		return "Call Type"
	case DimCallStatus:
		return "Call Status"
	default:
		return string(d)
	}
}

func (d Dimension) value(r callog.Record) string {
	switch d {
	case DimAgent:
		return r.Agent
	case DimCountry:
		return r.Country
	case DimCallType:
		return r.CallType
	case DimCallStatus:
		return r.CallStatus
	default:
		return ""
	}
}

// Resolved reports whether the dimension's source column was found in the
// schema. Views over an unresolved dimension are unavailable, not wrong.
func (d Dimension) Resolved(sc callog.Schema) bool {
	switch d {
	case DimAgent:
		return sc.Agent != ""
	case DimCountry:
		return sc.Country != ""
	case DimCallType:
		return sc.CallType != ""
	case DimCallStatus:
		return sc.CallStatus != ""
	default:
		return false
	}
}

// SortMode selects the summary ranking.
type SortMode string

const (
	// SortByCalls ranks by call count descending, ties broken by total
	// duration descending ("most active, most time").
	SortByCalls SortMode = "calls"
	// SortByDuration ranks by total duration descending.
	SortByDuration SortMode = "duration"
)

// Row is one group of an aggregation: its dimension values and the
// {count, sum, mean, median} of duration within it. Mean and median are nil
// when the group has no parseable duration at all, never zero.
type Row struct {
	Keys   []string `json:"keys"`
	Count  int      `json:"total_calls"`
	Sum    float64  `json:"total_duration_sec"`
	Mean   *float64 `json:"avg_duration_sec"`
	Median *float64 `json:"median_duration_sec"`
}

// Summary is an ordered aggregation result over 1–2 dimensions.
type Summary struct {
	Dimensions []Dimension `json:"dimensions"`
	Rows       []Row       `json:"rows"`
}

// groupKey is the tuple of dimension values; unused slots stay empty for
// single-dimension aggregations. Keying on the tuple itself means no cell
// content can collide two groups.
type groupKey [2]string

// Aggregate groups records by the exact tuple of dimension values. A
// missing value is its own group, never dropped. It computes duration
// statistics per group. Counts include rows with missing durations;
// sum/mean/median ignore them. Equal sort keys keep first-seen order.
func Aggregate(records []callog.Record, dims []Dimension, mode SortMode) (Summary, error) {
	if len(dims) < 1 || len(dims) > 2 {
		return Summary{}, fmt.Errorf("aggregation needs 1 or 2 dimensions, got %d", len(dims))
	}

	type group struct {
		keys      []string
		count     int
		durations []float64
	}

	var order []groupKey
	groups := make(map[groupKey]*group)

	for _, r := range records {
		keys := make([]string, len(dims))
		var id groupKey
		for i, d := range dims {
			keys[i] = d.value(r)
			id[i] = keys[i]
		}
		g, ok := groups[id]
		if !ok {
			g = &group{keys: keys}
			groups[id] = g
			order = append(order, id)
		}
		g.count++
		if r.DurationSec != nil {
			g.durations = append(g.durations, *r.DurationSec)
		}
	}

	rows := make([]Row, 0, len(order))
	for _, id := range order {
		g := groups[id]
		row := Row{Keys: g.keys, Count: g.count}
		if len(g.durations) > 0 {
			sum, _ := stats.Sum(g.durations)
			mean, _ := stats.Mean(g.durations)
			median, _ := stats.Median(g.durations)
			row.Sum = sum
			row.Mean = &mean
			row.Median = &median
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if mode == SortByDuration {
			return rows[i].Sum > rows[j].Sum
		}
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Sum > rows[j].Sum
	})

	return Summary{Dimensions: dims, Rows: rows}, nil
}
