package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Export header names match the dashboard tables byte-for-byte so downloads
// from either surface diff clean.
const (
	headerTotalCalls    = "Total Calls"
	headerTotalDuration = "Total Duration (sec)"
	headerAvgDuration   = "Avg Duration (sec)"
	headerMedianDur     = "Median Duration (sec)"
)

// WriteSummaryCSV renders a summary as delimited text with a header row.
// Missing mean/median export as empty cells, never as zero.
func WriteSummaryCSV(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(s.Dimensions)+4)
	for _, d := range s.Dimensions {
		header = append(header, d.Label())
	}
	header = append(header, headerTotalCalls, headerTotalDuration, headerAvgDuration, headerMedianDur)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range s.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, row.Keys...)
		rec = append(rec,
			strconv.Itoa(row.Count),
			formatFloat(row.Sum),
			formatOptFloat(row.Mean),
			formatOptFloat(row.Median),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteHourlyCSV renders the attempts-by-hour table.
func WriteHourlyCSV(w io.Writer, attempts []HourAttempts) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Hour", "Attempts"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, a := range attempts {
		if err := cw.Write([]string{strconv.Itoa(a.Hour), strconv.Itoa(a.Attempts)}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
