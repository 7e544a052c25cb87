package callog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Options controls ingestion of one upload.
type Options struct {
	Aliases   Aliases
	Overrides Overrides
}

// Table is the immutable result of ingesting one upload: normalized records
// plus the resolved schema and the column-level date interpretation.
type Table struct {
	Records   []Record
	Schema    Schema
	DateOrder DateOrder
}

// Load reads a headered CSV stream and normalizes it into a Table. A
// malformed file is a terminal condition for the interaction: no partial
// table is produced. Cell-level parse failures degrade to missing values.
func Load(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file: no header row")
	}

	headers := rows[0]
	data := rows[1:]

	aliases := opts.Aliases
	if isZeroAliases(aliases) {
		aliases = DefaultAliases()
	}
	schema := ResolveSchema(headers, aliases, opts.Overrides)

	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[h] = i
	}
	cell := func(row []string, name string) string {
		if name == "" {
			return ""
		}
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// The day-first/month-first decision is column-level so a single upload
	// never mixes interpretations.
	order := DayFirst
	switch {
	case schema.Date != "":
		raw := make([]string, 0, len(data))
		for _, row := range data {
			raw = append(raw, cell(row, schema.Date))
		}
		order = DetectDateOrder(raw)
	case schema.Start != "":
		raw := make([]string, 0, len(data))
		for _, row := range data {
			raw = append(raw, cell(row, schema.Start))
		}
		order = DetectStampOrder(raw)
	}

	records := make([]Record, 0, len(data))
	for _, row := range data {
		rec := Record{
			Agent:      cell(row, schema.Agent),
			Country:    cell(row, schema.Country),
			CallType:   cell(row, schema.CallType),
			CallStatus: cell(row, schema.CallStatus),
		}

		if raw := cell(row, schema.Duration); raw != "" {
			if sec, ok := ParseDurationSeconds(raw); ok {
				rec.DurationSec = &sec
			}
		}

		switch {
		case schema.Date != "":
			if d, ok := ParseDate(cell(row, schema.Date), order); ok {
				date := localMidnight(d)
				rec.Date = &date
			}
			if schema.Time != "" {
				if t, ok := ResolveInstant(cell(row, schema.Date), cell(row, schema.Time), order); ok {
					rec.StartLocal = &t
				}
			}
		case schema.Start != "":
			if t, ok := ParseStamp(cell(row, schema.Start), order); ok {
				rec.StartLocal = &t
			}
		}

		records = append(records, rec)
	}

	log.Debug().
		Int("rows", len(records)).
		Str("date_order", order.String()).
		Msg("Call log ingested")

	return &Table{Records: records, Schema: schema, DateOrder: order}, nil
}

func localMidnight(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, ReportingZone)
}

func isZeroAliases(a Aliases) bool {
	return len(a.Agent) == 0 && len(a.Country) == 0 && len(a.CallType) == 0 &&
		len(a.CallStatus) == 0 && len(a.Duration) == 0 && len(a.Date) == 0 &&
		len(a.Time) == 0 && len(a.Start) == 0
}
