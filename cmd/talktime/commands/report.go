package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"talktime/internal/analytics"
	"talktime/internal/callog"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var reportFlags struct {
	input          string
	out            string
	hourlyOut      string
	dims           []string
	mode           string
	threshold      float64
	preset         string
	from           string
	to             string
	teamBase       string
	addTeams       []string
	includeMissing bool
	sortBy         string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the pipeline once over a local CSV and write summary CSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport()
	},
}

func runReport() error {
	f, err := os.Open(reportFlags.input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	table, err := callog.Load(f, callog.Options{Aliases: cfg.Analytics.Aliases})
	if err != nil {
		return err
	}
	log.Info().
		Int("rows", len(table.Records)).
		Str("date_order", table.DateOrder.String()).
		Msg("Input loaded")

	spec, err := reportSpec()
	if err != nil {
		return err
	}
	teams := cfg.Analytics.TeamSet()
	records := analytics.Apply(table.Records, spec, teams)

	switch reportFlags.mode {
	case "", "all":
	case "talktime":
		if table.Schema.Duration == "" {
			return fmt.Errorf("talktime mode needs a duration column, none resolved")
		}
		records = analytics.ApplyThreshold(records, cfg.Analytics.ClampThreshold(reportFlags.threshold))
	default:
		return fmt.Errorf("unknown mode %q", reportFlags.mode)
	}

	dims := make([]analytics.Dimension, 0, len(reportFlags.dims))
	for _, name := range reportFlags.dims {
		d, err := analytics.ParseDimension(name)
		if err != nil {
			return err
		}
		if !d.Resolved(table.Schema) {
			return fmt.Errorf("no %s column resolved", d)
		}
		dims = append(dims, d)
	}

	sortMode := analytics.SortByCalls
	if reportFlags.sortBy == string(analytics.SortByDuration) {
		sortMode = analytics.SortByDuration
	}

	summary, err := analytics.Aggregate(records, dims, sortMode)
	if err != nil {
		return err
	}
	if err := writeOut(reportFlags.out, func(w io.Writer) error {
		return analytics.WriteSummaryCSV(w, summary)
	}); err != nil {
		return err
	}

	if reportFlags.hourlyOut != "" {
		if err := writeOut(reportFlags.hourlyOut, func(w io.Writer) error {
			return analytics.WriteHourlyCSV(w, analytics.AttemptsByHour(records))
		}); err != nil {
			return err
		}
	}

	log.Info().Int("groups", len(summary.Rows)).Msg("Report written")
	return nil
}

func reportSpec() (analytics.Spec, error) {
	spec := analytics.Spec{
		TeamBase:       analytics.TeamAll,
		AddTeams:       reportFlags.addTeams,
		IncludeMissing: reportFlags.includeMissing,
	}
	if tb := strings.ToLower(reportFlags.teamBase); tb != "" && tb != "all" {
		spec.TeamBase = analytics.TeamRestricted
		spec.BaseTeam = reportFlags.teamBase
	}

	now := time.Now()
	switch reportFlags.preset {
	case "":
		if reportFlags.from != "" || reportFlags.to != "" {
			w, err := customWindow(reportFlags.from, reportFlags.to)
			if err != nil {
				return analytics.Spec{}, err
			}
			spec.Window = w
		}
	case "custom":
		w, err := customWindow(reportFlags.from, reportFlags.to)
		if err != nil {
			return analytics.Spec{}, err
		}
		spec.Window = w
	default:
		w, ok := analytics.Preset(reportFlags.preset, now)
		if !ok {
			return analytics.Spec{}, fmt.Errorf("unknown preset %q", reportFlags.preset)
		}
		spec.Window = &w
	}
	return spec, nil
}

func customWindow(from, to string) (*analytics.DateWindow, error) {
	if from == "" && to == "" {
		return nil, fmt.Errorf("custom range requires --from/--to dates")
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}
	start, err := time.ParseInLocation("2006-01-02", from, callog.ReportingZone)
	if err != nil {
		return nil, fmt.Errorf("invalid --from date %q, want YYYY-MM-DD", from)
	}
	end, err := time.ParseInLocation("2006-01-02", to, callog.ReportingZone)
	if err != nil {
		return nil, fmt.Errorf("invalid --to date %q, want YYYY-MM-DD", to)
	}
	w := analytics.NewDateWindow(start, end)
	return &w, nil
}

func writeOut(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	reportCmd.Flags().StringVarP(&reportFlags.input, "input", "i", "", "call log CSV to analyze")
	reportCmd.Flags().StringVarP(&reportFlags.out, "out", "o", "-", "summary CSV destination (- for stdout)")
	reportCmd.Flags().StringVar(&reportFlags.hourlyOut, "hourly", "", "also write attempts-by-hour CSV to this path")
	reportCmd.Flags().StringSliceVar(&reportFlags.dims, "dims", []string{"agent"}, "grouping dimensions (1-2 of agent,country,call_type,call_status)")
	reportCmd.Flags().StringVar(&reportFlags.mode, "mode", "all", "view mode: all (attempts) or talktime")
	reportCmd.Flags().Float64Var(&reportFlags.threshold, "threshold", 60, "talk-time threshold in seconds (talktime mode)")
	reportCmd.Flags().StringVar(&reportFlags.preset, "preset", "", "date preset: today, yesterday or custom")
	reportCmd.Flags().StringVar(&reportFlags.from, "from", "", "start date YYYY-MM-DD (inclusive)")
	reportCmd.Flags().StringVar(&reportFlags.to, "to", "", "end date YYYY-MM-DD (inclusive)")
	reportCmd.Flags().StringVar(&reportFlags.teamBase, "team-base", "all", "base agent set: all or a team tag")
	reportCmd.Flags().StringSliceVar(&reportFlags.addTeams, "add-team", nil, "additive team tags")
	reportCmd.Flags().BoolVar(&reportFlags.includeMissing, "include-missing", true, "keep records with missing filtered values")
	reportCmd.Flags().StringVar(&reportFlags.sortBy, "sort", "calls", "ranking: calls or duration")
	reportCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(reportCmd)
}
