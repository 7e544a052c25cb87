package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"talktime/internal/analytics"
	"talktime/internal/callog"
	"talktime/internal/session"
)

// queryRequest is the JSON body shared by the view endpoints. Every field is
// optional; the zero request means "everything, attempts view".
type queryRequest struct {
	Preset string `json:"preset"` // today | yesterday | custom
	From   string `json:"from"`   // YYYY-MM-DD, reporting zone
	To     string `json:"to"`

	Agents       []string `json:"agents"`
	Countries    []string `json:"countries"`
	CallTypes    []string `json:"call_types"`
	CallStatuses []string `json:"call_statuses"`

	TeamBase string   `json:"team_base"` // all | <team tag>
	AddTeams []string `json:"add_teams"`

	IncludeMissing *bool `json:"include_missing"` // default true

	Mode         string   `json:"mode"` // all | talktime
	ThresholdSec *float64 `json:"threshold_sec"`

	Dimensions []string `json:"dimensions"` // default ["agent"]
	Sort       string   `json:"sort"`       // calls | duration
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "talktime"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	table, err := callog.Load(file, callog.Options{
		Aliases:   s.cfg.Analytics.Aliases,
		Overrides: overridesFromForm(r),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds := s.store.Put(header.Filename, *table)
	writeJSON(w, http.StatusCreated, ds)
}

// overridesFromForm reads explicit column picks (col_agent=..., col_date=...)
// from the upload form.
func overridesFromForm(r *http.Request) callog.Overrides {
	return callog.Overrides{
		Agent:      r.FormValue("col_agent"),
		Country:    r.FormValue("col_country"),
		CallType:   r.FormValue("col_call_type"),
		CallStatus: r.FormValue("col_call_status"),
		Duration:   r.FormValue("col_duration"),
		Date:       r.FormValue("col_date"),
		Time:       r.FormValue("col_time"),
		Start:      r.FormValue("col_start"),
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"datasets": s.store.List()})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	s.store.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	q, err := decodeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dims, err := parseDimensions(q.Dimensions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if reason, ok := s.viewAvailable(ds, q, dims); !ok {
		writeJSON(w, http.StatusOK, unavailable(reason))
		return
	}

	records, err := s.view(ds, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := analytics.Aggregate(records, dims, sortMode(q.Sort))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true, "summary": summary})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	q, err := decodeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if reason, ok := s.viewAvailable(ds, q, nil); !ok {
		writeJSON(w, http.StatusOK, unavailable(reason))
		return
	}

	records, err := s.view(ds, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": true,
		"overview":  analytics.Summarize(records),
	})
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	q, err := decodeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ds.Schema.Start == "" && ds.Schema.Time == "" {
		writeJSON(w, http.StatusOK, unavailable("no time-of-day column resolved"))
		return
	}
	if reason, ok := s.viewAvailable(ds, q, nil); !ok {
		writeJSON(w, http.StatusOK, unavailable(reason))
		return
	}

	records, err := s.view(ds, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available":       true,
		"by_hour":         analytics.AttemptsByHour(records),
		"by_hour_country": analytics.AttemptsByHourCountry(records),
		"by_agent_hour":   analytics.AttemptsByAgentHour(records),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	q, err := decodeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dims, err := parseDimensions(q.Dimensions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if reason, ok := s.viewAvailable(ds, q, dims); !ok {
		writeError(w, http.StatusConflict, reason)
		return
	}

	records, err := s.view(ds, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := analytics.Aggregate(records, dims, sortMode(q.Sort))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="talktime_summary.csv"`)
	if err := analytics.WriteSummaryCSV(w, summary); err != nil {
		log.Error().Err(err).Msg("Failed to stream summary export")
	}
}

// viewAvailable checks that the resolved schema can serve the requested view.
// An unavailable view is not an error: the response says what is missing.
func (s *Server) viewAvailable(ds *session.Dataset, q queryRequest, dims []analytics.Dimension) (string, bool) {
	for _, d := range dims {
		if !d.Resolved(ds.Schema) {
			return fmt.Sprintf("no %s column resolved", d), false
		}
	}
	if q.Mode == "talktime" && ds.Schema.Duration == "" {
		return "no duration column resolved", false
	}
	if wantsWindow(q) && !ds.Schema.HasTemporal() {
		return "no date or start column resolved", false
	}
	return "", true
}

func wantsWindow(q queryRequest) bool {
	return q.Preset != "" || q.From != "" || q.To != ""
}

// view runs the filter pipeline for one request: Apply always, the duration
// threshold only in talktime mode.
func (s *Server) view(ds *session.Dataset, q queryRequest) ([]callog.Record, error) {
	spec, err := s.buildSpec(q)
	if err != nil {
		return nil, err
	}
	records := analytics.Apply(ds.Records, spec, s.teams)

	switch q.Mode {
	case "", "all":
	case "talktime":
		thr := s.cfg.Analytics.DefaultThreshold
		if q.ThresholdSec != nil {
			thr = *q.ThresholdSec
		}
		records = analytics.ApplyThreshold(records, s.cfg.Analytics.ClampThreshold(thr))
	default:
		return nil, fmt.Errorf("unknown mode %q", q.Mode)
	}
	return records, nil
}

func (s *Server) buildSpec(q queryRequest) (analytics.Spec, error) {
	spec := analytics.Spec{
		Agents:         q.Agents,
		Countries:      q.Countries,
		CallTypes:      q.CallTypes,
		CallStatuses:   q.CallStatuses,
		AddTeams:       q.AddTeams,
		TeamBase:       analytics.TeamAll,
		IncludeMissing: q.IncludeMissing == nil || *q.IncludeMissing,
	}

	if q.TeamBase != "" && q.TeamBase != "all" {
		if _, ok := s.teams.Get(q.TeamBase); !ok {
			return analytics.Spec{}, fmt.Errorf("unknown team %q", q.TeamBase)
		}
		spec.TeamBase = analytics.TeamRestricted
		spec.BaseTeam = q.TeamBase
	}
	for _, tag := range q.AddTeams {
		if _, ok := s.teams.Get(tag); !ok {
			return analytics.Spec{}, fmt.Errorf("unknown team %q", tag)
		}
	}

	window, err := resolveWindow(q, time.Now())
	if err != nil {
		return analytics.Spec{}, err
	}
	spec.Window = window
	return spec, nil
}

func resolveWindow(q queryRequest, now time.Time) (*analytics.DateWindow, error) {
	switch q.Preset {
	case "", "custom":
		if q.From == "" && q.To == "" {
			if q.Preset == "custom" {
				return nil, errors.New("custom range requires from/to dates")
			}
			return nil, nil
		}
		from, to := q.From, q.To
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		start, err := parseISODate(from)
		if err != nil {
			return nil, err
		}
		end, err := parseISODate(to)
		if err != nil {
			return nil, err
		}
		w := analytics.NewDateWindow(start, end)
		return &w, nil
	default:
		w, ok := analytics.Preset(q.Preset, now)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", q.Preset)
		}
		return &w, nil
	}
}

func parseISODate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, callog.ReportingZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func parseDimensions(names []string) ([]analytics.Dimension, error) {
	if len(names) == 0 {
		return []analytics.Dimension{analytics.DimAgent}, nil
	}
	dims := make([]analytics.Dimension, 0, len(names))
	for _, n := range names {
		d, err := analytics.ParseDimension(n)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

func sortMode(s string) analytics.SortMode {
	if s == string(analytics.SortByDuration) {
		return analytics.SortByDuration
	}
	return analytics.SortByCalls
}

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*session.Dataset, bool) {
	ds, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return ds, true
}

// decodeQuery tolerates an empty body: every view has sensible defaults.
func decodeQuery(r *http.Request) (queryRequest, error) {
	var q queryRequest
	err := json.NewDecoder(r.Body).Decode(&q)
	if err != nil && !errors.Is(err, io.EOF) {
		return queryRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	return q, nil
}

func unavailable(reason string) map[string]any {
	return map[string]any{"available": false, "reason": reason}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
