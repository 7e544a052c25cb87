package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"talktime/internal/callog"
	"talktime/internal/config"
	"talktime/internal/session"
)

const sampleCSV = `Caller,Country Name,Call Type,Call Status,Call Duration,Date,Time
Alice,IN,Outbound,Answered,1:00,13/04/2024,10:15
Alice,IN,Outbound,Answered,0:30,13/04/2024,11:00
Bob,US,Outbound,Missed,2:00,13/04/2024,14:45
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.AppConfig{
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 32 << 20,
		Analytics: config.AnalyticsConfig{
			Aliases:          callog.DefaultAliases(),
			DefaultThreshold: 60,
			MinThreshold:     10,
			MaxThreshold:     300,
		},
	}
	return NewServer(cfg, session.NewStore())
}

func uploadCSV(t *testing.T, h http.Handler, csvBody string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "calls.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(csvBody)); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rr.Code, rr.Body.String())
	}
	var ds struct {
		ID   string `json:"id"`
		Rows int    `json:"rows"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &ds); err != nil {
		t.Fatalf("upload response: %v", err)
	}
	if ds.ID == "" {
		t.Fatal("upload response missing id")
	}
	return ds.ID
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Router()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestUploadRejectsMalformedCSV(t *testing.T) {
	h := newTestServer(t).Router()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "bad.csv")
	fw.Write([]byte("a,b\n\"unterminated,1\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 and no partial dataset", rr.Code)
	}
}

func TestSummaryTalktimeVsAttempts(t *testing.T) {
	h := newTestServer(t).Router()
	id := uploadCSV(t, h, sampleCSV)

	type rowsResp struct {
		Available bool `json:"available"`
		Summary   struct {
			Rows []struct {
				Keys  []string `json:"keys"`
				Count int      `json:"total_calls"`
				Sum   float64  `json:"total_duration_sec"`
			} `json:"rows"`
		} `json:"summary"`
	}

	// Talktime mode at the 60s threshold drops Alice's 30s attempt.
	rr := postJSON(t, h, "/api/datasets/"+id+"/summary", `{"mode":"talktime","threshold_sec":60}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var got rowsResp
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Available {
		t.Fatalf("summary unavailable: %s", rr.Body.String())
	}
	byAgent := map[string]int{}
	sums := map[string]float64{}
	for _, r := range got.Summary.Rows {
		byAgent[r.Keys[0]] = r.Count
		sums[r.Keys[0]] = r.Sum
	}
	if byAgent["Alice"] != 1 || sums["Alice"] != 60 {
		t.Errorf("Alice = %d calls / %v sec, want 1 / 60", byAgent["Alice"], sums["Alice"])
	}
	if byAgent["Bob"] != 1 || sums["Bob"] != 120 {
		t.Errorf("Bob = %d calls / %v sec, want 1 / 120", byAgent["Bob"], sums["Bob"])
	}

	// Attempts view keeps every call.
	rr = postJSON(t, h, "/api/datasets/"+id+"/summary", `{"mode":"all"}`)
	got = rowsResp{}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, r := range got.Summary.Rows {
		total += r.Count
	}
	if total != 3 {
		t.Errorf("attempts view counted %d calls, want 3", total)
	}
}

func TestSummaryUnavailableWithoutDuration(t *testing.T) {
	h := newTestServer(t).Router()
	id := uploadCSV(t, h, "Caller,Country Name\nAlice,IN\n")

	rr := postJSON(t, h, "/api/datasets/"+id+"/summary", `{"mode":"talktime"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with an unavailable payload", rr.Code)
	}
	var got struct {
		Available bool   `json:"available"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Available || got.Reason == "" {
		t.Errorf("want available=false with a reason, got %s", rr.Body.String())
	}
}

func TestSummaryDateWindow(t *testing.T) {
	h := newTestServer(t).Router()
	id := uploadCSV(t, h, sampleCSV)

	rr := postJSON(t, h, "/api/datasets/"+id+"/summary",
		`{"preset":"custom","from":"2024-04-13","to":"2024-04-13"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	// A window with no matching day filters everything out but stays valid.
	rr = postJSON(t, h, "/api/datasets/"+id+"/summary",
		`{"preset":"custom","from":"2024-04-14","to":"2024-04-14"}`)
	var got struct {
		Available bool `json:"available"`
		Summary   struct {
			Rows []json.RawMessage `json:"rows"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Summary.Rows) != 0 {
		t.Errorf("got %d rows outside the window, want 0", len(got.Summary.Rows))
	}

	// Custom without dates is a client error.
	rr = postJSON(t, h, "/api/datasets/"+id+"/summary", `{"preset":"custom"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("custom without dates: status = %d, want 400", rr.Code)
	}
}

func TestOverviewAndHourly(t *testing.T) {
	h := newTestServer(t).Router()
	id := uploadCSV(t, h, sampleCSV)

	rr := postJSON(t, h, "/api/datasets/"+id+"/overview", `{}`)
	var ov struct {
		Available bool `json:"available"`
		Overview  struct {
			TotalCalls int `json:"total_calls"`
			Agents     int `json:"agents"`
		} `json:"overview"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &ov); err != nil {
		t.Fatal(err)
	}
	if !ov.Available || ov.Overview.TotalCalls != 3 || ov.Overview.Agents != 2 {
		t.Errorf("overview = %+v, want 3 calls / 2 agents", ov)
	}

	rr = postJSON(t, h, "/api/datasets/"+id+"/hourly", `{}`)
	var hr struct {
		Available bool `json:"available"`
		ByHour    []struct {
			Hour     int `json:"hour"`
			Attempts int `json:"attempts"`
		} `json:"by_hour"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &hr); err != nil {
		t.Fatal(err)
	}
	if !hr.Available {
		t.Fatalf("hourly unavailable: %s", rr.Body.String())
	}
	total := 0
	for _, b := range hr.ByHour {
		total += b.Attempts
	}
	if total != 3 {
		t.Errorf("hourly attempts = %d, want 3", total)
	}
}

func TestExportCSV(t *testing.T) {
	h := newTestServer(t).Router()
	id := uploadCSV(t, h, sampleCSV)

	rr := postJSON(t, h, "/api/datasets/"+id+"/export", `{"dimensions":["agent"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	first := strings.SplitN(rr.Body.String(), "\n", 2)[0]
	if first != "Agent,Total Calls,Total Duration (sec),Avg Duration (sec),Median Duration (sec)" {
		t.Errorf("header row = %q", first)
	}
}

func TestDatasetLifecycle(t *testing.T) {
	h := newTestServer(t).Router()
	id := uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets/"+id, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id, nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = postJSON(t, h, fmt.Sprintf("/api/datasets/%s/summary", id), `{}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("summary after delete: status = %d, want 404", rr.Code)
	}
}

func TestUnknownTeamRejected(t *testing.T) {
	h := newTestServer(t).Router()
	id := uploadCSV(t, h, sampleCSV)

	rr := postJSON(t, h, "/api/datasets/"+id+"/summary", `{"team_base":"nope"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for an unknown team tag", rr.Code)
	}
}
