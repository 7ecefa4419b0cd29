package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/aadhaar-pulse/pkg/pipeline"
	"github.com/mark3labs/mcp-go/server"
)

var rawFixtures = map[string]string{
	"enrolment": "date,state,district,pincode,age_0_5,age_5_17,age_18_greater\n" +
		"2025-03-01,karnataka,bengaluru,560001,10,10,10\n" +
		"2025-03-01,Karnataka,Bengalooru,560001,1,1,1\n" +
		"2025-03-02,Pondicherry,Puducherry,605001,2,2,2\n",
	"biometric_update": "date,state,district,pincode,bio_age_5_17,bio_age_17_\n" +
		"2025-03-01,Karnataka,Bengaluru,560001,4,6\n",
	"demographic_update": "date,state,district,pincode,demo_age_5_17,demo_age_17_\n" +
		"2025-03-01,Karnataka,Mysuru,570001,3,3\n",
}

func newTestService(t *testing.T, withRaw bool) *pipeline.Service {
	t.Helper()
	raw := t.TempDir()
	if withRaw {
		for id, content := range rawFixtures {
			os.MkdirAll(filepath.Join(raw, id), 0o755)
			os.WriteFile(filepath.Join(raw, id, "data.csv"), []byte(content), 0o644)
		}
	}
	svc, err := pipeline.Open(pipeline.Config{RawDir: raw, CleanedDir: filepath.Join(t.TempDir(), "cleaned")})
	if err != nil {
		t.Fatalf("pipeline.Open: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func newTestRouter(t *testing.T, withRaw bool) http.Handler {
	t.Helper()
	svc := newTestService(t, withRaw)
	return NewRouter(svc, MakeEndpoints(svc, nil))
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouterFlow(t *testing.T) {
	h := newTestRouter(t, true)

	if rec := do(t, h, "GET", "/aggregate/national"); rec.Code != http.StatusConflict {
		t.Errorf("before cleaning: status %d, want 409", rec.Code)
	}

	for _, id := range []string{"enrolment", "biometric_update", "demographic_update"} {
		rec := do(t, h, "POST", "/data-cleaning/run/"+id)
		if rec.Code != http.StatusOK {
			t.Fatalf("clean %s: status %d body %s", id, rec.Code, rec.Body)
		}
	}

	var logs []map[string]any
	rec := do(t, h, "GET", "/data-cleaning/logs")
	if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil || len(logs) != 3 {
		t.Fatalf("logs = %s (%v)", rec.Body, err)
	}

	var states []map[string]any
	rec = do(t, h, "GET", "/aggregate/state")
	json.Unmarshal(rec.Body.Bytes(), &states)
	if len(states) != 2 || states[0]["state"] != "Karnataka" || states[1]["state"] != "Puducherry" {
		t.Errorf("states = %s", rec.Body)
	}

	var districts []map[string]any
	rec = do(t, h, "GET", "/aggregate/district?state=Karnataka")
	json.Unmarshal(rec.Body.Bytes(), &districts)
	if len(districts) != 3 {
		t.Errorf("districts = %s", rec.Body)
	}

	var anomalies struct {
		PotentialDuplicates []map[string]any `json:"potential_duplicates"`
	}
	rec = do(t, h, "GET", "/data-cleaning/district-anomalies?state=Karnataka&similarity_cutoff=0.8&min_count_ratio=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("anomalies status %d: %s", rec.Code, rec.Body)
	}
	json.Unmarshal(rec.Body.Bytes(), &anomalies)
	if len(anomalies.PotentialDuplicates) != 1 || anomalies.PotentialDuplicates[0]["recommendation"] != "review" {
		t.Errorf("anomalies = %s", rec.Body)
	}

	var stations struct {
		Assumption struct {
			Capacity string             `json:"capacity"`
			Weights  map[string]float64 `json:"weights"`
		} `json:"assumption"`
		Data []map[string]any `json:"data"`
	}
	rec = do(t, h, "GET", "/estimate/stations/district?state=Karnataka")
	json.Unmarshal(rec.Body.Bytes(), &stations)
	if len(stations.Data) != 3 || len(stations.Assumption.Weights) != 7 || stations.Assumption.Capacity == "" {
		t.Errorf("stations = %s", rec.Body)
	}

	var in struct {
		Summary struct {
			DominantService string `json:"dominant_service"`
		} `json:"summary"`
		RiskFlags []string `json:"risk_flags"`
	}
	rec = do(t, h, "GET", "/insights/national")
	json.Unmarshal(rec.Body.Bytes(), &in)
	if in.Summary.DominantService != "Enrolment" || in.RiskFlags == nil {
		t.Errorf("insights = %s", rec.Body)
	}
}

func TestRouterErrors(t *testing.T) {
	h := newTestRouter(t, false)

	tests := []struct {
		method, target string
		want           int
	}{
		{"POST", "/data-cleaning/run/census", http.StatusBadRequest},
		{"POST", "/data-cleaning/run/enrolment", http.StatusNotFound},
		{"GET", "/data/columns/enrolment", http.StatusNotFound},
		{"GET", "/aggregate/state", http.StatusConflict},
		{"GET", "/aggregate/district", http.StatusBadRequest},
		{"GET", "/estimate/stations/district", http.StatusBadRequest},
		{"GET", "/data-cleaning/district-anomalies?state=Goa&similarity_cutoff=0.5", http.StatusBadRequest},
		{"GET", "/data-cleaning/district-anomalies?state=Goa&min_count_ratio=abc", http.StatusBadRequest},
		{"GET", "/data-cleaning/district-anomalies?state=Goa", http.StatusConflict},
		{"GET", "/data/sample/enrolment?limit=x", http.StatusBadRequest},
		{"GET", "/data-cleaning/run/enrolment", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestInspectRoutes(t *testing.T) {
	h := newTestRouter(t, true)

	var cols struct {
		TotalRows int      `json:"total_rows"`
		Columns   []string `json:"columns"`
	}
	rec := do(t, h, "GET", "/data/columns/enrolment")
	json.Unmarshal(rec.Body.Bytes(), &cols)
	if cols.TotalRows != 3 || len(cols.Columns) != 7 {
		t.Errorf("columns = %s", rec.Body)
	}

	var sample struct {
		SampleSize int                 `json:"sample_size"`
		Data       []map[string]string `json:"data"`
	}
	rec = do(t, h, "GET", "/data/sample/enrolment?limit=1")
	json.Unmarshal(rec.Body.Bytes(), &sample)
	if sample.SampleSize != 1 || len(sample.Data) != 1 || sample.Data[0]["state"] != "karnataka" {
		t.Errorf("sample = %s", rec.Body)
	}
}

func TestHealthMetricsAndHeaders(t *testing.T) {
	h := newTestRouter(t, false)

	rec := do(t, h, "GET", "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	do(t, h, "GET", "/aggregate/national")
	rec = do(t, h, "GET", "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pulse_endpoint_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("request id not propagated: %q", rec.Header().Get("X-Request-ID"))
	}
}

func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) string {
	t.Helper()
	msg, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	resp := srv.HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestMCPTools(t *testing.T) {
	svc := newTestService(t, true)
	srv := server.NewMCPServer("pulse", "test", server.WithToolCapabilities(false))
	RegisterMCPTools(srv, MakeEndpoints(svc, nil))

	out := callTool(t, srv, "clean_dataset", map[string]any{"dataset": "enrolment"})
	if !strings.Contains(out, `corrections_count`) || strings.Contains(out, `"isError":true`) {
		t.Errorf("clean_dataset = %s", out)
	}

	out = callTool(t, srv, "district_anomalies", map[string]any{"state": "Karnataka", "similarity_cutoff": 0.8})
	if !strings.Contains(out, `Bengalooru`) {
		t.Errorf("district_anomalies = %s", out)
	}

	out = callTool(t, srv, "aggregate_national", nil)
	if !strings.Contains(out, `"isError":true`) {
		t.Errorf("aggregate_national before full cleaning should be a tool error: %s", out)
	}

	out = callTool(t, srv, "clean_dataset", map[string]any{})
	if !strings.Contains(out, "dataset is required") {
		t.Errorf("missing argument = %s", out)
	}
}

func TestDecodeDetect(t *testing.T) {
	got, err := decodeDetect(map[string]any{"state": "Goa", "min_count_ratio": 2.0})
	if err != nil {
		t.Fatal(err)
	}
	req := got.(*detectReq)
	if req.State != "Goa" || req.Dataset != "enrolment" || req.Opts.SimilarityCutoff != 0.9 || req.Opts.MinCountRatio != 2 {
		t.Errorf("req = %+v", req)
	}
	if _, err := decodeSample(map[string]any{"limit": 3.0}); err == nil {
		t.Error("sample without dataset accepted")
	}
}
