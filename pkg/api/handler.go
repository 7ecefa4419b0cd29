package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hazyhaar/aadhaar-pulse/pkg/capacity"
	"github.com/hazyhaar/aadhaar-pulse/pkg/dataset"
	"github.com/hazyhaar/aadhaar-pulse/pkg/detect"
	"github.com/hazyhaar/aadhaar-pulse/pkg/kit"
	"github.com/hazyhaar/aadhaar-pulse/pkg/metrics"
	"github.com/hazyhaar/aadhaar-pulse/pkg/pipeline"
)

// NewRouter returns an http.Handler with all pipeline routes.
func NewRouter(svc *pipeline.Service, eps Endpoints) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: eps, svc: svc}

	mux.HandleFunc("POST /data-cleaning/run/{dataset}", h.handleClean)
	mux.HandleFunc("GET /data-cleaning/logs", h.handleLogs)
	mux.HandleFunc("GET /data-cleaning/district-anomalies", h.handleDetect)
	mux.HandleFunc("GET /aggregate/national", h.handleNational)
	mux.HandleFunc("GET /aggregate/state", h.handleStates)
	mux.HandleFunc("GET /aggregate/district", h.handleDistricts)
	mux.HandleFunc("GET /estimate/stations/district", h.handleStations)
	mux.HandleFunc("GET /insights/national", h.handleInsights)
	mux.HandleFunc("GET /data/columns/{dataset}", h.handleColumns)
	mux.HandleFunc("GET /data/sample/{dataset}", h.handleSample)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return cors(requestContext(mux))
}

type handler struct {
	eps Endpoints
	svc *pipeline.Service
}

// --- data cleaning ---

func (h *handler) handleClean(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.Clean, &datasetReq{Dataset: dataset.ID(r.PathValue("dataset"))})
}

func (h *handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.Logs, nil)
}

func (h *handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := detect.DefaultOptions()
	var err error
	if opts.SimilarityCutoff, err = floatParam(q.Get("similarity_cutoff"), opts.SimilarityCutoff); err != nil {
		writeError(w, http.StatusBadRequest, "similarity_cutoff: "+err.Error())
		return
	}
	if opts.MinCountRatio, err = floatParam(q.Get("min_count_ratio"), opts.MinCountRatio); err != nil {
		writeError(w, http.StatusBadRequest, "min_count_ratio: "+err.Error())
		return
	}
	id := dataset.Enrolment
	if v := q.Get("dataset"); v != "" {
		id = dataset.ID(v)
	}
	h.serve(w, r, h.eps.Detect, &detectReq{State: q.Get("state"), Dataset: id, Opts: opts})
}

// --- aggregations ---

func (h *handler) handleNational(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.National, nil)
}

func (h *handler) handleStates(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.States, nil)
}

func (h *handler) handleDistricts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.Districts, &stateReq{State: r.URL.Query().Get("state")})
}

func (h *handler) handleStations(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.Stations, &stateReq{State: r.URL.Query().Get("state")})
}

func (h *handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.Insights, nil)
}

// --- raw inspection ---

func (h *handler) handleColumns(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.eps.Columns, &datasetReq{Dataset: dataset.ID(r.PathValue("dataset"))})
}

func (h *handler) handleSample(w http.ResponseWriter, r *http.Request) {
	limit := pipeline.DefaultSampleLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	h.serve(w, r, h.eps.Sample, &sampleReq{Dataset: dataset.ID(r.PathValue("dataset")), Limit: limit})
}

// --- health ---

type healthResponse struct {
	Status   string   `json:"status"`
	States   int      `json:"states"`
	Aliases  int      `json:"aliases"`
	Datasets []string `json:"datasets"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, s := range dataset.All() {
		ids = append(ids, string(s.ID))
	}
	g := h.svc.Gazetteer()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		States:   len(g.States()),
		Aliases:  g.AliasCount(),
		Datasets: ids,
	})
}

// --- helpers ---

func (h *handler) serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any) {
	resp, err := ep(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrUnknownDataset),
		errors.Is(err, detect.ErrInvalidParameter),
		errors.Is(err, capacity.ErrNegativeLoad),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrSourceUnavailable):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrPrerequisiteMissing):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func floatParam(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// requestContext tags the request with a transport and a request id, taken
// from X-Request-ID when the client sends one.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithRequestID(kit.WithTransport(r.Context(), kit.TransportHTTP), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
