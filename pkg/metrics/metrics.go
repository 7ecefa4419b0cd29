// CLAUDE:SUMMARY Prometheus collectors for cleaning runs, corrections, duplicate detection and endpoint latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CleaningRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_cleaning_runs_total",
		Help: "Cleaning runs by dataset and outcome",
	}, []string{"dataset", "status"})
	CleanedRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pulse_cleaned_rows",
		Help: "Rows in the latest cleaned artifact per dataset",
	}, []string{"dataset"})
	CorrectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_corrections_total",
		Help: "Geography corrections recorded during cleaning, by type",
	}, []string{"dataset", "type"})
	CleaningDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_cleaning_duration_ms",
		Help:    "Cleaning run duration in milliseconds",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 60000},
	}, []string{"dataset"})
	DuplicatePairsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_duplicate_pairs_total",
		Help: "Near-duplicate district pairs reported, by recommendation",
	}, []string{"recommendation"})
	EndpointRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_endpoint_requests_total",
		Help: "Endpoint calls by endpoint, transport and outcome",
	}, []string{"endpoint", "transport", "status"})
	EndpointDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_endpoint_duration_ms",
		Help:    "Endpoint duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"endpoint"})
)

func init() {
	prometheus.MustRegister(CleaningRunsTotal)
	prometheus.MustRegister(CleanedRows)
	prometheus.MustRegister(CorrectionsTotal)
	prometheus.MustRegister(CleaningDurationMs)
	prometheus.MustRegister(DuplicatePairsTotal)
	prometheus.MustRegister(EndpointRequestsTotal)
	prometheus.MustRegister(EndpointDurationMs)
}

// Handler exposes the default registry for scraping on /metrics.
func Handler() http.Handler { return promhttp.Handler() }
