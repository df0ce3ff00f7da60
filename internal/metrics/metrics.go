// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compass_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_model_calls_total",
			Help: "Total number of language model calls by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ModelDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compass_model_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	AnalysisSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_analysis_total",
			Help: "Business analyses produced, labelled model or fallback",
		},
		[]string{"source"},
	)

	MatchStrategy = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_agency_match_total",
			Help: "Agency match runs by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	BlueprintsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compass_blueprints_generated_total",
			Help: "Total number of blueprints generated",
		},
	)

	PDFRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_pdf_renders_total",
			Help: "PDF render attempts by outcome",
		},
		[]string{"outcome"},
	)

	VectorizedDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_vectorized_documents_total",
			Help: "Documents upserted into the vector store by collection",
		},
		[]string{"collection"},
	)

	VectorizationRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "compass_vectorization_running",
			Help: "1 while a vectorization run is in progress",
		},
	)
)

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
