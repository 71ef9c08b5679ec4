package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	documentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_documents_processed_total",
			Help: "Uploaded documents by extraction method and outcome",
		},
		[]string{"method", "outcome"},
	)

	leadsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_leads_created_total",
			Help: "Leads stored, by source",
		},
		[]string{"source"},
	)

	duplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_duplicates_skipped_total",
			Help: "Extracted candidates skipped because their email was already stored",
		},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_emails_total",
			Help: "Lead emails by result",
		},
		[]string{"status"},
	)

	workflowResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_workflow_results_total",
			Help: "Per-lead workflow results",
		},
		[]string{"action", "status"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern keeps lead ids out of the label set.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordDocument(method, outcome string) {
	if method == "" {
		method = "none"
	}
	documentsProcessed.WithLabelValues(method, outcome).Inc()
}

func RecordLeadsCreated(source string, n int) {
	if n > 0 {
		leadsCreated.WithLabelValues(source).Add(float64(n))
	}
}

func RecordDuplicates(n int) {
	if n > 0 {
		duplicatesSkipped.Add(float64(n))
	}
}

func RecordEmail(status string) {
	emailsSent.WithLabelValues(status).Inc()
}

func RecordWorkflowResult(action, status string) {
	workflowResults.WithLabelValues(action, status).Inc()
}
