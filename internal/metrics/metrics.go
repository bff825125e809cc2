// Package metrics provides Prometheus metrics collection for the batch picker.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eugenenazirov/batch-picker/internal/search"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// SearchesTotal tracks searches by outcome (found, exhausted, invalid, canceled).
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_searches_total",
			Help: "Total number of batch searches",
		},
		[]string{"outcome"},
	)

	// SearchDuration tracks wall time spent per search.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_search_duration_seconds",
			Help:    "Batch search duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// FrontierExpansionsTotal counts candidate totals generated across all searches.
	FrontierExpansionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "frontier_expansions_total",
			Help: "Total number of frontier expansion attempts",
		},
	)

	// FrontierPrunedTotal counts frontier members removed by pruning across all searches.
	FrontierPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "frontier_pruned_total",
			Help: "Total number of frontier members pruned",
		},
	)

	// FrontierPeakSize tracks the peak frontier size of the most recent search.
	FrontierPeakSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "frontier_peak_size",
			Help: "Peak frontier size of the most recent search",
		},
	)
)

// RecordSearch records metrics for a completed search.
func RecordSearch(res search.Result) {
	SearchesTotal.WithLabelValues(res.Outcome.String()).Inc()
	SearchDuration.Observe(res.Stats.Elapsed.Seconds())
	FrontierExpansionsTotal.Add(float64(res.Stats.Expansions))
	FrontierPrunedTotal.Add(float64(res.Stats.Pruned))
	FrontierPeakSize.Set(float64(res.Stats.PeakFrontier))
}

// RecordSearchFailure records a search that did not reach a terminal outcome.
func RecordSearchFailure(reason string) {
	SearchesTotal.WithLabelValues(reason).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware collects HTTP metrics for every request served by next. It must wrap the
// ServeMux directly so the matched route pattern is visible after dispatch.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		} else if i := strings.IndexByte(path, ' '); i >= 0 {
			path = path[i+1:]
		}
		statusCode := strconv.Itoa(rec.status)
		HTTPRequestDuration.WithLabelValues(r.Method, path, statusCode).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(r.Method, path, statusCode).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
