package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beomat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beomat_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beomat_propagations_total",
			Help: "Propagation calls by outcome.",
		},
		[]string{"result"},
	)

	propagationBatchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beomat_propagation_batch_seconds",
			Help:    "Wall time of a batch propagation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	accessWindowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beomat_access_windows_total",
			Help: "Access windows produced, by whether they were truncated at the end of the run.",
		},
		[]string{"truncated"},
	)

	decayEstimatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beomat_decay_estimates_total",
			Help: "Lifetime estimates by outcome.",
		},
		[]string{"result"},
	)

	catalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "beomat_catalog_element_sets",
			Help: "Element sets in the loaded catalog.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(propagationBatchSeconds)
	prometheus.MustRegister(accessWindowsTotal)
	prometheus.MustRegister(decayEstimatesTotal)
	prometheus.MustRegister(catalogSize)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPropagation records one batch: its duration and per-satellite outcomes.
func RecordPropagation(d time.Duration, ok, failed int) {
	propagationBatchSeconds.Observe(d.Seconds())
	propagationsTotal.WithLabelValues("ok").Add(float64(ok))
	propagationsTotal.WithLabelValues("error").Add(float64(failed))
}

// RecordWindows counts access windows from one computation.
func RecordWindows(complete, truncated int) {
	accessWindowsTotal.WithLabelValues("false").Add(float64(complete))
	accessWindowsTotal.WithLabelValues("true").Add(float64(truncated))
}

// RecordDecay counts one lifetime estimate.
func RecordDecay(err error) {
	if err != nil {
		decayEstimatesTotal.WithLabelValues("error").Inc()
		return
	}
	decayEstimatesTotal.WithLabelValues("ok").Inc()
}

// SetCatalogSize publishes the number of loaded element sets.
func SetCatalogSize(n int) {
	catalogSize.Set(float64(n))
}

// knownRoutes are exact paths reported under their own label.
var knownRoutes = map[string]bool{
	"/":                  true,
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/api/v1/satellites": true,
	"/api/v1/decay":      true,
}

// paramPrefixes collapse /prefix/{norad_id} paths into a single label.
var paramPrefixes = []string{
	"/api/v1/propagate/",
	"/api/v1/elements/",
	"/api/v1/access/",
}

// normalizeRoute maps a request path to a bounded label set so that
// per-satellite URLs do not explode metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	for _, prefix := range paramPrefixes {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(rest); err == nil {
			return prefix + "{norad_id}"
		}
		return "other"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
