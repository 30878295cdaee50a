package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comunidad/residence-service/internal/models"
)

var (
	// Registry holds the service collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"route", "method"},
	)

	assignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "residence_assignments_total",
			Help: "Committed occupant transitions by change type.",
		},
		[]string{"tipo_cambio"},
	)

	consistencyIssues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "residence_consistency_issues",
			Help: "Residences flagged by the last consistency audit.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		assignments,
		consistencyIssues,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by route template,
// so /residences/1 and /residences/2 share one series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func RecordAssignment(ct models.ChangeType) {
	assignments.WithLabelValues(string(ct)).Inc()
}

// SetConsistencyIssues publishes the outcome of one audit run. Kinds absent
// from counts are reset to zero.
func SetConsistencyIssues(counts map[string]int, kinds ...string) {
	for _, k := range kinds {
		consistencyIssues.WithLabelValues(k).Set(float64(counts[k]))
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
