package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "econet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "econet_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Ingestion metrics
	EventsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "econet_events_ingested_total",
			Help: "Total number of waste events ingested",
		},
		[]string{"event_type"},
	)

	PublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "econet_publish_failures_total",
			Help: "Total number of failed fan-out publishes",
		},
	)

	BulkCleanSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "econet_bulk_clean_skipped_total",
			Help: "Total number of bulk-clean entries skipped",
		},
	)
)

// statusRecorder 捕获响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument 包装 handler，记录请求计数与耗时
func Instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, req)

		HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(req.Method, path).Observe(time.Since(start).Seconds())
	}
}
