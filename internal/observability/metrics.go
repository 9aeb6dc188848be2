package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_events_total",
			Help: "Events processed by kind and outcome",
		}, []string{"kind", "outcome"},
	)
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_notifications_total",
			Help: "Notifications dispatched by alarm and kind",
		}, []string{"alarm", "kind"},
	)
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alert_queue_depth",
		Help: "Events waiting in the inbound queue",
	})
	CacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alert_cache_entries",
		Help: "Live expiration entries in the state cache",
	})
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "alert_cache_sweep_duration_seconds",
		Help:    "Cache sweep-and-persist latency",
		Buckets: prometheus.DefBuckets,
	})
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_http_requests_total",
			Help: "Total ingest requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "alert_http_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alert_http_in_flight",
		Help: "In-flight HTTP requests",
	})
)

func init() {
	prometheus.MustRegister(
		EventsTotal, NotificationsTotal, QueueDepth,
		CacheEntries, SweepDuration,
		RequestsTotal, Latency, InFlight,
	)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
