package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	LoginsTotal       *prometheus.CounterVec
	LoginPromptsTotal *prometheus.CounterVec

	// Role mapping metrics
	RoleSyncsTotal *prometheus.CounterVec

	// Session metrics
	SessionTerminationsTotal *prometheus.CounterVec
	SessionHeartbeatsTotal   prometheus.Counter
	ActiveSessions           prometheus.Gauge

	// Activity log metrics
	ActivityEventsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics on the given registry. A nil
// registry gets a fresh private one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membergate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "membergate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membergate_logins_total",
				Help: "Login attempts by provider and outcome",
			},
			[]string{"provider", "status"},
		),
		LoginPromptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membergate_login_prompts_total",
				Help: "Login prompts served by kind",
			},
			[]string{"kind"},
		),
		RoleSyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membergate_role_syncs_total",
				Help: "Role synchronizations by outcome",
			},
			[]string{"status"},
		),
		SessionTerminationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membergate_session_terminations_total",
				Help: "Session termination requests by result",
			},
			[]string{"result"},
		),
		SessionHeartbeatsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "membergate_session_heartbeats_total",
				Help: "Session heartbeat requests",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "membergate_active_sessions",
				Help: "Sessions currently live in the session store",
			},
		),
		ActivityEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membergate_activity_events_total",
				Help: "Activity log events by type",
			},
			[]string{"type"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginsTotal,
		m.LoginPromptsTotal,
		m.RoleSyncsTotal,
		m.SessionTerminationsTotal,
		m.SessionHeartbeatsTotal,
		m.ActiveSessions,
		m.ActivityEventsTotal,
	)
	return m
}

// Handler returns the promhttp handler for the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps an HTTP handler with request counting and timing.
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
