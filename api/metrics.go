package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/loan-insights/pipeline"
)

// =============================================================================
// METRICS - Prometheus instrumentation on a private registry
// =============================================================================

// Metrics holds the Prometheus collectors of one server.
type Metrics struct {
	Registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	facts         prometheus.Gauge
	excluded      *prometheus.GaugeVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_insights_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loan_insights_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"route"}),
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_insights_builds_total",
			Help: "Fact table builds by result",
		}, []string{"result"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "loan_insights_build_duration_seconds",
			Help:    "Time taken to load sources and build the fact table",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		facts: f.NewGauge(prometheus.GaugeOpts{
			Name: "loan_insights_fact_rows",
			Help: "Rows in the current fact table",
		}),
		excluded: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loan_insights_excluded_rows",
			Help: "Rows excluded from the current fact table by reason",
		}, []string{"reason"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveBuild records the outcome of one fact table build.
func (m *Metrics) ObserveBuild(base *pipeline.Base, err error, elapsed time.Duration) {
	m.buildDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.builds.WithLabelValues("error").Inc()
		return
	}
	m.builds.WithLabelValues("ok").Inc()
	m.facts.Set(float64(base.Len()))

	d := base.Diagnostics
	m.excluded.WithLabelValues("orphan_loan").Set(float64(d.OrphanLoans))
	m.excluded.WithLabelValues("emp_length_out_of_domain").Set(float64(d.EmpLengthOutOfDomain))
	m.excluded.WithLabelValues("unparseable_date").Set(float64(d.UnparseableDates))
}
