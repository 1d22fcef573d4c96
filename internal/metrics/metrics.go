// Package metrics exposes judging activity to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements evaluation.Recorder and report.Observer.
type Metrics struct {
	reg prometheus.Gatherer

	evaluationActions *prometheus.CounterVec
	reportDuration    *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass a fresh registry in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		evaluationActions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judging_evaluation_actions_total",
				Help: "Judge save/submit/reopen requests by outcome.",
			},
			[]string{"action", "outcome"},
		),
		reportDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "judging_report_build_duration_seconds",
				Help:    "Time to build a ranking, summary or project drill-down.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judging_http_requests_total",
				Help: "HTTP requests by route pattern and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "judging_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *Metrics) EvaluationAction(action, outcome string) {
	m.evaluationActions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveReport(kind string, d time.Duration) {
	m.reportDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Instrument counts requests by chi route pattern, so path ids do not blow
// up label cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
