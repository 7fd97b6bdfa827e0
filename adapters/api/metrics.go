package api

import (
	"net/http"
	"strconv"
	"time"

	"boxmeta/domain/run"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. Each App owns its own
// registry so several servers (or tests) can coexist in one process.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	runs            prometheus.Counter
	cases           *prometheus.CounterVec
	comparisons     *prometheus.CounterVec
	workingGrades   *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boxmeta_http_request_duration_seconds",
			Help:    "HTTP request duration by route and status",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"route", "method", "status"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "boxmeta_runs_total",
			Help: "Conversion runs completed",
		}),
		cases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxmeta_cases_total",
			Help: "Cases processed by outcome",
		}, []string{"outcome"}), // "estimated" or a failure reason
		comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxmeta_comparisons_total",
			Help: "Comparisons by outcome",
		}, []string{"outcome"}),
		workingGrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxmeta_group_working_grade_total",
			Help: "Groups by working grade",
		}, []string{"grade"}),
	}
	m.registry.MustRegister(m.requestDuration, m.runs, m.cases, m.comparisons, m.workingGrades)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records request durations by route pattern
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// ObserveReport counts the outcomes of a finished run
func (m *Metrics) ObserveReport(report *run.Report) {
	m.runs.Inc()
	for _, g := range report.Groups {
		m.workingGrades.WithLabelValues(g.WorkingGrade.String()).Inc()
		for _, c := range g.Cases {
			switch {
			case c.OK():
				m.cases.WithLabelValues("estimated").Inc()
			case c.Failure != nil:
				m.cases.WithLabelValues(string(c.Failure.Reason)).Inc()
			}
		}
	}
	for _, p := range report.Comparisons {
		switch {
		case p.Failure != nil:
			m.comparisons.WithLabelValues(string(p.Failure.Reason)).Inc()
		case p.Result.Verdict.Significant:
			m.comparisons.WithLabelValues("significant").Inc()
		default:
			m.comparisons.WithLabelValues("not_significant").Inc()
		}
	}
}
