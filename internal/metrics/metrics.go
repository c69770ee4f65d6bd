package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters/histograms for provider calls and the triage pipeline.
type Metrics struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec
	triageLatency   prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total generative provider calls by operation and outcome",
		}, []string{"op", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Latency of generative provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "fallbacks_total",
			Help:      "Deterministic fallbacks taken by operation",
		}, []string{"op"}),
		triageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "ticket_latency_seconds",
			Help:      "End-to-end latency of a single ticket triage",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.providerCalls, m.providerLatency, m.fallbacks, m.triageLatency, m.httpRequests, m.httpLatency)
	return m
}

func (m *Metrics) ObserveProviderCall(op string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.providerCalls.WithLabelValues(op, outcome).Inc()
	m.providerLatency.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) ObserveFallback(op string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveTriage(seconds float64) {
	if m == nil {
		return
	}
	m.triageLatency.Observe(seconds)
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
