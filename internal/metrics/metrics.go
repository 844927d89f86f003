package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/replyforge/email-responder/internal/domain"
	"github.com/replyforge/email-responder/internal/service"
	"github.com/replyforge/email-responder/internal/sink"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	ResponsesDelivered prometheus.Counter
	ResponsesFailed    *prometheus.CounterVec
	DeliveryRetries    prometheus.Counter
	DeliveryLatency    prometheus.Histogram
	RunsInFlight       prometheus.Gauge
	RunsFinished       *prometheus.CounterVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResponsesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "responses_delivered_total",
			Help: "Total number of successfully delivered responses.",
		}),

		ResponsesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "responses_failed_total",
			Help: "Total number of terminally failed responses by outcome.",
		}, []string{"outcome"}),

		DeliveryRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "delivery_retries_total",
			Help: "Total number of delivery retries performed.",
		}),

		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "delivery_seconds",
			Help:    "Wall time from first delivery attempt to terminal outcome.",
			Buckets: prometheus.DefBuckets,
		}),

		RunsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "runs_in_flight",
			Help: "Number of runs currently processing.",
		}),

		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runs_finished_total",
			Help: "Total number of finished runs by terminal state.",
		}, []string{"state"}),
	}

	reg.MustRegister(
		m.ResponsesDelivered,
		m.ResponsesFailed,
		m.DeliveryRetries,
		m.DeliveryLatency,
		m.RunsInFlight,
		m.RunsFinished,
	)

	return m
}

// ServiceHooks returns the callback bundle expected by the run service.
// Centralises the prometheus observation calls so sink and worker code
// stay metrics-agnostic.
func (m *Metrics) ServiceHooks() service.Hooks {
	return service.Hooks{
		Sink: sink.MetricHooks{
			OnDelivered: func(latency time.Duration) {
				m.ResponsesDelivered.Inc()
				m.DeliveryLatency.Observe(latency.Seconds())
			},
			OnFailed: func(outcome sink.Outcome) {
				m.ResponsesFailed.WithLabelValues(string(outcome)).Inc()
			},
			OnRetried: func() {
				m.DeliveryRetries.Inc()
			},
		},
		OnRunStarted: func() {
			m.RunsInFlight.Inc()
		},
		OnRunFinished: func(state domain.RunState) {
			m.RunsInFlight.Dec()
			m.RunsFinished.WithLabelValues(string(state)).Inc()
		},
	}
}
