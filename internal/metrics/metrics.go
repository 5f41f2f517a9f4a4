package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the billing core.
type Metrics struct {
	// Webhook metrics
	WebhooksTotal        *prometheus.CounterVec
	WebhookDuration      *prometheus.HistogramVec
	DuplicateEventsTotal *prometheus.CounterVec
	UnhandledEventsTotal *prometheus.CounterVec

	// Access gate metrics
	AccessChecksTotal *prometheus.CounterVec
	GateFailOpenTotal prometheus.Counter

	// Outbound Stripe fetch metrics
	ProviderFetchesTotal  *prometheus.CounterVec
	ProviderFetchDuration prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		WebhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelbrief_webhooks_total",
				Help: "Total number of Stripe webhook deliveries by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),
		WebhookDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reelbrief_webhook_duration_seconds",
				Help:    "Time taken to process a webhook delivery",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"event_type"},
		),
		DuplicateEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelbrief_duplicate_events_total",
				Help: "Webhook deliveries skipped because the event was already processed",
			},
			[]string{"event_type"},
		),
		UnhandledEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelbrief_unhandled_events_total",
				Help: "Webhook deliveries acknowledged but carrying no handler",
			},
			[]string{"event_type"},
		),
		AccessChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelbrief_access_checks_total",
				Help: "Request gate decisions by result",
			},
			[]string{"result"},
		),
		GateFailOpenTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "reelbrief_gate_fail_open_total",
				Help: "Requests allowed because the gate hit an internal error",
			},
		),
		ProviderFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelbrief_provider_fetches_total",
				Help: "Outbound Stripe subscription fetches by outcome",
			},
			[]string{"outcome"},
		),
		ProviderFetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reelbrief_provider_fetch_duration_seconds",
				Help:    "Latency of outbound Stripe subscription fetches",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
	}
}

// ObserveWebhook records a webhook processing result.
func (m *Metrics) ObserveWebhook(eventType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(eventType, outcome).Inc()
	m.WebhookDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// ObserveDuplicate records a deduplicated webhook delivery.
func (m *Metrics) ObserveDuplicate(eventType string) {
	if m == nil {
		return
	}
	m.DuplicateEventsTotal.WithLabelValues(eventType).Inc()
}

// ObserveUnhandled records an acknowledged-but-ignored event type.
func (m *Metrics) ObserveUnhandled(eventType string) {
	if m == nil {
		return
	}
	m.UnhandledEventsTotal.WithLabelValues(eventType).Inc()
}

// ObserveAccessCheck records a gate decision.
func (m *Metrics) ObserveAccessCheck(result string) {
	if m == nil {
		return
	}
	m.AccessChecksTotal.WithLabelValues(result).Inc()
}

// ObserveGateFailOpen records a fail-open allowance.
func (m *Metrics) ObserveGateFailOpen() {
	if m == nil {
		return
	}
	m.GateFailOpenTotal.Inc()
}

// ObserveProviderFetch records an outbound Stripe fetch.
func (m *Metrics) ObserveProviderFetch(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ProviderFetchesTotal.WithLabelValues(outcome).Inc()
	m.ProviderFetchDuration.Observe(duration.Seconds())
}
