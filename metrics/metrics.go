// Package metrics provides Prometheus metrics for the dosing bot:
//   - webhook_events_total: Counter with result label
//   - intents_total: Counter with kind label
//   - dose_calculations_total: Counter with outcome label
//   - warfarin_recommendations_total: Counter with outcome label
//   - reply_failures_total: Counter
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events received, by handling result",
		},
		[]string{"result"},
	)

	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intents_total",
			Help: "Classified user intents",
		},
		[]string{"kind"},
	)

	DoseCalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_calculations_total",
			Help: "Dose calculations, by outcome (success, rejected, error)",
		},
		[]string{"outcome"},
	)

	WarfarinRecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warfarin_recommendations_total",
			Help: "Warfarin titration recommendations, by outcome",
		},
		[]string{"outcome"},
	)

	ReplyFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reply_failures_total",
			Help: "Outbound reply deliveries that failed",
		},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)
)

func init() {
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(IntentsTotal)
	prometheus.MustRegister(DoseCalculationsTotal)
	prometheus.MustRegister(WarfarinRecommendationsTotal)
	prometheus.MustRegister(ReplyFailuresTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
}
