package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)
	HandlerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_handler_panics_total",
			Help: "Panics recovered from HTTP handlers",
		},
	)

	// Checkout
	CheckoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout attempts by payment type and result",
		},
		[]string{"payment_type", "result"}, // direct|intent, success|failure|replay
	)
	CheckoutErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_errors_total",
			Help: "Failed checkouts by error code",
		},
		[]string{"code"},
	)

	// Webhooks
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_total",
			Help: "Processed gateway webhooks by result",
		},
		[]string{"result"}, // applied|stale|invalid_payload|invalid_signature|not_found|error
	)
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_status_transitions_total",
			Help: "Transactions reaching a terminal status",
		},
		[]string{"status"},
	)

	// Reconciler
	ReconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_runs_total",
			Help: "Stale transaction reconciliation passes",
		},
		[]string{"result"},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(HTTPLatency, HTTPInFlight, HandlerPanics)
		prometheus.MustRegister(CheckoutsTotal)
		prometheus.MustRegister(CheckoutErrors)
		prometheus.MustRegister(WebhooksTotal)
		prometheus.MustRegister(StatusTransitions)
		prometheus.MustRegister(ReconcileRuns)
		prometheus.MustRegister(WorkerQueueDepth)
	})
}
