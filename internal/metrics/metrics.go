package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "travel"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and outcome.",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and outcome.",
			Buckets: []float64{
				0.01, 0.02, 0.05, 0.1, 0.2, 0.3, 0.5,
				0.8, 1.2, 2, 3, 5, 10,
			},
		},
		[]string{"route", "status"},
	)

	GatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Payment gateway calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	GatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_call_duration_seconds",
			Help:      "Payment gateway round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	ReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconcile_total",
			Help:      "Payment reconciliation results (completed, failed, pending, unchanged, error).",
		},
		[]string{"result"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Booking confirmation deliveries by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		GatewayCallsTotal,
		GatewayCallDuration,
		ReconcileTotal,
		NotificationsTotal,
	)
}

func IncRequest(route, method, status string) {
	RequestsTotal.WithLabelValues(route, method, status).Inc()
}

func ObserveRequest(route, status string, seconds float64) {
	RequestDuration.WithLabelValues(route, status).Observe(seconds)
}

func ObserveGatewayCall(op, outcome string, seconds float64) {
	GatewayCallsTotal.WithLabelValues(op, outcome).Inc()
	GatewayCallDuration.WithLabelValues(op).Observe(seconds)
}

func IncReconcile(result string) {
	ReconcileTotal.WithLabelValues(result).Inc()
}

func IncNotification(outcome string) {
	NotificationsTotal.WithLabelValues(outcome).Inc()
}
