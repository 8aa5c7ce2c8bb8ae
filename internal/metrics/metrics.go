// Package metrics holds the Prometheus collectors shared by the HTTP layer
// and the services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_errors_total",
			Help: "Total number of HTTP responses with status >= 400",
		},
		[]string{"method", "route", "status"},
	)

	// Passcode metrics
	OTPIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_otp_issued_total",
			Help: "Total number of passcodes issued",
		},
	)

	OTPVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_otp_verifications_total",
			Help: "Passcode verification attempts by result",
		},
		[]string{"result"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_notifications_total",
			Help: "Outbound notifications by kind and result",
		},
		[]string{"kind", "result"},
	)

	// Business metrics
	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_sessions_created_total",
			Help: "Total number of training sessions scheduled",
		},
	)

	PaymentsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_payments_completed_total",
			Help: "Total number of payments marked completed",
		},
	)

	PaymentsRefundedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_payments_refunded_total",
			Help: "Total number of payments refunded",
		},
	)
)

// Result labels for OTPVerificationsTotal and NotificationsTotal.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)
