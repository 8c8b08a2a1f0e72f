package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Payment notifications handled, by final ledger status and reason",
	}, []string{"status", "reason"})

	WebhookDuplicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicates_total",
		Help: "Payment notifications short-circuited as duplicates",
	}, []string{"prior_status"})

	WebhookStockConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_stock_conflicts_total",
		Help: "Approved payments whose order was cancelled for insufficient stock",
	})

	PaymentFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_fetch_duration_seconds",
		Help:    "Latency of payment detail lookups against the provider",
		Buckets: prometheus.DefBuckets,
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created at checkout",
	})

	LoginThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_login_throttled_total",
		Help: "Admin login attempts rejected by the rate limiter",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
