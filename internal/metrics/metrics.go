// Package metrics exposes Prometheus metrics for the messaging pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Messaging metrics
	MessagesCreatedTotal      prometheus.Counter
	BroadcastFanout           prometheus.Histogram
	ReceiptTransitions        *prometheus.CounterVec
	ReceiptRegressionsIgnored prometheus.Counter

	// WebSocket metrics
	ActiveConnections prometheus.Gauge
	EventsSentTotal   *prometheus.CounterVec
	SendDropsTotal    prometheus.Counter

	// Translation metrics
	TranslationsTotal   *prometheus.CounterVec
	TranslationFailures prometheus.Counter
	TranslationSkips    prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			MessagesCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "chat_messages_created_total",
				Help: "Total number of persisted chat messages",
			}),
			BroadcastFanout: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "chat_broadcast_fanout_connections",
				Help:    "Connections notified per room broadcast",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			}),
			ReceiptTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "chat_receipt_transitions_total",
				Help: "Delivery receipt transitions by resulting state",
			}, []string{"state"}),
			ReceiptRegressionsIgnored: promauto.NewCounter(prometheus.CounterOpts{
				Name: "chat_receipt_regressions_ignored_total",
				Help: "Receipt updates ignored because they would regress state",
			}),
			ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "chat_websocket_active_connections",
				Help: "Currently open WebSocket connections",
			}),
			EventsSentTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "chat_websocket_events_sent_total",
				Help: "WebSocket events written to clients by type",
			}, []string{"type"}),
			SendDropsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "chat_websocket_send_drops_total",
				Help: "Events dropped because a client send buffer was full",
			}),
			TranslationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "chat_translations_total",
				Help: "Translation gateway calls by outcome",
			}, []string{"outcome"}),
			TranslationFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "chat_translation_failures_total",
				Help: "Provider failures absorbed by the translation gateway",
			}),
			TranslationSkips: promauto.NewCounter(prometheus.CounterOpts{
				Name: "chat_translation_skips_total",
				Help: "Translations skipped because source and target language match",
			}),
			HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "chat_http_requests_total",
				Help: "HTTP requests by method, route and status",
			}, []string{"method", "route", "status"}),
			HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "chat_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route", "status"}),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
