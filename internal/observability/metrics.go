package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

var (
	// ActiveCalls tracks websocket calls currently in progress.
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "saheli_active_calls",
		Help: "Number of voice calls currently connected.",
	})

	// CallEvents counts call lifecycle transitions by event name.
	CallEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saheli_call_events_total",
		Help: "Call lifecycle events (started, ended, expired, interrupted).",
	}, []string{"event"})

	// WSMessages counts websocket traffic by direction and message type.
	WSMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saheli_ws_messages_total",
		Help: "Websocket messages processed, by direction and type.",
	}, []string{"direction", "type"})

	// GatewayErrors counts upstream failures by gateway name.
	GatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saheli_gateway_errors_total",
		Help: "Upstream gateway failures, by gateway.",
	}, []string{"gateway"})

	// TurnStageSeconds measures per-stage latency of a completed turn.
	TurnStageSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "saheli_turn_stage_seconds",
		Help:    "Latency of each pipeline stage within a turn.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"stage"})

	// FirstAudioSeconds measures endpoint-to-first-audio latency per turn.
	FirstAudioSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "saheli_first_audio_seconds",
		Help:    "Time from utterance endpoint to first audio frame sent.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
	})
)
