// Package metrics exposes client counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the voice client. Each
// instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	// Audio pipeline
	FramesSent    prometheus.Counter
	BytesSent     prometheus.Counter
	BlocksDropped prometheus.Counter

	// Channel
	ConnectAttempts *prometheus.CounterVec
	Disconnects     prometheus.Counter
	Connected       prometheus.Gauge

	// Session
	Recording      prometheus.Gauge
	Intents        *prometheus.CounterVec
	IntentDuration prometheus.Histogram
	Notices        *prometheus.CounterVec
	Transcripts    prometheus.Counter

	// HTTP API
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all client metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "speaksee_audio_frames_sent_total",
			Help: "Total number of PCM16 frames queued on the channel",
		}),
		BytesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "speaksee_audio_bytes_sent_total",
			Help: "Total PCM16 payload bytes queued on the channel",
		}),
		BlocksDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "speaksee_audio_blocks_dropped_total",
			Help: "Capture blocks dropped because the event loop was behind",
		}),

		ConnectAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "speaksee_channel_connect_attempts_total",
			Help: "Channel dial attempts by result",
		}, []string{"result"}),
		Disconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "speaksee_channel_disconnects_total",
			Help: "Channel connections lost",
		}),
		Connected: f.NewGauge(prometheus.GaugeOpts{
			Name: "speaksee_channel_connected",
			Help: "1 while the channel is open",
		}),

		Recording: f.NewGauge(prometheus.GaugeOpts{
			Name: "speaksee_session_recording",
			Help: "1 while an utterance is being recorded",
		}),
		Intents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "speaksee_session_intents_total",
			Help: "User intents applied by name and result",
		}, []string{"intent", "result"}),
		IntentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "speaksee_session_intent_duration_seconds",
			Help:    "Time from intent submission to completion on the event loop",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
		}),
		Notices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "speaksee_session_notices_total",
			Help: "Notices shown to the user by canonical code",
		}, []string{"code"}),
		Transcripts: f.NewCounter(prometheus.CounterOpts{
			Name: "speaksee_session_transcripts_total",
			Help: "Finalized transcripts received",
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "speaksee_http_requests_total",
			Help: "Local API requests by path and status code",
		}, []string{"path", "status_code"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFrame counts one outbound audio frame of n bytes.
func (m *Metrics) RecordFrame(n int) {
	m.FramesSent.Inc()
	m.BytesSent.Add(float64(n))
}

// RecordConnect counts a dial attempt.
func (m *Metrics) RecordConnect(err error) {
	if err != nil {
		m.ConnectAttempts.WithLabelValues("error").Inc()
		return
	}
	m.ConnectAttempts.WithLabelValues("ok").Inc()
}

// RecordIntent counts an applied intent and its latency.
func (m *Metrics) RecordIntent(name string, err error, seconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Intents.WithLabelValues(name, result).Inc()
	m.IntentDuration.Observe(seconds)
}

// RecordNotice counts a notice. Informational notices carry no code.
func (m *Metrics) RecordNotice(code string) {
	if code == "" {
		code = "OK"
	}
	m.Notices.WithLabelValues(code).Inc()
}

// SetSession mirrors the latest snapshot's flags.
func (m *Metrics) SetSession(connected, recording bool) {
	m.Connected.Set(boolGauge(connected))
	m.Recording.Set(boolGauge(recording))
}

// RecordHTTPRequest counts a local API request.
func (m *Metrics) RecordHTTPRequest(path, statusCode string) {
	m.HTTPRequests.WithLabelValues(path, statusCode).Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
