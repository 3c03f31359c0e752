// Package metrics exposes Prometheus metrics for the voice gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the gateway.
type Metrics struct {
	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	SessionDuration prometheus.Histogram

	// Frame metrics
	FramesReceived prometheus.Counter
	BytesReceived  prometheus.Counter

	// Turn-taking metrics
	PauseEvents   *prometheus.CounterVec // path: timer, immediate, flush
	Dispatches    prometheus.Counter
	DispatchDrops *prometheus.CounterVec // reason: busy, short

	// Pipeline metrics
	StageFailures prometheus.Counter
	StageDuration *prometheus.HistogramVec // stage: transcribe, generate, synthesize

	// Response metrics
	ResponseBytes  prometheus.Histogram
	ResponseChunks prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on reg. Tests pass their own registry so
// repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicebridge_active_sessions",
			Help: "Current number of connected voice sessions",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_sessions_started_total",
			Help: "Total number of sessions opened",
		}),
		SessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_sessions_ended_total",
			Help: "Total number of sessions closed",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebridge_session_duration_seconds",
			Help:    "Duration of voice sessions",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_frames_received_total",
			Help: "Total number of inbound audio frames",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_bytes_received_total",
			Help: "Total inbound audio bytes",
		}),
		PauseEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebridge_pause_events_total",
			Help: "Pause events by detection path",
		}, []string{"path"}),
		Dispatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_dispatches_total",
			Help: "Total pipeline dispatches",
		}),
		DispatchDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicebridge_dispatch_drops_total",
			Help: "Pause events that did not dispatch, by reason",
		}, []string{"reason"}),
		StageFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_stage_failures_total",
			Help: "Pipeline stage calls that failed or returned nothing",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicebridge_stage_duration_seconds",
			Help:    "Duration of collaborator calls by stage",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"stage"}),
		ResponseBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicebridge_response_bytes",
			Help:    "Size of synthesized responses in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to ~16MiB
		}),
		ResponseChunks: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicebridge_response_chunks_total",
			Help: "Total outbound response chunks sent",
		}),
	}
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() {
	m.ActiveSessions.Inc()
	m.SessionsStarted.Inc()
}

// SessionClosed records a finished session and its duration.
func (m *Metrics) SessionClosed(durationSeconds float64) {
	m.ActiveSessions.Dec()
	m.SessionsEnded.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// FrameReceived records one inbound frame.
func (m *Metrics) FrameReceived(bytes int) {
	m.FramesReceived.Inc()
	m.BytesReceived.Add(float64(bytes))
}

// PauseEvent records a pause by detection path.
func (m *Metrics) PauseEvent(path string) {
	m.PauseEvents.WithLabelValues(path).Inc()
}

// DispatchStarted records a pipeline dispatch.
func (m *Metrics) DispatchStarted() {
	m.Dispatches.Inc()
}

// DispatchDropped records a pause event that did not dispatch.
func (m *Metrics) DispatchDropped(reason string) {
	m.DispatchDrops.WithLabelValues(reason).Inc()
}

// StageObserved records a collaborator call outcome.
func (m *Metrics) StageObserved(stage string, seconds float64, ok bool) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
	if !ok {
		m.StageFailures.Inc()
	}
}

// ResponseSent records a delivered response.
func (m *Metrics) ResponseSent(bytes, chunks int) {
	m.ResponseBytes.Observe(float64(bytes))
	m.ResponseChunks.Add(float64(chunks))
}
