package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"guardiangw/internal/domain"
)

type PrometheusMetrics struct {
	connectDuration   *prometheus.HistogramVec
	cacheDecisions    *prometheus.CounterVec
	toolCallDuration  *prometheus.HistogramVec
	sessionDuration   *prometheus.HistogramVec
	heartbeats        prometheus.Counter
	cachedConnections prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		connectDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardiangw_backend_connect_duration_seconds",
				Help:    "Duration of backend connect and tool discovery in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"backend", "status"},
		),
		cacheDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guardiangw_connection_cache_decisions_total",
				Help: "Total number of connection cache decisions by outcome",
			},
			[]string{"backend", "decision"},
		),
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardiangw_tool_call_duration_seconds",
				Help:    "Duration of tool calls including any retry in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"backend", "outcome"},
		),
		sessionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guardiangw_chat_session_duration_seconds",
				Help:    "Duration of chat streaming sessions by terminal state",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"state"},
		),
		heartbeats: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "guardiangw_stream_heartbeats_total",
				Help: "Total number of keep-alive pings written during connect",
			},
		),
		cachedConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "guardiangw_cached_connections",
				Help: "Current number of cached backend connections",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveConnect(label string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.connectDuration.WithLabelValues(label, status).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveCacheDecision(label string, decision domain.CacheDecision) {
	p.cacheDecisions.WithLabelValues(label, string(decision)).Inc()
}

func (p *PrometheusMetrics) ObserveToolCall(label string, outcome domain.ToolOutcome, duration time.Duration) {
	p.toolCallDuration.WithLabelValues(label, string(outcome)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveSession(state domain.SessionState, duration time.Duration) {
	p.sessionDuration.WithLabelValues(string(state)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) IncHeartbeats() {
	p.heartbeats.Inc()
}

func (p *PrometheusMetrics) SetCachedConnections(count int) {
	p.cachedConnections.Set(float64(count))
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
