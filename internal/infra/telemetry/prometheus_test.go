package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardiangw/internal/domain"
)

func TestNewPrometheusMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveConnect("Guardian", 20*time.Millisecond, nil)
	m.ObserveCacheDecision("Guardian", domain.CacheDecisionReuse)
	m.ObserveToolCall("Guardian", domain.ToolOutcomeSuccess, 5*time.Millisecond)
	m.ObserveSession(domain.SessionDone, time.Second)
	m.IncHeartbeats()
	m.SetCachedConnections(2)

	metrics, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.GetName())
	}

	assert.Contains(t, names, "guardiangw_backend_connect_duration_seconds")
	assert.Contains(t, names, "guardiangw_connection_cache_decisions_total")
	assert.Contains(t, names, "guardiangw_tool_call_duration_seconds")
	assert.Contains(t, names, "guardiangw_chat_session_duration_seconds")
	assert.Contains(t, names, "guardiangw_stream_heartbeats_total")
	assert.Contains(t, names, "guardiangw_cached_connections")
}

func TestPrometheusMetrics_CacheDecisionsByLabel(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.ObserveCacheDecision("Guardian", domain.CacheDecisionMiss)
	m.ObserveCacheDecision("Guardian", domain.CacheDecisionReuse)
	m.ObserveCacheDecision("Guardian", domain.CacheDecisionReuse)
	m.ObserveCacheDecision("Tunnel", domain.CacheDecisionExpired)

	assert.Equal(t, float64(2), counterValue(t, m.cacheDecisions.WithLabelValues("Guardian", "reuse")))
	assert.Equal(t, float64(1), counterValue(t, m.cacheDecisions.WithLabelValues("Guardian", "miss")))
	assert.Equal(t, float64(1), counterValue(t, m.cacheDecisions.WithLabelValues("Tunnel", "expired")))
}

func TestPrometheusMetrics_ObserveConnectStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)

	tests := []struct {
		name string
		err  error
	}{
		{name: "success"},
		{name: "error", err: errors.New("refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				m.ObserveConnect("Guardian", 10*time.Millisecond, tt.err)
			})
		})
	}

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "guardiangw_backend_connect_duration_seconds" {
			assert.Len(t, family.GetMetric(), 2)
		}
	}
}

func TestPrometheusMetrics_Gauges(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.SetCachedConnections(3)
	m.IncHeartbeats()
	m.IncHeartbeats()

	var gauge dto.Metric
	require.NoError(t, m.cachedConnections.Write(&gauge))
	assert.Equal(t, float64(3), gauge.GetGauge().GetValue())
	assert.Equal(t, float64(2), counterValue(t, m.heartbeats))
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestNoopMetrics_ImplementsInterface(t *testing.T) {
	var metrics domain.Metrics = NewNoopMetrics()
	assert.NotPanics(t, func() {
		metrics.ObserveConnect("Guardian", time.Second, nil)
		metrics.SetCachedConnections(1)
	})
}
