package telemetry

import (
	"time"

	"guardiangw/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveConnect(_ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveCacheDecision(_ string, _ domain.CacheDecision) {}

func (n *NoopMetrics) ObserveToolCall(_ string, _ domain.ToolOutcome, _ time.Duration) {}

func (n *NoopMetrics) ObserveSession(_ domain.SessionState, _ time.Duration) {}

func (n *NoopMetrics) IncHeartbeats() {}

func (n *NoopMetrics) SetCachedConnections(_ int) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
