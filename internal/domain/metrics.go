package domain

import "time"

// CacheDecision labels what an acquisition did with the cached record.
type CacheDecision string

const (
	// CacheDecisionMiss indicates no record was cached.
	CacheDecisionMiss CacheDecision = "miss"
	// CacheDecisionReuse indicates the cached record was returned.
	CacheDecisionReuse CacheDecision = "reuse"
	// CacheDecisionUnhealthy indicates the health probe failed.
	CacheDecisionUnhealthy CacheDecision = "unhealthy"
	// CacheDecisionExpired indicates the record reached its max age.
	CacheDecisionExpired CacheDecision = "expired"
)

// ToolOutcome labels how a resilient tool call ended.
type ToolOutcome string

const (
	// ToolOutcomeSuccess indicates the first attempt succeeded.
	ToolOutcomeSuccess ToolOutcome = "success"
	// ToolOutcomeRetried indicates the retry after reconnect succeeded.
	ToolOutcomeRetried ToolOutcome = "retried"
	// ToolOutcomeFailed indicates the original error surfaced.
	ToolOutcomeFailed ToolOutcome = "failed"
	// ToolOutcomeInvalid indicates the arguments failed schema validation.
	ToolOutcomeInvalid ToolOutcome = "invalid"
)

// Metrics records operational metrics for the gateway.
type Metrics interface {
	ObserveConnect(label string, duration time.Duration, err error)
	ObserveCacheDecision(label string, decision CacheDecision)
	ObserveToolCall(label string, outcome ToolOutcome, duration time.Duration)
	ObserveSession(state SessionState, duration time.Duration)
	IncHeartbeats()
	SetCachedConnections(count int)
}
