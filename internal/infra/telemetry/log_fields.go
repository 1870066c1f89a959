package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldBackend    = "backend"
	FieldAddress    = "address"
	FieldTool       = "tool"
	FieldTransport  = "transport"
	FieldState      = "state"
	FieldDurationMs = "duration_ms"
	FieldAttempt    = "attempt"
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
)

const (
	EventConnectAttempt       = "connect_attempt"
	EventConnectSuccess       = "connect_success"
	EventConnectFailure       = "connect_failure"
	EventDiscoveryFailure     = "discovery_failure"
	EventHealthCheckFailure   = "health_check_failure"
	EventCacheReuse           = "cache_reuse"
	EventCacheEvict           = "cache_evict"
	EventToolRetry            = "tool_retry"
	EventToolFailure          = "tool_failure"
	EventGlobalConnectTimeout = "global_connect_timeout"
	EventSessionEnd           = "session_end"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func BackendField(label string) zap.Field {
	return zap.String(FieldBackend, label)
}

func AddressField(address string) zap.Field {
	return zap.String(FieldAddress, address)
}

func ToolField(name string) zap.Field {
	return zap.String(FieldTool, name)
}

func TransportField(kind string) zap.Field {
	return zap.String(FieldTransport, kind)
}

func StateField(state string) zap.Field {
	return zap.String(FieldState, state)
}

func AttemptField(attempt int) zap.Field {
	return zap.Int(FieldAttempt, attempt)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
