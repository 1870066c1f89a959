package domain

import "time"

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

// ToolTimeout bounds one tool invocation attempt.
func (c TimeoutConfig) ToolTimeout() time.Duration {
	return seconds(c.ToolSeconds, DefaultToolTimeoutSeconds)
}

// ConnectTimeout bounds each connector step.
func (c TimeoutConfig) ConnectTimeout() time.Duration {
	return seconds(c.ConnectSeconds, DefaultConnectTimeoutSeconds)
}

// HealthCheckTimeout bounds the liveness probe.
func (c TimeoutConfig) HealthCheckTimeout() time.Duration {
	return seconds(c.HealthCheckSeconds, DefaultHealthCheckTimeoutSeconds)
}

// MaxAge is the lifetime after which a cached connection is replaced.
func (c TimeoutConfig) MaxAge() time.Duration {
	return seconds(c.MaxAgeSeconds, DefaultMaxAgeSeconds)
}

// GlobalConnectTimeout bounds the whole connect phase of a session.
func (c TimeoutConfig) GlobalConnectTimeout() time.Duration {
	return seconds(c.GlobalConnectSeconds, DefaultGlobalConnectSeconds)
}

// HeartbeatInterval is the keepalive period during the connect phase.
func (c TimeoutConfig) HeartbeatInterval() time.Duration {
	return seconds(c.HeartbeatSeconds, DefaultHeartbeatSeconds)
}
