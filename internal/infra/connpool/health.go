package connpool

import (
	"context"
	"time"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/deadline"
	"guardiangw/internal/infra/telemetry"
)

// HealthProbe reports whether a cached record is still usable.
type HealthProbe interface {
	Healthy(ctx context.Context, rec *domain.ConnectionRecord, label string) bool
}

// HealthChecker probes a record by listing its tools.
type HealthChecker struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// Healthy never fails; any probe error or timeout reports false.
func (h *HealthChecker) Healthy(ctx context.Context, rec *domain.ConnectionRecord, label string) bool {
	if rec == nil || rec.Session == nil {
		return false
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultHealthCheckTimeoutSeconds) * time.Second
	}

	_, err := deadline.Run(ctx, timeout, rec.Session.ListTools)
	if err != nil {
		logger := h.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Warn("health check failed",
			telemetry.BackendField(label),
			telemetry.EventField(telemetry.EventHealthCheckFailure),
			zap.Error(err),
		)
		return false
	}
	return true
}

var _ HealthProbe = (*HealthChecker)(nil)
