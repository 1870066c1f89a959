package connpool

import (
	"context"
	"time"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/deadline"
	"guardiangw/internal/infra/telemetry"
)

// Opener establishes a transport session to a backend.
type Opener interface {
	Open(ctx context.Context, spec domain.BackendSpec) (domain.Session, error)
}

// Connector opens a fresh session, discovers its tools and records it in the
// cache.
type Connector struct {
	opener  Opener
	cache   *Cache
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics domain.Metrics
}

// ConnectorOptions configures a Connector.
type ConnectorOptions struct {
	Opener  Opener
	Cache   *Cache
	Timeout time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
	Metrics domain.Metrics
}

func NewConnector(opts ConnectorOptions) *Connector {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultConnectTimeoutSeconds) * time.Second
	}
	return &Connector{
		opener:  opts.Opener,
		cache:   opts.Cache,
		timeout: timeout,
		now:     now,
		logger:  logger.Named("connector"),
		metrics: metrics,
	}
}

// Connect replaces any cached record for the identity with a new one. The
// connect timeout bounds the open and discovery steps separately; a session
// that opens after its deadline is closed.
func (c *Connector) Connect(ctx context.Context, spec domain.BackendSpec) (*domain.ConnectionRecord, error) {
	label := spec.Identity.Label
	transport := spec.EffectiveTransport()
	started := time.Now()
	logger := telemetry.LoggerWithRequest(ctx, c.logger).With(
		telemetry.BackendField(label),
		telemetry.AddressField(spec.Identity.Address),
		telemetry.TransportField(string(transport)),
	)
	logger.Debug("connecting backend", telemetry.EventField(telemetry.EventConnectAttempt))

	session, err := deadline.RunDiscard(ctx, c.timeout,
		func(ctx context.Context) (domain.Session, error) {
			return c.opener.Open(ctx, spec)
		},
		func(late domain.Session) {
			if late != nil {
				_ = late.Close()
			}
		},
	)
	if err != nil {
		connectErr := &domain.ConnectError{Backend: label, Stage: domain.ConnectStageOpen, Err: err}
		c.fail(logger, label, connectErr, started, telemetry.EventConnectFailure)
		return nil, connectErr
	}

	tools, err := deadline.Run(ctx, c.timeout, session.ListTools)
	if err != nil {
		_ = session.Close()
		connectErr := &domain.ConnectError{Backend: label, Stage: domain.ConnectStageDiscover, Err: err}
		c.fail(logger, label, connectErr, started, telemetry.EventDiscoveryFailure)
		return nil, connectErr
	}

	byName := make(map[string]domain.Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Spec().Name] = tool
	}
	rec := &domain.ConnectionRecord{
		Identity:  spec.Identity,
		Transport: transport,
		Session:   session,
		Tools:     byName,
		CreatedAt: c.now(),
	}
	if c.cache != nil {
		c.cache.Put(rec)
	}

	duration := time.Since(started)
	c.metrics.ObserveConnect(label, duration, nil)
	logger.Info("backend connected",
		telemetry.EventField(telemetry.EventConnectSuccess),
		zap.Int("tools", len(byName)),
		telemetry.DurationField(duration),
	)
	return rec, nil
}

func (c *Connector) fail(logger *zap.Logger, label string, err error, started time.Time, event string) {
	duration := time.Since(started)
	c.metrics.ObserveConnect(label, duration, err)
	logger.Warn("backend connect failed",
		telemetry.EventField(event),
		telemetry.DurationField(duration),
		zap.Error(err),
	)
}
