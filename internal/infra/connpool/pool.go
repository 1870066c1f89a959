package connpool

import (
	"context"
	"time"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/telemetry"
)

// Pool hands out backend connections, reusing a cached record while it is
// healthy and younger than the max age.
type Pool struct {
	cache     *Cache
	connector *Connector
	health    HealthProbe
	maxAge    time.Duration
	now       func() time.Time
	logger    *zap.Logger
	metrics   domain.Metrics
}

// PoolOptions configures a Pool.
type PoolOptions struct {
	Cache     *Cache
	Connector *Connector
	Health    HealthProbe
	MaxAge    time.Duration
	Now       func() time.Time
	Logger    *zap.Logger
	Metrics   domain.Metrics
}

func NewPool(opts PoolOptions) *Pool {
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
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = time.Duration(domain.DefaultMaxAgeSeconds) * time.Second
	}
	health := opts.Health
	if health == nil {
		health = &HealthChecker{Logger: logger}
	}
	return &Pool{
		cache:     opts.Cache,
		connector: opts.Connector,
		health:    health,
		maxAge:    maxAge,
		now:       now,
		logger:    logger.Named("pool"),
		metrics:   metrics,
	}
}

// Acquire returns a usable record for the backend, reconnecting when the
// cached one fails its health check or has expired.
func (p *Pool) Acquire(ctx context.Context, spec domain.BackendSpec) (*domain.ConnectionRecord, error) {
	label := spec.Identity.Label
	rec, ok := p.cache.Get(spec.Identity)
	if !ok {
		p.metrics.ObserveCacheDecision(label, domain.CacheDecisionMiss)
		return p.connector.Connect(ctx, spec)
	}

	healthy := p.health.Healthy(ctx, rec, label)
	age := rec.Age(p.now())
	expired := age >= p.maxAge
	if healthy && !expired {
		p.metrics.ObserveCacheDecision(label, domain.CacheDecisionReuse)
		p.logger.Debug("reusing cached connection",
			telemetry.BackendField(label),
			telemetry.EventField(telemetry.EventCacheReuse),
			telemetry.DurationField(age),
		)
		return rec, nil
	}

	decision := domain.CacheDecisionUnhealthy
	if expired {
		decision = domain.CacheDecisionExpired
	}
	p.metrics.ObserveCacheDecision(label, decision)
	p.logger.Info("evicting cached connection",
		telemetry.BackendField(label),
		telemetry.EventField(telemetry.EventCacheEvict),
		zap.String("reason", string(decision)),
		telemetry.DurationField(age),
	)
	p.cache.Evict(spec.Identity)
	return p.connector.Connect(ctx, spec)
}

// Reconnect evicts the cached record and connects again unconditionally.
func (p *Pool) Reconnect(ctx context.Context, spec domain.BackendSpec) (*domain.ConnectionRecord, error) {
	p.cache.Evict(spec.Identity)
	return p.connector.Connect(ctx, spec)
}

// Current returns the cached record for the identity without probing it.
func (p *Pool) Current(id domain.BackendIdentity) (*domain.ConnectionRecord, bool) {
	return p.cache.Get(id)
}

// Evict closes and removes the cached record for the identity.
func (p *Pool) Evict(id domain.BackendIdentity) bool {
	return p.cache.Evict(id)
}

// Size reports the number of cached connections.
func (p *Pool) Size() int {
	return p.cache.Len()
}

// Close releases every cached connection.
func (p *Pool) Close() {
	p.cache.CloseAll()
}
