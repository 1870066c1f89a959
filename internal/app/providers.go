package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"guardiangw/internal/app/chat"
	"guardiangw/internal/app/orchestrator"
	"guardiangw/internal/domain"
	"guardiangw/internal/infra/catalog"
	"guardiangw/internal/infra/connpool"
	"guardiangw/internal/infra/credentials"
	"guardiangw/internal/infra/generation"
	"guardiangw/internal/infra/stream"
	"guardiangw/internal/infra/telemetry"
	"guardiangw/internal/infra/transport"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewCatalogLoader(logger *zap.Logger) *catalog.Loader {
	return catalog.NewLoader(logger)
}

// NewTokenStore opens the persistent token store. An empty path disables
// persistence and yields a nil store.
func NewTokenStore(cfg domain.GatewayConfig, logger *zap.Logger) (*credentials.TokenStore, func(), error) {
	if cfg.TokenStorePath == "" {
		return nil, func() {}, nil
	}
	store, err := credentials.OpenTokenStore(cfg.TokenStorePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("token store opened", zap.String("path", store.Path()))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("token store close failed", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

func NewCredentialResolver(store *credentials.TokenStore, logger *zap.Logger) *credentials.Resolver {
	opts := credentials.ResolverOptions{Logger: logger}
	if store != nil {
		opts.Store = store
	}
	return credentials.NewResolver(opts)
}

func NewMCPOpener(logger *zap.Logger) *transport.MCPOpener {
	return transport.NewMCPOpener(transport.MCPOpenerOptions{
		Logger:     logger,
		MaxRetries: domain.DefaultStreamableHTTPMaxRetries,
	})
}

func NewConnectionCache(logger *zap.Logger, metrics domain.Metrics) *connpool.Cache {
	return connpool.NewCache(connpool.CacheOptions{
		Logger:  logger,
		Metrics: metrics,
	})
}

func NewConnector(
	opener *transport.MCPOpener,
	cache *connpool.Cache,
	cfg domain.GatewayConfig,
	logger *zap.Logger,
	metrics domain.Metrics,
) *connpool.Connector {
	return connpool.NewConnector(connpool.ConnectorOptions{
		Opener:  opener,
		Cache:   cache,
		Timeout: cfg.Timeouts.ConnectTimeout(),
		Logger:  logger,
		Metrics: metrics,
	})
}

func NewHealthChecker(cfg domain.GatewayConfig, logger *zap.Logger) *connpool.HealthChecker {
	return &connpool.HealthChecker{
		Timeout: cfg.Timeouts.HealthCheckTimeout(),
		Logger:  logger,
	}
}

func NewConnectionPool(
	cache *connpool.Cache,
	connector *connpool.Connector,
	health *connpool.HealthChecker,
	cfg domain.GatewayConfig,
	logger *zap.Logger,
	metrics domain.Metrics,
) (*connpool.Pool, func()) {
	pool := connpool.NewPool(connpool.PoolOptions{
		Cache:     cache,
		Connector: connector,
		Health:    health,
		MaxAge:    cfg.Timeouts.MaxAge(),
		Logger:    logger,
		Metrics:   metrics,
	})
	return pool, pool.Close
}

func NewOrchestrator(pool *connpool.Pool, cfg domain.GatewayConfig, logger *zap.Logger, metrics domain.Metrics) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Options{
		Pool:        pool,
		ToolTimeout: cfg.Timeouts.ToolTimeout(),
		Logger:      logger,
		Metrics:     metrics,
	})
}

func NewModelFactory(cfg domain.GatewayConfig) *generation.ModelFactory {
	return generation.NewModelFactory(cfg.Model)
}

func NewGenerator(models *generation.ModelFactory, logger *zap.Logger) *generation.EinoGenerator {
	return generation.NewEinoGenerator(generation.GeneratorOptions{
		Models: models,
		Logger: logger,
	})
}

func NewMultiplexer(cfg domain.GatewayConfig, logger *zap.Logger, metrics domain.Metrics) *stream.Multiplexer {
	return stream.NewMultiplexer(stream.MultiplexerOptions{
		Heartbeat:     cfg.Timeouts.HeartbeatInterval(),
		GlobalTimeout: cfg.Timeouts.GlobalConnectTimeout(),
		MaxSteps:      cfg.MaxSteps,
		Logger:        logger,
		Metrics:       metrics,
	})
}

func NewChatHandler(
	holder *ConfigHolder,
	connector *orchestrator.Orchestrator,
	streamer *stream.Multiplexer,
	generator *generation.EinoGenerator,
	resolver *credentials.Resolver,
	logger *zap.Logger,
) *chat.Handler {
	return chat.NewHandler(chat.HandlerOptions{
		Config:      holder.Load,
		Connector:   connector,
		Streamer:    streamer,
		Generator:   generator,
		Credentials: resolver,
		Logger:      logger,
	})
}
