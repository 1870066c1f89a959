package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"guardiangw/internal/app/chat"
	"guardiangw/internal/domain"
	"guardiangw/internal/infra/catalog"
	"guardiangw/internal/infra/connpool"
	"guardiangw/internal/infra/telemetry"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Application wires the gateway runtime and its dependencies.
type Application struct {
	ctx        context.Context
	configPath string

	logger   *zap.Logger
	registry *prometheus.Registry
	health   *telemetry.HealthTracker
	config   *ConfigHolder
	loader   *catalog.Loader
	pool     *connpool.Pool
	chat     *chat.Handler
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context     context.Context
	ServeConfig ServeConfig
	Logger      *zap.Logger
	Registry    *prometheus.Registry
	Health      *telemetry.HealthTracker
	Config      *ConfigHolder
	Loader      *catalog.Loader
	Pool        *connpool.Pool
	Chat        *chat.Handler
}

// NewApplication constructs the gateway runtime.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		ctx:        ctx,
		configPath: opts.ServeConfig.ConfigPath,
		logger:     logger,
		registry:   opts.Registry,
		health:     opts.Health,
		config:     opts.Config,
		loader:     opts.Loader,
		pool:       opts.Pool,
		chat:       opts.Chat,
	}
}

// Run serves the chat endpoint and blocks until the context is canceled or
// the listener fails. In-flight chat streams get shutdownTimeout to finish.
func (a *Application) Run() error {
	cfg := a.config.Load()
	a.logger.Info("configuration loaded",
		zap.String("config", a.configPath),
		zap.Int("backends", len(cfg.Backends)),
		zap.String("model", cfg.Model.Default),
	)

	a.registerHealth()
	a.startWatcher()
	a.startObservability(cfg.Observability)

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           a.chat.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if err := telemetry.Serve(a.ctx, server, shutdownTimeout, a.logger.Named("chat_server")); err != nil {
		return fmt.Errorf("chat server failed: %w", err)
	}
	return nil
}

func (a *Application) registerHealth() {
	if a.health == nil {
		return
	}
	a.health.AddCheck("config", func() error {
		if len(a.config.Load().ListenAddress) == 0 {
			return errors.New("configuration not loaded")
		}
		return nil
	})
	if a.pool != nil {
		a.health.AddGauge("cached_connections", a.pool.Size)
	}
}

// startWatcher reloads per-request settings when the config file changes.
// Listener, timeouts and model wiring keep their startup values.
func (a *Application) startWatcher() {
	if a.configPath == "" || a.loader == nil {
		return
	}
	err := a.loader.Watch(a.ctx, a.configPath, func(next domain.GatewayConfig) {
		prev := a.config.Load()
		next.ListenAddress = prev.ListenAddress
		a.config.Store(next)
		a.logger.Info("configuration reloaded", zap.Int("backends", len(next.Backends)))
	})
	if err != nil {
		a.logger.Warn("config watcher start failed", zap.Error(err))
	}
}

func (a *Application) startObservability(cfg domain.ObservabilityConfig) {
	opts := telemetry.HTTPServerOptions{
		Addr:            cfg.ListenAddress,
		EnableMetrics:   cfg.Metrics,
		EnableHealthz:   cfg.Healthz,
		Health:          a.health,
		ShutdownTimeout: shutdownTimeout,
	}
	if a.registry != nil {
		opts.Registry = a.registry
	}
	go func() {
		if err := telemetry.StartHTTPServer(a.ctx, opts, a.logger); err != nil {
			a.logger.Warn("observability server failed", zap.Error(err))
		}
	}()
}
