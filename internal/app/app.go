package app

import (
	"context"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/catalog"
)

type App struct {
	logger *zap.Logger
}

type ServeConfig struct {
	ConfigPath string
	// ListenAddress overrides the configured chat listener when set.
	ListenAddress string
}

type ValidateConfig struct {
	ConfigPath string
}

func New(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		logger: logger,
	}
}

// Serve loads the configuration, wires the gateway and blocks until ctx is
// canceled.
func (a *App) Serve(ctx context.Context, cfg ServeConfig) error {
	gateway, err := a.load(ctx, cfg.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.ListenAddress != "" {
		gateway.ListenAddress = cfg.ListenAddress
	}

	application, cleanup, err := InitializeApplication(ctx, cfg, gateway, LoggingConfig{Logger: a.logger})
	if err != nil {
		return err
	}
	defer cleanup()

	return application.Run()
}

// ValidateConfig validates the configuration at the provided path.
func (a *App) ValidateConfig(ctx context.Context, cfg ValidateConfig) error {
	gateway, err := a.load(ctx, cfg.ConfigPath)
	if err != nil {
		return err
	}

	enabled := 0
	for _, backend := range gateway.Backends {
		if backend.Enabled {
			enabled++
		}
	}
	a.logger.Named("app").Info("configuration validated",
		zap.String("config", cfg.ConfigPath),
		zap.Int("backends", len(gateway.Backends)),
		zap.Int("enabled", enabled),
	)
	return nil
}

// load reads the file at path, or returns defaults when no path is given.
func (a *App) load(ctx context.Context, path string) (domain.GatewayConfig, error) {
	loader := catalog.NewLoader(a.logger)
	if path == "" {
		return loader.Parse(ctx, nil, "")
	}
	return loader.Load(ctx, path)
}
